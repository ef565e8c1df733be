package model

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

const (
	SHIFT_STATUS_SCHEDULED   = "SCHEDULED"
	SHIFT_STATUS_IN_PROGRESS = "IN_PROGRESS"
	SHIFT_STATUS_COMPLETED   = "COMPLETED"
	SHIFT_STATUS_CANCELLED   = "CANCELLED"
)

// A caregiving shift. Unlike tasks and appointments, shifts carry their
// own real duration.
type Shift struct {
	bun.BaseModel `bun:"table:shifts"`

	ID        string `bun:"id,pk"`             // required
	CircleID  string `bun:"circle_id,notnull"` // required
	PatientID string `bun:"patient_id"`

	CaregiverName string `bun:"caregiver_name,notnull"` // required
	Status        string `bun:"status,notnull"`         // required
	Notes         string `bun:"notes"`

	StartsAtUnixUTC  int64 `bun:"starts_at,notnull"` // required
	EndsAtUnixUTC    int64 `bun:"ends_at,notnull"`   // required
	CreatedAtUnixUTC int64 `bun:"created_at,notnull"`

	Patient *Patient `bun:"rel:belongs-to,join:patient_id=id"`
}

func (s *Shift) Upsert(ctx context.Context, db bun.IDB) error {
	switch {
	case db == nil:
		return fmt.Errorf("(*Shift).Upsert: db is nil")
	case s.ID == "":
		return fmt.Errorf("(*Shift).Upsert: shift id is blank")
	case s.CircleID == "":
		return fmt.Errorf("(*Shift).Upsert: circle id is blank")
	case s.CaregiverName == "":
		return fmt.Errorf("(*Shift).Upsert: caregiver name is blank")
	case s.Status == "":
		return fmt.Errorf("(*Shift).Upsert: status is blank")
	case s.StartsAtUnixUTC == 0:
		return fmt.Errorf("(*Shift).Upsert: start time is blank")
	case s.EndsAtUnixUTC == 0:
		return fmt.Errorf("(*Shift).Upsert: end time is blank")
	case s.StartsAtUnixUTC > s.EndsAtUnixUTC:
		return fmt.Errorf("(*Shift).Upsert: start time must be before end time")
	}

	if _, err := db.NewInsert().
		Model(s).
		On("CONFLICT (id) DO UPDATE").
		Set("caregiver_name = EXCLUDED.caregiver_name").
		Set("status = EXCLUDED.status").
		Set("notes = EXCLUDED.notes").
		Set("starts_at = EXCLUDED.starts_at").
		Set("ends_at = EXCLUDED.ends_at").
		Set("patient_id = EXCLUDED.patient_id").
		Exec(ctx); err != nil {
		return fmt.Errorf("(*Shift).Upsert: can't upsert shift: %w", err)
	}

	return nil
}
