package model

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

const (
	HANDOFF_STATUS_PENDING = "pending"
	HANDOFF_STATUS_DONE    = "done"
)

// A caregiver-to-caregiver handoff with an optional follow-up time; the
// follow-up is what shows on the calendar.
type Handoff struct {
	bun.BaseModel `bun:"table:handoffs"`

	ID        string `bun:"id,pk"`             // required
	CircleID  string `bun:"circle_id,notnull"` // required
	PatientID string `bun:"patient_id"`

	FromCaregiver string `bun:"from_caregiver,notnull"` // required
	ToCaregiver   string `bun:"to_caregiver"`
	Notes         string `bun:"notes"`
	Status        string `bun:"status,notnull"` // required

	// 0 = no follow-up scheduled
	FollowUpAtUnixUTC int64 `bun:"follow_up_at"`
	CreatedAtUnixUTC  int64 `bun:"created_at,notnull"`

	Patient *Patient `bun:"rel:belongs-to,join:patient_id=id"`
}

func (h *Handoff) Upsert(ctx context.Context, db bun.IDB) error {
	switch {
	case db == nil:
		return fmt.Errorf("(*Handoff).Upsert: db is nil")
	case h.ID == "":
		return fmt.Errorf("(*Handoff).Upsert: handoff id is blank")
	case h.CircleID == "":
		return fmt.Errorf("(*Handoff).Upsert: circle id is blank")
	case h.FromCaregiver == "":
		return fmt.Errorf("(*Handoff).Upsert: from caregiver is blank")
	case h.Status == "":
		return fmt.Errorf("(*Handoff).Upsert: status is blank")
	}

	if _, err := db.NewInsert().
		Model(h).
		On("CONFLICT (id) DO UPDATE").
		Set("from_caregiver = EXCLUDED.from_caregiver").
		Set("to_caregiver = EXCLUDED.to_caregiver").
		Set("notes = EXCLUDED.notes").
		Set("status = EXCLUDED.status").
		Set("follow_up_at = EXCLUDED.follow_up_at").
		Set("patient_id = EXCLUDED.patient_id").
		Exec(ctx); err != nil {
		return fmt.Errorf("(*Handoff).Upsert: can't upsert handoff: %w", err)
	}

	return nil
}
