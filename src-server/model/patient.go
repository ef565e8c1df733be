package model

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

type Patient struct {
	bun.BaseModel `bun:"table:patients"`

	ID       string `bun:"id,pk"`             // required
	CircleID string `bun:"circle_id,notnull"` // required
	FullName string `bun:"full_name,notnull"` // required

	CreatedAtUnixUTC int64 `bun:"created_at,notnull"`

	Circle *Circle `bun:"rel:belongs-to,join:circle_id=id"`
}

func (p *Patient) Upsert(ctx context.Context, db bun.IDB) error {
	switch {
	case db == nil:
		return fmt.Errorf("(*Patient).Upsert: db is nil")
	case p.ID == "":
		return fmt.Errorf("(*Patient).Upsert: patient id is blank")
	case p.CircleID == "":
		return fmt.Errorf("(*Patient).Upsert: circle id is blank")
	case p.FullName == "":
		return fmt.Errorf("(*Patient).Upsert: full name is blank")
	}

	if _, err := db.NewInsert().
		Model(p).
		On("CONFLICT (id) DO UPDATE").
		Set("circle_id = EXCLUDED.circle_id").
		Set("full_name = EXCLUDED.full_name").
		Exec(ctx); err != nil {
		return fmt.Errorf("(*Patient).Upsert: can't upsert patient: %w", err)
	}

	return nil
}

// List the ids of patients that actually belong to the circle.
func PatientIDsInCircle(ctx context.Context, db bun.IDB, circleID string) ([]string, error) {
	patientModels := make([]Patient, 0)
	if err := db.NewSelect().
		Model(&patientModels).
		Column("id").
		Where("circle_id = ?", circleID).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("model.PatientIDsInCircle: %w", err)
	}
	ids := make([]string, 0, len(patientModels))
	for _, patientModel := range patientModels {
		ids = append(ids, patientModel.ID)
	}
	return ids, nil
}
