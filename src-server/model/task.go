package model

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

const (
	TASK_STATUS_OPEN      = "open"
	TASK_STATUS_COMPLETED = "completed"
)

type Task struct {
	bun.BaseModel `bun:"table:tasks"`

	ID       string `bun:"id,pk"`             // required
	CircleID string `bun:"circle_id,notnull"` // required
	// blank when the task isn't tied to a single patient
	PatientID string `bun:"patient_id"`

	Title    string `bun:"title,notnull"` // required
	Notes    string `bun:"notes"`
	Priority string `bun:"priority"`
	Status   string `bun:"status,notnull"` // required

	// 0 = no due date; such tasks never appear in a feed
	DueAtUnixUTC     int64 `bun:"due_at"`
	CreatedAtUnixUTC int64 `bun:"created_at,notnull"`

	Patient *Patient `bun:"rel:belongs-to,join:patient_id=id"`
}

func (t *Task) Upsert(ctx context.Context, db bun.IDB) error {
	switch {
	case db == nil:
		return fmt.Errorf("(*Task).Upsert: db is nil")
	case t.ID == "":
		return fmt.Errorf("(*Task).Upsert: task id is blank")
	case t.CircleID == "":
		return fmt.Errorf("(*Task).Upsert: circle id is blank")
	case t.Title == "":
		return fmt.Errorf("(*Task).Upsert: title is blank")
	case t.Status == "":
		return fmt.Errorf("(*Task).Upsert: status is blank")
	}

	if _, err := db.NewInsert().
		Model(t).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("notes = EXCLUDED.notes").
		Set("priority = EXCLUDED.priority").
		Set("status = EXCLUDED.status").
		Set("due_at = EXCLUDED.due_at").
		Set("patient_id = EXCLUDED.patient_id").
		Exec(ctx); err != nil {
		return fmt.Errorf("(*Task).Upsert: can't upsert task: %w", err)
	}

	return nil
}
