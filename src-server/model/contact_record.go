package model

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

const CONTACT_RECORD_TYPE_CONTACT = "contact"

// A binder record for a care contact (doctor, clinic, pharmacy). The
// Content column holds free-form JSON written by the mobile app; an
// embedded "next_appointment" timestamp is what puts the record on the
// calendar. Content is parsed defensively, never trusted.
type ContactRecord struct {
	bun.BaseModel `bun:"table:contact_records"`

	ID        string `bun:"id,pk"`             // required
	CircleID  string `bun:"circle_id,notnull"` // required
	PatientID string `bun:"patient_id"`

	RecordType string `bun:"record_type,notnull"` // required
	Title      string `bun:"title,notnull"`       // required, the contact's display name
	Content    string `bun:"content"`             // free-form JSON

	// 0 = active
	ArchivedAtUnixUTC int64 `bun:"archived_at"`
	CreatedAtUnixUTC  int64 `bun:"created_at,notnull"`

	Patient *Patient `bun:"rel:belongs-to,join:patient_id=id"`
}

func (c *ContactRecord) Upsert(ctx context.Context, db bun.IDB) error {
	switch {
	case db == nil:
		return fmt.Errorf("(*ContactRecord).Upsert: db is nil")
	case c.ID == "":
		return fmt.Errorf("(*ContactRecord).Upsert: record id is blank")
	case c.CircleID == "":
		return fmt.Errorf("(*ContactRecord).Upsert: circle id is blank")
	case c.RecordType == "":
		return fmt.Errorf("(*ContactRecord).Upsert: record type is blank")
	case c.Title == "":
		return fmt.Errorf("(*ContactRecord).Upsert: title is blank")
	}

	if _, err := db.NewInsert().
		Model(c).
		On("CONFLICT (id) DO UPDATE").
		Set("record_type = EXCLUDED.record_type").
		Set("title = EXCLUDED.title").
		Set("content = EXCLUDED.content").
		Set("archived_at = EXCLUDED.archived_at").
		Set("patient_id = EXCLUDED.patient_id").
		Exec(ctx); err != nil {
		return fmt.Errorf("(*ContactRecord).Upsert: can't upsert record: %w", err)
	}

	return nil
}
