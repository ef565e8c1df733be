package model

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// A care-coordination group; owns patients, tasks, shifts and feed tokens.
type Circle struct {
	bun.BaseModel `bun:"table:circles"`

	ID   string `bun:"id,pk"`        // required
	Name string `bun:"name,notnull"` // required

	CreatedAtUnixUTC int64 `bun:"created_at,notnull"`

	Patients []*Patient `bun:"rel:has-many,join:id=circle_id"`
}

func (c *Circle) Upsert(ctx context.Context, db bun.IDB) error {
	switch {
	case db == nil:
		return fmt.Errorf("(*Circle).Upsert: db is nil")
	case c.ID == "":
		return fmt.Errorf("(*Circle).Upsert: circle id is blank")
	case c.Name == "":
		return fmt.Errorf("(*Circle).Upsert: circle name is blank")
	}

	if _, err := db.NewInsert().
		Model(c).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Exec(ctx); err != nil {
		return fmt.Errorf("(*Circle).Upsert: can't upsert circle: %w", err)
	}

	return nil
}

// Fetch the display name for a circle. Unlike the event source reads,
// a failure here is unrecoverable for a feed request.
func CircleName(ctx context.Context, db bun.IDB, circleID string) (string, error) {
	circleModel := new(Circle)
	if err := db.NewSelect().
		Model(circleModel).
		Column("name").
		Where("id = ?", circleID).
		Scan(ctx); err != nil {
		return "", fmt.Errorf("model.CircleName: %w", err)
	}
	return circleModel.Name, nil
}
