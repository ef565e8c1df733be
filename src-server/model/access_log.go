package model

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// One row per feed request that got past the token format gate. Only
// the token prefix is stored; the full secret must never be persisted
// outside the feed_tokens table.
type FeedAccessLog struct {
	bun.BaseModel `bun:"table:feed_access_logs"`

	ID          string `bun:"id,pk"`
	TokenPrefix string `bun:"token_prefix,notnull"`
	CircleID    string `bun:"circle_id"`
	StatusCode  int    `bun:"status_code,notnull"`
	UserAgent   string `bun:"user_agent"`
	RemoteAddr  string `bun:"remote_addr"`

	AccessedAtUnixUTC int64 `bun:"accessed_at,notnull"`
}

// Record writes an access log row. Fire-and-forget: a logging failure
// must never fail the request, so errors only go to the server log.
func (l *FeedAccessLog) Record(ctx context.Context, db bun.IDB) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.AccessedAtUnixUTC == 0 {
		l.AccessedAtUnixUTC = time.Now().UTC().Unix()
	}
	if _, err := db.NewInsert().
		Model(l).
		Exec(ctx); err != nil {
		slog.Warn("can't write feed access log", "token_prefix", l.TokenPrefix, "error", err)
	}
}
