package model

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/uptrace/bun"
)

var (
	ErrTokenFormat   = errors.New("invalid token format")
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenRevoked  = errors.New("token revoked")
	ErrTokenExpired  = errors.New("token expired")
	ErrRateLimited   = errors.New("rate limited")
)

const (
	// max validations per token per sliding hour window
	FEED_TOKEN_RATE_CEILING = 100
	FEED_TOKEN_RATE_WINDOW  = time.Hour
)

// 32 random bytes, base64url without padding
var feedTokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{43}$`)

// An opaque bearer credential granting read-only calendar access to one
// circle. The feed configuration is embedded so a single row lookup
// yields everything a request needs.
type FeedToken struct {
	bun.BaseModel `bun:"table:feed_tokens"`

	Token    string `bun:"token,pk"`          // required
	CircleID string `bun:"circle_id,notnull"` // required

	// 0 = not revoked / never expires / never accessed
	RevokedAtUnixUTC      int64 `bun:"revoked_at"`
	ExpiresAtUnixUTC      int64 `bun:"expires_at"`
	LastAccessedAtUnixUTC int64 `bun:"last_accessed_at"`
	AccessCount           int   `bun:"access_count,notnull,default:0"`

	IncludeTasks        bool `bun:"include_tasks,notnull,default:true"`
	IncludeShifts       bool `bun:"include_shifts,notnull,default:true"`
	IncludeAppointments bool `bun:"include_appointments,notnull,default:true"`
	IncludeHandoffs     bool `bun:"include_handoffs,notnull,default:true"`

	// empty/null = all patients in the circle
	PatientIDs []string `bun:"patient_ids"`
	// tri-state on purpose: null resolves to true (fail closed)
	ShowMinimalDetails *bool `bun:"show_minimal_details"`
	LookaheadDays      int   `bun:"lookahead_days,notnull,default:30"`

	CreatedAtUnixUTC int64 `bun:"created_at,notnull"`

	Circle *Circle `bun:"rel:belongs-to,join:circle_id=id"`
}

// Generate a new feed token secret: 32 random bytes, base64url, no padding.
func GenerateFeedTokenSecret() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("model.GenerateFeedTokenSecret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func (t *FeedToken) Upsert(ctx context.Context, db bun.IDB) error {
	switch {
	case db == nil:
		return fmt.Errorf("(*FeedToken).Upsert: db is nil")
	case !feedTokenPattern.MatchString(t.Token):
		return fmt.Errorf("(*FeedToken).Upsert: token is malformed")
	case t.CircleID == "":
		return fmt.Errorf("(*FeedToken).Upsert: circle id is blank")
	}
	if t.CreatedAtUnixUTC == 0 {
		t.CreatedAtUnixUTC = time.Now().UTC().Unix()
	}

	if _, err := db.NewInsert().
		Model(t).
		On("CONFLICT (token) DO UPDATE").
		Set("revoked_at = EXCLUDED.revoked_at").
		Set("expires_at = EXCLUDED.expires_at").
		Set("include_tasks = EXCLUDED.include_tasks").
		Set("include_shifts = EXCLUDED.include_shifts").
		Set("include_appointments = EXCLUDED.include_appointments").
		Set("include_handoffs = EXCLUDED.include_handoffs").
		Set("patient_ids = EXCLUDED.patient_ids").
		Set("show_minimal_details = EXCLUDED.show_minimal_details").
		Set("lookahead_days = EXCLUDED.lookahead_days").
		Exec(ctx); err != nil {
		return fmt.Errorf("(*FeedToken).Upsert: can't upsert token: %w", err)
	}

	return nil
}

// ValidateFeedToken checks a bearer token and returns its row on success.
//
// The rate-limit bookkeeping (hourly window reset or increment, plus the
// last-access timestamp) happens in ONE UPDATE ... RETURNING statement so
// two concurrent requests can never both read a stale counter; sqlite
// serializes writers, so the post-increment value each request sees is
// linearizable. Revocation, expiry and the ceiling are then checked
// against the returned row, in that order.
//
// Every call that reaches a stored row mutates access_count, including
// calls rejected as revoked or expired. The limiter is strict: the 101st
// request in a window fails, the 100th still passes.
func ValidateFeedToken(ctx context.Context, db bun.IDB, token string) (*FeedToken, error) {
	if !feedTokenPattern.MatchString(token) {
		return nil, ErrTokenFormat
	}

	now := time.Now().UTC()
	windowStart := now.Add(-FEED_TOKEN_RATE_WINDOW).Unix()

	tokenModel := new(FeedToken)
	err := db.NewUpdate().
		Model(tokenModel).
		Set("access_count = CASE WHEN last_accessed_at < ? THEN 1 ELSE access_count + 1 END", windowStart).
		Set("last_accessed_at = ?", now.Unix()).
		Where("token = ?", token).
		Returning("*").
		Scan(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrTokenNotFound
	case err != nil:
		return nil, fmt.Errorf("model.ValidateFeedToken: %w", err)
	}

	switch {
	case tokenModel.RevokedAtUnixUTC != 0:
		return nil, ErrTokenRevoked
	case tokenModel.ExpiresAtUnixUTC != 0 && tokenModel.ExpiresAtUnixUTC < now.Unix():
		return nil, ErrTokenExpired
	case tokenModel.AccessCount > FEED_TOKEN_RATE_CEILING:
		return nil, ErrRateLimited
	}

	return tokenModel, nil
}
