package feed

import (
	"context"
	"fmt"
	"log/slog"

	"circlekeeper/src-server/model"
	"circlekeeper/src-server/utils"

	"github.com/uptrace/bun"
)

const (
	LOOKAHEAD_MIN_DAYS = 0
	LOOKAHEAD_MAX_DAYS = 365
)

// The sanitized per-token feed configuration. Built once per request by
// Sanitize; everything downstream trusts these values.
type Config struct {
	IncludeTasks        bool
	IncludeShifts       bool
	IncludeAppointments bool
	IncludeHandoffs     bool

	// nil = all patients in the circle; non-nil empty matches nothing
	PatientIDs []string

	MinimalDetails bool
	LookaheadDays  int
}

// Sanitize clamps and validates the raw configuration embedded in a feed
// token before any data query runs.
//
//   - lookahead is silently clamped into [0, 365]; the value comes from
//     the feed owner's own settings, so correcting beats rejecting
//   - show_minimal_details resolves null to true, so an unset flag can
//     never widen what a feed exposes
//   - the patient allowlist is intersected against the patients that
//     really belong to the circle; stale or tampered ids are dropped
//     with a warning, never surfaced to the caller
func Sanitize(ctx context.Context, db bun.IDB, tokenModel *model.FeedToken) (Config, error) {
	cfg := Config{
		IncludeTasks:        tokenModel.IncludeTasks,
		IncludeShifts:       tokenModel.IncludeShifts,
		IncludeAppointments: tokenModel.IncludeAppointments,
		IncludeHandoffs:     tokenModel.IncludeHandoffs,
		MinimalDetails:      true,
		LookaheadDays:       tokenModel.LookaheadDays,
	}

	if tokenModel.ShowMinimalDetails != nil {
		cfg.MinimalDetails = *tokenModel.ShowMinimalDetails
	}

	if cfg.LookaheadDays < LOOKAHEAD_MIN_DAYS {
		cfg.LookaheadDays = LOOKAHEAD_MIN_DAYS
	}
	if cfg.LookaheadDays > LOOKAHEAD_MAX_DAYS {
		cfg.LookaheadDays = LOOKAHEAD_MAX_DAYS
	}

	if len(tokenModel.PatientIDs) > 0 {
		circlePatientIDs, err := model.PatientIDsInCircle(ctx, db, tokenModel.CircleID)
		if err != nil {
			return Config{}, fmt.Errorf("feed.Sanitize: %w", err)
		}
		inCircle := make(map[string]struct{}, len(circlePatientIDs))
		for _, id := range circlePatientIDs {
			inCircle[id] = struct{}{}
		}
		for _, id := range tokenModel.PatientIDs {
			if _, ok := inCircle[id]; !ok {
				slog.Warn("feed token references patient outside its circle, dropping",
					"token_prefix", utils.TokenPrefix(tokenModel.Token),
					"circle_id", tokenModel.CircleID)
				continue
			}
			cfg.PatientIDs = append(cfg.PatientIDs, id)
		}
		// an allowlist that intersects to nothing stays non-nil: it must
		// match zero records, not fall back to "all patients"
		if cfg.PatientIDs == nil {
			cfg.PatientIDs = []string{}
		}
	}

	return cfg, nil
}
