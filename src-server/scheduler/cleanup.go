package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"circlekeeper/src-server/model"
	"circlekeeper/src-server/utils"

	"github.com/robfig/cron/v3"
)

// tokens stay queryable for a while after expiry so a 403 still beats a 404
const expiredTokenGrace = 30 * 24 * time.Hour

// Start schedules the background maintenance: an hourly sweep of tokens
// long past their expiry and a daily purge of old access log rows.
func Start(as *utils.AppState) error {
	c := cron.New()

	if _, err := c.AddFunc("@hourly", func() {
		sweepExpiredTokens(as)
	}); err != nil {
		return fmt.Errorf("scheduler.Start: can't add token sweep: %w", err)
	}
	if _, err := c.AddFunc("@daily", func() {
		purgeAccessLogs(as)
	}); err != nil {
		return fmt.Errorf("scheduler.Start: can't add log purge: %w", err)
	}

	c.Start()
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		<-*gracefulShutdownCh
		<-c.Stop().Done()
		slog.Debug("scheduler stopped")
	}()

	return nil
}

func sweepExpiredTokens(as *utils.AppState) {
	cutoff := time.Now().UTC().Add(-expiredTokenGrace).Unix()
	res, err := as.BunDB.NewDelete().
		Model((*model.FeedToken)(nil)).
		Where("expires_at != 0").
		Where("expires_at < ?", cutoff).
		Exec(context.Background())
	if err != nil {
		slog.Error("can't sweep expired feed tokens", "error", err)
		return
	}
	if deleted, err := res.RowsAffected(); err == nil && deleted > 0 {
		slog.Info("swept expired feed tokens", "count", deleted)
	}
}

func purgeAccessLogs(as *utils.AppState) {
	retention := time.Duration(as.Config.GetLogRetentionDays()) * 24 * time.Hour
	cutoff := time.Now().UTC().Add(-retention).Unix()
	res, err := as.BunDB.NewDelete().
		Model((*model.FeedAccessLog)(nil)).
		Where("accessed_at < ?", cutoff).
		Exec(context.Background())
	if err != nil {
		slog.Error("can't purge feed access logs", "error", err)
		return
	}
	if deleted, err := res.RowsAffected(); err == nil && deleted > 0 {
		slog.Info("purged feed access logs", "count", deleted)
	}
}
