package model_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"circlekeeper/src-server/model"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// every pool connection would get its own empty in-memory database
	db.SetMaxOpenConns(1)
	bundb := bun.NewDB(db, sqlitedialect.New())
	t.Cleanup(func() { bundb.Close() })

	if err := model.CreateSchema(bundb); err != nil {
		t.Fatal(err)
	}
	return bundb
}

func newTestToken(t *testing.T, bundb *bun.DB, circleID string) string {
	t.Helper()

	circleModel := model.Circle{ID: circleID, Name: "test circle"}
	if err := circleModel.Upsert(context.Background(), bundb); err != nil {
		t.Fatal(err)
	}

	secret, err := model.GenerateFeedTokenSecret()
	if err != nil {
		t.Fatal(err)
	}
	tokenModel := model.FeedToken{
		Token:               secret,
		CircleID:            circleID,
		IncludeTasks:        true,
		IncludeShifts:       true,
		IncludeAppointments: true,
		IncludeHandoffs:     true,
		LookaheadDays:       30,
	}
	if err := tokenModel.Upsert(context.Background(), bundb); err != nil {
		t.Fatal(err)
	}
	return secret
}

func tokenRow(t *testing.T, bundb *bun.DB, secret string) *model.FeedToken {
	t.Helper()

	tokenModel := new(model.FeedToken)
	if err := bundb.NewSelect().
		Model(tokenModel).
		Where("token = ?", secret).
		Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	return tokenModel
}

func TestFeedTokenFormatGate(t *testing.T) {
	bundb := newTestDB(t)
	secret := newTestToken(t, bundb, "circle-1")

	for _, malformed := range []string{
		"",
		"short",
		secret + "x",                                  // 44 chars
		secret[:42],                                   // 42 chars
		secret[:42] + "!",                             // invalid char
		"../../../../etc/passwd/AAAAAAAAAAAAAAAAAAAA", // 43 chars, bad alphabet
	} {
		if _, err := model.ValidateFeedToken(context.Background(), bundb, malformed); !errors.Is(err, model.ErrTokenFormat) {
			t.Errorf("token %q: want ErrTokenFormat, got %v", malformed, err)
		}
	}

	// the gate must reject before touching storage
	row := tokenRow(t, bundb, secret)
	if row.AccessCount != 0 || row.LastAccessedAtUnixUTC != 0 {
		t.Errorf("malformed tokens mutated the store: count=%d last=%d",
			row.AccessCount, row.LastAccessedAtUnixUTC)
	}
}

func TestFeedTokenNotFound(t *testing.T) {
	bundb := newTestDB(t)
	newTestToken(t, bundb, "circle-1")

	unknown, err := model.GenerateFeedTokenSecret()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := model.ValidateFeedToken(context.Background(), bundb, unknown); !errors.Is(err, model.ErrTokenNotFound) {
		t.Errorf("want ErrTokenNotFound, got %v", err)
	}
}

func TestFeedTokenRevokedAndExpiredStillIncrement(t *testing.T) {
	bundb := newTestDB(t)
	secret := newTestToken(t, bundb, "circle-1")

	if _, err := bundb.NewUpdate().
		Model((*model.FeedToken)(nil)).
		Set("revoked_at = ?", time.Now().UTC().Unix()).
		Where("token = ?", secret).
		Exec(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := model.ValidateFeedToken(context.Background(), bundb, secret); !errors.Is(err, model.ErrTokenRevoked) {
		t.Errorf("want ErrTokenRevoked, got %v", err)
	}
	if row := tokenRow(t, bundb, secret); row.AccessCount != 1 {
		t.Errorf("rejected call should still count, got %d", row.AccessCount)
	}

	if _, err := bundb.NewUpdate().
		Model((*model.FeedToken)(nil)).
		Set("revoked_at = 0").
		Set("expires_at = ?", time.Now().UTC().Add(-time.Minute).Unix()).
		Where("token = ?", secret).
		Exec(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := model.ValidateFeedToken(context.Background(), bundb, secret); !errors.Is(err, model.ErrTokenExpired) {
		t.Errorf("want ErrTokenExpired, got %v", err)
	}
	if row := tokenRow(t, bundb, secret); row.AccessCount != 2 {
		t.Errorf("rejected call should still count, got %d", row.AccessCount)
	}
}

func TestFeedTokenRateLimitStrict(t *testing.T) {
	bundb := newTestDB(t)
	secret := newTestToken(t, bundb, "circle-1")

	for i := 1; i <= model.FEED_TOKEN_RATE_CEILING; i++ {
		if _, err := model.ValidateFeedToken(context.Background(), bundb, secret); err != nil {
			t.Fatalf("request %d should be admitted, got %v", i, err)
		}
	}
	for i := 1; i <= 5; i++ {
		if _, err := model.ValidateFeedToken(context.Background(), bundb, secret); !errors.Is(err, model.ErrRateLimited) {
			t.Fatalf("request %d past the ceiling should fail, got %v", model.FEED_TOKEN_RATE_CEILING+i, err)
		}
	}

	// rejected attempts are still committed, keeping the limiter strict
	if row := tokenRow(t, bundb, secret); row.AccessCount != model.FEED_TOKEN_RATE_CEILING+5 {
		t.Errorf("want access_count %d, got %d", model.FEED_TOKEN_RATE_CEILING+5, row.AccessCount)
	}
}

func TestFeedTokenRateLimitConcurrent(t *testing.T) {
	bundb := newTestDB(t)
	secret := newTestToken(t, bundb, "circle-1")

	const requests = 150

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
		limited  int
	)
	for range requests {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := model.ValidateFeedToken(context.Background(), bundb, secret)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				admitted++
			case errors.Is(err, model.ErrRateLimited):
				limited++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if admitted != model.FEED_TOKEN_RATE_CEILING {
		t.Errorf("want exactly %d admitted, got %d", model.FEED_TOKEN_RATE_CEILING, admitted)
	}
	if limited != requests-model.FEED_TOKEN_RATE_CEILING {
		t.Errorf("want %d limited, got %d", requests-model.FEED_TOKEN_RATE_CEILING, limited)
	}
}

func TestFeedTokenWindowReset(t *testing.T) {
	bundb := newTestDB(t)
	secret := newTestToken(t, bundb, "circle-1")

	// park the counter at the ceiling with a stale last access
	if _, err := bundb.NewUpdate().
		Model((*model.FeedToken)(nil)).
		Set("access_count = ?", model.FEED_TOKEN_RATE_CEILING).
		Set("last_accessed_at = ?", time.Now().UTC().Add(-2*time.Hour).Unix()).
		Where("token = ?", secret).
		Exec(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, err := model.ValidateFeedToken(context.Background(), bundb, secret); err != nil {
		t.Fatalf("stale window should reset, got %v", err)
	}
	if row := tokenRow(t, bundb, secret); row.AccessCount != 1 {
		t.Errorf("want counter reset to 1, got %d", row.AccessCount)
	}
}
