package utils

import (
	"database/sql"
	"log/slog"
	"os"
	"sync"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

type AppState struct {
	Config      *Config
	RawDB       *sql.DB
	BunDB       *bun.DB
	MetricChans *Metric

	AppCloseSignalChan chan os.Signal

	// closed on shutdown so long-running goroutines (metric collectors,
	// cron jobs) can unwind before the process exits
	gracefulShutdownChans []chan struct{}
	gracefulShutdownMu    sync.Mutex
}

func NewAppState() *AppState {
	as := &AppState{}

	as.Config = NewConfig()
	as.MetricChans = NewMetric()
	as.AppCloseSignalChan = make(chan os.Signal, 1)

	var err error
	as.RawDB, err = sql.Open(sqliteshim.ShimName, as.Config.GetSqlitePath()+"?mode=rwc")
	if err != nil {
		slog.Error("cannot open sqlite database", "error", err)
		os.Exit(1)
	}
	as.RawDB.SetMaxIdleConns(8)

	as.BunDB = bun.NewDB(as.RawDB, sqlitedialect.New())
	as.BunDB.AddQueryHook(bundebug.NewQueryHook(
		bundebug.FromEnv("BUNDEBUG"),
	))

	return as
}

// Create a channel that will be closed when the app is shutting down.
func (as *AppState) CreateGracefulShutdownChan() *chan struct{} {
	as.gracefulShutdownMu.Lock()
	defer as.gracefulShutdownMu.Unlock()
	ch := make(chan struct{})
	as.gracefulShutdownChans = append(as.gracefulShutdownChans, ch)
	return &ch
}

func (as *AppState) GracefulShutdown() {
	as.gracefulShutdownMu.Lock()
	defer as.gracefulShutdownMu.Unlock()
	for _, ch := range as.gracefulShutdownChans {
		close(ch)
	}
	as.gracefulShutdownChans = nil

	if err := as.BunDB.Close(); err != nil {
		slog.Warn("can't close database", "error", err)
	}
}
