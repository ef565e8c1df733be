package metric

import (
	"log/slog"
	"time"

	"circlekeeper/src-server/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func databaseEmptyRead(as *utils.AppState, tickerInterval *time.Duration) {
	databaseEmptyRead := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "circlekeeper_database_empty_read_microsec",
		Help: "The latency of an empty database read in microseconds",
	})
	good := true
	if err := prometheus.Register(databaseEmptyRead); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register circlekeeper_database_empty_read_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("circlekeeper_database_empty_read_microsec metric registered")
		databaseEmptyRead.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		ticker := time.NewTicker(*tickerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(databaseEmptyRead) {
				case true:
					slog.Debug("circlekeeper_database_empty_read_microsec metric unregistered")
				case false:
					slog.Warn("circlekeeper_database_empty_read_microsec metric not registered")
				}
				return
			case <-ticker.C:
				latency, err := database(as)
				if err != nil {
					slog.Error("can't get database latency", "error", err)
					continue
				}
				databaseEmptyRead.Set(float64(latency.Microseconds()))
			}
		}
	}()
}

func databaseRead(as *utils.AppState, clearTickerInterval *time.Duration) {
	databaseRead := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "circlekeeper_database_read_microsec",
		Help: "The latency of a token validation read in microseconds",
	})
	good := true
	if err := prometheus.Register(databaseRead); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register circlekeeper_database_read_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("circlekeeper_database_read_microsec metric registered")
		databaseRead.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(databaseRead) {
				case true:
					slog.Debug("circlekeeper_database_read_microsec metric unregistered")
				case false:
					slog.Warn("circlekeeper_database_read_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.DatabaseRead:
				databaseRead.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				databaseRead.Set(0)
			}
		}
	}()
}

func feedBuild(as *utils.AppState, clearTickerInterval *time.Duration) {
	feedBuild := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "circlekeeper_feed_build_microsec",
		Help: "The latency of assembling and serializing a feed in microseconds",
	})
	good := true
	if err := prometheus.Register(feedBuild); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register circlekeeper_feed_build_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("circlekeeper_feed_build_microsec metric registered")
		feedBuild.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(feedBuild) {
				case true:
					slog.Debug("circlekeeper_feed_build_microsec metric unregistered")
				case false:
					slog.Warn("circlekeeper_feed_build_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.FeedBuild:
				feedBuild.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				feedBuild.Set(0)
			}
		}
	}()
}

func feedServed(as *utils.AppState) {
	feedServed := promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circlekeeper_feed_served_total",
		Help: "Feed requests handled, by outcome",
	}, []string{"outcome"})
	good := true
	if err := prometheus.Register(feedServed); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register circlekeeper_feed_served_total metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("circlekeeper_feed_served_total metric registered")
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(feedServed) {
				case true:
					slog.Debug("circlekeeper_feed_served_total metric unregistered")
				case false:
					slog.Warn("circlekeeper_feed_served_total metric not registered")
				}
				return
			case outcome := <-as.MetricChans.FeedServed:
				feedServed.WithLabelValues(outcome).Inc()
			}
		}
	}()
}

func Init(as *utils.AppState) {
	tickerInterval := 60 * time.Second
	clearTickerInterval := 5 * time.Minute

	databaseEmptyRead(as, &tickerInterval)
	databaseRead(as, &clearTickerInterval)
	feedBuild(as, &clearTickerInterval)
	feedServed(as)
}
