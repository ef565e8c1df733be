package feed

import "time"

// how far back a feed reaches, regardless of lookahead
const LOOKBACK = 7 * 24 * time.Hour

// The date range a feed covers: [now-7d, now+lookahead].
type Window struct {
	StartUnixUTC int64
	EndUnixUTC   int64
}

func NewWindow(now time.Time, lookaheadDays int) Window {
	now = now.UTC()
	return Window{
		StartUnixUTC: now.Add(-LOOKBACK).Unix(),
		EndUnixUTC:   now.AddDate(0, 0, lookaheadDays).Unix(),
	}
}

func (w Window) Contains(unix int64) bool {
	return unix >= w.StartUnixUTC && unix <= w.EndUnixUTC
}
