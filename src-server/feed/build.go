package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"circlekeeper/src-server/ical"
	"circlekeeper/src-server/model"

	"github.com/uptrace/bun"
)

// per-source fetch deadline; one hanging source must not stall the rest
const fetchTimeout = 10 * time.Second

// Build assembles the calendar for one request: fan out to the enabled
// event sources, format whatever came back, hand it to the serializer's
// value objects. Source failures are absorbed here: a broken sub-query
// costs its own events, never the whole feed.
func Build(ctx context.Context, db bun.IDB, circleID, circleName string, cfg Config, domain string) ical.Calendar {
	window := NewWindow(time.Now(), cfg.LookaheadDays)

	var (
		wg           sync.WaitGroup
		taskModels   []model.Task
		shiftModels  []model.Shift
		recordModels []model.ContactRecord
		handoffs     []model.Handoff
	)

	// independent I/O-bound reads; each goroutine owns one result slot
	if cfg.IncludeTasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
			defer cancel()
			fetched, err := fetchTasks(ctx, db, circleID, cfg.PatientIDs, window)
			if err != nil {
				slog.Warn("can't fetch tasks for feed", "circle_id", circleID, "error", err)
				return
			}
			taskModels = fetched
		}()
	}
	if cfg.IncludeShifts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
			defer cancel()
			fetched, err := fetchShifts(ctx, db, circleID, cfg.PatientIDs, window)
			if err != nil {
				slog.Warn("can't fetch shifts for feed", "circle_id", circleID, "error", err)
				return
			}
			shiftModels = fetched
		}()
	}
	if cfg.IncludeAppointments {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
			defer cancel()
			fetched, err := fetchContactRecords(ctx, db, circleID, cfg.PatientIDs)
			if err != nil {
				slog.Warn("can't fetch contact records for feed", "circle_id", circleID, "error", err)
				return
			}
			recordModels = fetched
		}()
	}
	if cfg.IncludeHandoffs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
			defer cancel()
			fetched, err := fetchHandoffs(ctx, db, circleID, cfg.PatientIDs, window)
			if err != nil {
				slog.Warn("can't fetch handoffs for feed", "circle_id", circleID, "error", err)
				return
			}
			handoffs = fetched
		}()
	}
	wg.Wait()

	formatter := NewFormatter(domain, cfg.MinimalDetails, func() map[string]string {
		if cfg.MinimalDetails {
			return nil
		}
		return patientNames(ctx, db, circleID)
	}())

	calendar := ical.NewCalendar(circleName)
	addEvent := func(event *ical.Event) {
		if err := calendar.AddEvent(*event); err != nil {
			slog.Warn("skipping malformed calendar event", "uid", event.GetID(), "error", err)
		}
	}

	for _, taskModel := range taskModels {
		addEvent(formatter.Task(taskModel))
	}
	for _, shiftModel := range shiftModels {
		addEvent(formatter.Shift(shiftModel))
	}
	for _, recordModel := range recordModels {
		apptTime, content, err := ParseNextAppointment(recordModel.Content)
		if err != nil {
			slog.Warn("skipping contact record with unusable content",
				"record_id", recordModel.ID, "error", err)
			continue
		}
		if !window.Contains(apptTime.Unix()) {
			continue
		}
		addEvent(formatter.Appointment(recordModel, apptTime.Unix(), content))
	}
	for _, handoffModel := range handoffs {
		addEvent(formatter.Handoff(handoffModel))
	}

	return calendar
}

// Display names for the circle's patients, keyed by id. Only needed for
// full-detail feeds; a lookup failure just means nameless descriptions.
func patientNames(ctx context.Context, db bun.IDB, circleID string) map[string]string {
	patientModels := make([]model.Patient, 0)
	if err := db.NewSelect().
		Model(&patientModels).
		Where("circle_id = ?", circleID).
		Scan(ctx); err != nil {
		slog.Warn("can't fetch patient names for feed", "circle_id", circleID, "error", err)
		return nil
	}
	names := make(map[string]string, len(patientModels))
	for _, patientModel := range patientModels {
		names[patientModel.ID] = patientModel.FullName
	}
	return names
}
