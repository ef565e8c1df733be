package feed

import (
	"context"
	"fmt"

	"circlekeeper/src-server/model"

	"github.com/uptrace/bun"
)

// Each fetch covers one event category. They share the same shape on
// purpose: circle scope, optional patient allowlist, date window. A nil
// allowlist means "all patients"; a non-nil empty one matches nothing
// (the sanitizer intersected everything away).

func fetchTasks(ctx context.Context, db bun.IDB, circleID string, patientIDs []string, w Window) ([]model.Task, error) {
	if patientIDs != nil && len(patientIDs) == 0 {
		return []model.Task{}, nil
	}
	taskModels := make([]model.Task, 0)
	query := db.NewSelect().
		Model(&taskModels).
		Where("circle_id = ?", circleID).
		Where("status = ?", model.TASK_STATUS_OPEN).
		Where("due_at >= ?", w.StartUnixUTC).
		Where("due_at <= ?", w.EndUnixUTC)
	if len(patientIDs) > 0 {
		query = query.Where("patient_id IN (?)", bun.In(patientIDs))
	}
	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("feed.fetchTasks: %w", err)
	}
	return taskModels, nil
}

func fetchShifts(ctx context.Context, db bun.IDB, circleID string, patientIDs []string, w Window) ([]model.Shift, error) {
	if patientIDs != nil && len(patientIDs) == 0 {
		return []model.Shift{}, nil
	}
	shiftModels := make([]model.Shift, 0)
	query := db.NewSelect().
		Model(&shiftModels).
		Where("circle_id = ?", circleID).
		Where("status IN (?)", bun.In([]string{
			model.SHIFT_STATUS_SCHEDULED,
			model.SHIFT_STATUS_IN_PROGRESS,
		})).
		Where("starts_at >= ?", w.StartUnixUTC).
		Where("starts_at <= ?", w.EndUnixUTC)
	if len(patientIDs) > 0 {
		query = query.Where("patient_id IN (?)", bun.In(patientIDs))
	}
	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("feed.fetchShifts: %w", err)
	}
	return shiftModels, nil
}

// Appointments live inside active contact binder records as free-form
// JSON, so the date filter can only happen after parsing. Records whose
// content doesn't parse to a next-appointment time are skipped by the
// caller, not treated as errors here.
func fetchContactRecords(ctx context.Context, db bun.IDB, circleID string, patientIDs []string) ([]model.ContactRecord, error) {
	if patientIDs != nil && len(patientIDs) == 0 {
		return []model.ContactRecord{}, nil
	}
	recordModels := make([]model.ContactRecord, 0)
	query := db.NewSelect().
		Model(&recordModels).
		Where("circle_id = ?", circleID).
		Where("record_type = ?", model.CONTACT_RECORD_TYPE_CONTACT).
		Where("archived_at = 0")
	if len(patientIDs) > 0 {
		query = query.Where("patient_id IN (?)", bun.In(patientIDs))
	}
	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("feed.fetchContactRecords: %w", err)
	}
	return recordModels, nil
}

func fetchHandoffs(ctx context.Context, db bun.IDB, circleID string, patientIDs []string, w Window) ([]model.Handoff, error) {
	if patientIDs != nil && len(patientIDs) == 0 {
		return []model.Handoff{}, nil
	}
	handoffModels := make([]model.Handoff, 0)
	query := db.NewSelect().
		Model(&handoffModels).
		Where("circle_id = ?", circleID).
		Where("status = ?", model.HANDOFF_STATUS_PENDING).
		Where("follow_up_at >= ?", w.StartUnixUTC).
		Where("follow_up_at <= ?", w.EndUnixUTC)
	if len(patientIDs) > 0 {
		query = query.Where("patient_id IN (?)", bun.In(patientIDs))
	}
	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("feed.fetchHandoffs: %w", err)
	}
	return handoffModels, nil
}
