package feed_test

import (
	"strings"
	"testing"
	"time"

	"circlekeeper/src-server/feed"
	"circlekeeper/src-server/ical"
	"circlekeeper/src-server/model"
)

const testDomain = "circlekeeper.test"

var (
	testTask = model.Task{
		ID:        "task-id-1",
		CircleID:  "circle-1",
		PatientID: "patient-a",
		Title:     "Refill prescription",
		Notes:     "Pharmacy closes at 6pm",
		Priority:  "high",
		Status:    model.TASK_STATUS_OPEN,
		// 2026-03-05 14:30:00 UTC
		DueAtUnixUTC: 1772721000,
	}
	testShift = model.Shift{
		ID:              "shift-id-1",
		CircleID:        "circle-1",
		PatientID:       "patient-a",
		CaregiverName:   "alice johnson",
		Status:          model.SHIFT_STATUS_SCHEDULED,
		Notes:           "overnight",
		StartsAtUnixUTC: 1772721000,
		EndsAtUnixUTC:   1772721000 + 8*3600,
	}
	testHandoff = model.Handoff{
		ID:                "handoff-id-1",
		CircleID:          "circle-1",
		PatientID:         "patient-a",
		FromCaregiver:     "alice",
		ToCaregiver:       "bob",
		Notes:             "medication schedule changed",
		Status:            model.HANDOFF_STATUS_PENDING,
		FollowUpAtUnixUTC: 1772721000,
	}
	testNames = map[string]string{"patient-a": "Jane Smith"}
)

func TestFormatterFullDetails(t *testing.T) {
	f := feed.NewFormatter(testDomain, false, testNames)

	event := f.Task(testTask)
	if got := event.GetSummary(); got != "CK: Refill prescription" {
		t.Errorf("task summary = %q", got)
	}
	if got := event.GetID(); got != "task-task-id-1@circlekeeper.test" {
		t.Errorf("task uid = %q", got)
	}
	description := event.GetDescription()
	for _, want := range []string{"Patient: Jane Smith", "Priority: high", "Notes: Pharmacy closes at 6pm"} {
		if !strings.Contains(description, want) {
			t.Errorf("task description missing %q: %q", want, description)
		}
	}
	if event.GetEndDate()-event.GetStartDate() != int64((30 * time.Minute).Seconds()) {
		t.Errorf("task should get a 30 minute synthetic duration")
	}

	event = f.Shift(testShift)
	if got := event.GetSummary(); got != "CK: Care shift - Alice Johnson" {
		t.Errorf("shift summary = %q", got)
	}
	if event.GetEndDate()-event.GetStartDate() != 8*3600 {
		t.Errorf("shift duration must come from the record")
	}

	rec := model.ContactRecord{
		ID:         "rec-id-1",
		CircleID:   "circle-1",
		PatientID:  "patient-a",
		RecordType: model.CONTACT_RECORD_TYPE_CONTACT,
		Title:      "dr. chen",
	}
	content := feed.AppointmentContent{Location: "Suite 300", Notes: "bring insurance card"}
	event = f.Appointment(rec, 1772721000, content)
	if got := event.GetSummary(); got != "CK: Appointment - Dr. Chen" {
		t.Errorf("appointment summary = %q", got)
	}
	if got := event.GetLocation(); got != "Suite 300" {
		t.Errorf("appointment location = %q", got)
	}
	if event.GetEndDate()-event.GetStartDate() != int64((60 * time.Minute).Seconds()) {
		t.Errorf("appointment should get a 60 minute synthetic duration")
	}

	event = f.Handoff(testHandoff)
	if got := event.GetSummary(); got != "CK: Handoff follow-up - Bob" {
		t.Errorf("handoff summary = %q", got)
	}
}

func TestFormatterMinimalRedaction(t *testing.T) {
	f := feed.NewFormatter(testDomain, true, testNames)

	rec := model.ContactRecord{ID: "rec-id-1", PatientID: "patient-a", Title: "Dr. Chen"}
	events := []struct {
		name    string
		event   *ical.Event
		leakage []string
	}{
		{"task", f.Task(testTask), []string{"Refill", "Jane", "Pharmacy"}},
		{"shift", f.Shift(testShift), []string{"alice", "Alice", "Jane", "overnight"}},
		{"appointment", f.Appointment(rec, 1772721000, feed.AppointmentContent{Notes: "secret", Location: "Suite 300"}), []string{"Chen", "Jane", "secret", "Suite"}},
		{"handoff", f.Handoff(testHandoff), []string{"alice", "bob", "Jane", "medication"}},
	}
	for _, tc := range events {
		event := tc.event
		if got := event.GetSummary(); got != "Calendar Event" {
			t.Errorf("%s: minimal summary = %q", tc.name, got)
		}
		if got := event.GetDescription(); got != "" {
			t.Errorf("%s: minimal description = %q", tc.name, got)
		}
		if got := event.GetLocation(); got != "" {
			t.Errorf("%s: minimal location = %q", tc.name, got)
		}
		combined := event.GetSummary() + event.GetDescription() + event.GetLocation()
		for _, leak := range tc.leakage {
			if strings.Contains(combined, leak) {
				t.Errorf("%s: %q leaked into minimal output", tc.name, leak)
			}
		}
	}
}

func TestFormatterUIDDeterminism(t *testing.T) {
	f := feed.NewFormatter(testDomain, false, testNames)
	first := f.Task(testTask).GetID()
	second := f.Task(testTask).GetID()
	if first != second {
		t.Errorf("uid not stable across formats: %q vs %q", first, second)
	}
	if f.Shift(testShift).GetID() == first {
		t.Error("different categories must not collide on uid")
	}
}

func TestFormatterDescriptionTruncation(t *testing.T) {
	longTask := testTask
	longTask.Notes = strings.Repeat("x", 800)
	longTask.PatientID = ""
	longTask.Priority = ""

	f := feed.NewFormatter(testDomain, false, nil)
	description := f.Task(longTask).GetDescription()
	if len(description) != 500 {
		t.Errorf("truncated description is %d chars, want 500", len(description))
	}
	if !strings.HasSuffix(description, "...") {
		t.Errorf("truncated description missing ellipsis: %q", description[len(description)-10:])
	}
}

func TestParseNextAppointment(t *testing.T) {
	good := []struct {
		content string
		want    string
	}{
		{`{"next_appointment":"2026-03-05T14:30:00Z"}`, "2026-03-05T14:30:00Z"},
		{`{"next_appointment":"2026-03-05T14:30:00"}`, "2026-03-05T14:30:00Z"},
		{`{"next_appointment":"2026-03-05"}`, "2026-03-05T00:00:00Z"},
	}
	for _, tc := range good {
		parsed, _, err := feed.ParseNextAppointment(tc.content)
		if err != nil {
			t.Errorf("ParseNextAppointment(%q): %v", tc.content, err)
			continue
		}
		if got := parsed.Format(time.RFC3339); got != tc.want {
			t.Errorf("ParseNextAppointment(%q) = %s, want %s", tc.content, got, tc.want)
		}
	}

	bad := []string{
		"",
		"not json at all",
		`{"location":"Suite 300"}`,
		`{"next_appointment":"whenever works"}`,
		`{"next_appointment":12345}`,
	}
	for _, content := range bad {
		if _, _, err := feed.ParseNextAppointment(content); err == nil {
			t.Errorf("ParseNextAppointment(%q) should fail", content)
		}
	}
}
