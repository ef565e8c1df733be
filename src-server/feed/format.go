package feed

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"circlekeeper/src-server/ical"
	"circlekeeper/src-server/model"
	"circlekeeper/src-server/utils"
)

const (
	summaryPrefix = "CK: "

	// the one summary every record gets in minimal mode, regardless of
	// category: nothing patient-identifying may reach a calendar app's
	// notification surface
	minimalSummary = "Calendar Event"

	// keeps third-party clients from choking on huge notes
	descriptionLimit = 500

	taskDuration        = 30 * time.Minute
	appointmentDuration = 60 * time.Minute
	handoffDuration     = 30 * time.Minute
)

// Formatter turns domain records into calendar event value objects,
// applying the minimal/full detail policy in one place.
type Formatter struct {
	domain       string
	minimal      bool
	patientNames map[string]string
}

func NewFormatter(domain string, minimal bool, patientNames map[string]string) *Formatter {
	return &Formatter{
		domain:       domain,
		minimal:      minimal,
		patientNames: patientNames,
	}
}

func (f *Formatter) Task(t model.Task) *ical.Event {
	event := ical.NewEvent().
		SetID(fmt.Sprintf("task-%s@%s", t.ID, f.domain)).
		SetCategory("CircleKeeper Task").
		SetStartDate(t.DueAtUnixUTC).
		SetEndDate(time.Unix(t.DueAtUnixUTC, 0).Add(taskDuration).Unix())

	if f.minimal {
		return event.SetSummary(minimalSummary)
	}

	details := make([]string, 0, 3)
	if name := f.patientNames[t.PatientID]; name != "" {
		details = append(details, "Patient: "+name)
	}
	if t.Priority != "" {
		details = append(details, "Priority: "+t.Priority)
	}
	if t.Notes != "" {
		details = append(details, "Notes: "+t.Notes)
	}
	return event.
		SetSummary(summaryPrefix + t.Title).
		SetDescription(truncateDescription(strings.Join(details, "\n")))
}

func (f *Formatter) Shift(s model.Shift) *ical.Event {
	event := ical.NewEvent().
		SetID(fmt.Sprintf("shift-%s@%s", s.ID, f.domain)).
		SetCategory("CircleKeeper Shift").
		SetStartDate(s.StartsAtUnixUTC).
		SetEndDate(s.EndsAtUnixUTC)

	if f.minimal {
		return event.SetSummary(minimalSummary)
	}

	details := make([]string, 0, 3)
	if name := f.patientNames[s.PatientID]; name != "" {
		details = append(details, "Patient: "+name)
	}
	details = append(details, "Status: "+s.Status)
	if s.Notes != "" {
		details = append(details, "Notes: "+s.Notes)
	}
	return event.
		SetSummary(summaryPrefix + "Care shift - " + utils.CleanupName(s.CaregiverName)).
		SetDescription(truncateDescription(strings.Join(details, "\n")))
}

func (f *Formatter) Appointment(rec model.ContactRecord, startUnixUTC int64, content AppointmentContent) *ical.Event {
	event := ical.NewEvent().
		SetID(fmt.Sprintf("appt-%s@%s", rec.ID, f.domain)).
		SetCategory("CircleKeeper Appointment").
		SetStartDate(startUnixUTC).
		SetEndDate(time.Unix(startUnixUTC, 0).Add(appointmentDuration).Unix())

	if f.minimal {
		return event.SetSummary(minimalSummary)
	}

	details := make([]string, 0, 3)
	if name := f.patientNames[rec.PatientID]; name != "" {
		details = append(details, "Patient: "+name)
	}
	details = append(details, "Provider: "+rec.Title)
	if content.Notes != "" {
		details = append(details, "Notes: "+content.Notes)
	}
	return event.
		SetSummary(summaryPrefix + "Appointment - " + utils.CleanupName(rec.Title)).
		SetDescription(truncateDescription(strings.Join(details, "\n"))).
		SetLocation(content.Location)
}

func (f *Formatter) Handoff(h model.Handoff) *ical.Event {
	event := ical.NewEvent().
		SetID(fmt.Sprintf("handoff-%s@%s", h.ID, f.domain)).
		SetCategory("CircleKeeper Handoff").
		SetStartDate(h.FollowUpAtUnixUTC).
		SetEndDate(time.Unix(h.FollowUpAtUnixUTC, 0).Add(handoffDuration).Unix())

	if f.minimal {
		return event.SetSummary(minimalSummary)
	}

	caregiver := h.ToCaregiver
	if caregiver == "" {
		caregiver = h.FromCaregiver
	}
	details := make([]string, 0, 4)
	if name := f.patientNames[h.PatientID]; name != "" {
		details = append(details, "Patient: "+name)
	}
	details = append(details, "From: "+h.FromCaregiver)
	if h.ToCaregiver != "" {
		details = append(details, "To: "+h.ToCaregiver)
	}
	if h.Notes != "" {
		details = append(details, "Notes: "+h.Notes)
	}
	return event.
		SetSummary(summaryPrefix + "Handoff follow-up - " + utils.CleanupName(caregiver)).
		SetDescription(truncateDescription(strings.Join(details, "\n")))
}

// Cap a description at 500 characters, ellipsis included. Backs off to
// a rune boundary so the cut never produces invalid UTF-8.
func truncateDescription(s string) string {
	if len(s) <= descriptionLimit {
		return s
	}
	cut := descriptionLimit - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
