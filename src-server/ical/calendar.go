// The `ical` package serializes calendar feeds into iCalendar documents.
//
// # References:
// - RFC5545: https://datatracker.ietf.org/doc/html/rfc5545
//
// # Notes:
// - Output only; parsing stays out of scope for the feed service.
// - All datetimes are UTC basic format (YYYYMMDDTHHMMSSZ); the feed
//   never emits local timezones or recurrence rules.
// - Physical lines are CRLF-terminated and folded at 75 octets, which
//   several real calendar clients require.
//
// # Example usage:
//
//	calendar := ical.NewCalendar("Smith Family Care")
//	event := ical.NewEvent().
//		SetID("task-42@example.app").
//		SetSummary("CK: Refill prescription").
//		SetStartDate(start).
//		SetEndDate(end).
//		SetCategory("CircleKeeper Task")
//	if err := calendar.AddEvent(*event); err != nil { ... }
//	output, _ := calendar.ToIcal()
package ical

import (
	"strings"
	"time"
)

const (
	prodID = "-//CircleKeeper//Care Calendar Feed//EN"

	// matches the Cache-Control max-age the HTTP layer sends
	refreshInterval = "PT15M"
)

type Calendar struct {
	name   string
	events []Event
}

// Initialize a new Calendar{} struct
func NewCalendar(name string) Calendar {
	return Calendar{
		name: name,
	}
}

// Get the calendar name
func (c *Calendar) GetName() string {
	return c.name
}

// Get the calendar events
func (c *Calendar) GetEvents() []Event {
	return c.events
}

// Validate the event and add it to the calendar
func (c *Calendar) AddEvent(event Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	c.events = append(c.events, event)
	return nil
}

// Marshal the Calendar{} struct into an iCalendar document. The DTSTAMP
// on every event is the serialization time, not the event time.
func (cal *Calendar) ToIcal() (string, error) {
	now := time.Now().UTC()

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + prodID,
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"X-WR-CALNAME:" + EscapeText(cal.name),
		"X-WR-TIMEZONE:UTC",
		"REFRESH-INTERVAL;VALUE=DURATION:" + refreshInterval,
		"X-PUBLISHED-TTL:" + refreshInterval,
	}

	for _, event := range cal.events {
		eventLines, err := event.toIcalLines(now)
		if err != nil {
			return "", NewCustomError("can't marshal event", map[string]any{
				"eventID": event.GetID(),
				"err":     err,
			})
		}
		lines = append(lines, eventLines...)
	}
	lines = append(lines, "END:VCALENDAR")

	var sb strings.Builder
	for _, line := range lines {
		for _, physical := range FoldLine(line) {
			sb.WriteString(physical)
			sb.WriteString("\r\n")
		}
	}
	return sb.String(), nil
}
