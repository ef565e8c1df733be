package ical

import (
	"fmt"
	"time"
)

// A single VEVENT, transient: built per request, serialized, discarded.
// The id must be deterministic for the underlying record so calendar
// apps re-polling the feed see updates instead of duplicates.
type Event struct {
	id          string
	summary     string
	description string
	location    string
	category    string
	startDate   int64
	endDate     int64
}

func NewEvent() *Event {
	return &Event{}
}

// #region Getters

// Get the event ID
func (e *Event) GetID() string {
	return e.id
}

// Get the event summary
func (e *Event) GetSummary() string {
	return e.summary
}

// Get the event description
func (e *Event) GetDescription() string {
	return e.description
}

// Get the event location
func (e *Event) GetLocation() string {
	return e.location
}

// Get the event category
func (e *Event) GetCategory() string {
	return e.category
}

// Get the event start date as unix UTC
func (e *Event) GetStartDate() int64 {
	return e.startDate
}

// Get the event end date as unix UTC
func (e *Event) GetEndDate() int64 {
	return e.endDate
}

// #endregion

// #region Setters

func (e *Event) SetID(id string) *Event {
	e.id = id
	return e
}

func (e *Event) SetSummary(summary string) *Event {
	e.summary = summary
	return e
}

func (e *Event) SetDescription(description string) *Event {
	e.description = description
	return e
}

func (e *Event) SetLocation(location string) *Event {
	e.location = location
	return e
}

func (e *Event) SetCategory(category string) *Event {
	e.category = category
	return e
}

func (e *Event) SetStartDate(startDate int64) *Event {
	e.startDate = startDate
	return e
}

func (e *Event) SetEndDate(endDate int64) *Event {
	e.endDate = endDate
	return e
}

// #endregion

func (e *Event) Validate() error {
	switch {
	case e.id == "":
		return fmt.Errorf("id is missing")
	case e.summary == "":
		return fmt.Errorf("summary is missing")
	case e.startDate == 0:
		return fmt.Errorf("start date is missing")
	case e.endDate == 0:
		return fmt.Errorf("end date is missing")
	case e.startDate > e.endDate:
		return fmt.Errorf("start date must be before end date")
	default:
		return nil
	}
}

// Logical (unfolded) lines for one VEVENT block.
func (e *Event) toIcalLines(stamp time.Time) ([]string, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	lines := []string{
		"BEGIN:VEVENT",
		"UID:" + e.id,
		"DTSTAMP:" + TimeToIcalDatetime(stamp),
		"DTSTART:" + UnixToIcalDatetime(e.startDate),
		"DTEND:" + UnixToIcalDatetime(e.endDate),
		"SUMMARY:" + EscapeText(e.summary),
	}
	if e.description != "" {
		lines = append(lines, "DESCRIPTION:"+EscapeText(e.description))
	}
	if e.location != "" {
		lines = append(lines, "LOCATION:"+EscapeText(e.location))
	}
	if e.category != "" {
		lines = append(lines, "CATEGORIES:"+EscapeText(e.category))
	}
	lines = append(lines, "END:VEVENT")

	return lines, nil
}
