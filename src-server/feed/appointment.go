package feed

import (
	"encoding/json"
	"fmt"
	"time"
)

// The shape we hope to find inside a contact record's content column.
// Everything is optional; the blob is written by older app versions too.
type AppointmentContent struct {
	NextAppointment string `json:"next_appointment"`
	Location        string `json:"location"`
	Notes           string `json:"notes"`
}

// layouts the mobile clients have historically written
var appointmentLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseNextAppointment digs the next-appointment time out of a contact
// record's free-form JSON content. Any failure (not JSON, no timestamp,
// unknown layout) is an error the caller downgrades to "skip record".
func ParseNextAppointment(content string) (time.Time, AppointmentContent, error) {
	var parsed AppointmentContent
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return time.Time{}, AppointmentContent{}, fmt.Errorf("content is not valid JSON: %w", err)
	}
	if parsed.NextAppointment == "" {
		return time.Time{}, AppointmentContent{}, fmt.Errorf("no next_appointment field")
	}
	for _, layout := range appointmentLayouts {
		if t, err := time.Parse(layout, parsed.NextAppointment); err == nil {
			return t.UTC(), parsed, nil
		}
	}
	return time.Time{}, AppointmentContent{}, fmt.Errorf("unrecognized next_appointment format: %q", parsed.NextAppointment)
}
