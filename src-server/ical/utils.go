package ical

import (
	"strings"
	"time"
	"unicode/utf8"
)

// The longest a physical output line may get, in octets, excluding CRLF.
const maxLineOctets = 75

// Escape a text value for use in an iCalendar property. The replacement
// order matters: backslash first (or later escapes would be re-escaped),
// then the delimiters, then every newline variant down to a literal \n.
func EscapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, ";", `\;`)
	s = strings.ReplaceAll(s, ",", `\,`)
	s = strings.ReplaceAll(s, "\r\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\n`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

// Fold one logical line into physical lines of at most 75 octets. Every
// continuation line starts with a single space and carries up to 74
// more octets. Splits never land inside a UTF-8 sequence, so stripping
// CRLF plus the leading space reconstructs the input exactly.
func FoldLine(line string) []string {
	if len(line) <= maxLineOctets {
		return []string{line}
	}

	physical := make([]string, 0, len(line)/maxLineOctets+1)
	var sb strings.Builder
	limit := maxLineOctets

	for i := 0; i < len(line); {
		_, size := utf8.DecodeRuneInString(line[i:])
		if sb.Len()+size > limit {
			physical = append(physical, sb.String())
			sb.Reset()
			sb.WriteString(" ")
			limit = maxLineOctets
		}
		sb.WriteString(line[i : i+size])
		i += size
	}
	if sb.Len() > 0 {
		physical = append(physical, sb.String())
	}
	return physical
}

// Convert a time to iCalendar UTC basic format: YYYYMMDDTHHMMSSZ
func TimeToIcalDatetime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// Convert a unix UTC timestamp to iCalendar UTC basic format
func UnixToIcalDatetime(unix int64) string {
	return TimeToIcalDatetime(time.Unix(unix, 0))
}
