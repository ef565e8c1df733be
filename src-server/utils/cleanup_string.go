package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// strips spaces, title-cases, removes trailing period; used for person
// and provider names coming out of free-form record fields
func CleanupName(s string) string {
	s = strings.TrimSpace(s)
	s = cases.Title(language.English).String(s)
	s = strings.TrimSuffix(s, ".")
	return s
}

// Shorten a secret for logging; the full value must never hit the logs.
func TokenPrefix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + "..."
}
