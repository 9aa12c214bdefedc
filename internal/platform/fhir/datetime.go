package fhir

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the FHIR date format used for birthDate.
const DateLayout = "2006-01-02"

// dateTimeLayouts are tried in order; FHIR allows reduced precision.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	DateLayout,
	"2006-01",
	"2006",
}

// ParseDateTime parses a FHIR date, dateTime or instant into UTC.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid FHIR dateTime %q", s)
}

// FormatDateTime renders t as a FHIR dateTime. The zero time renders as "".
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// FormatInstant renders t as a FHIR instant.
func FormatInstant(t time.Time) string {
	return FormatDateTime(t)
}

// FormatDate renders t as a FHIR date.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}
