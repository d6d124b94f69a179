package model

import (
	"strings"
	"time"
)

// OccurrenceLayout is the time layout used when rendering agenda lines.
const OccurrenceLayout = "2006-01-02 15:04"

// Occurrence is a single resolved agenda entry.
type Occurrence struct {
	Time  time.Time
	Label string
}

// CompareOccurrences orders occurrences by time, then by label.
func CompareOccurrences(a, b Occurrence) int {
	if c := a.Time.Compare(b.Time); c != 0 {
		return c
	}
	return strings.Compare(a.Label, b.Label)
}

// Equal reports whether o and other denote the same agenda entry.
func (o Occurrence) Equal(other Occurrence) bool {
	return CompareOccurrences(o, other) == 0
}

// String renders the occurrence as an agenda line: "[2024-03-01 09:00] Dentist".
func (o Occurrence) String() string {
	return "[" + o.Time.Format(OccurrenceLayout) + "] " + o.Label
}
