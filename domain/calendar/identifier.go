package calendar

import (
	"strings"
	"time"
)

// recurrenceDateLayout is the date suffix format in dated identifiers.
const recurrenceDateLayout = "20060102"

// OccurrenceID names one occurrence across the request boundary. The
// canonical string form is the bare series UID for a non-recurring event,
// or UID_YYYYMMDD for one instance of a recurring series.
type OccurrenceID struct {
	BaseUID string
	// RecurrenceDate is the instance's start date; zero for a non-recurring
	// occurrence.
	RecurrenceDate time.Time
}

// HasRecurrenceDate reports whether the identifier names a specific
// instance of a recurring series.
func (id OccurrenceID) HasRecurrenceDate() bool {
	return !id.RecurrenceDate.IsZero()
}

// String returns the canonical identifier form.
func (id OccurrenceID) String() string {
	if !id.HasRecurrenceDate() {
		return id.BaseUID
	}
	return id.BaseUID + "_" + id.RecurrenceDate.Format(recurrenceDateLayout)
}

// EncodeOccurrenceID assigns the identifier for an occurrence. Instances of
// a recurring series get a date suffix taken from the occurrence's own start
// date; everything else is named by its UID alone.
func EncodeOccurrenceID(o Occurrence) OccurrenceID {
	if !o.Recurring {
		return OccurrenceID{BaseUID: o.UID}
	}
	return OccurrenceID{
		BaseUID:        o.UID,
		RecurrenceDate: dateOf(o.Start),
	}
}

// DecodeOccurrenceID parses an identifier string. The decode is heuristic:
// if the text after the last underscore is eight digits that parse as a
// valid calendar date, it is taken as the recurrence date and the prefix as
// the base UID. Otherwise the whole string is the base UID. A UID that
// itself ends in underscore plus eight digits is therefore indistinguishable
// from a dated identifier; the date reading wins.
func DecodeOccurrenceID(s string) OccurrenceID {
	if i := strings.LastIndex(s, "_"); i >= 0 {
		suffix := s[i+1:]
		if len(suffix) == 8 && isDigits(suffix) {
			if d, err := time.Parse(recurrenceDateLayout, suffix); err == nil {
				return OccurrenceID{BaseUID: s[:i], RecurrenceDate: d}
			}
		}
	}
	return OccurrenceID{BaseUID: s}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// dateOf truncates a time to its date, on the naive timeline.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
