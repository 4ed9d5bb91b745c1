package calendar

import (
	"sort"
	"time"
)

// RecurrenceExpander materializes the instances of one recurring series
// whose effective start falls inside the window. Instances inherit the
// series' summary, description and location, carry concrete start/end times
// and are marked Recurring. Rule evaluation itself is delegated to this
// collaborator; the expander trusts its output.
type RecurrenceExpander interface {
	ExpandSeries(def EventDefinition, windowStart, windowEnd time.Time) ([]Occurrence, error)
}

// Expander turns a feed plus a time window into the ordered sequence of
// concrete occurrences inside that window.
//
// The whole comparison happens on a single timezone-naive timeline: zone
// offsets are stripped, date-only values are combined with midnight. This
// assumes feed and caller share one effective timezone, which is a
// deliberate simplification.
type Expander struct {
	recurrence RecurrenceExpander
}

// NewExpander creates an expander backed by the given recurrence collaborator.
func NewExpander(recurrence RecurrenceExpander) *Expander {
	return &Expander{recurrence: recurrence}
}

// Expand returns every occurrence whose start lies in [windowStart,
// windowEnd], inclusive, sorted ascending by start. Ties keep feed order. A
// definition without a start, or a series whose rule fails to evaluate, is
// skipped so one malformed entry cannot take down the listing.
func (e *Expander) Expand(feed Feed, windowStart, windowEnd time.Time) []Occurrence {
	windowStart = Naive(windowStart)
	windowEnd = Naive(windowEnd)

	var out []Occurrence
	for _, def := range feed.Events {
		if def.Start.IsZero() {
			continue
		}

		if def.IsRecurring() {
			instances, err := e.recurrence.ExpandSeries(def, windowStart, windowEnd)
			if err != nil {
				continue
			}
			for _, occ := range instances {
				occ.Start = Naive(occ.Start)
				occ.End = Naive(occ.End)
				if inWindow(occ.Start, windowStart, windowEnd) {
					out = append(out, occ)
				}
			}
			continue
		}

		occ := occurrenceOf(def)
		occ.Start = Naive(occ.Start)
		occ.End = Naive(occ.End)
		if inWindow(occ.Start, windowStart, windowEnd) {
			out = append(out, occ)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// Naive strips the zone offset from a time, keeping its wall-clock reading.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// StartOfDay returns midnight of the given day on the naive timeline.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last representable instant of the given day on the
// naive timeline.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}
