// Package calendar contains the core calendar model: event definitions as
// they arrive from an iCalendar feed, concrete occurrences produced by
// recurrence expansion, and the identifier scheme that names one occurrence
// across the request boundary.
package calendar

import "time"

// EventDefinition is one VEVENT from the feed. For a recurring series it is
// the base definition; concrete instances are produced by expansion.
type EventDefinition struct {
	UID         string
	Summary     string
	Description string
	Location    string

	// Start and End hold the event's own times. A zero Start marks a
	// malformed entry (DTSTART missing); expansion skips such entries
	// instead of failing the whole feed.
	Start time.Time
	End   time.Time

	// StartIsDate / EndIsDate record whether the feed carried a date-only
	// value (all-day semantics) rather than a date-time.
	StartIsDate bool
	EndIsDate   bool

	// RecurrenceRule is the raw RRULE value, empty for non-recurring events.
	RecurrenceRule string
	// ExceptionDates are EXDATE values removed from the recurrence set.
	ExceptionDates []time.Time
}

// IsRecurring reports whether this definition expands into a series.
func (d EventDefinition) IsRecurring() bool {
	return d.RecurrenceRule != ""
}

// Feed is the parsed calendar feed for one request. It is read-only input;
// every core operation receives it explicitly rather than reading shared
// process state.
type Feed struct {
	Events []EventDefinition
}

// FindByUID returns the event definition with the given UID.
func (f Feed) FindByUID(uid string) (EventDefinition, bool) {
	for _, ev := range f.Events {
		if ev.UID == uid {
			return ev, true
		}
	}
	return EventDefinition{}, false
}

// Occurrence is one concrete instantiation of an event. A non-recurring
// event yields exactly one occurrence equal to its definition; a recurring
// series yields one per instance inside the query window.
type Occurrence struct {
	UID         string
	Summary     string
	Description string
	Location    string

	Start time.Time
	End   time.Time

	StartIsDate bool
	EndIsDate   bool

	// Recurring marks an instance of a series, as opposed to the sole
	// occurrence of a non-recurring event. It decides the identifier form.
	Recurring bool
}

// occurrenceOf materializes the sole occurrence of a non-recurring event.
func occurrenceOf(d EventDefinition) Occurrence {
	return Occurrence{
		UID:         d.UID,
		Summary:     d.Summary,
		Description: d.Description,
		Location:    d.Location,
		Start:       d.Start,
		End:         d.End,
		StartIsDate: d.StartIsDate,
		EndIsDate:   d.EndIsDate,
	}
}
