// Package recurrence implements the recurrence-expansion collaborator on
// top of the rrule library.
package recurrence

import (
	"time"

	"github.com/teambition/rrule-go"

	"calbook-backend/domain/calendar"
)

// maxInstancesPerSeries caps expansion so a pathological rule cannot blow
// up a single request.
const maxInstancesPerSeries = 1000

// RRuleExpander expands a recurring series through its RRULE, honoring
// EXDATE exceptions. Everything is evaluated on the naive timeline the
// expander uses for window comparisons.
type RRuleExpander struct{}

// NewRRuleExpander creates an RRuleExpander.
func NewRRuleExpander() *RRuleExpander {
	return &RRuleExpander{}
}

// ExpandSeries materializes the instances of one series whose start falls
// in [windowStart, windowEnd]. Each instance inherits the series' fields,
// keeps the series' duration and is marked Recurring.
func (e *RRuleExpander) ExpandSeries(def calendar.EventDefinition, windowStart, windowEnd time.Time) ([]calendar.Occurrence, error) {
	rule, err := rrule.StrToRRule(def.RecurrenceRule)
	if err != nil {
		return nil, err
	}

	dtStart := calendar.Naive(def.Start)
	rule.DTStart(dtStart)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range def.ExceptionDates {
		set.ExDate(calendar.Naive(ex))
	}

	starts := set.Between(windowStart, windowEnd, true)
	if len(starts) > maxInstancesPerSeries {
		starts = starts[:maxInstancesPerSeries]
	}

	duration := def.End.Sub(def.Start)

	out := make([]calendar.Occurrence, 0, len(starts))
	for _, start := range starts {
		out = append(out, calendar.Occurrence{
			UID:         def.UID,
			Summary:     def.Summary,
			Description: def.Description,
			Location:    def.Location,
			Start:       start,
			End:         start.Add(duration),
			StartIsDate: def.StartIsDate,
			EndIsDate:   def.EndIsDate,
			Recurring:   true,
		})
	}
	return out, nil
}
