package calendar

import (
	appErrors "calbook-backend/pkg/errors"
)

// Resolver locates the exact occurrence named by an identifier string.
type Resolver struct {
	expander *Expander
}

// NewResolver creates a resolver that re-expands through the given expander.
func NewResolver(expander *Expander) *Resolver {
	return &Resolver{expander: expander}
}

// Resolve decodes the identifier and finds the occurrence it names. For a
// dated identifier only the single target day is re-expanded, restricted to
// the one series, rather than re-deriving the whole 90-day listing window.
// A missing base event or an instance that does not exist on the encoded
// date both yield a not-found error.
func (r *Resolver) Resolve(feed Feed, identifier string) (Occurrence, error) {
	id := DecodeOccurrenceID(identifier)

	def, ok := feed.FindByUID(id.BaseUID)
	if !ok {
		return Occurrence{}, appErrors.NewNotFoundError("event " + identifier)
	}

	if !id.HasRecurrenceDate() {
		return occurrenceOf(def), nil
	}

	dayStart := StartOfDay(id.RecurrenceDate)
	dayEnd := EndOfDay(id.RecurrenceDate)

	series := Feed{Events: []EventDefinition{def}}
	for _, occ := range r.expander.Expand(series, dayStart, dayEnd) {
		if dateOf(occ.Start).Equal(id.RecurrenceDate) {
			return occ, nil
		}
	}

	return Occurrence{}, appErrors.NewNotFoundError("occurrence " + identifier)
}
