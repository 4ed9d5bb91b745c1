package services

import (
	"context"
	"time"

	"calbook-backend/application/ports"
	"calbook-backend/domain/calendar"

	"go.uber.org/zap"
)

// DefaultWindowDays is how far ahead the listing looks for occurrences.
const DefaultWindowDays = 90

// UpcomingOccurrence is one listed occurrence together with its identifier
// and the current participant count.
type UpcomingOccurrence struct {
	ID               string
	Occurrence       calendar.Occurrence
	ParticipantCount int
}

// ListingService answers "next N occurrences" queries by composing the
// expander with the participant ledger.
type ListingService struct {
	expander   *calendar.Expander
	ledger     ports.ParticipantLedger
	logger     *zap.Logger
	windowDays int
}

// NewListingService creates a listing service. windowDays <= 0 falls back
// to DefaultWindowDays.
func NewListingService(expander *calendar.Expander, ledger ports.ParticipantLedger, logger *zap.Logger, windowDays int) *ListingService {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &ListingService{
		expander:   expander,
		ledger:     ledger,
		logger:     logger,
		windowDays: windowDays,
	}
}

// ListUpcoming expands the feed over [from, from+windowDays], assigns each
// occurrence its identifier and returns the first count occurrences in
// start order with their participant counts. An occurrence without a ledger
// entry has count zero; that is the normal state, not an error. A ledger
// read failure degrades that one count to zero rather than failing the
// whole listing.
func (s *ListingService) ListUpcoming(ctx context.Context, feed calendar.Feed, from time.Time, count int) ([]UpcomingOccurrence, error) {
	windowStart := calendar.StartOfDay(from)
	windowEnd := calendar.EndOfDay(from.AddDate(0, 0, s.windowDays))

	occurrences := s.expander.Expand(feed, windowStart, windowEnd)
	if count < len(occurrences) {
		occurrences = occurrences[:count]
	}

	out := make([]UpcomingOccurrence, 0, len(occurrences))
	for _, occ := range occurrences {
		id := calendar.EncodeOccurrenceID(occ).String()

		n, err := s.ledger.ParticipantCount(ctx, id)
		if err != nil {
			s.logger.Warn("participant count lookup failed, defaulting to zero",
				zap.String("event_id", id),
				zap.Error(err),
			)
			n = 0
		}

		out = append(out, UpcomingOccurrence{
			ID:               id,
			Occurrence:       occ,
			ParticipantCount: n,
		})
	}

	s.logger.Info("listed upcoming occurrences",
		zap.Time("window_start", windowStart),
		zap.Time("window_end", windowEnd),
		zap.Int("returned", len(out)),
	)
	return out, nil
}
