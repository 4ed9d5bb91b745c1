package services

import (
	"context"
	"time"

	"calbook-backend/application/ports"
	"calbook-backend/domain/calendar"

	"go.uber.org/zap"
)

// Business defaults for date-only events: an all-day booking blocks the
// working day rather than midnight-to-midnight.
const (
	defaultStartHour = 9
	defaultEndHour   = 17
)

// InviteResult is the outcome of a successful invitation.
type InviteResult struct {
	Occurrence       calendar.Occurrence
	ParticipantCount int
}

// InvitationService attaches a participant to one occurrence: resolve the
// identifier, dispatch the invite, then record the participant.
type InvitationService struct {
	resolver *calendar.Resolver
	ledger   ports.ParticipantLedger
	sender   ports.InvitationSender
	logger   *zap.Logger
}

// NewInvitationService creates an invitation service.
func NewInvitationService(resolver *calendar.Resolver, ledger ports.ParticipantLedger, sender ports.InvitationSender, logger *zap.Logger) *InvitationService {
	return &InvitationService{
		resolver: resolver,
		ledger:   ledger,
		sender:   sender,
		logger:   logger,
	}
}

// Invite resolves the identifier, sends the invitation and records the
// participant in the ledger, returning the updated count.
//
// The notification is dispatched before the ledger write. A send that
// succeeds followed by a failed write therefore leaves the participant
// notified but uncounted; the error is surfaced so the caller can retry,
// and the retry's duplicate ledger write is a no-op.
func (s *InvitationService) Invite(ctx context.Context, feed calendar.Feed, identifier, email string) (InviteResult, error) {
	occ, err := s.resolver.Resolve(feed, identifier)
	if err != nil {
		return InviteResult{}, err
	}

	id := calendar.DecodeOccurrenceID(identifier)
	start, end := normalizeTimes(occ)

	inv := ports.Invitation{
		ToEmail:        email,
		Summary:        occ.Summary,
		Description:    occ.Description,
		Start:          start,
		End:            end,
		Location:       occ.Location,
		SeriesUID:      occ.UID,
		RecurrenceDate: id.RecurrenceDate,
	}
	if err := s.sender.SendInvitation(ctx, inv); err != nil {
		s.logger.Error("invitation dispatch failed",
			zap.String("event_id", id.String()),
			zap.String("email", email),
			zap.Error(err),
		)
		return InviteResult{}, err
	}

	count, err := s.ledger.RecordParticipant(ctx, ports.ParticipantRecord{
		EventID:      id.String(),
		EventSummary: occ.Summary,
		EventStart:   start,
		EventEnd:     end,
		Email:        email,
	})
	if err != nil {
		s.logger.Error("participant ledger write failed after dispatch",
			zap.String("event_id", id.String()),
			zap.String("email", email),
			zap.Error(err),
		)
		return InviteResult{}, err
	}

	s.logger.Info("invitation sent",
		zap.String("event_id", id.String()),
		zap.String("email", email),
		zap.Int("participant_count", count),
	)
	return InviteResult{Occurrence: occ, ParticipantCount: count}, nil
}

// normalizeTimes turns date-only starts and ends into concrete datetimes
// using the business-day defaults.
func normalizeTimes(occ calendar.Occurrence) (time.Time, time.Time) {
	start, end := occ.Start, occ.End
	if occ.StartIsDate {
		start = time.Date(start.Year(), start.Month(), start.Day(), defaultStartHour, 0, 0, 0, time.UTC)
	}
	if occ.EndIsDate {
		end = time.Date(end.Year(), end.Month(), end.Day(), defaultEndHour, 0, 0, 0, time.UTC)
	}
	return start, end
}
