// Package ports defines the collaborator interfaces the application layer
// depends on. Implementations live under infrastructure/.
package ports

import (
	"context"
	"time"

	"calbook-backend/domain/calendar"
)

// FeedSource fetches and parses the calendar feed. The feed is fetched
// fresh per request and treated as immutable for the request's duration.
type FeedSource interface {
	FetchFeed(ctx context.Context) (calendar.Feed, error)
}

// ParameterStore retrieves configuration values such as the feed URL and
// the expected API key.
type ParameterStore interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// ParticipantRecord is the input for one ledger write. Summary, start and
// end are denormalized into the entry on first write and never resynced.
type ParticipantRecord struct {
	EventID      string
	EventSummary string
	EventStart   time.Time
	EventEnd     time.Time
	Email        string
}

// ParticipantLedger is the persistent, idempotent participant record per
// occurrence identifier. RecordParticipant returns the updated count; a
// repeat of the same (event, email) pair leaves the entry unchanged and
// returns the current count.
type ParticipantLedger interface {
	ParticipantCount(ctx context.Context, eventID string) (int, error)
	RecordParticipant(ctx context.Context, rec ParticipantRecord) (int, error)
}

// Invitation carries everything the notification transport needs to build
// and send a calendar invite. RecurrenceDate is zero unless the invite is
// for one instance of a recurring series.
type Invitation struct {
	ToEmail        string
	Summary        string
	Description    string
	Start          time.Time
	End            time.Time
	Location       string
	SeriesUID      string
	RecurrenceDate time.Time
}

// InvitationSender dispatches an invitation through the outbound
// notification transport.
type InvitationSender interface {
	SendInvitation(ctx context.Context, inv Invitation) error
}
