package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"calbook-backend/application/ports"
	"calbook-backend/domain/calendar"
)

// fakeRecurrence returns canned instances per series UID.
type fakeRecurrence struct {
	instances map[string][]calendar.Occurrence
}

func (f *fakeRecurrence) ExpandSeries(def calendar.EventDefinition, windowStart, windowEnd time.Time) ([]calendar.Occurrence, error) {
	return f.instances[def.UID], nil
}

// fakeLedger is an in-memory idempotent participant ledger.
type fakeLedger struct {
	participants map[string]map[string]bool
	countErr     error
	recordErr    error
	records      []ports.ParticipantRecord
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{participants: map[string]map[string]bool{}}
}

func (f *fakeLedger) ParticipantCount(ctx context.Context, eventID string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.participants[eventID]), nil
}

func (f *fakeLedger) RecordParticipant(ctx context.Context, rec ports.ParticipantRecord) (int, error) {
	if f.recordErr != nil {
		return 0, f.recordErr
	}
	f.records = append(f.records, rec)
	set := f.participants[rec.EventID]
	if set == nil {
		set = map[string]bool{}
		f.participants[rec.EventID] = set
	}
	set[rec.Email] = true
	return len(set), nil
}

func fixtureFeed() calendar.Feed {
	return calendar.Feed{Events: []calendar.EventDefinition{
		{
			UID:     "E1",
			Summary: "Kickoff",
			Start:   time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC),
			End:     time.Date(2024, 6, 10, 11, 0, 0, 0, time.UTC),
		},
		{
			UID:            "E2",
			Summary:        "Weekly sync",
			Start:          time.Date(2024, 6, 6, 10, 0, 0, 0, time.UTC),
			End:            time.Date(2024, 6, 6, 11, 0, 0, 0, time.UTC),
			RecurrenceRule: "FREQ=WEEKLY;COUNT=2",
		},
	}}
}

func fixtureExpander() *calendar.Expander {
	return calendar.NewExpander(&fakeRecurrence{instances: map[string][]calendar.Occurrence{
		"E2": {
			{UID: "E2", Summary: "Weekly sync", Start: time.Date(2024, 6, 6, 10, 0, 0, 0, time.UTC), End: time.Date(2024, 6, 6, 11, 0, 0, 0, time.UTC), Recurring: true},
			{UID: "E2", Summary: "Weekly sync", Start: time.Date(2024, 6, 13, 10, 0, 0, 0, time.UTC), End: time.Date(2024, 6, 13, 11, 0, 0, 0, time.UTC), Recurring: true},
		},
	}})
}

func TestListUpcoming(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewListingService(fixtureExpander(), ledger, zap.NewNop(), 90)

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	got, err := svc.ListUpcoming(context.Background(), fixtureFeed(), from, 3)

	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "E2_20240606", got[0].ID)
	assert.Equal(t, "E1", got[1].ID)
	assert.Equal(t, "E2_20240613", got[2].ID)

	for _, item := range got {
		assert.Equal(t, 0, item.ParticipantCount, "unrecorded occurrences count zero")
	}
}

func TestListUpcomingTruncatesToCount(t *testing.T) {
	svc := NewListingService(fixtureExpander(), newFakeLedger(), zap.NewNop(), 90)

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	got, err := svc.ListUpcoming(context.Background(), fixtureFeed(), from, 2)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "E2_20240606", got[0].ID)
	assert.Equal(t, "E1", got[1].ID)
}

func TestListUpcomingIncludesRecordedCounts(t *testing.T) {
	ledger := newFakeLedger()
	ledger.participants["E1"] = map[string]bool{"a@example.com": true, "b@example.com": true}

	svc := NewListingService(fixtureExpander(), ledger, zap.NewNop(), 90)

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	got, err := svc.ListUpcoming(context.Background(), fixtureFeed(), from, 3)

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 0, got[0].ParticipantCount)
	assert.Equal(t, 2, got[1].ParticipantCount)
}

func TestListUpcomingDegradesOnLedgerFailure(t *testing.T) {
	ledger := newFakeLedger()
	ledger.countErr = errors.New("dynamodb unavailable")

	svc := NewListingService(fixtureExpander(), ledger, zap.NewNop(), 90)

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	got, err := svc.ListUpcoming(context.Background(), fixtureFeed(), from, 3)

	require.NoError(t, err, "a count lookup failure must not fail the listing")
	require.Len(t, got, 3)
	for _, item := range got {
		assert.Equal(t, 0, item.ParticipantCount)
	}
}

func TestListUpcomingWindowEnd(t *testing.T) {
	feed := calendar.Feed{Events: []calendar.EventDefinition{
		{UID: "inside", Start: time.Date(2024, 8, 30, 10, 0, 0, 0, time.UTC), End: time.Date(2024, 8, 30, 11, 0, 0, 0, time.UTC)},
		{UID: "beyond", Start: time.Date(2024, 9, 15, 10, 0, 0, 0, time.UTC), End: time.Date(2024, 9, 15, 11, 0, 0, 0, time.UTC)},
	}}

	svc := NewListingService(calendar.NewExpander(&fakeRecurrence{}), newFakeLedger(), zap.NewNop(), 90)

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	got, err := svc.ListUpcoming(context.Background(), feed, from, 3)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "inside", got[0].ID)
}
