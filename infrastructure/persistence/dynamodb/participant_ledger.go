// Package dynamodb implements the participant ledger on DynamoDB. Each
// occurrence identifier owns one item; idempotent append-and-increment is
// done with conditional writes so concurrent invitations for the same
// identifier serialize on the item and different identifiers never contend.
package dynamodb

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"calbook-backend/application/ports"
	appErrors "calbook-backend/pkg/errors"
)

// dynamoAPI is the subset of the DynamoDB client the ledger uses.
type dynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// ledgerItem is the DynamoDB item for one occurrence identifier. Summary,
// start and end are denormalized at first write and never resynced.
type ledgerItem struct {
	EventID          string   `dynamodbav:"EventID"`
	EventSummary     string   `dynamodbav:"EventSummary"`
	EventStart       string   `dynamodbav:"EventStart"`
	EventEnd         string   `dynamodbav:"EventEnd"`
	Participants     []string `dynamodbav:"Participants,stringset"`
	ParticipantCount int      `dynamodbav:"ParticipantCount"`
	CreatedAt        string   `dynamodbav:"CreatedAt"`
	LastUpdated      string   `dynamodbav:"LastUpdated"`
}

// ParticipantLedgerStore implements ports.ParticipantLedger.
type ParticipantLedgerStore struct {
	client    dynamoAPI
	tableName string
	logger    *zap.Logger
	now       func() time.Time
}

// NewParticipantLedgerStore creates a ledger store for the given table.
func NewParticipantLedgerStore(client *dynamodb.Client, tableName string, logger *zap.Logger) *ParticipantLedgerStore {
	return &ParticipantLedgerStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
		now:       time.Now,
	}
}

// ParticipantCount returns the stored count for an identifier, zero when no
// entry exists.
func (s *ParticipantLedgerStore) ParticipantCount(ctx context.Context, eventID string) (int, error) {
	proj := expression.NamesList(expression.Name("ParticipantCount"))
	expr, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		return 0, appErrors.NewDatabaseError("build projection", err)
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(s.tableName),
		Key:                      ledgerKey(eventID),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		return 0, appErrors.NewDatabaseError("get participant count", err)
	}
	if out.Item == nil {
		return 0, nil
	}

	var item ledgerItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return 0, appErrors.NewDatabaseError("unmarshal ledger item", err)
	}
	return item.ParticipantCount, nil
}

// RecordParticipant idempotently adds a participant to an identifier's
// entry and returns the updated count.
//
// Write path: a conditional create for the first participant, then a
// conditional append-and-increment guarded on the participant not already
// being in the set. Every interleaving of concurrent calls lands in exactly
// one of the three arms, so the count always equals the number of distinct
// participants recorded.
func (s *ParticipantLedgerStore) RecordParticipant(ctx context.Context, rec ports.ParticipantRecord) (int, error) {
	created, err := s.tryCreate(ctx, rec)
	if err != nil {
		return 0, err
	}
	if created {
		return 1, nil
	}

	count, appended, err := s.tryAppend(ctx, rec)
	if err != nil {
		return 0, err
	}
	if appended {
		return count, nil
	}

	// Participant already present: the entry is unchanged, report the
	// current count.
	s.logger.Info("participant already recorded",
		zap.String("event_id", rec.EventID),
		zap.String("email", rec.Email),
	)
	return s.ParticipantCount(ctx, rec.EventID)
}

// tryCreate writes the initial entry. Returns false when the entry already
// exists (possibly created by a concurrent invitation).
func (s *ParticipantLedgerStore) tryCreate(ctx context.Context, rec ports.ParticipantRecord) (bool, error) {
	ts := s.now().UTC().Format(time.RFC3339)
	item, err := attributevalue.MarshalMap(ledgerItem{
		EventID:          rec.EventID,
		EventSummary:     rec.EventSummary,
		EventStart:       rec.EventStart.Format(time.RFC3339),
		EventEnd:         rec.EventEnd.Format(time.RFC3339),
		Participants:     []string{rec.Email},
		ParticipantCount: 1,
		CreatedAt:        ts,
		LastUpdated:      ts,
	})
	if err != nil {
		return false, appErrors.NewDatabaseError("marshal ledger item", err)
	}

	cond := expression.AttributeNotExists(expression.Name("EventID"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return false, appErrors.NewDatabaseError("build condition", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.tableName),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return false, nil
		}
		return false, appErrors.NewDatabaseError("create ledger entry", err)
	}

	s.logger.Info("ledger entry created",
		zap.String("event_id", rec.EventID),
		zap.String("email", rec.Email),
	)
	return true, nil
}

// tryAppend adds the participant to an existing entry and increments the
// count in one atomic update. Returns appended=false when the condition
// fails because the participant is already in the set.
func (s *ParticipantLedgerStore) tryAppend(ctx context.Context, rec ports.ParticipantRecord) (int, bool, error) {
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.tableName),
		Key:                 ledgerKey(rec.EventID),
		UpdateExpression:    aws.String("ADD Participants :pset, ParticipantCount :one SET LastUpdated = :ts"),
		ConditionExpression: aws.String("attribute_exists(EventID) AND NOT contains(Participants, :p)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pset": &types.AttributeValueMemberSS{Value: []string{rec.Email}},
			":one":  &types.AttributeValueMemberN{Value: "1"},
			":p":    &types.AttributeValueMemberS{Value: rec.Email},
			":ts":   &types.AttributeValueMemberS{Value: s.now().UTC().Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return 0, false, nil
		}
		return 0, false, appErrors.NewDatabaseError("append participant", err)
	}

	count, err := countFromAttributes(out.Attributes)
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

func ledgerKey(eventID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"EventID": &types.AttributeValueMemberS{Value: eventID},
	}
}

func countFromAttributes(attrs map[string]types.AttributeValue) (int, error) {
	n, ok := attrs["ParticipantCount"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, appErrors.NewDatabaseError("read participant count", errors.New("missing ParticipantCount attribute"))
	}
	count, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, appErrors.NewDatabaseError("read participant count", err)
	}
	return count, nil
}
