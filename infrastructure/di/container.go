// Package di wires the application graph: AWS clients, collaborator
// implementations and the composed services.
package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awssesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"

	"calbook-backend/application/ports"
	"calbook-backend/application/services"
	"calbook-backend/domain/calendar"
	"calbook-backend/infrastructure/config"
	"calbook-backend/infrastructure/email"
	"calbook-backend/infrastructure/feed"
	dynamodbstore "calbook-backend/infrastructure/persistence/dynamodb"
	"calbook-backend/infrastructure/recurrence"
	"calbook-backend/infrastructure/secrets"
)

// Container holds the wired application graph.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	ParameterStore ports.ParameterStore
	FeedSource     ports.FeedSource
	Ledger         ports.ParticipantLedger
	Sender         ports.InvitationSender

	Listing     *services.ListingService
	Invitations *services.InvitationService
}

// InitializeContainer builds the full graph from configuration.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}

	awsCfg, err := ProvideAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	params := secrets.NewSSMParameterStore(awsssm.NewFromConfig(awsCfg), logger)
	ledger := dynamodbstore.NewParticipantLedgerStore(awsdynamodb.NewFromConfig(awsCfg), cfg.LedgerTable, logger)
	feedSource := feed.NewICSFeedSource(params, cfg.FeedURLParam, logger)
	sender := email.NewSESInvitationSender(awssesv2.NewFromConfig(awsCfg), params, cfg.SenderEmailParam, logger)

	expander := calendar.NewExpander(recurrence.NewRRuleExpander())
	resolver := calendar.NewResolver(expander)

	return &Container{
		Config:         cfg,
		Logger:         logger,
		ParameterStore: params,
		FeedSource:     feedSource,
		Ledger:         ledger,
		Sender:         sender,
		Listing:        services.NewListingService(expander, ledger, logger, cfg.WindowDays),
		Invitations:    services.NewInvitationService(resolver, ledger, sender, logger),
	}, nil
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}
