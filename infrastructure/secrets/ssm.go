// Package secrets retrieves configuration parameters from AWS Systems
// Manager Parameter Store.
package secrets

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"

	appErrors "calbook-backend/pkg/errors"
)

// ssmAPI is the subset of the SSM client the store uses.
type ssmAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMParameterStore reads parameters with decryption enabled.
type SSMParameterStore struct {
	client ssmAPI
	logger *zap.Logger
}

// NewSSMParameterStore creates a parameter store backed by the given client.
func NewSSMParameterStore(client *ssm.Client, logger *zap.Logger) *SSMParameterStore {
	return &SSMParameterStore{client: client, logger: logger}
}

// GetParameter returns the decrypted value of the named parameter.
func (s *SSMParameterStore) GetParameter(ctx context.Context, name string) (string, error) {
	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		s.logger.Error("parameter retrieval failed", zap.String("name", name), zap.Error(err))
		return "", appErrors.NewUnavailableError("parameter store", err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", appErrors.NewUnavailableError("parameter store", nil)
	}
	return *out.Parameter.Value, nil
}
