package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"

	"solana-nft-mint/internal/solana"
)

// SecretsAPI is the subset of the Secrets Manager client used to load keys.
type SecretsAPI interface {
	// GetSecretValue retrieves the value of a secret from AWS Secrets Manager.
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

var _ SecretsAPI = (*secretsmanager.Client)(nil)

// SecretSource reads a keypair JSON array stored as a Secrets Manager string secret.
type SecretSource struct {
	Client   SecretsAPI
	SecretID string
}

// NewSecretSource creates a SecretSource from the default AWS credential chain.
func NewSecretSource(ctx context.Context, secretID, region string) (*SecretSource, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if region != "" {
		cfg.Region = region
	}
	return &SecretSource{Client: secretsmanager.NewFromConfig(cfg), SecretID: secretID}, nil
}

// Load implements Source.
func (s *SecretSource) Load(ctx context.Context) (*solana.Keypair, error) {
	out, err := s.Client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.SecretID),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceNotFoundException" {
			return nil, fmt.Errorf("secret %s: %w", s.SecretID, ErrKeyNotFound)
		}
		return nil, fmt.Errorf("get secret %s: %w", s.SecretID, err)
	}

	var data []byte
	switch {
	case out.SecretString != nil:
		data = []byte(*out.SecretString)
	case len(out.SecretBinary) > 0:
		data = out.SecretBinary
	default:
		return nil, fmt.Errorf("secret %s is empty: %w", s.SecretID, ErrKeyNotFound)
	}

	kp, err := solana.KeypairFromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("secret %s: %w", s.SecretID, err)
	}
	return kp, nil
}
