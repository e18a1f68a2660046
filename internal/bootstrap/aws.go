package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/target/csv-ingestor/config"
	"github.com/target/csv-ingestor/internal/adapters/secrets"
	"github.com/target/csv-ingestor/internal/core"
	"github.com/target/csv-ingestor/internal/domain/model"
)

// LoadAWSConfig resolves the shared SDK configuration. Static credentials, when configured,
// replace the default chain.
func LoadAWSConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.HasStaticCredentials() {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.StaticAccessKeyID, cfg.StaticSecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

// NewCredentialSource returns the Secrets Manager source when a secret is configured and the
// static DB_* settings otherwise.
//
//nolint:ireturn // the source is selected at runtime.
func NewCredentialSource(awsCfg aws.Config, cfg *config.AppConfig) (core.CredentialSource, error) {
	if cfg.Secrets.SecretName != "" {
		src, err := secrets.NewSecretsManagerSource(secrets.NewClient(awsCfg, cfg.AWS.Endpoint), cfg.Secrets.SecretName)
		if err != nil {
			return nil, fmt.Errorf("secrets manager source: %w", err)
		}
		return src, nil
	}
	src, err := secrets.NewStaticSource(model.DBCredentials{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		DBName:   cfg.Postgres.Name,
		Username: cfg.Postgres.User,
		Password: cfg.Postgres.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("static database credentials: %w", err)
	}
	return src, nil
}
