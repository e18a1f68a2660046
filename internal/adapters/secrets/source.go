// Package secrets provides database credential sources.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/target/csv-ingestor/internal/core"
	"github.com/target/csv-ingestor/internal/domain/model"
)

// GetSecretValueAPI is the subset of the Secrets Manager client used here.
type GetSecretValueAPI interface {
	GetSecretValue(
		ctx context.Context,
		in *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// NewClient builds a Secrets Manager client, honouring a custom endpoint for local stacks.
func NewClient(cfg aws.Config, endpoint string) *secretsmanager.Client {
	return secretsmanager.NewFromConfig(cfg, func(o *secretsmanager.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

// SecretsManagerSource reads credentials from one secret on every Fetch, so rotated
// passwords are picked up by the next invocation.
type SecretsManagerSource struct {
	api      GetSecretValueAPI
	secretID string
}

var _ core.CredentialSource = (*SecretsManagerSource)(nil)

// NewSecretsManagerSource constructs a source for secretID.
func NewSecretsManagerSource(api GetSecretValueAPI, secretID string) (*SecretsManagerSource, error) {
	if api == nil {
		return nil, errors.New("secrets manager client is required")
	}
	if strings.TrimSpace(secretID) == "" {
		return nil, errors.New("secret name is required")
	}
	return &SecretsManagerSource{api: api, secretID: secretID}, nil
}

// Fetch implements core.CredentialSource.
func (s *SecretsManagerSource) Fetch(ctx context.Context) (model.DBCredentials, error) {
	out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.secretID),
	})
	if err != nil {
		return model.DBCredentials{}, fmt.Errorf("get secret %s: %w", s.secretID, err)
	}

	raw := aws.ToString(out.SecretString)
	if raw == "" && len(out.SecretBinary) > 0 {
		raw = string(out.SecretBinary)
	}
	creds, err := decodeCredentials([]byte(raw))
	if err != nil {
		return model.DBCredentials{}, fmt.Errorf("secret %s: %w", s.secretID, err)
	}
	return creds, nil
}

// secretDocument accepts the port as either a JSON number or a string.
type secretDocument struct {
	Host     string          `json:"host"`
	Port     json.RawMessage `json:"port"`
	DBName   string          `json:"dbname"`
	Username string          `json:"username"`
	Password string          `json:"password"`
}

func decodeCredentials(raw []byte) (model.DBCredentials, error) {
	var doc secretDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return model.DBCredentials{}, fmt.Errorf("decode credentials: %w", err)
	}

	creds := model.DBCredentials{
		Host:     doc.Host,
		DBName:   doc.DBName,
		Username: doc.Username,
		Password: doc.Password,
	}
	if len(doc.Port) > 0 && string(doc.Port) != "null" {
		p := strings.Trim(string(doc.Port), `"`)
		port, err := strconv.Atoi(p)
		if err != nil {
			return model.DBCredentials{}, fmt.Errorf("decode credentials: invalid port %s", doc.Port)
		}
		creds.Port = port
	}
	if err := creds.Validate(); err != nil {
		return model.DBCredentials{}, err
	}
	return creds, nil
}

// StaticSource returns fixed credentials, for local development without a secret store.
type StaticSource struct {
	creds model.DBCredentials
}

var _ core.CredentialSource = StaticSource{}

// NewStaticSource validates creds and wraps them.
func NewStaticSource(creds model.DBCredentials) (StaticSource, error) {
	if err := creds.Validate(); err != nil {
		return StaticSource{}, err
	}
	return StaticSource{creds: creds}, nil
}

// Fetch implements core.CredentialSource.
func (s StaticSource) Fetch(context.Context) (model.DBCredentials, error) {
	return s.creds, nil
}
