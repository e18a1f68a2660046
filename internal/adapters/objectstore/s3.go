// Package objectstore opens S3 objects for streaming reads.
package objectstore

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/target/csv-ingestor/internal/core"
	"github.com/target/csv-ingestor/internal/domain/model"
	apperrors "github.com/target/csv-ingestor/internal/errors"
)

// GetObjectAPI is the subset of the S3 client used by Store.
type GetObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// permanentCodes are S3 error codes that redelivery cannot fix.
var permanentCodes = map[string]bool{
	"NoSuchKey":          true,
	"NoSuchBucket":       true,
	"AccessDenied":       true,
	"InvalidBucketName":  true,
	"InvalidObjectState": true,
}

// Options configures Store.
type Options struct {
	Client GetObjectAPI // Required
	Logger *slog.Logger
}

// Store implements core.ObjectStore on S3.
type Store struct {
	client GetObjectAPI
	logger *slog.Logger
}

var _ core.ObjectStore = (*Store)(nil)

// New constructs a Store.
func New(opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, errors.New("s3 client is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "objectstore")
	}
	return &Store{client: opts.Client, logger: logger}, nil
}

// NewClient builds an S3 client from cfg, honouring a custom endpoint for S3-compatible stores.
func NewClient(cfg aws.Config, endpoint string, forcePathStyle bool) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = forcePathStyle
	})
}

// Open starts a streaming GET of ref. The caller owns the returned body.
func (s *Store) Open(ctx context.Context, ref model.ObjectRef) (*model.StoredObject, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		return nil, classify(err, ref)
	}

	size := aws.ToInt64(out.ContentLength)
	if out.ContentLength == nil {
		size = -1
	}
	s.logger.DebugContext(ctx, "opened object", "object", ref.String(), "content_length", size)

	return &model.StoredObject{Ref: ref, Body: out.Body, ContentLength: size}, nil
}

func classify(err error, ref model.ObjectRef) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrapf(err, apperrors.ErrCodeRetryable, "get %s", ref)
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return apperrors.Wrapf(err, apperrors.ErrCodePermanent, "get %s", ref)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && permanentCodes[apiErr.ErrorCode()] {
		return apperrors.Wrapf(err, apperrors.ErrCodePermanent, "get %s", ref)
	}

	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusNotFound, http.StatusForbidden:
			return apperrors.Wrapf(err, apperrors.ErrCodePermanent, "get %s", ref)
		}
	}

	return apperrors.Wrapf(err, apperrors.ErrCodeRetryable, "get %s", ref)
}
