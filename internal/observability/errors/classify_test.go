package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

type customErr struct{}

func (customErr) Error() string { return "custom" }

func TestClassify(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "42P01"}
	apiErr := &smithy.GenericAPIError{Code: "NoSuchKey", Message: "gone"}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"sentinel", io.ErrUnexpectedEOF, "errors_errorstring"},
		{"custom type", fmt.Errorf("wrap: %w", customErr{}), "errors_customerr"},
		{"wrapped pg error", fmt.Errorf("load: %w", pgErr), "pg_42p01"},
		{"joined pg error", goerrors.Join(io.EOF, fmt.Errorf("copy: %w", pgErr)), "pg_42p01"},
		{"aws api error", fmt.Errorf("get object: %w", apiErr), "aws_nosuchkey"},
		{"deadline", fmt.Errorf("copy: %w", context.DeadlineExceeded), "timeout"},
		{"canceled", context.Canceled, "canceled"},
		{"joined falls back to first branch", goerrors.Join(customErr{}, io.EOF), "errors_customerr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
