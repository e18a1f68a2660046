// Package errors derives low-cardinality error classes for metric tags and dead-letter payloads.
package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"

	"github.com/aws/smithy-go"
	"github.com/jackc/pgx/v5/pgconn"
)

// Classify returns a normalized error class suitable for tagging metrics and logs:
//   - "pg_<sqlstate>" for Postgres server errors, e.g. "pg_42p01" for a missing table
//   - "aws_<code>" for AWS API errors, e.g. "aws_nosuchkey"
//   - "timeout" or "canceled" for context errors
//   - otherwise the innermost concrete error type in snake_case, e.g. "errors_errorstring"
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var pgErr *pgconn.PgError
	if goerrors.As(err, &pgErr) && pgErr.Code != "" {
		return "pg_" + strings.ToLower(pgErr.Code)
	}
	var apiErr smithy.APIError
	if goerrors.As(err, &apiErr) && apiErr.ErrorCode() != "" {
		return "aws_" + strings.ToLower(apiErr.ErrorCode())
	}
	switch {
	case goerrors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case goerrors.Is(err, context.Canceled):
		return "canceled"
	}

	return typeName(innermost(err))
}

func typeName(err error) string {
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.String() == "" {
		return "unknown"
	}
	return strings.ReplaceAll(strings.ToLower(t.String()), ".", "_")
}

// innermost follows the chain, taking the first branch of joined errors.
func innermost(err error) error {
	for {
		var next error
		switch u := err.(type) {
		case interface{ Unwrap() error }:
			next = u.Unwrap()
		case interface{ Unwrap() []error }:
			for _, e := range u.Unwrap() {
				if e != nil {
					next = e
					break
				}
			}
		}
		if next == nil {
			return err
		}
		err = next
	}
}
