package errors

import (
	"context"
	"errors"
	"regexp"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// reKeyField extracts field names from unique violation detail: "Key (bucket, key)=(a, b) already exists.".
var reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)

// ClassifyDBError maps database errors onto the ingestion error taxonomy:
//   - undefined_table → Permanent (schema drift or misconfiguration)
//   - insufficient_privilege → Permanent (operator-fixable, not worth retrying)
//   - unique_violation → Conflict
//   - pgx.ErrNoRows → NotFound
//   - context deadline/cancellation → Timeout/Canceled
//   - any other PostgreSQL or transport error → Retryable
//
// Errors that are already classified are returned unchanged.
func ClassifyDBError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:    ErrCodeTimeout,
			Message: "database operation timed out",
			Cause:   err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{
			Code:    ErrCodeCanceled,
			Message: "database operation was canceled",
			Cause:   err,
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return &AppError{
			Code:    ErrCodeNotFound,
			Message: "row not found",
			Cause:   err,
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPgError(pgErr)
	}

	return &AppError{
		Code:    ErrCodeRetryable,
		Message: "database unavailable",
		Cause:   err,
	}
}

func classifyPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UndefinedTable:
		return &AppError{
			Code:    ErrCodePermanent,
			Message: "target table does not exist",
			Field:   pgErr.TableName,
			Cause:   pgErr,
		}
	case pgerrcode.InsufficientPrivilege:
		return &AppError{
			Code:    ErrCodePermanent,
			Message: "insufficient privilege",
			Field:   pgErr.TableName,
			Cause:   pgErr,
		}
	case pgerrcode.UniqueViolation:
		return mapUniqueViolation(pgErr)
	default:
		return &AppError{
			Code:    ErrCodeRetryable,
			Message: "database error " + pgErr.Code,
			Cause:   pgErr,
		}
	}
}

func mapUniqueViolation(pgErr *pgconn.PgError) error {
	field := pgErr.ColumnName
	if field == "" && pgErr.Detail != "" {
		if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
			field = m[1]
		}
	}
	return &AppError{
		Code:    ErrCodeConflict,
		Message: "duplicate key",
		Field:   field,
		Cause:   pgErr,
	}
}

// IsUniqueViolation reports whether err carries a PostgreSQL unique_violation.
func IsUniqueViolation(err error) bool {
	return SQLState(err) == pgerrcode.UniqueViolation
}

// SQLState returns the SQLSTATE code carried by err, or "" when err is not a PostgreSQL error.
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
