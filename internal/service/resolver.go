package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/target/csv-ingestor/internal/core"
	"github.com/target/csv-ingestor/internal/domain/model"
	apperrors "github.com/target/csv-ingestor/internal/errors"
)

// Resolution strategy names accepted by NewTableResolver.
const (
	ResolutionPrefix  = "prefix"
	ResolutionMapping = "mapping"
)

// PrefixResolver uses the first path segment of the object key as the table name.
// "sales/2024/jan.csv" loads into "sales"; a dotted segment is schema qualified, so
// "raw.sales/jan.csv" loads into "raw"."sales".
type PrefixResolver struct{}

var _ core.TableResolver = PrefixResolver{}

// Resolve implements core.TableResolver. Failures are permanent: redelivering the same key
// cannot produce a different answer.
func (PrefixResolver) Resolve(_ context.Context, _ pgx.Tx, key string) (string, error) {
	idx := strings.IndexByte(key, '/')
	if idx < 0 {
		return "", apperrors.Permanentf("object key %q has no path delimiter", key)
	}
	table := key[:idx]
	if table == "" {
		return "", apperrors.Permanentf("object key %q has an empty first segment", key)
	}
	if _, err := model.SplitTableName(table); err != nil {
		return "", apperrors.Wrapf(err, apperrors.ErrCodePermanent, "object key %q", key)
	}
	return table, nil
}

// MappingResolver picks the destination from a configured prefix→table table, choosing the
// longest matching prefix.
type MappingResolver struct {
	mappings core.TableMappingSource
}

var _ core.TableResolver = (*MappingResolver)(nil)

// NewMappingResolver constructs a MappingResolver.
func NewMappingResolver(mappings core.TableMappingSource) (*MappingResolver, error) {
	if mappings == nil {
		return nil, errors.New("TableMappingSource is required")
	}
	return &MappingResolver{mappings: mappings}, nil
}

// Resolve implements core.TableResolver. The mapping table is read inside the caller's
// transaction so the answer is consistent with the load that follows.
//
// Only a key that matches no mapping is permanent. Failing to read the mappings, including a
// mapping table that was never migrated, is a deployment fault and keeps the message queued.
func (r *MappingResolver) Resolve(ctx context.Context, tx pgx.Tx, key string) (string, error) {
	mappings, err := r.mappings.ListInTx(ctx, tx)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeRetryable, "list table mappings")
	}
	m, ok := model.LongestPrefixMatch(mappings, key)
	if !ok {
		return "", apperrors.Permanentf("no table mapping matches key %q", key)
	}
	return m.TableName, nil
}

// NewTableResolver returns the resolver for strategy. mappings is only required for the
// mapping strategy.
//
//nolint:ireturn // strategy selection returns the port
func NewTableResolver(strategy string, mappings core.TableMappingSource) (core.TableResolver, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", ResolutionPrefix:
		return PrefixResolver{}, nil
	case ResolutionMapping:
		return NewMappingResolver(mappings)
	default:
		return nil, fmt.Errorf("unknown table resolution strategy %q", strategy)
	}
}
