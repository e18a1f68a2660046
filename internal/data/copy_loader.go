package data

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/target/csv-ingestor/internal/domain/model"
	apperrors "github.com/target/csv-ingestor/internal/errors"
)

// DefaultChunkSize is the ChunkReader buffer used when none is configured.
const DefaultChunkSize = 64 * 1024

// ErrInvalidDelimiter is returned for delimiters COPY cannot use in CSV mode.
var ErrInvalidDelimiter = errors.New("invalid COPY delimiter")

// CopyLoaderOptions configures a CopyLoader.
type CopyLoaderOptions struct {
	ChunkSize int
	// Delimiter is the field separator; zero means ','.
	Delimiter byte
	Logger    *slog.Logger
}

// CopyLoader bulk-loads CSV streams with COPY ... FROM STDIN. The first line of every file
// is a header and is discarded by the server.
type CopyLoader struct {
	chunkSize int
	delimiter byte
	logger    *slog.Logger
}

// NewCopyLoader creates a CopyLoader.
func NewCopyLoader(opts CopyLoaderOptions) (*CopyLoader, error) {
	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}
	switch delim {
	case '\n', '\r', '"', '\\':
		return nil, fmt.Errorf("%w: %q", ErrInvalidDelimiter, delim)
	}

	size := opts.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "copy_loader")
	}

	return &CopyLoader{chunkSize: size, delimiter: delim, logger: logger}, nil
}

// Load streams req.Body into req.Table inside tx. Nothing it copies survives unless the
// caller commits tx.
//
// Errors are classified: a missing table or privilege is permanent, a malformed table name
// is permanent, and every other database or stream failure is retryable.
func (l *CopyLoader) Load(ctx context.Context, tx pgx.Tx, req model.LoadRequest) (model.LoadResult, error) {
	start := time.Now()

	ident, err := quoteTableName(req.Table)
	if err != nil {
		return model.LoadResult{}, apperrors.Wrap(err, apperrors.ErrCodePermanent, "invalid target table")
	}
	if req.Body == nil {
		return model.LoadResult{}, apperrors.Internal("load request has no body")
	}

	src := NewChunkReader(req.Body, l.chunkSize, req.ExpectedBytes)
	tag, copyErr := tx.Conn().PgConn().CopyFrom(ctx, src, l.copySQL(ident))

	res := model.LoadResult{BytesRead: src.BytesRead(), Duration: time.Since(start)}

	// pgconn reports a failing reader as a server-side cancellation; the stream error is the real cause.
	if streamErr := src.Err(); streamErr != nil {
		return res, apperrors.Wrapf(streamErr, apperrors.ErrCodeRetryable, "read object stream after %d bytes", res.BytesRead)
	}
	if copyErr != nil {
		return res, fmt.Errorf("copy into %s: %w", req.Table, apperrors.ClassifyDBError(copyErr))
	}

	res.RowsCopied = tag.RowsAffected()
	l.logger.DebugContext(ctx, "copy completed",
		"table", req.Table,
		"rows", res.RowsCopied,
		"bytes", res.BytesRead,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (l *CopyLoader) copySQL(ident string) string {
	return "COPY " + ident + " FROM STDIN WITH (FORMAT csv, HEADER true, DELIMITER " + quoteLiteral(string(l.delimiter)) + ")"
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
