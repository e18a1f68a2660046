package data

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/csv-ingestor/internal/domain/model"
	apperrors "github.com/target/csv-ingestor/internal/errors"
)

func TestNewCopyLoader_Delimiter(t *testing.T) {
	for _, d := range []byte{'\n', '\r', '"', '\\'} {
		_, err := NewCopyLoader(CopyLoaderOptions{Delimiter: d})
		assert.ErrorIs(t, err, ErrInvalidDelimiter, "delimiter %q", d)
	}

	l, err := NewCopyLoader(CopyLoaderOptions{})
	require.NoError(t, err)
	assert.Equal(t, byte(','), l.delimiter)
	assert.Equal(t, DefaultChunkSize, l.chunkSize)
}

func TestCopyLoader_CopySQL(t *testing.T) {
	tests := []struct {
		delim byte
		table string
		want  string
	}{
		{',', "sales", `COPY "sales" FROM STDIN WITH (FORMAT csv, HEADER true, DELIMITER ',')`},
		{'|', "raw.sales", `COPY "raw"."sales" FROM STDIN WITH (FORMAT csv, HEADER true, DELIMITER '|')`},
		{'\'', "odd", `COPY "odd" FROM STDIN WITH (FORMAT csv, HEADER true, DELIMITER '''')`},
		{',', `we"ird`, `COPY "we""ird" FROM STDIN WITH (FORMAT csv, HEADER true, DELIMITER ',')`},
	}
	for _, tt := range tests {
		l, err := NewCopyLoader(CopyLoaderOptions{Delimiter: tt.delim})
		require.NoError(t, err)
		ident, err := quoteTableName(tt.table)
		require.NoError(t, err)
		assert.Equal(t, tt.want, l.copySQL(ident))
	}
}

func TestCopyLoader_RejectsBadRequestsBeforeCopy(t *testing.T) {
	l, err := NewCopyLoader(CopyLoaderOptions{})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = l.Load(ctx, nil, model.LoadRequest{Table: "a.b.c", Body: strings.NewReader("x")})
	require.Error(t, err)
	assert.True(t, apperrors.IsPermanent(err))

	_, err = l.Load(ctx, nil, model.LoadRequest{Table: "sales"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInternal, apperrors.GetCode(err))
}

func TestQuoteTableName(t *testing.T) {
	got, err := quoteTableName("sales")
	require.NoError(t, err)
	assert.Equal(t, `"sales"`, got)

	_, err = quoteTableName(".sales")
	assert.ErrorIs(t, err, model.ErrInvalidTableName)
}
