package usagecsv

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejit/billing/internal/domain/ingest"
)

func TestNewReader(t *testing.T) {
	t.Run("valid UTF-8 source", func(t *testing.T) {
		src := "usage_type,cost,usage_quantity\nBoxUsage,1.50,3"
		r, err := NewReader(strings.NewReader(src))

		require.NoError(t, err)
		require.NotNil(t, r)
	})

	t.Run("UTF-8 BOM is stripped", func(t *testing.T) {
		src := "\xEF\xBB\xBFusage_type,cost\nBoxUsage,1.50"
		r, err := NewReader(strings.NewReader(src))
		require.NoError(t, err)

		require.NoError(t, r.ReadHeader())
		assert.Equal(t, "usage_type", r.Headers()[0])
	})

	t.Run("empty file returns ErrEmptyFile", func(t *testing.T) {
		r, err := NewReader(strings.NewReader(""))

		assert.Nil(t, r)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("non UTF-8 input returns ErrInvalidEncoding", func(t *testing.T) {
		// Latin-1 encoded "café" is not valid UTF-8.
		r, err := NewReader(strings.NewReader("usage_type\ncaf\xe9"))

		assert.Nil(t, r)
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("custom delimiter", func(t *testing.T) {
		src := "usage_type;cost\nBoxUsage;1.50"
		r, err := NewReader(strings.NewReader(src), WithDelimiter(';'))
		require.NoError(t, err)

		require.NoError(t, r.ReadHeader())
		assert.Equal(t, []string{"usage_type", "cost"}, r.Headers())
	})
}

func TestReader_ReadHeader(t *testing.T) {
	t.Run("headers are trimmed and lower-cased", func(t *testing.T) {
		src := " Usage_Type , COST ,usage_quantity\nBoxUsage,1.50,3"
		r, err := NewReader(strings.NewReader(src))
		require.NoError(t, err)

		require.NoError(t, r.ReadHeader())
		assert.Equal(t, []string{"usage_type", "cost", "usage_quantity"}, r.Headers())
		assert.True(t, r.HasHeader(ingest.ColCost))
	})

	t.Run("header-only file is fine until EOF", func(t *testing.T) {
		r, err := NewReader(strings.NewReader("usage_type,cost"))
		require.NoError(t, err)
		require.NoError(t, r.ReadHeader())

		_, err = r.ReadRow()
		assert.Equal(t, io.EOF, err)
		assert.Zero(t, r.DataRows())
	})
}

func TestReader_MissingHeaders(t *testing.T) {
	src := "usage_type,region\nBoxUsage,eu-west-1"
	r, err := NewReader(strings.NewReader(src))
	require.NoError(t, err)
	require.NoError(t, r.ReadHeader())

	missing := r.MissingHeaders([]string{ingest.ColUsageType, ingest.ColCost, ingest.ColUsageQuantity})
	assert.Equal(t, []string{ingest.ColCost, ingest.ColUsageQuantity}, missing)
}

func TestReader_ReadRow(t *testing.T) {
	t.Run("maps fields to headers with line numbers", func(t *testing.T) {
		src := "usage_type,cost,usage_quantity\nBoxUsage,1.50,3\nDataTransfer,0.20,100"
		r, err := NewReader(strings.NewReader(src))
		require.NoError(t, err)
		require.NoError(t, r.ReadHeader())

		row, err := r.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, 2, row.Line)
		assert.Equal(t, "BoxUsage", row.Get(ingest.ColUsageType))
		assert.Equal(t, "1.50", row.Get(ingest.ColCost))

		row, err = r.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, 3, row.Line)
		assert.Equal(t, "DataTransfer", row.Get(ingest.ColUsageType))

		_, err = r.ReadRow()
		assert.Equal(t, io.EOF, err)
		assert.Equal(t, 2, r.DataRows())
	})

	t.Run("short rows pad missing columns with empty values", func(t *testing.T) {
		src := "usage_type,cost,usage_quantity\nBoxUsage,1.50"
		r, err := NewReader(strings.NewReader(src))
		require.NoError(t, err)
		require.NoError(t, r.ReadHeader())

		row, err := r.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, "", row.Get(ingest.ColUsageQuantity))
	})

	t.Run("field values are trimmed", func(t *testing.T) {
		src := "usage_type,cost\n  BoxUsage  , 1.50 "
		r, err := NewReader(strings.NewReader(src))
		require.NoError(t, err)
		require.NoError(t, r.ReadHeader())

		row, err := r.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, "BoxUsage", row.Get(ingest.ColUsageType))
		assert.Equal(t, "1.50", row.Get(ingest.ColCost))
	})

	t.Run("unparseable row reports its line and reading continues", func(t *testing.T) {
		src := "usage_type,cost\nBox\"Usage,2.00\nDataTransfer,0.20"
		r, err := NewReader(strings.NewReader(src), WithLazyQuotes(false))
		require.NoError(t, err)
		require.NoError(t, r.ReadHeader())

		row, err := r.ReadRow()
		require.Error(t, err)
		assert.Equal(t, 2, row.Line)

		row, err = r.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, "DataTransfer", row.Get(ingest.ColUsageType))
	})
}
