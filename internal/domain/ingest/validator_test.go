package ingest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowWith(line int, fields map[string]string) Row {
	return Row{Line: line, Fields: fields}
}

func TestValidateRow(t *testing.T) {
	jobID := uuid.New()

	t.Run("full row parses with all optional columns", func(t *testing.T) {
		record, rowErr := ValidateRow(jobID, rowWith(2, map[string]string{
			ColAccountID:        "123456789012",
			ColServiceCode:      "AmazonEC2",
			ColUsageType:        "BoxUsage:t3.micro",
			ColOperation:        "RunInstances",
			ColResourceID:       "i-0abc",
			ColUsageStart:       "2024-12-01T00:00:00Z",
			ColUsageEnd:         "2024-12-01T01:00:00Z",
			ColUsageQuantity:    "1.000000",
			ColRate:             "0.0104",
			ColCost:             "0.0104",
			ColCurrency:         "usd",
			ColRegion:           "eu-west-1",
			ColAvailabilityZone: "eu-west-1a",
		}))
		require.Nil(t, rowErr)
		assert.Equal(t, jobID, record.JobID)
		assert.Equal(t, 2, record.Ordinal)
		assert.Equal(t, "BoxUsage:t3.micro", record.UsageType)
		assert.Equal(t, "USD", record.Currency)
		assert.True(t, record.Quantity.Equal(decimal.NewFromInt(1)))
		assert.True(t, record.Cost.Equal(decimal.RequireFromString("0.0104")))
		require.NotNil(t, record.UsageStart)
		require.NotNil(t, record.UsageEnd)
		assert.True(t, record.UsageEnd.After(*record.UsageStart))
	})

	t.Run("minimal row parses with optionals absent", func(t *testing.T) {
		record, rowErr := ValidateRow(jobID, rowWith(3, map[string]string{
			ColUsageType:     "DataTransfer-Out",
			ColUsageQuantity: "100",
			ColCost:          "0.90",
		}))
		require.Nil(t, rowErr)
		assert.Nil(t, record.UsageStart)
		assert.Nil(t, record.UsageEnd)
		assert.True(t, record.Rate.IsZero())
	})

	t.Run("cost is taken verbatim, not quantity times rate", func(t *testing.T) {
		record, rowErr := ValidateRow(jobID, rowWith(4, map[string]string{
			ColUsageType:     "BoxUsage",
			ColUsageQuantity: "10",
			ColRate:          "1.00",
			ColCost:          "7.50", // discounted upstream
		}))
		require.Nil(t, rowErr)
		assert.True(t, record.Cost.Equal(decimal.RequireFromString("7.50")))
	})

	t.Run("missing required fields", func(t *testing.T) {
		cases := []struct {
			name   string
			fields map[string]string
			column string
		}{
			{"usage type", map[string]string{ColUsageQuantity: "1", ColCost: "1"}, ColUsageType},
			{"quantity", map[string]string{ColUsageType: "BoxUsage", ColCost: "1"}, ColUsageQuantity},
			{"cost", map[string]string{ColUsageType: "BoxUsage", ColUsageQuantity: "1"}, ColCost},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				record, rowErr := ValidateRow(jobID, rowWith(5, tc.fields))
				assert.Nil(t, record)
				require.NotNil(t, rowErr)
				assert.Equal(t, ErrCodeRowRequiredField, rowErr.Code)
				assert.Equal(t, tc.column, rowErr.Column)
				assert.Equal(t, 5, rowErr.Row)
			})
		}
	})

	t.Run("malformed numerics are rejected, not coerced", func(t *testing.T) {
		record, rowErr := ValidateRow(jobID, rowWith(6, map[string]string{
			ColUsageType:     "BoxUsage",
			ColUsageQuantity: "ten",
			ColCost:          "1.00",
		}))
		assert.Nil(t, record)
		require.NotNil(t, rowErr)
		assert.Equal(t, ErrCodeRowInvalidNumber, rowErr.Code)
		assert.Equal(t, "ten", rowErr.Value)
	})

	t.Run("negative cost is rejected", func(t *testing.T) {
		_, rowErr := ValidateRow(jobID, rowWith(7, map[string]string{
			ColUsageType:     "BoxUsage",
			ColUsageQuantity: "1",
			ColCost:          "-0.50",
		}))
		require.NotNil(t, rowErr)
		assert.Equal(t, ErrCodeRowNegativeValue, rowErr.Code)
		assert.Equal(t, ColCost, rowErr.Column)
	})

	t.Run("negative rate is rejected even though rate is optional", func(t *testing.T) {
		_, rowErr := ValidateRow(jobID, rowWith(8, map[string]string{
			ColUsageType:     "BoxUsage",
			ColUsageQuantity: "1",
			ColCost:          "1.00",
			ColRate:          "-0.01",
		}))
		require.NotNil(t, rowErr)
		assert.Equal(t, ErrCodeRowNegativeValue, rowErr.Code)
		assert.Equal(t, ColRate, rowErr.Column)
	})

	t.Run("unparseable dates become absent, row still valid", func(t *testing.T) {
		record, rowErr := ValidateRow(jobID, rowWith(9, map[string]string{
			ColUsageType:     "BoxUsage",
			ColUsageQuantity: "1",
			ColCost:          "1.00",
			ColUsageStart:    "last tuesday",
			ColUsageEnd:      "2024-12-01 01:00:00",
		}))
		require.Nil(t, rowErr)
		assert.Nil(t, record.UsageStart)
		require.NotNil(t, record.UsageEnd)
	})

	t.Run("inverted usage window is rejected", func(t *testing.T) {
		_, rowErr := ValidateRow(jobID, rowWith(10, map[string]string{
			ColUsageType:     "BoxUsage",
			ColUsageQuantity: "1",
			ColCost:          "1.00",
			ColUsageStart:    "2024-12-02T00:00:00Z",
			ColUsageEnd:      "2024-12-01T00:00:00Z",
		}))
		require.NotNil(t, rowErr)
		assert.Equal(t, ErrCodeRowInvalidWindow, rowErr.Code)
	})

	t.Run("deterministic for the same input", func(t *testing.T) {
		fields := map[string]string{
			ColUsageType:     "BoxUsage",
			ColUsageQuantity: "2.5",
			ColCost:          "0.25",
		}
		first, _ := ValidateRow(jobID, rowWith(11, fields))
		second, _ := ValidateRow(jobID, rowWith(11, fields))
		assert.Equal(t, first, second)
	})
}

func TestUsageRecord_InWindow(t *testing.T) {
	start := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC)

	record := &UsageRecord{UsageStart: &start, UsageEnd: &end}
	assert.True(t, record.InWindow(start.Add(time.Hour)))
	assert.False(t, record.InWindow(start.Add(-time.Hour)))
	assert.False(t, record.InWindow(end.Add(time.Hour)))

	open := &UsageRecord{}
	assert.True(t, open.InWindow(time.Now()))
}
