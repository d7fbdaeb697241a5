package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Usage source column names. A row must minimally supply usage_type, cost and
// usage_quantity; every other column is optional.
const (
	ColAccountID        = "account_id"
	ColServiceCode      = "service_code"
	ColUsageType        = "usage_type"
	ColOperation        = "operation"
	ColResourceID       = "resource_id"
	ColUsageStart       = "usage_start"
	ColUsageEnd         = "usage_end"
	ColUsageQuantity    = "usage_quantity"
	ColRate             = "rate"
	ColCost             = "cost"
	ColCurrency         = "currency"
	ColRegion           = "region"
	ColAvailabilityZone = "availability_zone"
)

// usageTimeLayouts are tried in order when parsing usage window timestamps.
var usageTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ValidateRow turns a raw row into a UsageRecord or a RowError. It is pure:
// no I/O, no shared state, deterministic for a given input, and therefore
// safe to run concurrently across rows of any jobs.
//
// Policy: a present-but-malformed or negative numeric is a validation
// failure, never silently coerced to zero. Unparseable dates are stored as
// absent rather than rejecting the row.
func ValidateRow(jobID uuid.UUID, row Row) (*UsageRecord, *RowError) {
	usageType := strings.TrimSpace(row.Get(ColUsageType))
	if usageType == "" {
		e := NewRowError(row.Line, ColUsageType, ErrCodeRowRequiredField, "usage type is required")
		return nil, &e
	}

	quantity, rowErr := parseRequiredDecimal(row, ColUsageQuantity)
	if rowErr != nil {
		return nil, rowErr
	}
	cost, rowErr := parseRequiredDecimal(row, ColCost)
	if rowErr != nil {
		return nil, rowErr
	}

	rate := decimal.Zero
	if raw := strings.TrimSpace(row.Get(ColRate)); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			e := NewRowErrorWithValue(row.Line, ColRate, ErrCodeRowInvalidNumber, "rate is not a valid decimal", raw)
			return nil, &e
		}
		if parsed.IsNegative() {
			e := NewRowErrorWithValue(row.Line, ColRate, ErrCodeRowNegativeValue, "rate cannot be negative", raw)
			return nil, &e
		}
		rate = parsed
	}

	usageStart := parseUsageTime(row.Get(ColUsageStart))
	usageEnd := parseUsageTime(row.Get(ColUsageEnd))
	if usageStart != nil && usageEnd != nil && usageEnd.Before(*usageStart) {
		e := NewRowError(row.Line, ColUsageEnd, ErrCodeRowInvalidWindow, "usage window end precedes start")
		return nil, &e
	}

	return &UsageRecord{
		JobID:            jobID,
		Ordinal:          row.Line,
		AccountID:        strings.TrimSpace(row.Get(ColAccountID)),
		ServiceCode:      strings.TrimSpace(row.Get(ColServiceCode)),
		UsageType:        usageType,
		Operation:        strings.TrimSpace(row.Get(ColOperation)),
		ResourceID:       strings.TrimSpace(row.Get(ColResourceID)),
		UsageStart:       usageStart,
		UsageEnd:         usageEnd,
		Quantity:         quantity,
		Rate:             rate,
		Cost:             cost,
		Currency:         strings.ToUpper(strings.TrimSpace(row.Get(ColCurrency))),
		Region:           strings.TrimSpace(row.Get(ColRegion)),
		AvailabilityZone: strings.TrimSpace(row.Get(ColAvailabilityZone)),
	}, nil
}

// parseRequiredDecimal parses a required, finite, non-negative decimal column.
func parseRequiredDecimal(row Row, column string) (decimal.Decimal, *RowError) {
	raw := strings.TrimSpace(row.Get(column))
	if raw == "" {
		e := NewRowError(row.Line, column, ErrCodeRowRequiredField, fmt.Sprintf("%s is required", column))
		return decimal.Zero, &e
	}
	parsed, err := decimal.NewFromString(raw)
	if err != nil {
		e := NewRowErrorWithValue(row.Line, column, ErrCodeRowInvalidNumber, fmt.Sprintf("%s is not a valid decimal", column), raw)
		return decimal.Zero, &e
	}
	if parsed.IsNegative() {
		e := NewRowErrorWithValue(row.Line, column, ErrCodeRowNegativeValue, fmt.Sprintf("%s cannot be negative", column), raw)
		return decimal.Zero, &e
	}
	return parsed, nil
}

// parseUsageTime parses a usage window timestamp, returning nil when the
// value is empty or matches no known layout.
func parseUsageTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range usageTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
