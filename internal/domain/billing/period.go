// Package billing contains the invoice-settlement domain: invoices, line
// items, the totalizer and the invoice-number sequence contract.
package billing

import (
	"fmt"
	"time"

	"github.com/tejit/billing/internal/domain/shared"
)

// Period is a billing year-month. Invoice sequences are scoped per
// (client, period) pair.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the period containing the given time.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses "YYYY-MM" into a Period.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, shared.NewDomainError("INVALID_PERIOD", fmt.Sprintf("Invalid billing period: %s", s))
	}
	return PeriodOf(t), nil
}

// IsZero returns true for the zero period.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// String renders the period as YYYYMM, the form embedded in invoice numbers.
func (p Period) String() string {
	return fmt.Sprintf("%04d%02d", p.Year, int(p.Month))
}

// Key renders the period as YYYY-MM for storage and APIs.
func (p Period) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}
