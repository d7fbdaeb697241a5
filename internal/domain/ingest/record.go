package ingest

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UsageRecord is one validated line of metered-resource consumption. Its
// identity is the row ordinal within its job; there is no cross-job identity.
// Records are immutable once written and are deleted only with their job.
//
// Cost is taken verbatim from the source and never recomputed from
// quantity and rate: usage files may embed provider-side discounts that a
// quantity/rate pair cannot express.
type UsageRecord struct {
	JobID            uuid.UUID
	Ordinal          int
	AccountID        string
	ServiceCode      string
	UsageType        string
	Operation        string
	ResourceID       string
	UsageStart       *time.Time
	UsageEnd         *time.Time
	Quantity         decimal.Decimal
	Rate             decimal.Decimal
	Cost             decimal.Decimal
	Currency         string
	Region           string
	AvailabilityZone string
}

// InWindow returns true if the given time falls within the record's usage
// window. Records with an absent window boundary match any time on that side.
func (r *UsageRecord) InWindow(t time.Time) bool {
	if r.UsageStart != nil && t.Before(*r.UsageStart) {
		return false
	}
	if r.UsageEnd != nil && t.After(*r.UsageEnd) {
		return false
	}
	return true
}
