package billing

import "fmt"

// DefaultNumberPrefix prefixes every invoice number unless configured otherwise.
const DefaultNumberPrefix = "TejIT"

// FormatInvoiceNumber renders the externally visible invoice number:
// {prefix}-{clientID:3digits}-{yearMonth:YYYYMM}-{sequence:3digits}.
// It is a pure formatting function; uniqueness comes from the allocator.
func FormatInvoiceNumber(prefix string, clientID uint, period Period, sequence int64) string {
	return fmt.Sprintf("%s-%03d-%s-%03d", prefix, clientID, period.String(), sequence)
}
