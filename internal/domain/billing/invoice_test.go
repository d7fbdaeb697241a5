package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decemberPeriod(t *testing.T) Period {
	t.Helper()
	p, err := ParsePeriod("2024-12")
	require.NoError(t, err)
	return p
}

func newDraft(t *testing.T) *Invoice {
	t.Helper()
	issue := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	inv, err := NewInvoice(7, decemberPeriod(t), issue, issue.AddDate(0, 0, 30), true, []*LineItem{
		item(t, "Managed hosting", "10", "5.00", "0"),
		item(t, "Support hours", "2", "100.00", "10"),
	})
	require.NoError(t, err)
	return inv
}

func TestNewInvoice(t *testing.T) {
	issue := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	t.Run("creates an unnumbered draft", func(t *testing.T) {
		inv := newDraft(t)
		assert.Equal(t, InvoiceStatusDraft, inv.Status)
		assert.Empty(t, inv.Number)
		assert.Zero(t, inv.Sequence)
		assert.True(t, inv.Editable())
		for _, li := range inv.LineItems {
			assert.Equal(t, inv.ID, li.InvoiceID)
		}
	})

	t.Run("rejects a zero client", func(t *testing.T) {
		_, err := NewInvoice(0, decemberPeriod(t), issue, issue, true, []*LineItem{item(t, "x", "1", "1", "0")})
		assert.Error(t, err)
	})

	t.Run("rejects a zero period", func(t *testing.T) {
		_, err := NewInvoice(7, Period{}, issue, issue, true, []*LineItem{item(t, "x", "1", "1", "0")})
		assert.Error(t, err)
	})

	t.Run("rejects empty line items", func(t *testing.T) {
		_, err := NewInvoice(7, decemberPeriod(t), issue, issue, true, nil)
		assert.Error(t, err)
	})

	t.Run("rejects a due date before the issue date", func(t *testing.T) {
		_, err := NewInvoice(7, decemberPeriod(t), issue, issue.AddDate(0, 0, -1), true, []*LineItem{item(t, "x", "1", "1", "0")})
		assert.Error(t, err)
	})
}

func TestInvoice_AssignNumber(t *testing.T) {
	t.Run("formats and records the sequence", func(t *testing.T) {
		inv := newDraft(t)
		require.NoError(t, inv.AssignNumber(DefaultNumberPrefix, 12))
		assert.Equal(t, "TejIT-007-202412-012", inv.Number)
		assert.Equal(t, int64(12), inv.Sequence)
	})

	t.Run("refuses a second assignment", func(t *testing.T) {
		inv := newDraft(t)
		require.NoError(t, inv.AssignNumber(DefaultNumberPrefix, 1))
		assert.Error(t, inv.AssignNumber(DefaultNumberPrefix, 2))
		assert.Equal(t, "TejIT-007-202412-001", inv.Number)
	})

	t.Run("refuses a sequence below one", func(t *testing.T) {
		inv := newDraft(t)
		assert.Error(t, inv.AssignNumber(DefaultNumberPrefix, 0))
	})
}

func TestInvoice_Lifecycle(t *testing.T) {
	t.Run("draft to sent to paid", func(t *testing.T) {
		inv := newDraft(t)
		require.NoError(t, inv.Send())
		assert.Equal(t, InvoiceStatusSent, inv.Status)
		assert.False(t, inv.Editable())

		require.NoError(t, inv.MarkPaid())
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
	})

	t.Run("cannot pay a draft", func(t *testing.T) {
		inv := newDraft(t)
		assert.Error(t, inv.MarkPaid())
	})

	t.Run("cancel voids drafts and sent invoices but not paid ones", func(t *testing.T) {
		draft := newDraft(t)
		require.NoError(t, draft.Cancel())
		assert.Equal(t, InvoiceStatusCancelled, draft.Status)

		sent := newDraft(t)
		require.NoError(t, sent.Send())
		require.NoError(t, sent.Cancel())

		paid := newDraft(t)
		require.NoError(t, paid.Send())
		require.NoError(t, paid.MarkPaid())
		assert.Error(t, paid.Cancel())
	})

	t.Run("notes only on drafts", func(t *testing.T) {
		inv := newDraft(t)
		require.NoError(t, inv.SetNotes("december wrap-up"))
		assert.Equal(t, "december wrap-up", inv.Notes)

		require.NoError(t, inv.Send())
		assert.Error(t, inv.SetNotes("too late"))
	})
}

func TestInvoice_Totals(t *testing.T) {
	inv := newDraft(t)
	totals := inv.Totals(DefaultTaxRatePercent)
	assert.True(t, totals.Subtotal.Equal(decimal.RequireFromString("230.00")))
	assert.True(t, totals.Tax.Equal(decimal.RequireFromString("41.40")))
	assert.True(t, totals.Total.Equal(decimal.RequireFromString("271.40")))
}

func TestFormatInvoiceNumber(t *testing.T) {
	period := decemberPeriod(t)

	assert.Equal(t, "TejIT-007-202412-001", FormatInvoiceNumber(DefaultNumberPrefix, 7, period, 1))
	assert.Equal(t, "TejIT-042-202412-107", FormatInvoiceNumber(DefaultNumberPrefix, 42, period, 107))
	// wide client IDs and sequences are not truncated
	assert.Equal(t, "TejIT-1234-202412-1000", FormatInvoiceNumber(DefaultNumberPrefix, 1234, period, 1000))
	assert.Equal(t, "ACME-007-202412-001", FormatInvoiceNumber("ACME", 7, period, 1))
}

func TestPeriod(t *testing.T) {
	t.Run("parse and render", func(t *testing.T) {
		p, err := ParsePeriod("2025-01")
		require.NoError(t, err)
		assert.Equal(t, 2025, p.Year)
		assert.Equal(t, time.January, p.Month)
		assert.Equal(t, "202501", p.String())
		assert.Equal(t, "2025-01", p.Key())
	})

	t.Run("parse rejects other shapes", func(t *testing.T) {
		for _, raw := range []string{"2025", "2025-13", "01-2025", "Jan 2025", ""} {
			_, err := ParsePeriod(raw)
			assert.Error(t, err, "input %q", raw)
		}
	})

	t.Run("of a time", func(t *testing.T) {
		p := PeriodOf(time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC))
		assert.Equal(t, Period{Year: 2024, Month: time.June}, p)
		assert.False(t, p.IsZero())
		assert.True(t, Period{}.IsZero())
	})
}
