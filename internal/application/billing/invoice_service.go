package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tejit/billing/internal/domain/billing"
	"github.com/tejit/billing/internal/domain/client"
	"github.com/tejit/billing/internal/domain/shared"
	"go.uber.org/zap"
)

// invoiceDateLayout is the wire format for issue and due dates.
const invoiceDateLayout = "2006-01-02"

// InvoiceServiceConfig carries the billing policy knobs.
type InvoiceServiceConfig struct {
	TaxRatePercent decimal.Decimal
	DueInDays      int
}

func (c InvoiceServiceConfig) normalized() InvoiceServiceConfig {
	if c.TaxRatePercent.IsZero() {
		c.TaxRatePercent = billing.DefaultTaxRatePercent
	}
	if c.DueInDays < 1 {
		c.DueInDays = 30
	}
	return c
}

// InvoiceService issues and settles invoices. Number allocation happens in
// the repository, inside the same transaction that inserts the invoice row.
type InvoiceService struct {
	invoices billing.InvoiceRepository
	clients  client.Repository
	cfg      InvoiceServiceConfig
	logger   *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoices billing.InvoiceRepository,
	clients client.Repository,
	cfg InvoiceServiceConfig,
	logger *zap.Logger,
) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		invoices: invoices,
		clients:  clients,
		cfg:      cfg.normalized(),
		logger:   logger,
	}
}

// CreateInvoice issues a draft invoice for a billing period. Tax
// applicability and currency default from the client directory entry unless
// the request overrides them.
func (s *InvoiceService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	c, err := s.clients.FindByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	if !c.Active {
		return nil, shared.NewDomainError("CLIENT_INACTIVE", fmt.Sprintf("Client %d is inactive", c.ID))
	}

	period, err := billing.ParsePeriod(req.Period)
	if err != nil {
		return nil, err
	}

	issueDate := time.Now().UTC().Truncate(24 * time.Hour)
	if req.IssueDate != "" {
		issueDate, err = time.Parse(invoiceDateLayout, req.IssueDate)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_DATE", fmt.Sprintf("Invalid issue date: %s", req.IssueDate))
		}
	}
	dueDate := issueDate.AddDate(0, 0, s.cfg.DueInDays)
	if req.DueDate != "" {
		dueDate, err = time.Parse(invoiceDateLayout, req.DueDate)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_DATE", fmt.Sprintf("Invalid due date: %s", req.DueDate))
		}
	}

	taxApplicable := c.TaxRegistered
	if req.TaxApplicable != nil {
		taxApplicable = *req.TaxApplicable
	}
	currency := req.Currency
	if currency == "" {
		currency = c.DefaultCurrency
	}

	items := make([]*billing.LineItem, 0, len(req.LineItems))
	for _, li := range req.LineItems {
		item, err := billing.NewLineItem(li.Description, li.Quantity, li.Rate, li.DiscountPercent, currency)
		if err != nil {
			return nil, err
		}
		if li.ComponentRef != "" {
			item = item.WithComponentRef(li.ComponentRef)
		}
		items = append(items, item)
	}

	invoice, err := billing.NewInvoice(req.ClientID, period, issueDate, dueDate, taxApplicable, items)
	if err != nil {
		return nil, err
	}
	if req.Notes != "" {
		if err := invoice.SetNotes(req.Notes); err != nil {
			return nil, err
		}
	}

	if err := s.invoices.Create(ctx, invoice); err != nil {
		return nil, err
	}

	s.logger.Info("invoice issued",
		zap.String("number", invoice.Number),
		zap.Uint("client_id", invoice.ClientID),
		zap.String("period", invoice.Period.Key()),
		zap.Int64("sequence", invoice.Sequence),
	)

	return toInvoiceResponse(invoice, s.cfg.TaxRatePercent), nil
}

// GetInvoice returns an invoice by its ID.
func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(invoice, s.cfg.TaxRatePercent), nil
}

// GetInvoiceByNumber returns an invoice by its assigned number.
func (s *InvoiceService) GetInvoiceByNumber(ctx context.Context, number string) (*InvoiceResponse, error) {
	invoice, err := s.invoices.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(invoice, s.cfg.TaxRatePercent), nil
}

// ListInvoices returns a filtered, paginated invoice listing.
func (s *InvoiceService) ListInvoices(ctx context.Context, query ListInvoicesQuery) (*InvoiceListResponse, error) {
	filter := billing.InvoiceFilter{ClientID: query.ClientID}
	if query.Status != nil {
		status := billing.InvoiceStatus(*query.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Invalid invoice status: %s", *query.Status))
		}
		filter.Status = &status
	}
	if query.Period != nil {
		period, err := billing.ParsePeriod(*query.Period)
		if err != nil {
			return nil, err
		}
		filter.Period = &period
	}

	page, pageSize := query.Page, query.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	invoices, total, err := s.invoices.FindAll(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]*InvoiceResponse, len(invoices))
	for i, invoice := range invoices {
		items[i] = toInvoiceResponse(invoice, s.cfg.TaxRatePercent)
	}
	return &InvoiceListResponse{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// UpdateInvoice mutates a draft invoice's notes.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, id uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	invoice, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Notes != nil {
		if err := invoice.SetNotes(*req.Notes); err != nil {
			return nil, err
		}
	}
	if err := s.invoices.Update(ctx, invoice); err != nil {
		return nil, err
	}
	return toInvoiceResponse(invoice, s.cfg.TaxRatePercent), nil
}

// SendInvoice transitions a draft invoice to sent.
func (s *InvoiceService) SendInvoice(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, id, (*billing.Invoice).Send, "invoice sent")
}

// PayInvoice transitions a sent invoice to paid.
func (s *InvoiceService) PayInvoice(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, id, (*billing.Invoice).MarkPaid, "invoice paid")
}

// CancelInvoice voids a draft or sent invoice.
func (s *InvoiceService) CancelInvoice(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, id, (*billing.Invoice).Cancel, "invoice cancelled")
}

func (s *InvoiceService) transition(ctx context.Context, id uuid.UUID, apply func(*billing.Invoice) error, event string) (*InvoiceResponse, error) {
	invoice, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(invoice); err != nil {
		return nil, err
	}
	if err := s.invoices.Update(ctx, invoice); err != nil {
		return nil, err
	}
	s.logger.Info(event,
		zap.String("number", invoice.Number),
		zap.String("status", string(invoice.Status)),
	)
	return toInvoiceResponse(invoice, s.cfg.TaxRatePercent), nil
}

// DeleteInvoice removes a draft invoice together with its line items.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	invoice, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.invoices.Delete(ctx, invoice.ID); err != nil {
		return err
	}
	s.logger.Info("draft invoice deleted", zap.String("number", invoice.Number))
	return nil
}
