package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appbilling "github.com/tejit/billing/internal/application/billing"
	"github.com/tejit/billing/internal/interfaces/http/middleware"
)

// InvoiceHandler handles invoice HTTP requests
type InvoiceHandler struct {
	BaseHandler
	invoices *appbilling.InvoiceService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoices *appbilling.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// CreateInvoice issues a draft invoice. The invoice number is allocated
// atomically with the insert and present in the response.
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req appbilling.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.invoices.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetInvoice returns an invoice by ID.
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	resp, err := h.invoices.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetInvoiceByNumber returns an invoice by its assigned number.
func (h *InvoiceHandler) GetInvoiceByNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		h.BadRequest(c, "Invoice number is required")
		return
	}

	resp, err := h.invoices.GetInvoiceByNumber(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListInvoices returns a filtered, paginated invoice listing.
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	var query appbilling.ListInvoicesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.invoices.ListInvoices(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, resp.Items, resp.TotalCount, resp.Page, resp.PageSize)
}

// UpdateInvoice mutates a draft invoice.
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req appbilling.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.invoices.UpdateInvoice(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SendInvoice transitions a draft invoice to sent.
func (h *InvoiceHandler) SendInvoice(c *gin.Context) {
	h.lifecycle(c, h.invoices.SendInvoice)
}

// PayInvoice transitions a sent invoice to paid.
func (h *InvoiceHandler) PayInvoice(c *gin.Context) {
	h.lifecycle(c, h.invoices.PayInvoice)
}

// CancelInvoice voids a draft or sent invoice.
func (h *InvoiceHandler) CancelInvoice(c *gin.Context) {
	h.lifecycle(c, h.invoices.CancelInvoice)
}

func (h *InvoiceHandler) lifecycle(c *gin.Context, apply func(ctx context.Context, id uuid.UUID) (*appbilling.InvoiceResponse, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	resp, err := apply(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DeleteInvoice removes a draft invoice.
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	if err := h.invoices.DeleteInvoice(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// RegisterRoutes registers all invoice routes
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.CreateInvoice)
		invoices.GET("", h.ListInvoices)
		invoices.GET("/:id", h.GetInvoice)
		invoices.GET("/number/:number", h.GetInvoiceByNumber)
		invoices.PUT("/:id", h.UpdateInvoice)
		invoices.POST("/:id/send", h.SendInvoice)
		invoices.POST("/:id/pay", h.PayInvoice)
		invoices.POST("/:id/cancel", h.CancelInvoice)
		invoices.DELETE("/:id", h.DeleteInvoice)
	}
}
