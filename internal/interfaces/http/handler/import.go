package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appingest "github.com/tejit/billing/internal/application/ingest"
	"github.com/tejit/billing/internal/interfaces/http/middleware"
)

// ImportHandler handles bulk usage import HTTP requests
type ImportHandler struct {
	BaseHandler
	imports *appingest.ImportService
}

// NewImportHandler creates a new import handler
func NewImportHandler(imports *appingest.ImportService) *ImportHandler {
	return &ImportHandler{imports: imports}
}

// CreateImport starts a bulk usage import.
// The job is accepted immediately; its progress is polled via GetImport.
func (h *ImportHandler) CreateImport(c *gin.Context) {
	var req appingest.CreateImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.imports.CreateImport(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, resp)
}

// GetImport returns an import job with its counters and error samples.
func (h *ImportHandler) GetImport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid import job ID")
		return
	}

	resp, err := h.imports.GetImport(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListImports returns a filtered, paginated list of import jobs.
func (h *ImportHandler) ListImports(c *gin.Context) {
	var query appingest.ListImportsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.imports.ListImports(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, resp.Items, resp.TotalCount, resp.Page, resp.PageSize)
}

// CancelImport stops a pending or processing import job.
func (h *ImportHandler) CancelImport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid import job ID")
		return
	}

	if err := h.imports.CancelImport(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// DeleteImport removes a pending or failed job and its usage records.
func (h *ImportHandler) DeleteImport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid import job ID")
		return
	}

	if err := h.imports.DeleteImport(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// RegisterRoutes registers all import routes
func (h *ImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	imports := rg.Group("/imports")
	{
		imports.POST("", h.CreateImport)
		imports.GET("", h.ListImports)
		imports.GET("/:id", h.GetImport)
		imports.POST("/:id/cancel", h.CancelImport)
		imports.DELETE("/:id", h.DeleteImport)
	}
}
