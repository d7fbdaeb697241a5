package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")

	ErrClientNotFound         = NewDomainError("CLIENT_NOT_FOUND", "Client not found")
	ErrInvalidPeriod          = NewDomainError("INVALID_PERIOD", "Billing period start must not be after end")
	ErrMissingSource          = NewDomainError("MISSING_SOURCE", "File imports require a source handle")
	ErrImportInProgress       = NewDomainError("IMPORT_IN_PROGRESS", "Import job is still processing")
	ErrDuplicateInvoiceNumber = NewDomainError("DUPLICATE_INVOICE_NUMBER", "Invoice number already allocated")
	ErrStorageUnavailable     = NewDomainError("STORAGE_UNAVAILABLE", "Underlying storage is unavailable")
)
