package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	cases := []struct {
		code   string
		status int
	}{
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeImportInProgress, http.StatusConflict},
		{ErrCodeDuplicateNumber, http.StatusConflict},
		{ErrCodeStorageUnavailable, http.StatusServiceUnavailable},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"ERR_SOMETHING_NEW", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, GetHTTPStatus(tc.code), "code %s", tc.code)
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("CLIENT_NOT_FOUND"))
	assert.Equal(t, ErrCodeInvalidInput, NormalizeErrorCode("INVALID_PERIOD"))
	assert.Equal(t, ErrCodeImportInProgress, NormalizeErrorCode("IMPORT_IN_PROGRESS"))
	assert.Equal(t, ErrCodeDuplicateNumber, NormalizeErrorCode("DUPLICATE_INVOICE_NUMBER"))
	// already-normalized and unknown codes pass through
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(ErrCodeNotFound))
	assert.Equal(t, "SOMETHING_ELSE", NormalizeErrorCode("SOMETHING_ELSE"))
}

func TestResponses(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		resp := NewSuccessResponse(map[string]string{"k": "v"})
		assert.True(t, resp.Success)
		assert.Nil(t, resp.Error)
	})

	t.Run("success with meta computes total pages", func(t *testing.T) {
		resp := NewSuccessResponseWithMeta(nil, 45, 2, 20)
		assert.Equal(t, 3, resp.Meta.TotalPages)
		assert.Equal(t, int64(45), resp.Meta.Total)

		exact := NewSuccessResponseWithMeta(nil, 40, 1, 20)
		assert.Equal(t, 2, exact.Meta.TotalPages)
	})

	t.Run("error with request id", func(t *testing.T) {
		resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Invoice not found", "req-42")
		assert.False(t, resp.Success)
		assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
		assert.Equal(t, "req-42", resp.Error.RequestID)
	})

	t.Run("validation error carries details", func(t *testing.T) {
		resp := NewValidationErrorResponse("Request validation failed", "req-42", []ValidationDetail{
			{Field: "client_id", Message: "This field is required"},
		})
		assert.Equal(t, ErrCodeValidation, resp.Error.Code)
		assert.Len(t, resp.Error.Details, 1)
	})
}
