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
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeQuotationExpired, http.StatusUnprocessableEntity},
		{ErrCodeReasonRequired, http.StatusUnprocessableEntity},
		{ErrCodeNoItemsSelected, http.StatusUnprocessableEntity},
		{ErrCodeItemAlreadyConsumed, http.StatusUnprocessableEntity},
		{ErrCodeCurrencyMismatch, http.StatusUnprocessableEntity},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"ERR_NEVER_SEEN", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.status, GetHTTPStatus(tc.code), tc.code)
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	t.Run("maps raw domain codes", func(t *testing.T) {
		assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
		assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("ITEM_NOT_FOUND"))
		assert.Equal(t, ErrCodeConcurrencyConflict, NormalizeErrorCode("CONCURRENCY_CONFLICT"))
		assert.Equal(t, ErrCodeQuotationExpired, NormalizeErrorCode("QUOTATION_EXPIRED"))
		assert.Equal(t, ErrCodeInvalidInput, NormalizeErrorCode("INVALID_QUANTITY"))
	})

	t.Run("passes through already normalized or unknown codes", func(t *testing.T) {
		assert.Equal(t, ErrCodeInvalidState, NormalizeErrorCode(ErrCodeInvalidState))
		assert.Equal(t, "SOMETHING_ELSE", NormalizeErrorCode("SOMETHING_ELSE"))
	})
}

func TestResponses(t *testing.T) {
	t.Run("success response wraps data", func(t *testing.T) {
		resp := NewSuccessResponse(map[string]string{"k": "v"})
		assert.True(t, resp.Success)
		assert.Nil(t, resp.Error)
	})

	t.Run("paginated response computes total pages", func(t *testing.T) {
		resp := NewSuccessResponseWithMeta([]int{1, 2, 3}, 45, 2, 20)
		assert.True(t, resp.Success)
		assert.NotNil(t, resp.Meta)
		assert.Equal(t, 3, resp.Meta.TotalPages)
	})

	t.Run("error response carries code and request id", func(t *testing.T) {
		resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Quotation not found", "req-123")
		assert.False(t, resp.Success)
		assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
		assert.Equal(t, "req-123", resp.Error.RequestID)
	})
}
