package httputil_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartinventory/smartinventory-backend/pkg/errors"
	"github.com/smartinventory/smartinventory-backend/pkg/httputil"
	"github.com/smartinventory/smartinventory-backend/pkg/i18n"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Responses
// ============================================================================

func TestJSON_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	httputil.JSONWithMeta(rec, http.StatusOK, []string{"a", "b"}, &httputil.Meta{Count: 2, TotalCount: 5})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, []any{"a", "b"}, body["data"])
	assert.Equal(t, float64(5), body["meta"].(map[string]any)["total_count"])
}

func TestRaw_NoEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	httputil.Raw(rec, http.StatusOK, map[string]any{"success": true, "items": []int{}})

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotContains(t, body, "data")
	assert.Contains(t, body, "items")
}

func TestErrorLocalized(t *testing.T) {
	tests := []struct {
		name       string
		lang       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "app error in korean",
			lang:       "ko",
			err:        errors.InsufficientStock(1, 3, "개"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "INSUFFICIENT_STOCK",
			wantMsg:    "재고 부족: 현재 재고 1개, 요청 출고 3개",
		},
		{
			name:       "plain error hides details",
			lang:       "en",
			err:        assert.AnError,
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Accept-Language", tt.lang)
			rec := httptest.NewRecorder()

			i18n.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				httputil.ErrorLocalized(w, r, tt.err)
			})).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp httputil.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, resp.Error.Message)
			}
			assert.NotContains(t, resp.Error.Message, assert.AnError.Error())
		})
	}
}

func TestDecodeJSON_Invalid(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("{nope"))
	var v map[string]any

	err := httputil.DecodeJSON(req, &v)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

// ============================================================================
// Validation
// ============================================================================

type stockRequest struct {
	ItemID   int    `validate:"required"`
	Quantity int    `validate:"gt=0"`
	Color    string `validate:"omitempty,hexcolor"`
}

func TestValidate(t *testing.T) {
	assert.NoError(t, httputil.Validate(stockRequest{ItemID: 1, Quantity: 2}))

	err := httputil.Validate(stockRequest{Quantity: 0, Color: "blue"})
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Equal(t, "this field is required", appErr.Details["ItemID"])
	assert.Equal(t, "must be greater than 0", appErr.Details["Quantity"])
	assert.Contains(t, appErr.Details, "Color")
}

// ============================================================================
// Middleware
// ============================================================================

func TestRequestID(t *testing.T) {
	var seen string
	h := httputil.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httputil.GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "given")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "given", seen)
}

func TestRecoverer(t *testing.T) {
	h := httputil.Recoverer(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPrincipal(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, httputil.GetPrincipal(ctx))
	assert.Empty(t, httputil.GetUserID(ctx))

	ctx = httputil.WithPrincipal(ctx, &httputil.Principal{UserID: "user_mom", Role: "parent"})
	assert.Equal(t, "user_mom", httputil.GetUserID(ctx))
	assert.Equal(t, "parent", httputil.GetPrincipal(ctx).Role)
}
