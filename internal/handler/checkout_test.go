package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"marketplace-api/internal/dto"
	"marketplace-api/internal/model"
	"marketplace-api/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCheckoutService struct {
	createSplit   func(ctx context.Context, userID string, req *dto.SplitRequest) (*dto.SplitResponse, error)
	confirmOrder  func(ctx context.Context, userID, paymentIntentID, clientIP string) (*dto.ConfirmResponse, error)
	handleWebhook func(ctx context.Context, body []byte, signature string) error
}

func (f *fakeCheckoutService) CreateSplit(ctx context.Context, userID string, req *dto.SplitRequest) (*dto.SplitResponse, error) {
	return f.createSplit(ctx, userID, req)
}

func (f *fakeCheckoutService) ConfirmOrder(ctx context.Context, userID, paymentIntentID, clientIP string) (*dto.ConfirmResponse, error) {
	return f.confirmOrder(ctx, userID, paymentIntentID, clientIP)
}

func (f *fakeCheckoutService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	return f.handleWebhook(ctx, body, signature)
}

func postJSON(t *testing.T, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestConfirmReturnsOrder(t *testing.T) {
	fake := &fakeCheckoutService{
		confirmOrder: func(_ context.Context, userID, paymentIntentID, _ string) (*dto.ConfirmResponse, error) {
			assert.Equal(t, "u-1", userID)
			assert.Equal(t, "pi_123", paymentIntentID)
			return &dto.ConfirmResponse{
				Success: true,
				Order:   &model.Order{ID: "ord-1", GrandTotal: 48.5},
				Payment: &model.Payment{ID: "pay-1", TransactionID: "pi_123"},
			}, nil
		},
	}
	h := NewCheckoutHandler(fake)

	c, rec := postJSON(t, "/api/checkout/confirm", `{"paymentIntentId":"pi_123"}`)
	c.Set("user_id", "u-1")

	require.NoError(t, h.Confirm(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Contains(t, rec.Body.String(), `"ord-1"`)
}

func TestConfirmErrorBodies(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "missing intent id",
			err:      service.ErrMissingPaymentIntent,
			wantCode: http.StatusBadRequest,
			wantBody: `{"error":"Missing payment intent id"}`,
		},
		{
			name:     "payment not completed",
			err:      service.ErrPaymentNotSucceeded,
			wantCode: http.StatusBadRequest,
			wantBody: `{"error":"Payment not completed"}`,
		},
		{
			name:     "missing split data",
			err:      service.ErrMissingSplitData,
			wantCode: http.StatusBadRequest,
			wantBody: `{"error":"Missing split order data"}`,
		},
		{
			name:     "unexpected failure stays opaque",
			err:      errors.New("stripe: connection refused"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"Internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCheckoutService{
				confirmOrder: func(context.Context, string, string, string) (*dto.ConfirmResponse, error) {
					return nil, tt.err
				},
			}
			h := NewCheckoutHandler(fake)

			c, rec := postJSON(t, "/api/checkout/confirm", `{"paymentIntentId":"pi_x"}`)
			c.Set("user_id", "u-1")

			require.NoError(t, h.Confirm(c))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestSplitPassesRequestThrough(t *testing.T) {
	fake := &fakeCheckoutService{
		createSplit: func(_ context.Context, userID string, req *dto.SplitRequest) (*dto.SplitResponse, error) {
			assert.Equal(t, "u-1", userID)
			require.Len(t, req.Items, 1)
			assert.Equal(t, "p1", req.Items[0].ProductID)
			return &dto.SplitResponse{PaymentIntentID: "pi_new", ClientSecret: "pi_new_secret"}, nil
		},
	}
	h := NewCheckoutHandler(fake)

	c, rec := postJSON(t, "/api/checkout/split", `{"items":[{"productId":"p1","quantity":2}]}`)
	c.Set("user_id", "u-1")

	require.NoError(t, h.Split(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pi_new_secret"`)
}

func TestWebhookAcknowledgesAndReportsFailure(t *testing.T) {
	var gotBody []byte
	var gotSignature string
	fake := &fakeCheckoutService{
		handleWebhook: func(_ context.Context, body []byte, signature string) error {
			gotBody = body
			gotSignature = signature
			return nil
		},
	}
	h := NewCheckoutHandler(fake)

	payload := `{"id":"evt_1","type":"payment_intent.succeeded"}`
	c, rec := postJSON(t, "/api/checkout/webhook", payload)
	c.Request().Header.Set("Stripe-Signature", "t=1,v1=abc")
	require.NoError(t, h.Webhook(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, payload, string(gotBody))
	assert.Equal(t, "t=1,v1=abc", gotSignature)

	fake.handleWebhook = func(context.Context, []byte, string) error {
		return errors.New("db down")
	}
	c, rec = postJSON(t, "/api/checkout/webhook", payload)
	require.NoError(t, h.Webhook(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebhookRejectsBadSignatureWith400(t *testing.T) {
	fake := &fakeCheckoutService{
		handleWebhook: func(context.Context, []byte, string) error {
			return service.ErrInvalidWebhookSignature
		},
	}
	h := NewCheckoutHandler(fake)

	c, rec := postJSON(t, "/api/checkout/webhook", `{"id":"evt_1"}`)
	require.NoError(t, h.Webhook(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
