package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	appbilling "github.com/satguard/backend/internal/application/billing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func paymentTestRouter(h *PaymentHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/payments/webhook", h.Webhook)
	return r
}

func TestWebhookValidation(t *testing.T) {
	h := NewPaymentHandler(&appbilling.PaymentService{}, decimal.NewFromInt(50), zap.NewNop())
	r := paymentTestRouter(h)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("rejects a malformed payload", func(t *testing.T) {
		w := post("{not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects a payload without type", func(t *testing.T) {
		w := post(`{"data":{}}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("succeeded event requires a checkout session", func(t *testing.T) {
		w := post(`{"type":"payment.succeeded","data":{"payment_intent_id":"pi_1"}}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("failed event requires a payment intent", func(t *testing.T) {
		w := post(`{"type":"payment.failed","data":{"checkout_session_id":"cs_1"}}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("acknowledges unknown event types", func(t *testing.T) {
		w := post(`{"type":"customer.created","data":{}}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"handled":false`)
	})
}
