package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tajdo/backend/internal/middleware"
	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/payment"
)

// PaymentServiceInterface は決済ハンドラーが必要とするサービスインターフェース。
type PaymentServiceInterface interface {
	// CreateIntent は決済インテントを作成する。決済結果はシミュレーションされる。
	CreateIntent(ctx context.Context, amountCents int64, method string) (*payment.Intent, error)
	// AttachIntent は注文に決済インテントを紐付ける。所有者または管理者のみ。
	AttachIntent(ctx context.Context, requesterID string, isAdmin bool, orderID, intentID, method string) error
	// ConfirmIntent はゲートウェイ通知を処理し、紐付く注文をprocessingへ進める。
	ConfirmIntent(ctx context.Context, intentID string) (*model.Order, error)
}

// PaymentMetrics は決済失敗時に記録するメトリクスのインターフェース。
type PaymentMetrics interface {
	// RecordPaymentFailure は決済失敗を支払い方法別に記録する。
	RecordPaymentFailure(method string)
}

// PaymentHandler は決済シミュレーションのHTTPハンドラー。
type PaymentHandler struct {
	service PaymentServiceInterface
	metrics PaymentMetrics
}

// NewPaymentHandler はPaymentHandlerを生成する。metricsはnil可。
func NewPaymentHandler(service PaymentServiceInterface, metrics PaymentMetrics) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		metrics: metrics,
	}
}

// createIntentRequest は決済インテント作成リクエストのボディ。
type createIntentRequest struct {
	AmountCents   int64  `json:"amount_cents"`
	PaymentMethod string `json:"payment_method"`
}

// attachIntentRequest はインテント紐付けリクエストのボディ。
type attachIntentRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
	PaymentMethod   string `json:"payment_method"`
}

// intentResponse は決済インテントのAPIレスポンス。
type intentResponse struct {
	ID            string `json:"id"`
	ClientSecret  string `json:"client_secret"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
	PaymentMethod string `json:"payment_method"`
	Status        string `json:"status"`
}

// CreateIntent は決済インテントを作成する。
// POST /api/payments/intent
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	var req createIntentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	intent, err := h.service.CreateIntent(r.Context(), req.AmountCents, req.PaymentMethod)
	if err != nil {
		var apiErr *model.APIError
		if h.metrics != nil && errors.As(err, &apiErr) && apiErr.Code == model.ErrCodePaymentFailed {
			h.metrics.RecordPaymentFailure(req.PaymentMethod)
		}
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, intentResponse{
		ID:            intent.ID,
		ClientSecret:  intent.ClientSecret,
		AmountCents:   intent.AmountCents,
		Currency:      intent.Currency,
		PaymentMethod: intent.PaymentMethod,
		Status:        intent.Status,
	})
}

// AttachIntent は注文に決済インテントを紐付ける。
// POST /api/orders/:id/payment
func (h *PaymentHandler) AttachIntent(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req attachIntentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.PaymentIntentID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("payment_intent_id is required"))
		return
	}

	if err := h.service.AttachIntent(r.Context(), userID, isAdminRequest(r), chi.URLParam(r, "id"), req.PaymentIntentID, req.PaymentMethod); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// webhookRequest は決済ゲートウェイからの確認通知のボディ。
type webhookRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

// webhookResponse は確認通知処理後の注文状態。
type webhookResponse struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
}

// Webhook は決済ゲートウェイからの確認通知を受け付ける。
// POST /api/payments/webhook
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.service.ConfirmIntent(r.Context(), req.PaymentIntentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, webhookResponse{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
	})
}
