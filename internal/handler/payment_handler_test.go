package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/payment"
)

// mockPaymentService はPaymentServiceInterfaceのモック実装。
type mockPaymentService struct {
	createIntentFn  func(ctx context.Context, amountCents int64, method string) (*payment.Intent, error)
	attachIntentFn  func(ctx context.Context, requesterID string, isAdmin bool, orderID, intentID, method string) error
	confirmIntentFn func(ctx context.Context, intentID string) (*model.Order, error)
}

func (m *mockPaymentService) CreateIntent(ctx context.Context, amountCents int64, method string) (*payment.Intent, error) {
	if m.createIntentFn != nil {
		return m.createIntentFn(ctx, amountCents, method)
	}
	return &payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret", AmountCents: amountCents, Currency: "CHF", PaymentMethod: method, Status: "succeeded"}, nil
}

func (m *mockPaymentService) AttachIntent(ctx context.Context, requesterID string, isAdmin bool, orderID, intentID, method string) error {
	if m.attachIntentFn != nil {
		return m.attachIntentFn(ctx, requesterID, isAdmin, orderID, intentID, method)
	}
	return nil
}

func (m *mockPaymentService) ConfirmIntent(ctx context.Context, intentID string) (*model.Order, error) {
	if m.confirmIntentFn != nil {
		return m.confirmIntentFn(ctx, intentID)
	}
	return &model.Order{ID: "o1", OrderNumber: "ORD-20250701-0001", Status: model.OrderStatusProcessing}, nil
}

// mockPaymentFailureMetrics は決済失敗メトリクスの記録を捕捉する。
type mockPaymentFailureMetrics struct {
	failedMethods []string
}

func (m *mockPaymentFailureMetrics) RecordPaymentFailure(method string) {
	m.failedMethods = append(m.failedMethods, method)
}

// TestPaymentHandler_CreateIntent_Success は決済インテントの作成を検証する。
func TestPaymentHandler_CreateIntent_Success(t *testing.T) {
	var gotAmount int64
	var gotMethod string
	svc := &mockPaymentService{
		createIntentFn: func(ctx context.Context, amountCents int64, method string) (*payment.Intent, error) {
			gotAmount = amountCents
			gotMethod = method
			return &payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret", AmountCents: amountCents, Currency: "CHF", PaymentMethod: method, Status: "succeeded"}, nil
		},
	}
	h := NewPaymentHandler(svc, nil)

	body := bytes.NewBufferString(`{"amount_cents":12990,"payment_method":"card"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/intent", body)
	req = withUser(req, "user-1", "customer")
	w := httptest.NewRecorder()

	h.CreateIntent(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if gotAmount != 12990 || gotMethod != "card" {
		t.Errorf("amount = %d, method = %q", gotAmount, gotMethod)
	}

	var resp intentResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "pi_1" || resp.Currency != "CHF" || resp.Status != "succeeded" {
		t.Errorf("response = %+v", resp)
	}
}

// TestPaymentHandler_CreateIntent_FailureRecordsMetric は決済失敗時にメトリクスが記録されることを検証する。
func TestPaymentHandler_CreateIntent_FailureRecordsMetric(t *testing.T) {
	svc := &mockPaymentService{
		createIntentFn: func(ctx context.Context, amountCents int64, method string) (*payment.Intent, error) {
			return nil, model.NewPaymentFailedError("card declined")
		},
	}
	metrics := &mockPaymentFailureMetrics{}
	h := NewPaymentHandler(svc, metrics)

	body := bytes.NewBufferString(`{"amount_cents":12990,"payment_method":"card"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/intent", body)
	req = withUser(req, "user-1", "customer")
	w := httptest.NewRecorder()

	h.CreateIntent(w, req)

	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusPaymentRequired)
	}
	if len(metrics.failedMethods) != 1 || metrics.failedMethods[0] != "card" {
		t.Errorf("failedMethods = %v, want [card]", metrics.failedMethods)
	}
}

// TestPaymentHandler_CreateIntent_Unauthenticated は未認証リクエストが401になることを検証する。
func TestPaymentHandler_CreateIntent_Unauthenticated(t *testing.T) {
	h := NewPaymentHandler(&mockPaymentService{}, nil)

	body := bytes.NewBufferString(`{"amount_cents":12990,"payment_method":"card"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/intent", body)
	w := httptest.NewRecorder()

	h.CreateIntent(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// TestPaymentHandler_AttachIntent_Success は注文への決済インテント紐付けを検証する。
func TestPaymentHandler_AttachIntent_Success(t *testing.T) {
	var gotOrderID, gotIntentID, gotMethod string
	svc := &mockPaymentService{
		attachIntentFn: func(ctx context.Context, requesterID string, isAdmin bool, orderID, intentID, method string) error {
			if requesterID != "user-1" || isAdmin {
				t.Errorf("requesterID = %q, isAdmin = %v", requesterID, isAdmin)
			}
			gotOrderID = orderID
			gotIntentID = intentID
			gotMethod = method
			return nil
		},
	}
	h := NewPaymentHandler(svc, nil)

	body := bytes.NewBufferString(`{"payment_intent_id":"pi_1","payment_method":"card"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/orders/o1/payment", body)
	req = withUser(req, "user-1", "customer")
	req = withChiURLParam(req, "id", "o1")
	w := httptest.NewRecorder()

	h.AttachIntent(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if gotOrderID != "o1" || gotIntentID != "pi_1" || gotMethod != "card" {
		t.Errorf("orderID = %q, intentID = %q, method = %q", gotOrderID, gotIntentID, gotMethod)
	}
}

// TestPaymentHandler_AttachIntent_MissingIntentID はインテントID欠落時の400を検証する。
func TestPaymentHandler_AttachIntent_MissingIntentID(t *testing.T) {
	h := NewPaymentHandler(&mockPaymentService{}, nil)

	body := bytes.NewBufferString(`{"payment_method":"card"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/orders/o1/payment", body)
	req = withUser(req, "user-1", "customer")
	req = withChiURLParam(req, "id", "o1")
	w := httptest.NewRecorder()

	h.AttachIntent(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// TestPaymentHandler_Webhook_Success はゲートウェイ確認通知で注文状態が返ることを検証する。
func TestPaymentHandler_Webhook_Success(t *testing.T) {
	svc := &mockPaymentService{
		confirmIntentFn: func(ctx context.Context, intentID string) (*model.Order, error) {
			if intentID != "pi_1" {
				t.Errorf("intentID = %q, want %q", intentID, "pi_1")
			}
			return &model.Order{ID: "o1", OrderNumber: "ORD-20250701-0001", Status: model.OrderStatusProcessing}, nil
		},
	}
	h := NewPaymentHandler(svc, nil)

	body := bytes.NewBufferString(`{"payment_intent_id":"pi_1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", body)
	w := httptest.NewRecorder()

	h.Webhook(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp webhookResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.OrderID != "o1" || resp.OrderNumber != "ORD-20250701-0001" || resp.Status != model.OrderStatusProcessing {
		t.Errorf("response = %+v", resp)
	}
}

// TestPaymentHandler_Webhook_UnknownIntent は未知のインテントIDで404になることを検証する。
func TestPaymentHandler_Webhook_UnknownIntent(t *testing.T) {
	svc := &mockPaymentService{
		confirmIntentFn: func(ctx context.Context, intentID string) (*model.Order, error) {
			return nil, model.NewOrderNotFoundError()
		},
	}
	h := NewPaymentHandler(svc, nil)

	body := bytes.NewBufferString(`{"payment_intent_id":"pi_missing"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", body)
	w := httptest.NewRecorder()

	h.Webhook(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	errResp := decodeErrorResponse(t, w)
	if errResp["code"] != model.ErrCodeOrderNotFound {
		t.Errorf("code = %v, want %v", errResp["code"], model.ErrCodeOrderNotFound)
	}
}
