package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tajdo/backend/internal/middleware"
	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/order"
)

// OrderServiceInterface は注文ハンドラーが必要とするサービスインターフェース。
type OrderServiceInterface interface {
	// Checkout は指定された商品リストから注文を作成する。
	Checkout(ctx context.Context, userID string, input order.CheckoutInput) (*model.Order, error)
	// GetOrder は注文を取得する。所有者または管理者のみ。
	GetOrder(ctx context.Context, requesterID string, isAdmin bool, orderID string) (*model.Order, error)
	// ListUserOrders は指定ユーザーの注文一覧を返す。所有者または管理者のみ。
	ListUserOrders(ctx context.Context, requesterID string, isAdmin bool, targetUserID string) ([]*model.Order, error)
	// ListAllOrders は全注文一覧を返す。管理者用。
	ListAllOrders(ctx context.Context) ([]*model.Order, error)
	// Track は注文番号とメールアドレスで注文を照会する。認証不要。
	Track(ctx context.Context, orderNumber, email string) (*model.Order, error)
	// StatusHistory は注文のステータス履歴を返す。所有者または管理者のみ。
	StatusHistory(ctx context.Context, requesterID string, isAdmin bool, orderID string) ([]*model.OrderStatusHistory, error)
	// UpdateStatus は注文ステータスを更新する。管理者用。
	UpdateStatus(ctx context.Context, adminName, orderID, newStatus, trackingNumber string) (*model.Order, error)
	// RescueContributionForOrder は注文に紐づく寄付レコードを返す。
	RescueContributionForOrder(ctx context.Context, requesterID string, isAdmin bool, orderID string) (*model.RescueContribution, error)
	// ListRescueContributions は全寄付レコードと総額を返す。管理者用。
	ListRescueContributions(ctx context.Context) (*order.RescueSummary, error)
}

// AdminNameResolver は管理者IDから表示名（メールアドレス）を引くためのインターフェース。
// ステータス履歴の監査ノートで使用する。
type AdminNameResolver interface {
	// FindByID はユーザーをIDで取得する。未存在は (nil, nil)。
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// OrderMetrics は注文作成時に記録するメトリクスのインターフェース。
type OrderMetrics interface {
	// RecordOrderPlaced は注文件数と売上を記録する。
	RecordOrderPlaced(totalCents int64)
	// RecordRescueContribution は寄付額を記録する。
	RecordRescueContribution(amountCents int64)
}

// OrderHandler は注文のHTTPハンドラー。
type OrderHandler struct {
	service  OrderServiceInterface
	resolver AdminNameResolver
	metrics  OrderMetrics
}

// NewOrderHandler はOrderHandlerを生成する。metricsはnil可。
func NewOrderHandler(service OrderServiceInterface, resolver AdminNameResolver, metrics OrderMetrics) *OrderHandler {
	return &OrderHandler{
		service:  service,
		resolver: resolver,
		metrics:  metrics,
	}
}

// checkoutItemRequest はチェックアウトする商品1件。
type checkoutItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// checkoutRequest はチェックアウトリクエストのボディ。
type checkoutRequest struct {
	ShippingAddressID string                `json:"shipping_address_id"`
	PaymentMethod     string                `json:"payment_method"`
	PaymentIntentID   string                `json:"payment_intent_id"`
	Notes             string                `json:"notes"`
	Items             []checkoutItemRequest `json:"items"`
}

// trackOrderRequest は注文照会リクエストのボディ。
type trackOrderRequest struct {
	OrderNumber string `json:"order_number"`
	Email       string `json:"email"`
}

// updateOrderStatusRequest はステータス更新リクエストのボディ。
type updateOrderStatusRequest struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number"`
}

// orderItemResponse は注文行のAPIレスポンス。
type orderItemResponse struct {
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	TotalCents     int64  `json:"total_cents"`
}

// orderResponse は注文のAPIレスポンス。
type orderResponse struct {
	ID                string              `json:"id"`
	OrderNumber       string              `json:"order_number"`
	UserID            string              `json:"user_id"`
	ShippingAddressID string              `json:"shipping_address_id,omitempty"`
	Status            string              `json:"status"`
	SubtotalCents     int64               `json:"subtotal_cents"`
	ShippingCents     int64               `json:"shipping_cents"`
	TaxCents          int64               `json:"tax_cents"`
	TotalCents        int64               `json:"total_cents"`
	Currency          string              `json:"currency"`
	PaymentMethod     string              `json:"payment_method,omitempty"`
	Notes             string              `json:"notes,omitempty"`
	TrackingNumber    string              `json:"tracking_number,omitempty"`
	CreatedAt         string              `json:"created_at"`
	Items             []orderItemResponse `json:"items"`
}

// statusHistoryResponse はステータス履歴1件のAPIレスポンス。
type statusHistoryResponse struct {
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	Note      string `json:"note"`
	CreatedAt string `json:"created_at"`
}

// rescueContributionResponse は寄付レコードのAPIレスポンス。
type rescueContributionResponse struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	CreatedAt   string `json:"created_at"`
}

// rescueSummaryResponse は寄付レコード一覧と総額のAPIレスポンス。
type rescueSummaryResponse struct {
	Contributions []rescueContributionResponse `json:"contributions"`
	TotalCents    int64                        `json:"total_cents"`
}

// Checkout は指定された商品リストから注文を作成する。
// POST /api/orders/checkout
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req checkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	items := make([]order.CheckoutItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, order.CheckoutItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	placed, err := h.service.Checkout(r.Context(), userID, order.CheckoutInput{
		ShippingAddressID: req.ShippingAddressID,
		PaymentMethod:     req.PaymentMethod,
		PaymentIntentID:   req.PaymentIntentID,
		Notes:             req.Notes,
		Items:             items,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordOrderPlaced(placed.TotalCents)
		if contribution, err := h.service.RescueContributionForOrder(r.Context(), userID, false, placed.ID); err == nil {
			h.metrics.RecordRescueContribution(contribution.AmountCents)
		}
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(placed))
}

// ListMyOrders はトークン主体の注文一覧を返す。
// GET /api/orders
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	orders, err := h.service.ListUserOrders(r.Context(), userID, isAdminRequest(r), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

// GetOrder は注文を取得する。所有者または管理者のみ。
// GET /api/orders/:id
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	o, err := h.service.GetOrder(r.Context(), userID, isAdminRequest(r), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// Track は注文番号とメールアドレスで注文を照会する。認証不要。
// POST /api/orders/track
func (h *OrderHandler) Track(w http.ResponseWriter, r *http.Request) {
	var req trackOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.OrderNumber == "" || req.Email == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("order_number and email are required"))
		return
	}

	o, err := h.service.Track(r.Context(), req.OrderNumber, req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// StatusHistory は注文のステータス履歴を返す。所有者または管理者のみ。
// GET /api/orders/:id/history
func (h *OrderHandler) StatusHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	entries, err := h.service.StatusHistory(r.Context(), userID, isAdminRequest(r), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]statusHistoryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, statusHistoryResponse{
			OldStatus: e.OldStatus,
			NewStatus: e.NewStatus,
			Note:      e.Note,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// RescueContribution は注文に紐づく寄付レコードを返す。所有者または管理者のみ。
// GET /api/orders/:id/rescue-contribution
func (h *OrderHandler) RescueContribution(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	contribution, err := h.service.RescueContributionForOrder(r.Context(), userID, isAdminRequest(r), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRescueContributionResponse(contribution))
}

// ListAllOrders は全注文一覧を返す。管理者用。
// GET /api/admin/orders
func (h *OrderHandler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListAllOrders(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

// ListUserOrders は指定ユーザーの注文一覧を返す。管理者用。
// GET /api/admin/users/:userID/orders
func (h *OrderHandler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	requesterID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	orders, err := h.service.ListUserOrders(r.Context(), requesterID, true, chi.URLParam(r, "userID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

// UpdateStatus は注文ステータスを更新する。管理者用。
// PATCH /api/admin/orders/:id/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	adminID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req updateOrderStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Status == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("status is required"))
		return
	}

	// 監査ノート用に管理者のメールアドレスを引く。失敗時はIDで代用する。
	adminName := adminID
	if admin, err := h.resolver.FindByID(r.Context(), adminID); err == nil && admin != nil {
		adminName = admin.Email
	}

	o, err := h.service.UpdateStatus(r.Context(), adminName, chi.URLParam(r, "id"), req.Status, req.TrackingNumber)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// ListRescueContributions は全寄付レコードと総額を返す。管理者用。
// GET /api/admin/rescue-contributions
func (h *OrderHandler) ListRescueContributions(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.ListRescueContributions(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := rescueSummaryResponse{
		Contributions: make([]rescueContributionResponse, 0, len(summary.Contributions)),
		TotalCents:    summary.TotalCents,
	}
	for _, c := range summary.Contributions {
		resp.Contributions = append(resp.Contributions, toRescueContributionResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- ヘルパー関数 ---

// isAdminRequest はリクエストコンテキストのロールが管理者かどうかを返す。
func isAdminRequest(r *http.Request) bool {
	role, err := middleware.RoleFromContext(r.Context())
	return err == nil && role == model.RoleAdmin
}

// toOrderResponse はmodel.OrderからAPIレスポンスに変換する。
func toOrderResponse(o *model.Order) orderResponse {
	resp := orderResponse{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		UserID:            o.UserID,
		ShippingAddressID: o.ShippingAddressID,
		Status:            o.Status,
		SubtotalCents:     o.SubtotalCents,
		ShippingCents:     o.ShippingCents,
		TaxCents:          o.TaxCents,
		TotalCents:        o.TotalCents,
		Currency:          o.Currency,
		PaymentMethod:     o.PaymentMethod,
		Notes:             o.Notes,
		TrackingNumber:    o.TrackingNumber,
		CreatedAt:         o.CreatedAt.Format(time.RFC3339),
		Items:             make([]orderItemResponse, 0, len(o.Items)),
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			TotalCents:     item.TotalCents,
		})
	}
	return resp
}

// toOrderResponses は注文スライスをAPIレスポンスに変換する。
func toOrderResponses(orders []*model.Order) []orderResponse {
	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	return resp
}

// toRescueContributionResponse はmodel.RescueContributionからAPIレスポンスに変換する。
func toRescueContributionResponse(c *model.RescueContribution) rescueContributionResponse {
	return rescueContributionResponse{
		ID:          c.ID,
		OrderID:     c.OrderID,
		AmountCents: c.AmountCents,
		Currency:    c.Currency,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
}
