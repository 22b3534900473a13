package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/procurement"
)

// ProcurementServiceInterface は仕入先ハンドラーが必要とするサービスインターフェース。
type ProcurementServiceInterface interface {
	// ListSuppliers は仕入先一覧を返す。
	ListSuppliers(ctx context.Context) ([]*model.Supplier, error)
	// GetSupplier は仕入先を取得する。
	GetSupplier(ctx context.Context, id string) (*model.Supplier, error)
	// CreateSupplier は仕入先を作成する。管理者用。
	CreateSupplier(ctx context.Context, input procurement.SupplierInput) (*model.Supplier, error)
	// CreateSupplierOrder は仕入発注を作成する。管理者用。
	CreateSupplierOrder(ctx context.Context, input procurement.SupplierOrderInput) (*model.SupplierOrder, error)
	// GetSupplierOrder は仕入発注を取得する。管理者用。
	GetSupplierOrder(ctx context.Context, id string) (*model.SupplierOrder, error)
	// ListSupplierOrders は仕入発注一覧を返す。supplierIDは空で全件。管理者用。
	ListSupplierOrders(ctx context.Context, supplierID string) ([]*model.SupplierOrder, error)
	// UpdateSupplierOrderStatus は仕入発注のステータスを更新する。管理者用。
	UpdateSupplierOrderStatus(ctx context.Context, id, status, trackingNumber string) (*model.SupplierOrder, error)
	// RecordPayment は仕入先への支払いを記録する。管理者用。
	RecordPayment(ctx context.Context, input procurement.PaymentInput) (*model.SupplierPayment, error)
	// ListPayments は支払い一覧を返す。supplierIDは空で全件。管理者用。
	ListPayments(ctx context.Context, supplierID string) ([]*model.SupplierPayment, error)
}

// ProcurementHandler は仕入先・仕入発注のHTTPハンドラー。
type ProcurementHandler struct {
	service ProcurementServiceInterface
}

// NewProcurementHandler はProcurementHandlerを生成する。
func NewProcurementHandler(service ProcurementServiceInterface) *ProcurementHandler {
	return &ProcurementHandler{service: service}
}

// supplierRequest は仕入先作成リクエストのボディ。
type supplierRequest struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	Location        string `json:"location"`
	ContactEmail    string `json:"contact_email"`
	ContactPhone    string `json:"contact_phone"`
	DefaultLeadTime int    `json:"default_lead_time"`
	Notes           string `json:"notes"`
}

// supplierResponse は仕入先のAPIレスポンス。
type supplierResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	Location        string `json:"location"`
	ContactEmail    string `json:"contact_email,omitempty"`
	ContactPhone    string `json:"contact_phone,omitempty"`
	DefaultLeadTime int    `json:"default_lead_time"`
	Notes           string `json:"notes,omitempty"`
}

// supplierOrderItemRequest は仕入発注行の入力。
type supplierOrderItemRequest struct {
	ProductID     string `json:"product_id"`
	Quantity      int    `json:"quantity"`
	UnitCostCents int64  `json:"unit_cost_cents"`
}

// supplierOrderRequest は仕入発注作成リクエストのボディ。
type supplierOrderRequest struct {
	SupplierID      string                     `json:"supplier_id"`
	CustomerOrderID string                     `json:"customer_order_id"`
	Currency        string                     `json:"currency"`
	Notes           string                     `json:"notes"`
	Items           []supplierOrderItemRequest `json:"items"`
}

// updateSupplierOrderStatusRequest は仕入発注ステータス更新リクエストのボディ。
type updateSupplierOrderStatusRequest struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number"`
}

// supplierPaymentRequest は支払い記録リクエストのボディ。
type supplierPaymentRequest struct {
	SupplierID      string `json:"supplier_id"`
	SupplierOrderID string `json:"supplier_order_id"`
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
	Method          string `json:"method"`
	Reference       string `json:"reference"`
}

// supplierOrderResponse は仕入発注のAPIレスポンス。
type supplierOrderResponse struct {
	ID                    string  `json:"id"`
	OrderNumber           string  `json:"order_number"`
	SupplierID            string  `json:"supplier_id"`
	CustomerOrderID       string  `json:"customer_order_id,omitempty"`
	Status                string  `json:"status"`
	TotalCostCents        int64   `json:"total_cost_cents"`
	Currency              string  `json:"currency"`
	EstimatedDeliveryDays int     `json:"estimated_delivery_days"`
	TrackingNumber        string  `json:"tracking_number,omitempty"`
	Notes                 string  `json:"notes,omitempty"`
	CreatedAt             string  `json:"created_at"`
	ConfirmedAt           *string `json:"confirmed_at,omitempty"`
	InProductionAt        *string `json:"in_production_at,omitempty"`
	ShippedAt             *string `json:"shipped_at,omitempty"`
	ReceivedAt            *string `json:"received_at,omitempty"`
}

// supplierPaymentResponse は支払いのAPIレスポンス。
type supplierPaymentResponse struct {
	ID              string `json:"id"`
	SupplierID      string `json:"supplier_id"`
	SupplierOrderID string `json:"supplier_order_id,omitempty"`
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
	Method          string `json:"method"`
	Reference       string `json:"reference,omitempty"`
	PaidAt          string `json:"paid_at"`
}

// ListSuppliers は仕入先一覧を返す。
// GET /api/suppliers
func (h *ProcurementHandler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.service.ListSuppliers(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]supplierResponse, 0, len(suppliers))
	for _, s := range suppliers {
		resp = append(resp, toSupplierResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSupplier は仕入先を取得する。
// GET /api/suppliers/:id
func (h *ProcurementHandler) GetSupplier(w http.ResponseWriter, r *http.Request) {
	supplier, err := h.service.GetSupplier(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSupplierResponse(supplier))
}

// CreateSupplier は仕入先を作成する。管理者用。
// POST /api/admin/suppliers
func (h *ProcurementHandler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.ID == "" || req.Name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("id and name are required"))
		return
	}

	supplier, err := h.service.CreateSupplier(r.Context(), procurement.SupplierInput{
		ID:              req.ID,
		Name:            req.Name,
		Type:            req.Type,
		Location:        req.Location,
		ContactEmail:    req.ContactEmail,
		ContactPhone:    req.ContactPhone,
		DefaultLeadTime: req.DefaultLeadTime,
		Notes:           req.Notes,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSupplierResponse(supplier))
}

// CreateSupplierOrder は仕入発注を作成する。管理者用。
// POST /api/admin/supplier-orders
func (h *ProcurementHandler) CreateSupplierOrder(w http.ResponseWriter, r *http.Request) {
	var req supplierOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.SupplierID == "" || len(req.Items) == 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("supplier_id and items are required"))
		return
	}

	input := procurement.SupplierOrderInput{
		SupplierID:      req.SupplierID,
		CustomerOrderID: req.CustomerOrderID,
		Currency:        req.Currency,
		Notes:           req.Notes,
		Items:           make([]procurement.SupplierOrderItemInput, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, procurement.SupplierOrderItemInput{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			UnitCostCents: item.UnitCostCents,
		})
	}

	supplierOrder, err := h.service.CreateSupplierOrder(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSupplierOrderResponse(supplierOrder))
}

// GetSupplierOrder は仕入発注を取得する。管理者用。
// GET /api/admin/supplier-orders/:id
func (h *ProcurementHandler) GetSupplierOrder(w http.ResponseWriter, r *http.Request) {
	supplierOrder, err := h.service.GetSupplierOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSupplierOrderResponse(supplierOrder))
}

// ListSupplierOrders は仕入発注一覧を返す。管理者用。
// GET /api/admin/supplier-orders?supplier=
func (h *ProcurementHandler) ListSupplierOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListSupplierOrders(r.Context(), r.URL.Query().Get("supplier"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]supplierOrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toSupplierOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateSupplierOrderStatus は仕入発注のステータスを更新する。管理者用。
// PATCH /api/admin/supplier-orders/:id/status
func (h *ProcurementHandler) UpdateSupplierOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateSupplierOrderStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Status == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("status is required"))
		return
	}

	supplierOrder, err := h.service.UpdateSupplierOrderStatus(r.Context(), chi.URLParam(r, "id"), req.Status, req.TrackingNumber)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSupplierOrderResponse(supplierOrder))
}

// RecordPayment は仕入先への支払いを記録する。管理者用。
// POST /api/admin/supplier-payments
func (h *ProcurementHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req supplierPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.SupplierID == "" || req.AmountCents <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("supplier_id and a positive amount_cents are required"))
		return
	}

	payment, err := h.service.RecordPayment(r.Context(), procurement.PaymentInput{
		SupplierID:      req.SupplierID,
		SupplierOrderID: req.SupplierOrderID,
		AmountCents:     req.AmountCents,
		Currency:        req.Currency,
		Method:          req.Method,
		Reference:       req.Reference,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSupplierPaymentResponse(payment))
}

// ListPayments は支払い一覧を返す。管理者用。
// GET /api/admin/supplier-payments?supplier=
func (h *ProcurementHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.ListPayments(r.Context(), r.URL.Query().Get("supplier"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]supplierPaymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, toSupplierPaymentResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- ヘルパー関数 ---

// toSupplierResponse はmodel.SupplierからAPIレスポンスに変換する。
func toSupplierResponse(s *model.Supplier) supplierResponse {
	return supplierResponse{
		ID:              s.ID,
		Name:            s.Name,
		Type:            s.Type,
		Location:        s.Location,
		ContactEmail:    s.ContactEmail,
		ContactPhone:    s.ContactPhone,
		DefaultLeadTime: s.DefaultLeadTime,
		Notes:           s.Notes,
	}
}

// toSupplierOrderResponse はmodel.SupplierOrderからAPIレスポンスに変換する。
func toSupplierOrderResponse(o *model.SupplierOrder) supplierOrderResponse {
	return supplierOrderResponse{
		ID:                    o.ID,
		OrderNumber:           o.OrderNumber,
		SupplierID:            o.SupplierID,
		CustomerOrderID:       o.CustomerOrderID,
		Status:                o.Status,
		TotalCostCents:        o.TotalCostCents,
		Currency:              o.Currency,
		EstimatedDeliveryDays: o.EstimatedDeliveryDays,
		TrackingNumber:        o.TrackingNumber,
		Notes:                 o.Notes,
		CreatedAt:             o.CreatedAt.Format(time.RFC3339),
		ConfirmedAt:           formatTimePtr(o.ConfirmedAt),
		InProductionAt:        formatTimePtr(o.InProductionAt),
		ShippedAt:             formatTimePtr(o.ShippedAt),
		ReceivedAt:            formatTimePtr(o.ReceivedAt),
	}
}

// toSupplierPaymentResponse はmodel.SupplierPaymentからAPIレスポンスに変換する。
func toSupplierPaymentResponse(p *model.SupplierPayment) supplierPaymentResponse {
	return supplierPaymentResponse{
		ID:              p.ID,
		SupplierID:      p.SupplierID,
		SupplierOrderID: p.SupplierOrderID,
		AmountCents:     p.AmountCents,
		Currency:        p.Currency,
		Method:          p.Method,
		Reference:       p.Reference,
		PaidAt:          p.PaidAt.Format(time.RFC3339),
	}
}

// formatTimePtr はnil許容の時刻をRFC3339文字列に変換する。
func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
