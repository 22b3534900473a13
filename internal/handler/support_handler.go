package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tajdo/backend/internal/middleware"
	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/support"
)

// SupportServiceInterface は苦情・返品ハンドラーが必要とするサービスインターフェース。
type SupportServiceInterface interface {
	// CreateComplaint は苦情を作成する。
	CreateComplaint(ctx context.Context, userID string, input support.ComplaintInput) (*model.Complaint, error)
	// ListUserComplaints は指定ユーザーの苦情一覧を返す。所有者または管理者のみ。
	ListUserComplaints(ctx context.Context, requesterID string, isAdmin bool, targetUserID string) ([]*model.Complaint, error)
	// ListAllComplaints は全苦情一覧を返す。管理者用。
	ListAllComplaints(ctx context.Context) ([]*model.Complaint, error)
	// ResolveComplaint は苦情のステータスと対応内容を更新する。管理者用。
	ResolveComplaint(ctx context.Context, complaintID, status, resolution string) (*model.Complaint, error)
	// CreateReturn は返品リクエストを作成する。
	CreateReturn(ctx context.Context, userID string, input support.ReturnInput) (*model.Return, error)
	// ListUserReturns は指定ユーザーの返品一覧を返す。所有者または管理者のみ。
	ListUserReturns(ctx context.Context, requesterID string, isAdmin bool, targetUserID string) ([]*model.Return, error)
	// ListAllReturns は全返品一覧を返す。管理者用。
	ListAllReturns(ctx context.Context) ([]*model.Return, error)
	// UpdateReturn は返品のステータス・返金額・メモを更新する。管理者用。
	UpdateReturn(ctx context.Context, returnID, status string, refundAmountCents int64, notes string) (*model.Return, error)
}

// SupportHandler は苦情・返品のHTTPハンドラー。
type SupportHandler struct {
	service SupportServiceInterface
}

// NewSupportHandler はSupportHandlerを生成する。
func NewSupportHandler(service SupportServiceInterface) *SupportHandler {
	return &SupportHandler{service: service}
}

// createComplaintRequest は苦情作成リクエストのボディ。
type createComplaintRequest struct {
	OrderID string `json:"order_id"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// resolveComplaintRequest は苦情更新リクエストのボディ。
type resolveComplaintRequest struct {
	Status     string `json:"status"`
	Resolution string `json:"resolution"`
}

// createReturnRequest は返品作成リクエストのボディ。
type createReturnRequest struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

// updateReturnRequest は返品更新リクエストのボディ。
type updateReturnRequest struct {
	Status            string `json:"status"`
	RefundAmountCents int64  `json:"refund_amount_cents"`
	Notes             string `json:"notes"`
}

// complaintResponse は苦情のAPIレスポンス。
type complaintResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	OrderID    string `json:"order_id,omitempty"`
	Subject    string `json:"subject"`
	Message    string `json:"message"`
	Status     string `json:"status"`
	Resolution string `json:"resolution,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// returnResponse は返品のAPIレスポンス。
type returnResponse struct {
	ID                string `json:"id"`
	OrderID           string `json:"order_id"`
	UserID            string `json:"user_id"`
	Reason            string `json:"reason"`
	Status            string `json:"status"`
	RefundAmountCents int64  `json:"refund_amount_cents"`
	Notes             string `json:"notes,omitempty"`
	CreatedAt         string `json:"created_at"`
}

// CreateComplaint は苦情を作成する。
// POST /api/complaints
func (h *SupportHandler) CreateComplaint(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createComplaintRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Subject == "" || req.Message == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("subject and message are required"))
		return
	}

	complaint, err := h.service.CreateComplaint(r.Context(), userID, support.ComplaintInput{
		OrderID: req.OrderID,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toComplaintResponse(complaint))
}

// ListMyComplaints はトークン主体の苦情一覧を返す。
// GET /api/complaints
func (h *SupportHandler) ListMyComplaints(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	complaints, err := h.service.ListUserComplaints(r.Context(), userID, isAdminRequest(r), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toComplaintResponses(complaints))
}

// ListAllComplaints は全苦情一覧を返す。管理者用。
// GET /api/admin/complaints
func (h *SupportHandler) ListAllComplaints(w http.ResponseWriter, r *http.Request) {
	complaints, err := h.service.ListAllComplaints(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toComplaintResponses(complaints))
}

// ResolveComplaint は苦情のステータスと対応内容を更新する。管理者用。
// PATCH /api/admin/complaints/:id
func (h *SupportHandler) ResolveComplaint(w http.ResponseWriter, r *http.Request) {
	var req resolveComplaintRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Status == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("status is required"))
		return
	}

	complaint, err := h.service.ResolveComplaint(r.Context(), chi.URLParam(r, "id"), req.Status, req.Resolution)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toComplaintResponse(complaint))
}

// CreateReturn は返品リクエストを作成する。
// POST /api/returns
func (h *SupportHandler) CreateReturn(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createReturnRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.OrderID == "" || req.Reason == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("order_id and reason are required"))
		return
	}

	ret, err := h.service.CreateReturn(r.Context(), userID, support.ReturnInput{
		OrderID: req.OrderID,
		Reason:  req.Reason,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReturnResponse(ret))
}

// ListMyReturns はトークン主体の返品一覧を返す。
// GET /api/returns
func (h *SupportHandler) ListMyReturns(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	returns, err := h.service.ListUserReturns(r.Context(), userID, isAdminRequest(r), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReturnResponses(returns))
}

// ListAllReturns は全返品一覧を返す。管理者用。
// GET /api/admin/returns
func (h *SupportHandler) ListAllReturns(w http.ResponseWriter, r *http.Request) {
	returns, err := h.service.ListAllReturns(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReturnResponses(returns))
}

// UpdateReturn は返品のステータス・返金額・メモを更新する。管理者用。
// PATCH /api/admin/returns/:id
func (h *SupportHandler) UpdateReturn(w http.ResponseWriter, r *http.Request) {
	var req updateReturnRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Status == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("status is required"))
		return
	}

	ret, err := h.service.UpdateReturn(r.Context(), chi.URLParam(r, "id"), req.Status, req.RefundAmountCents, req.Notes)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReturnResponse(ret))
}

// --- ヘルパー関数 ---

// toComplaintResponse はmodel.ComplaintからAPIレスポンスに変換する。
func toComplaintResponse(c *model.Complaint) complaintResponse {
	return complaintResponse{
		ID:         c.ID,
		UserID:     c.UserID,
		OrderID:    c.OrderID,
		Subject:    c.Subject,
		Message:    c.Message,
		Status:     c.Status,
		Resolution: c.Resolution,
		CreatedAt:  c.CreatedAt.Format(time.RFC3339),
	}
}

// toComplaintResponses は苦情スライスをAPIレスポンスに変換する。
func toComplaintResponses(complaints []*model.Complaint) []complaintResponse {
	resp := make([]complaintResponse, 0, len(complaints))
	for _, c := range complaints {
		resp = append(resp, toComplaintResponse(c))
	}
	return resp
}

// toReturnResponse はmodel.ReturnからAPIレスポンスに変換する。
func toReturnResponse(ret *model.Return) returnResponse {
	return returnResponse{
		ID:                ret.ID,
		OrderID:           ret.OrderID,
		UserID:            ret.UserID,
		Reason:            ret.Reason,
		Status:            ret.Status,
		RefundAmountCents: ret.RefundAmountCents,
		Notes:             ret.Notes,
		CreatedAt:         ret.CreatedAt.Format(time.RFC3339),
	}
}

// toReturnResponses は返品スライスをAPIレスポンスに変換する。
func toReturnResponses(returns []*model.Return) []returnResponse {
	resp := make([]returnResponse, 0, len(returns))
	for _, ret := range returns {
		resp = append(resp, toReturnResponse(ret))
	}
	return resp
}
