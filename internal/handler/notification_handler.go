package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tajdo/backend/internal/middleware"
	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/notification"
)

// NotificationServiceInterface は通知ハンドラーが必要とするサービスインターフェース。
type NotificationServiceInterface interface {
	// Create は通知を作成する。宛先が本人でない場合は管理者のみ。
	Create(ctx context.Context, requesterID string, isAdmin bool, input notification.CreateInput) (*model.Notification, error)
	// List はユーザーの通知一覧を新しい順に返す。
	List(ctx context.Context, userID string) ([]*model.Notification, error)
	// UnreadCount は未読通知数を返す。
	UnreadCount(ctx context.Context, userID string) (int, error)
	// MarkRead は通知を既読にする。
	MarkRead(ctx context.Context, userID, notificationID string) error
	// MarkAllRead は全通知を既読にする。
	MarkAllRead(ctx context.Context, userID string) error
}

// NotificationHandler はアプリ内通知のHTTPハンドラー。
type NotificationHandler struct {
	service NotificationServiceInterface
}

// NewNotificationHandler はNotificationHandlerを生成する。
func NewNotificationHandler(service NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// notificationResponse は通知のAPIレスポンス。
type notificationResponse struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id,omitempty"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

// unreadCountResponse は未読通知数のAPIレスポンス。
type unreadCountResponse struct {
	Count int `json:"count"`
}

// createNotificationRequest は通知作成リクエストのボディ。
type createNotificationRequest struct {
	UserID  string `json:"user_id"`
	OrderID string `json:"order_id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Create は通知を作成する。宛先が本人でない場合は管理者のみ。
// POST /api/notifications
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	requesterID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createNotificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	target := req.UserID
	if target == "" {
		target = requesterID
	}

	created, err := h.service.Create(r.Context(), requesterID, isAdminRequest(r), notification.CreateInput{
		UserID:  target,
		OrderID: req.OrderID,
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, notificationResponse{
		ID:        created.ID,
		OrderID:   created.OrderID,
		Type:      created.Type,
		Title:     created.Title,
		Message:   created.Message,
		IsRead:    created.IsRead,
		CreatedAt: created.CreatedAt.Format(time.RFC3339),
	})
}

// List はトークン主体の通知一覧を返す。
// GET /api/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	notifications, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		resp = append(resp, notificationResponse{
			ID:        n.ID,
			OrderID:   n.OrderID,
			Type:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// UnreadCount は未読通知数を返す。
// GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	count, err := h.service.UnreadCount(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, unreadCountResponse{Count: count})
}

// MarkRead は通知を既読にする。
// POST /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.service.MarkRead(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead は全通知を既読にする。
// POST /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.service.MarkAllRead(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
