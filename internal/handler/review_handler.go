package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tajdo/backend/internal/middleware"
	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/repository"
	"github.com/tajdo/backend/internal/review"
)

// ReviewServiceInterface はレビューハンドラーが必要とするサービスインターフェース。
type ReviewServiceInterface interface {
	// Create はレビューを投稿する。購入済みユーザーのみ。
	Create(ctx context.Context, userID string, input review.CreateInput) (*model.Review, error)
	// ListByProduct は商品のレビュー一覧を返す。
	ListByProduct(ctx context.Context, productID string) ([]repository.ReviewEntry, error)
	// ListAll は全レビューを返す。管理者用。
	ListAll(ctx context.Context) ([]repository.ReviewEntry, error)
	// Delete はレビューを削除する。管理者用。
	Delete(ctx context.Context, reviewID string) error
}

// ReviewHandler は商品レビューのHTTPハンドラー。
type ReviewHandler struct {
	service ReviewServiceInterface
}

// NewReviewHandler はReviewHandlerを生成する。
func NewReviewHandler(service ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// createReviewRequest はレビュー投稿リクエストのボディ。
type createReviewRequest struct {
	Rating int    `json:"rating"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// reviewResponse はレビューのAPIレスポンス。
type reviewResponse struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	AuthorName string `json:"author_name,omitempty"`
	Rating     int    `json:"rating"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	CreatedAt  string `json:"created_at"`
}

// Create はレビューを投稿する。
// POST /api/products/:id/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), userID, review.CreateInput{
		ProductID: chi.URLParam(r, "id"),
		Rating:    req.Rating,
		Title:     req.Title,
		Body:      req.Body,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, reviewResponse{
		ID:        created.ID,
		ProductID: created.ProductID,
		Rating:    created.Rating,
		Title:     created.Title,
		Body:      created.Body,
		CreatedAt: created.CreatedAt.Format(time.RFC3339),
	})
}

// ListByProduct は商品のレビュー一覧を返す。認証不要。
// GET /api/products/:id/reviews
func (h *ReviewHandler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListByProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reviewEntriesResponse(entries))
}

// ListAll は全レビュー一覧を返す。管理者用。
// GET /api/admin/reviews
func (h *ReviewHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewEntriesResponse(entries))
}

// Delete はレビューを削除する。管理者用。
// DELETE /api/admin/reviews/:id
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// reviewEntriesResponse はレビューエントリ一覧をAPIレスポンスに変換する。
func reviewEntriesResponse(entries []repository.ReviewEntry) []reviewResponse {
	resp := make([]reviewResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, reviewResponse{
			ID:         e.ID,
			ProductID:  e.ProductID,
			AuthorName: e.AuthorName,
			Rating:     e.Rating,
			Title:      e.Title,
			Body:       e.Body,
			CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}
