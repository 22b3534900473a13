package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/repository"
	"github.com/tajdo/backend/internal/review"
)

// mockReviewService はReviewServiceInterfaceのモック実装。
type mockReviewService struct {
	createFn        func(ctx context.Context, userID string, input review.CreateInput) (*model.Review, error)
	listByProductFn func(ctx context.Context, productID string) ([]repository.ReviewEntry, error)
	listAllFn       func(ctx context.Context) ([]repository.ReviewEntry, error)
	deleteFn        func(ctx context.Context, reviewID string) error
}

func (m *mockReviewService) Create(ctx context.Context, userID string, input review.CreateInput) (*model.Review, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, input)
	}
	return &model.Review{ID: "r1", ProductID: input.ProductID, UserID: userID, Rating: input.Rating, Title: input.Title, Body: input.Body, CreatedAt: time.Now()}, nil
}

func (m *mockReviewService) ListByProduct(ctx context.Context, productID string) ([]repository.ReviewEntry, error) {
	if m.listByProductFn != nil {
		return m.listByProductFn(ctx, productID)
	}
	return nil, nil
}

func (m *mockReviewService) ListAll(ctx context.Context) ([]repository.ReviewEntry, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return nil, nil
}

func (m *mockReviewService) Delete(ctx context.Context, reviewID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, reviewID)
	}
	return nil
}

func testReviewEntries() []repository.ReviewEntry {
	return []repository.ReviewEntry{
		{
			Review: model.Review{
				ID: "r1", ProductID: "p1", UserID: "user-1",
				Rating: 5, Title: "Great", Body: "Warm and light.",
				CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			},
			AuthorName: "Anna",
		},
		{
			Review: model.Review{
				ID: "r2", ProductID: "p2", UserID: "user-2",
				Rating: 3, Title: "OK", Body: "Runs small.",
				CreatedAt: time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
			},
			AuthorName: "Ben",
		},
	}
}

// TestReviewHandler_Create_Success は購入済みユーザーのレビュー投稿を検証する。
func TestReviewHandler_Create_Success(t *testing.T) {
	var gotUserID string
	var gotInput review.CreateInput
	svc := &mockReviewService{
		createFn: func(ctx context.Context, userID string, input review.CreateInput) (*model.Review, error) {
			gotUserID = userID
			gotInput = input
			return &model.Review{ID: "r1", ProductID: input.ProductID, UserID: userID, Rating: input.Rating, Title: input.Title, Body: input.Body, CreatedAt: time.Now()}, nil
		},
	}
	h := NewReviewHandler(svc)

	body := bytes.NewBufferString(`{"rating":5,"title":"Great","body":"Warm and light."}`)
	req := httptest.NewRequest(http.MethodPost, "/api/products/p1/reviews", body)
	req = withUser(req, "user-1", "customer")
	req = withChiURLParam(req, "id", "p1")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if gotUserID != "user-1" {
		t.Errorf("userID = %q, want %q", gotUserID, "user-1")
	}
	if gotInput.ProductID != "p1" || gotInput.Rating != 5 || gotInput.Title != "Great" {
		t.Errorf("input = %+v", gotInput)
	}

	var resp reviewResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "r1" || resp.ProductID != "p1" {
		t.Errorf("response = %+v", resp)
	}
}

// TestReviewHandler_Create_NotPurchased は未購入ユーザーの投稿が拒否されることを検証する。
func TestReviewHandler_Create_NotPurchased(t *testing.T) {
	svc := &mockReviewService{
		createFn: func(ctx context.Context, userID string, input review.CreateInput) (*model.Review, error) {
			return nil, model.NewReviewNotAllowedError()
		},
	}
	h := NewReviewHandler(svc)

	body := bytes.NewBufferString(`{"rating":4,"title":"Nice","body":"..."}`)
	req := httptest.NewRequest(http.MethodPost, "/api/products/p1/reviews", body)
	req = withUser(req, "user-9", "customer")
	req = withChiURLParam(req, "id", "p1")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	errResp := decodeErrorResponse(t, w)
	if errResp["code"] != model.ErrCodeReviewNotAllowed {
		t.Errorf("code = %v, want %v", errResp["code"], model.ErrCodeReviewNotAllowed)
	}
}

// TestReviewHandler_Create_Unauthenticated は未認証リクエストが401になることを検証する。
func TestReviewHandler_Create_Unauthenticated(t *testing.T) {
	h := NewReviewHandler(&mockReviewService{})

	body := bytes.NewBufferString(`{"rating":5,"title":"Great","body":"..."}`)
	req := httptest.NewRequest(http.MethodPost, "/api/products/p1/reviews", body)
	req = withChiURLParam(req, "id", "p1")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// TestReviewHandler_ListByProduct は商品別レビュー一覧の取得を検証する。
func TestReviewHandler_ListByProduct(t *testing.T) {
	svc := &mockReviewService{
		listByProductFn: func(ctx context.Context, productID string) ([]repository.ReviewEntry, error) {
			if productID != "p1" {
				t.Errorf("productID = %q, want %q", productID, "p1")
			}
			return testReviewEntries()[:1], nil
		},
	}
	h := NewReviewHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/products/p1/reviews", nil)
	req = withChiURLParam(req, "id", "p1")
	w := httptest.NewRecorder()

	h.ListByProduct(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp []reviewResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("len(resp) = %d, want 1", len(resp))
	}
	if resp[0].AuthorName != "Anna" {
		t.Errorf("author_name = %q, want %q", resp[0].AuthorName, "Anna")
	}
}

// TestReviewHandler_ListAll は管理者向け全レビュー一覧の取得を検証する。
func TestReviewHandler_ListAll(t *testing.T) {
	svc := &mockReviewService{
		listAllFn: func(ctx context.Context) ([]repository.ReviewEntry, error) {
			return testReviewEntries(), nil
		},
	}
	h := NewReviewHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/reviews", nil)
	req = withUser(req, "admin-1", "admin")
	w := httptest.NewRecorder()

	h.ListAll(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp []reviewResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("len(resp) = %d, want 2", len(resp))
	}
	if resp[1].ID != "r2" || resp[1].AuthorName != "Ben" {
		t.Errorf("resp[1] = %+v", resp[1])
	}
}

// TestReviewHandler_Delete はレビュー削除を検証する。
func TestReviewHandler_Delete(t *testing.T) {
	var deletedID string
	svc := &mockReviewService{
		deleteFn: func(ctx context.Context, reviewID string) error {
			deletedID = reviewID
			return nil
		},
	}
	h := NewReviewHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/reviews/r1", nil)
	req = withUser(req, "admin-1", "admin")
	req = withChiURLParam(req, "id", "r1")
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if deletedID != "r1" {
		t.Errorf("deleted ID = %q, want %q", deletedID, "r1")
	}
}

// TestReviewHandler_Delete_NotFound は存在しないレビューの削除が404になることを検証する。
func TestReviewHandler_Delete_NotFound(t *testing.T) {
	svc := &mockReviewService{
		deleteFn: func(ctx context.Context, reviewID string) error {
			return model.NewReviewNotFoundError()
		},
	}
	h := NewReviewHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/reviews/nope", nil)
	req = withUser(req, "admin-1", "admin")
	req = withChiURLParam(req, "id", "nope")
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	errResp := decodeErrorResponse(t, w)
	if errResp["code"] != model.ErrCodeReviewNotFound {
		t.Errorf("code = %v, want %v", errResp["code"], model.ErrCodeReviewNotFound)
	}
}
