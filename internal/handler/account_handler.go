package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tajdo/backend/internal/account"
	"github.com/tajdo/backend/internal/middleware"
	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/repository"
)

// AccountServiceInterface はアカウントハンドラーが必要とするサービスインターフェース。
type AccountServiceInterface interface {
	// UpdateProfile はユーザーのプロフィールを部分更新する。
	UpdateProfile(ctx context.Context, userID string, update account.ProfileUpdate) (*model.User, error)
	// ListUsers は全ユーザー一覧を返す。管理者用。
	ListUsers(ctx context.Context) ([]*model.User, error)
	// ListAddresses はユーザーの住所一覧を返す。
	ListAddresses(ctx context.Context, userID string) ([]*model.Address, error)
	// CreateAddress は住所を作成する。
	CreateAddress(ctx context.Context, userID string, input account.AddressInput) (*model.Address, error)
	// UpdateAddress は住所を更新する。
	UpdateAddress(ctx context.Context, userID, addressID string, input account.AddressInput) (*model.Address, error)
	// DeleteAddress は住所を削除する。
	DeleteAddress(ctx context.Context, userID, addressID string) error
	// ListWishlist はウィッシュリストを返す。
	ListWishlist(ctx context.Context, userID string) ([]repository.WishlistEntry, error)
	// AddToWishlist は商品をウィッシュリストに追加する。
	AddToWishlist(ctx context.Context, userID, productID string) error
	// RemoveFromWishlist は商品をウィッシュリストから外す。
	RemoveFromWishlist(ctx context.Context, userID, productID string) error
}

// AccountHandler はプロフィール・住所・ウィッシュリストのHTTPハンドラー。
type AccountHandler struct {
	service AccountServiceInterface
}

// NewAccountHandler はAccountHandlerを生成する。
func NewAccountHandler(service AccountServiceInterface) *AccountHandler {
	return &AccountHandler{service: service}
}

// profileUpdateRequest はプロフィール更新リクエストのボディ。
type profileUpdateRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Locale   *string `json:"locale"`
}

// addressRequest は住所作成・更新リクエストのボディ。
type addressRequest struct {
	Label      string `json:"label"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"is_default"`
}

// addressResponse は住所のAPIレスポンス。
type addressResponse struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"is_default"`
}

// wishlistItemResponse はウィッシュリスト行のAPIレスポンス。
type wishlistItemResponse struct {
	ProductID string          `json:"product_id"`
	AddedAt   string          `json:"added_at"`
	Product   productResponse `json:"product"`
}

// UpdateProfile はトークン主体のプロフィールを部分更新する。
// PATCH /api/users/me
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req profileUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, account.ProfileUpdate{
		FullName: req.FullName,
		Phone:    req.Phone,
		Locale:   req.Locale,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// ListUsers は全ユーザー一覧を返す。管理者用。
// GET /api/users
func (h *AccountHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListAddresses はトークン主体の住所一覧を返す。
// GET /api/addresses
func (h *AccountHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	addresses, err := h.service.ListAddresses(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]addressResponse, 0, len(addresses))
	for _, a := range addresses {
		resp = append(resp, toAddressResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateAddress は住所を作成する。
// POST /api/addresses
func (h *AccountHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req addressRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Line1 == "" || req.City == "" || req.Country == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("line1, city and country are required"))
		return
	}

	address, err := h.service.CreateAddress(r.Context(), userID, toAddressInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAddressResponse(address))
}

// UpdateAddress は住所を更新する。
// PUT /api/addresses/:id
func (h *AccountHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req addressRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	address, err := h.service.UpdateAddress(r.Context(), userID, chi.URLParam(r, "id"), toAddressInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAddressResponse(address))
}

// DeleteAddress は住所を削除する。
// DELETE /api/addresses/:id
func (h *AccountHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.service.DeleteAddress(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListWishlist はトークン主体のウィッシュリストを返す。
// GET /api/wishlist
func (h *AccountHandler) ListWishlist(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	entries, err := h.service.ListWishlist(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]wishlistItemResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, wishlistItemResponse{
			ProductID: e.ProductID,
			AddedAt:   e.CreatedAt.Format(time.RFC3339),
			Product:   toProductResponse(&e.Product),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// AddToWishlist は商品をウィッシュリストに追加する。
// POST /api/wishlist/:productID
func (h *AccountHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.service.AddToWishlist(r.Context(), userID, chi.URLParam(r, "productID")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveFromWishlist は商品をウィッシュリストから外す。
// DELETE /api/wishlist/:productID
func (h *AccountHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.service.RemoveFromWishlist(r.Context(), userID, chi.URLParam(r, "productID")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// toAddressInput はリクエストからサービス入力に変換する。
func toAddressInput(req addressRequest) account.AddressInput {
	return account.AddressInput{
		Label:      req.Label,
		Line1:      req.Line1,
		Line2:      req.Line2,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		IsDefault:  req.IsDefault,
	}
}

// toAddressResponse はmodel.AddressからAPIレスポンスに変換する。
func toAddressResponse(a *model.Address) addressResponse {
	return addressResponse{
		ID:         a.ID,
		Label:      a.Label,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		IsDefault:  a.IsDefault,
	}
}
