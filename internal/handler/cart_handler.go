package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tajdo/backend/internal/cart"
	"github.com/tajdo/backend/internal/middleware"
	"github.com/tajdo/backend/internal/model"
)

// CartServiceInterface はカートハンドラーが必要とするサービスインターフェース。
type CartServiceInterface interface {
	// GetCart はカートの内容と合計を返す。
	GetCart(ctx context.Context, userID string) (*cart.Cart, error)
	// AddItem は商品をカートに追加する。既存行には数量を加算する。
	AddItem(ctx context.Context, userID, productID string, quantity int) error
	// UpdateQuantity はカート行の数量を設定する。0以下で行を削除する。
	UpdateQuantity(ctx context.Context, userID, productID string, quantity int) error
	// RemoveItem はカートから商品を削除する。
	RemoveItem(ctx context.Context, userID, productID string) error
	// Clear はカートを空にする。
	Clear(ctx context.Context, userID string) error
}

// CartHandler はカートのHTTPハンドラー。
type CartHandler struct {
	service CartServiceInterface
}

// NewCartHandler はCartHandlerを生成する。
func NewCartHandler(service CartServiceInterface) *CartHandler {
	return &CartHandler{service: service}
}

// addCartItemRequest はカート追加リクエストのボディ。
type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// updateCartItemRequest は数量変更リクエストのボディ。
type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// cartItemResponse はカート行のAPIレスポンス。
type cartItemResponse struct {
	ProductID  string          `json:"product_id"`
	Quantity   int             `json:"quantity"`
	TotalCents int64           `json:"total_cents"`
	Product    productResponse `json:"product"`
}

// cartResponse はカートのAPIレスポンス。
type cartResponse struct {
	Items      []cartItemResponse `json:"items"`
	ItemCount  int                `json:"item_count"`
	TotalCents int64              `json:"total_cents"`
}

// GetCart はトークン主体のカートを返す。
// GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	c, err := h.service.GetCart(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// AddItem は商品をカートに追加する。
// POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req addCartItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.ProductID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("product_id is required"))
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	if err := h.service.AddItem(r.Context(), userID, req.ProductID, req.Quantity); err != nil {
		handleServiceError(w, err)
		return
	}

	c, err := h.service.GetCart(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCartResponse(c))
}

// UpdateItem はカート行の数量を変更する。
// PUT /api/cart/items/:productID
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req updateCartItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.UpdateQuantity(r.Context(), userID, chi.URLParam(r, "productID"), req.Quantity); err != nil {
		handleServiceError(w, err)
		return
	}

	c, err := h.service.GetCart(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCartResponse(c))
}

// RemoveItem はカートから商品を削除する。
// DELETE /api/cart/items/:productID
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.service.RemoveItem(r.Context(), userID, chi.URLParam(r, "productID")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Clear はカートを空にする。
// DELETE /api/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.service.Clear(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toCartResponse はcart.CartからAPIレスポンスに変換する。
func toCartResponse(c *cart.Cart) cartResponse {
	resp := cartResponse{
		Items:      make([]cartItemResponse, 0, len(c.Items)),
		ItemCount:  c.ItemCount,
		TotalCents: c.TotalCents,
	}
	for _, item := range c.Items {
		resp.Items = append(resp.Items, cartItemResponse{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			TotalCents: item.Product.PriceCents * int64(item.Quantity),
			Product:    toProductResponse(&item.Product),
		})
	}
	return resp
}
