package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tajdo/backend/internal/catalog"
	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/repository"
)

// CatalogServiceInterface はカタログハンドラーが必要とするサービスインターフェース。
type CatalogServiceInterface interface {
	// ListProducts はフィルタ条件に合う商品一覧を返す。
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*model.Product, error)
	// GetProduct は商品詳細（仕様・画像・バリエーション込み）を返す。
	GetProduct(ctx context.Context, id string) (*catalog.ProductDetail, error)
	// CreateProduct は商品を作成する。
	CreateProduct(ctx context.Context, input catalog.ProductInput) (*catalog.ProductDetail, error)
	// UpdateProduct は商品を部分更新する。
	UpdateProduct(ctx context.Context, id string, update catalog.ProductUpdate) (*catalog.ProductDetail, error)
	// DeleteProduct は商品を削除する。
	DeleteProduct(ctx context.Context, id string) error
	// ListCategories はカテゴリ一覧を返す。
	ListCategories(ctx context.Context) ([]*model.Category, error)
	// GetCategory はカテゴリを取得する。
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	// CreateCategory はカテゴリを作成する。
	CreateCategory(ctx context.Context, input catalog.CategoryInput) (*model.Category, error)
	// UpdateCategory はカテゴリを部分更新する。
	UpdateCategory(ctx context.Context, id string, update catalog.CategoryUpdate) (*model.Category, error)
	// DeleteCategory はカテゴリを削除する。
	DeleteCategory(ctx context.Context, id string) error
}

// CatalogHandler は商品カタログのHTTPハンドラー。
type CatalogHandler struct {
	service CatalogServiceInterface
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(service CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// productResponse は商品情報のAPIレスポンス。
type productResponse struct {
	ID                 string  `json:"id"`
	SKU                string  `json:"sku"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	PriceCents         int64   `json:"price_cents"`
	OriginalPriceCents int64   `json:"original_price_cents,omitempty"`
	CategoryID         string  `json:"category_id"`
	ImageURL           string  `json:"image_url"`
	Rating             float64 `json:"rating"`
	ReviewCount        int     `json:"review_count"`
	Badge              string  `json:"badge,omitempty"`
	Material           string  `json:"material,omitempty"`
	Color              string  `json:"color,omitempty"`
	GroupID            string  `json:"group_id,omitempty"`
	InStock            bool    `json:"in_stock"`
	ShippingDays       int     `json:"shipping_days"`
	CreatedAt          string  `json:"created_at"`
}

// productDetailResponse は商品詳細のAPIレスポンス。
type productDetailResponse struct {
	productResponse
	Specifications []string               `json:"specifications"`
	Images         []productImageResponse `json:"images"`
	Variants       []productResponse      `json:"variants"`
}

// productImageResponse は追加画像のAPIレスポンス。
type productImageResponse struct {
	URL       string `json:"url"`
	AltText   string `json:"alt_text"`
	SortOrder int    `json:"sort_order"`
}

// categoryResponse はカテゴリのAPIレスポンス。
type categoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	SortOrder   int    `json:"sort_order"`
}

// productRequest は商品作成・更新リクエストのボディ。
// 更新時はポインタがnilのフィールドを変更しない。
type productRequest struct {
	SKU                    *string             `json:"sku"`
	Name                   *string             `json:"name"`
	Description            *string             `json:"description"`
	PriceCents             *int64              `json:"price_cents"`
	OriginalPriceCents     *int64              `json:"original_price_cents"`
	CategoryID             *string             `json:"category_id"`
	ImageURL               *string             `json:"image_url"`
	Badge                  *string             `json:"badge"`
	Material               *string             `json:"material"`
	Color                  *string             `json:"color"`
	GroupID                *string             `json:"group_id"`
	InStock                *bool               `json:"in_stock"`
	ShippingDays           *int                `json:"shipping_days"`
	ManufacturingCostCents *int64              `json:"manufacturing_cost_cents"`
	TransportCostCents     *int64              `json:"transport_cost_cents"`
	Specifications         []string            `json:"specifications"`
	Images                 []productImageInput `json:"images"`
}

// productImageInput は追加画像の入力。
type productImageInput struct {
	URL       string `json:"url"`
	AltText   string `json:"alt_text"`
	SortOrder int    `json:"sort_order"`
}

// categoryRequest はカテゴリ作成・更新リクエストのボディ。
type categoryRequest struct {
	ID          string  `json:"id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
	SortOrder   *int    `json:"sort_order"`
}

// ListProducts は商品一覧を返す。
// GET /api/products?category=&search=&in_stock=&limit=&offset=
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter := repository.ProductFilter{
		CategoryID: r.URL.Query().Get("category"),
		Search:     r.URL.Query().Get("search"),
	}
	if v := r.URL.Query().Get("in_stock"); v != "" {
		inStock, err := strconv.ParseBool(v)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("in_stock must be a boolean"))
			return
		}
		filter.InStock = &inStock
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("limit must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("offset must be a non-negative integer"))
			return
		}
		filter.Offset = offset
	}

	products, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetProduct は商品詳細を返す。
// GET /api/products/:id
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductDetailResponse(detail))
}

// CreateProduct は商品を作成する。管理者用。
// POST /api/products
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Name == nil || *req.Name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("name is required"))
		return
	}
	if req.PriceCents == nil || *req.PriceCents <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("price_cents must be positive"))
		return
	}
	if req.CategoryID == nil || *req.CategoryID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("category_id is required"))
		return
	}

	input := catalog.ProductInput{
		Name:       *req.Name,
		PriceCents: *req.PriceCents,
		CategoryID: *req.CategoryID,
		InStock:    true,
		Specs:      req.Specifications,
		ImageURLs:  toImageInputs(req.Images),
	}
	if req.SKU != nil {
		input.SKU = *req.SKU
	}
	if req.Description != nil {
		input.Description = *req.Description
	}
	if req.OriginalPriceCents != nil {
		input.OriginalPriceCents = *req.OriginalPriceCents
	}
	if req.ImageURL != nil {
		input.ImageURL = *req.ImageURL
	}
	if req.Badge != nil {
		input.Badge = *req.Badge
	}
	if req.Material != nil {
		input.Material = *req.Material
	}
	if req.Color != nil {
		input.Color = *req.Color
	}
	if req.GroupID != nil {
		input.GroupID = *req.GroupID
	}
	if req.InStock != nil {
		input.InStock = *req.InStock
	}
	if req.ShippingDays != nil {
		input.ShippingDays = *req.ShippingDays
	}
	if req.ManufacturingCostCents != nil {
		input.ManufacturingCostCents = *req.ManufacturingCostCents
	}
	if req.TransportCostCents != nil {
		input.TransportCostCents = *req.TransportCostCents
	}

	detail, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProductDetailResponse(detail))
}

// UpdateProduct は商品を部分更新する。管理者用。
// PATCH /api/products/:id
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	update := catalog.ProductUpdate{
		SKU:                    req.SKU,
		Name:                   req.Name,
		Description:            req.Description,
		PriceCents:             req.PriceCents,
		OriginalPriceCents:     req.OriginalPriceCents,
		CategoryID:             req.CategoryID,
		ImageURL:               req.ImageURL,
		Badge:                  req.Badge,
		Material:               req.Material,
		Color:                  req.Color,
		GroupID:                req.GroupID,
		InStock:                req.InStock,
		ShippingDays:           req.ShippingDays,
		ManufacturingCostCents: req.ManufacturingCostCents,
		TransportCostCents:     req.TransportCostCents,
		Specs:                  req.Specifications,
	}
	if req.Images != nil {
		update.ImageURLs = toImageInputs(req.Images)
	}

	detail, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), update)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductDetailResponse(detail))
}

// DeleteProduct は商品を削除する。管理者用。
// DELETE /api/products/:id
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListCategories はカテゴリ一覧を返す。
// GET /api/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetCategory はカテゴリを取得する。
// GET /api/categories/:id
func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.service.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCategoryResponse(category))
}

// CreateCategory はカテゴリを作成する。管理者用。
// POST /api/categories
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.ID == "" || req.Name == nil || *req.Name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("id and name are required"))
		return
	}

	input := catalog.CategoryInput{
		ID:   req.ID,
		Name: *req.Name,
	}
	if req.Description != nil {
		input.Description = *req.Description
	}
	if req.ImageURL != nil {
		input.ImageURL = *req.ImageURL
	}
	if req.SortOrder != nil {
		input.SortOrder = *req.SortOrder
	}

	category, err := h.service.CreateCategory(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCategoryResponse(category))
}

// UpdateCategory はカテゴリを部分更新する。管理者用。
// PATCH /api/categories/:id
func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := h.service.UpdateCategory(r.Context(), chi.URLParam(r, "id"), catalog.CategoryUpdate{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCategoryResponse(category))
}

// DeleteCategory はカテゴリを削除する。管理者用。
// DELETE /api/categories/:id
func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// toProductResponse はmodel.ProductからAPIレスポンスに変換する。
func toProductResponse(p *model.Product) productResponse {
	return productResponse{
		ID:                 p.ID,
		SKU:                p.SKU,
		Name:               p.Name,
		Description:        p.Description,
		PriceCents:         p.PriceCents,
		OriginalPriceCents: p.OriginalPriceCents,
		CategoryID:         p.CategoryID,
		ImageURL:           p.ImageURL,
		Rating:             float64(p.RatingX10) / 10,
		ReviewCount:        p.ReviewCount,
		Badge:              p.Badge,
		Material:           p.Material,
		Color:              p.Color,
		GroupID:            p.GroupID,
		InStock:            p.InStock,
		ShippingDays:       p.ShippingDays,
		CreatedAt:          p.CreatedAt.Format(time.RFC3339),
	}
}

// toProductDetailResponse はcatalog.ProductDetailからAPIレスポンスに変換する。
func toProductDetailResponse(detail *catalog.ProductDetail) productDetailResponse {
	resp := productDetailResponse{
		productResponse: toProductResponse(detail.Product),
		Specifications:  make([]string, 0, len(detail.Specs)),
		Images:          make([]productImageResponse, 0, len(detail.Images)),
		Variants:        make([]productResponse, 0, len(detail.Variants)),
	}
	for _, spec := range detail.Specs {
		resp.Specifications = append(resp.Specifications, spec.Spec)
	}
	for _, img := range detail.Images {
		resp.Images = append(resp.Images, productImageResponse{
			URL:       img.URL,
			AltText:   img.AltText,
			SortOrder: img.SortOrder,
		})
	}
	for _, v := range detail.Variants {
		resp.Variants = append(resp.Variants, toProductResponse(v))
	}
	return resp
}

// toCategoryResponse はmodel.CategoryからAPIレスポンスに変換する。
func toCategoryResponse(c *model.Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		SortOrder:   c.SortOrder,
	}
}

// toImageInputs はリクエストの画像配列をサービス入力に変換する。
func toImageInputs(images []productImageInput) []catalog.ProductImageInput {
	inputs := make([]catalog.ProductImageInput, 0, len(images))
	for _, img := range images {
		inputs = append(inputs, catalog.ProductImageInput{
			URL:       img.URL,
			AltText:   img.AltText,
			SortOrder: img.SortOrder,
		})
	}
	return inputs
}
