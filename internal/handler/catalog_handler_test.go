package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tajdo/backend/internal/catalog"
	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/repository"
)

// mockCatalogService はCatalogServiceInterfaceのモック実装。
type mockCatalogService struct {
	listProductsFn   func(ctx context.Context, filter repository.ProductFilter) ([]*model.Product, error)
	getProductFn     func(ctx context.Context, id string) (*catalog.ProductDetail, error)
	createProductFn  func(ctx context.Context, input catalog.ProductInput) (*catalog.ProductDetail, error)
	updateProductFn  func(ctx context.Context, id string, update catalog.ProductUpdate) (*catalog.ProductDetail, error)
	deleteProductFn  func(ctx context.Context, id string) error
	listCategoriesFn func(ctx context.Context) ([]*model.Category, error)
	getCategoryFn    func(ctx context.Context, id string) (*model.Category, error)
	createCategoryFn func(ctx context.Context, input catalog.CategoryInput) (*model.Category, error)
	updateCategoryFn func(ctx context.Context, id string, update catalog.CategoryUpdate) (*model.Category, error)
	deleteCategoryFn func(ctx context.Context, id string) error
}

func (m *mockCatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*model.Product, error) {
	if m.listProductsFn != nil {
		return m.listProductsFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockCatalogService) GetProduct(ctx context.Context, id string) (*catalog.ProductDetail, error) {
	if m.getProductFn != nil {
		return m.getProductFn(ctx, id)
	}
	return nil, nil
}

func (m *mockCatalogService) CreateProduct(ctx context.Context, input catalog.ProductInput) (*catalog.ProductDetail, error) {
	if m.createProductFn != nil {
		return m.createProductFn(ctx, input)
	}
	return nil, nil
}

func (m *mockCatalogService) UpdateProduct(ctx context.Context, id string, update catalog.ProductUpdate) (*catalog.ProductDetail, error) {
	if m.updateProductFn != nil {
		return m.updateProductFn(ctx, id, update)
	}
	return nil, nil
}

func (m *mockCatalogService) DeleteProduct(ctx context.Context, id string) error {
	if m.deleteProductFn != nil {
		return m.deleteProductFn(ctx, id)
	}
	return nil
}

func (m *mockCatalogService) ListCategories(ctx context.Context) ([]*model.Category, error) {
	if m.listCategoriesFn != nil {
		return m.listCategoriesFn(ctx)
	}
	return nil, nil
}

func (m *mockCatalogService) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	if m.getCategoryFn != nil {
		return m.getCategoryFn(ctx, id)
	}
	return nil, nil
}

func (m *mockCatalogService) CreateCategory(ctx context.Context, input catalog.CategoryInput) (*model.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(ctx, input)
	}
	return nil, nil
}

func (m *mockCatalogService) UpdateCategory(ctx context.Context, id string, update catalog.CategoryUpdate) (*model.Category, error) {
	if m.updateCategoryFn != nil {
		return m.updateCategoryFn(ctx, id, update)
	}
	return nil, nil
}

func (m *mockCatalogService) DeleteCategory(ctx context.Context, id string) error {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(ctx, id)
	}
	return nil
}

func testProductDetail() *catalog.ProductDetail {
	return &catalog.ProductDetail{
		Product: &model.Product{
			ID: "p1", SKU: "TJ-001", Name: "Alpine Jacket", PriceCents: 5000,
			CategoryID: "jackets", InStock: true, CreatedAt: time.Now(),
		},
		Specs:  []model.ProductSpecification{{Spec: "100% recycled shell"}},
		Images: []model.ProductImage{{URL: "https://img.example.com/p1.jpg", SortOrder: 1}},
	}
}

// --- GET /api/products テスト ---

func TestCatalogHandler_ListProducts_ParsesFilter(t *testing.T) {
	svc := &mockCatalogService{
		listProductsFn: func(ctx context.Context, filter repository.ProductFilter) ([]*model.Product, error) {
			if filter.CategoryID != "jackets" || filter.Search != "alpine" {
				t.Errorf("filter = %+v, want category jackets, search alpine", filter)
			}
			if filter.InStock == nil || !*filter.InStock {
				t.Error("InStock filter was not parsed")
			}
			if filter.Limit != 10 || filter.Offset != 20 {
				t.Errorf("pagination = %d/%d, want 10/20", filter.Limit, filter.Offset)
			}
			return []*model.Product{{ID: "p1", Name: "Alpine Jacket", CreatedAt: time.Now()}}, nil
		},
	}
	h := NewCatalogHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/products?category=jackets&search=alpine&in_stock=true&limit=10&offset=20", nil)
	w := httptest.NewRecorder()

	h.ListProducts(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result []map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result) != 1 || result[0]["name"] != "Alpine Jacket" {
		t.Errorf("products = %v, want one Alpine Jacket", result)
	}
}

func TestCatalogHandler_ListProducts_InvalidQuery(t *testing.T) {
	h := NewCatalogHandler(&mockCatalogService{})

	for _, target := range []string{
		"/api/products?in_stock=maybe",
		"/api/products?limit=-1",
		"/api/products?offset=abc",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()

		h.ListProducts(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want %d", target, w.Code, http.StatusBadRequest)
		}
	}
}

// --- GET /api/products/:id テスト ---

func TestCatalogHandler_GetProduct_Success(t *testing.T) {
	svc := &mockCatalogService{
		getProductFn: func(ctx context.Context, id string) (*catalog.ProductDetail, error) {
			if id != "p1" {
				t.Errorf("id = %q, want %q", id, "p1")
			}
			return testProductDetail(), nil
		},
	}
	h := NewCatalogHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/products/p1", nil)
	req = withChiURLParam(req, "id", "p1")
	w := httptest.NewRecorder()

	h.GetProduct(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["sku"] != "TJ-001" {
		t.Errorf("sku = %v, want %q", result["sku"], "TJ-001")
	}
	specs, ok := result["specifications"].([]interface{})
	if !ok || len(specs) != 1 {
		t.Errorf("specifications = %v, want 1 entry", result["specifications"])
	}
}

func TestCatalogHandler_GetProduct_NotFound(t *testing.T) {
	svc := &mockCatalogService{
		getProductFn: func(ctx context.Context, id string) (*catalog.ProductDetail, error) {
			return nil, model.NewProductNotFoundError()
		},
	}
	h := NewCatalogHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/products/missing", nil)
	req = withChiURLParam(req, "id", "missing")
	w := httptest.NewRecorder()

	h.GetProduct(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- POST /api/products テスト ---

func TestCatalogHandler_CreateProduct_Success(t *testing.T) {
	svc := &mockCatalogService{
		createProductFn: func(ctx context.Context, input catalog.ProductInput) (*catalog.ProductDetail, error) {
			if input.Name != "Alpine Jacket" || input.PriceCents != 5000 || input.CategoryID != "jackets" {
				t.Errorf("input = %+v, want Alpine Jacket / 5000 / jackets", input)
			}
			return testProductDetail(), nil
		},
	}
	h := NewCatalogHandler(svc)

	body := bytes.NewBufferString(`{"name":"Alpine Jacket","price_cents":5000,"category_id":"jackets"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/products", body)
	req = withUser(req, "admin-1", model.RoleAdmin)
	w := httptest.NewRecorder()

	h.CreateProduct(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestCatalogHandler_CreateProduct_MissingFields(t *testing.T) {
	h := NewCatalogHandler(&mockCatalogService{})

	for _, body := range []string{
		`{"price_cents":5000,"category_id":"jackets"}`,
		`{"name":"Alpine Jacket","category_id":"jackets"}`,
		`{"name":"Alpine Jacket","price_cents":5000}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewBufferString(body))
		req = withUser(req, "admin-1", model.RoleAdmin)
		w := httptest.NewRecorder()

		h.CreateProduct(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s status = %d, want %d", body, w.Code, http.StatusBadRequest)
		}
	}
}

// --- DELETE /api/products/:id テスト ---

func TestCatalogHandler_DeleteProduct(t *testing.T) {
	var deletedID string
	svc := &mockCatalogService{
		deleteProductFn: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}
	h := NewCatalogHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/products/p1", nil)
	req = withUser(req, "admin-1", model.RoleAdmin)
	req = withChiURLParam(req, "id", "p1")
	w := httptest.NewRecorder()

	h.DeleteProduct(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if deletedID != "p1" {
		t.Errorf("deleted ID = %q, want %q", deletedID, "p1")
	}
}

// --- カテゴリ テスト ---

func TestCatalogHandler_ListCategories(t *testing.T) {
	svc := &mockCatalogService{
		listCategoriesFn: func(ctx context.Context) ([]*model.Category, error) {
			return []*model.Category{{ID: "jackets", Name: "Jackets", SortOrder: 1}}, nil
		},
	}
	h := NewCatalogHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	w := httptest.NewRecorder()

	h.ListCategories(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result []map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result) != 1 || result[0]["id"] != "jackets" {
		t.Errorf("categories = %v, want one jackets entry", result)
	}
}

func TestCatalogHandler_CreateCategory_MissingID(t *testing.T) {
	h := NewCatalogHandler(&mockCatalogService{})

	body := bytes.NewBufferString(`{"name":"Jackets"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/categories", body)
	req = withUser(req, "admin-1", model.RoleAdmin)
	w := httptest.NewRecorder()

	h.CreateCategory(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	result := decodeErrorResponse(t, w)
	if result["code"] != model.ErrCodeInvalidRequest {
		t.Errorf("code = %v, want %q", result["code"], model.ErrCodeInvalidRequest)
	}
}

func TestCatalogHandler_GetCategory_NotFound(t *testing.T) {
	svc := &mockCatalogService{
		getCategoryFn: func(ctx context.Context, id string) (*model.Category, error) {
			return nil, model.NewCategoryNotFoundError(id)
		},
	}
	h := NewCatalogHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/categories/missing", nil)
	req = withChiURLParam(req, "id", "missing")
	w := httptest.NewRecorder()

	h.GetCategory(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
