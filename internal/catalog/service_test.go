package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/repository"
)

// mockProductRepo はProductRepositoryのテスト用モック。
type mockProductRepo struct {
	findByIDFn           func(ctx context.Context, id string) (*model.Product, error)
	listFn               func(ctx context.Context, filter repository.ProductFilter) ([]*model.Product, error)
	listByGroupIDFn      func(ctx context.Context, groupID string) ([]*model.Product, error)
	createFn             func(ctx context.Context, product *model.Product, specs []model.ProductSpecification, images []model.ProductImage) error
	updateFn             func(ctx context.Context, product *model.Product, specs []model.ProductSpecification, images []model.ProductImage) error
	deleteFn             func(ctx context.Context, id string) error
	listSpecificationsFn func(ctx context.Context, productID string) ([]model.ProductSpecification, error)
	listImagesFn         func(ctx context.Context, productID string) ([]model.ProductImage, error)
}

func (m *mockProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockProductRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) List(ctx context.Context, filter repository.ProductFilter) ([]*model.Product, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockProductRepo) ListByGroupID(ctx context.Context, groupID string) ([]*model.Product, error) {
	if m.listByGroupIDFn != nil {
		return m.listByGroupIDFn(ctx, groupID)
	}
	return nil, nil
}

func (m *mockProductRepo) Create(ctx context.Context, product *model.Product, specs []model.ProductSpecification, images []model.ProductImage) error {
	if m.createFn != nil {
		return m.createFn(ctx, product, specs, images)
	}
	return nil
}

func (m *mockProductRepo) Update(ctx context.Context, product *model.Product, specs []model.ProductSpecification, images []model.ProductImage) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, product, specs, images)
	}
	return nil
}

func (m *mockProductRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockProductRepo) ListSpecifications(ctx context.Context, productID string) ([]model.ProductSpecification, error) {
	if m.listSpecificationsFn != nil {
		return m.listSpecificationsFn(ctx, productID)
	}
	return nil, nil
}

func (m *mockProductRepo) ListImages(ctx context.Context, productID string) ([]model.ProductImage, error) {
	if m.listImagesFn != nil {
		return m.listImagesFn(ctx, productID)
	}
	return nil, nil
}

func (m *mockProductRepo) UpdateRating(ctx context.Context, productID string, ratingX10, reviewCount int) error {
	return nil
}

func (m *mockProductRepo) UpdateStock(ctx context.Context, productID string, inStock bool) error {
	return nil
}

// mockCategoryRepo はCategoryRepositoryのテスト用モック。
type mockCategoryRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Category, error)
	listFn     func(ctx context.Context) ([]*model.Category, error)
	createFn   func(ctx context.Context, category *model.Category) error
	updateFn   func(ctx context.Context, category *model.Category) error
	deleteFn   func(ctx context.Context, id string) error
}

func (m *mockCategoryRepo) FindByID(ctx context.Context, id string) (*model.Category, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockCategoryRepo) List(ctx context.Context) ([]*model.Category, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockCategoryRepo) Create(ctx context.Context, category *model.Category) error {
	if m.createFn != nil {
		return m.createFn(ctx, category)
	}
	return nil
}

func (m *mockCategoryRepo) Update(ctx context.Context, category *model.Category) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, category)
	}
	return nil
}

func (m *mockCategoryRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func existingCategoryRepo() *mockCategoryRepo {
	return &mockCategoryRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Category, error) {
			return &model.Category{ID: id, Name: "Jackets"}, nil
		},
	}
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

// TestGetProduct は商品詳細にバリエーションが自分自身を除いて含まれることを検証する。
func TestGetProduct(t *testing.T) {
	productRepo := &mockProductRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Product, error) {
			return &model.Product{ID: id, Name: "Alpine Jacket", GroupID: "g1"}, nil
		},
		listSpecificationsFn: func(ctx context.Context, productID string) ([]model.ProductSpecification, error) {
			return []model.ProductSpecification{{ID: "s1", ProductID: productID, Spec: "100% merino wool"}}, nil
		},
		listImagesFn: func(ctx context.Context, productID string) ([]model.ProductImage, error) {
			return []model.ProductImage{{ID: "i1", ProductID: productID, URL: "https://example.com/1.jpg"}}, nil
		},
		listByGroupIDFn: func(ctx context.Context, groupID string) ([]*model.Product, error) {
			return []*model.Product{
				{ID: "p1", GroupID: groupID},
				{ID: "p2", GroupID: groupID},
				{ID: "p3", GroupID: groupID},
			}, nil
		},
	}
	svc := NewService(productRepo, &mockCategoryRepo{})

	detail, err := svc.GetProduct(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetProduct() error = %v", err)
	}
	if detail.Product.ID != "p1" {
		t.Errorf("product ID = %q, want %q", detail.Product.ID, "p1")
	}
	if len(detail.Specs) != 1 {
		t.Errorf("len(Specs) = %d, want 1", len(detail.Specs))
	}
	if len(detail.Images) != 1 {
		t.Errorf("len(Images) = %d, want 1", len(detail.Images))
	}
	if len(detail.Variants) != 2 {
		t.Fatalf("len(Variants) = %d, want 2", len(detail.Variants))
	}
	for _, v := range detail.Variants {
		if v.ID == "p1" {
			t.Error("variants must not include the product itself")
		}
	}
}

// TestGetProductNotFound は存在しない商品の取得を検証する。
func TestGetProductNotFound(t *testing.T) {
	svc := NewService(&mockProductRepo{}, &mockCategoryRepo{})

	_, err := svc.GetProduct(context.Background(), "missing")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeProductNotFound {
		t.Errorf("GetProduct() error = %v, want code %s", err, model.ErrCodeProductNotFound)
	}
}

// TestCreateProduct は商品作成と仕様・画像の組み立てを検証する。
func TestCreateProduct(t *testing.T) {
	var createdSpecs []model.ProductSpecification
	var createdImages []model.ProductImage
	productRepo := &mockProductRepo{
		createFn: func(ctx context.Context, product *model.Product, specs []model.ProductSpecification, images []model.ProductImage) error {
			createdSpecs = specs
			createdImages = images
			return nil
		},
	}
	svc := NewService(productRepo, existingCategoryRepo())

	detail, err := svc.CreateProduct(context.Background(), ProductInput{
		Name:       "Alpine Jacket",
		PriceCents: 19900,
		CategoryID: "jackets",
		InStock:    true,
		Specs:      []string{"100% merino wool", "Made in Switzerland"},
		ImageURLs:  []ProductImageInput{{URL: "https://example.com/1.jpg", SortOrder: 0}},
	})
	if err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}
	if detail.Product.ID == "" {
		t.Error("product ID is empty")
	}
	if len(createdSpecs) != 2 {
		t.Errorf("len(specs) = %d, want 2", len(createdSpecs))
	}
	if len(createdImages) != 1 {
		t.Errorf("len(images) = %d, want 1", len(createdImages))
	}
	for _, spec := range createdSpecs {
		if spec.ProductID != detail.Product.ID {
			t.Errorf("spec ProductID = %q, want %q", spec.ProductID, detail.Product.ID)
		}
	}
}

// TestCreateProductUnknownCategory は存在しないカテゴリでの作成を拒否することを検証する。
func TestCreateProductUnknownCategory(t *testing.T) {
	svc := NewService(&mockProductRepo{}, &mockCategoryRepo{})

	_, err := svc.CreateProduct(context.Background(), ProductInput{
		Name:       "Alpine Jacket",
		PriceCents: 19900,
		CategoryID: "nonexistent",
	})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeCategoryNotFound {
		t.Errorf("CreateProduct() error = %v, want code %s", err, model.ErrCodeCategoryNotFound)
	}
}

// TestUpdateProduct は部分更新でnilフィールドが保持されることを検証する。
func TestUpdateProduct(t *testing.T) {
	productRepo := &mockProductRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Product, error) {
			return &model.Product{ID: id, Name: "Alpine Jacket", PriceCents: 19900, CategoryID: "jackets"}, nil
		},
	}
	svc := NewService(productRepo, existingCategoryRepo())

	detail, err := svc.UpdateProduct(context.Background(), "p1", ProductUpdate{
		PriceCents: int64Ptr(17900),
	})
	if err != nil {
		t.Fatalf("UpdateProduct() error = %v", err)
	}
	if detail.Product.PriceCents != 17900 {
		t.Errorf("PriceCents = %d, want 17900", detail.Product.PriceCents)
	}
	// Nameは未指定のため変更されない
	if detail.Product.Name != "Alpine Jacket" {
		t.Errorf("Name = %q, want unchanged", detail.Product.Name)
	}
}

// TestUpdateProductKeepsSpecsWhenUnspecified はspecs未指定時に既存仕様を読み直すことを検証する。
func TestUpdateProductKeepsSpecsWhenUnspecified(t *testing.T) {
	var updatedSpecs []model.ProductSpecification
	productRepo := &mockProductRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Product, error) {
			return &model.Product{ID: id, Name: "Alpine Jacket"}, nil
		},
		listSpecificationsFn: func(ctx context.Context, productID string) ([]model.ProductSpecification, error) {
			return []model.ProductSpecification{{ID: "s1", ProductID: productID, Spec: "100% merino wool"}}, nil
		},
		updateFn: func(ctx context.Context, product *model.Product, specs []model.ProductSpecification, images []model.ProductImage) error {
			updatedSpecs = specs
			return nil
		},
	}
	svc := NewService(productRepo, existingCategoryRepo())

	if _, err := svc.UpdateProduct(context.Background(), "p1", ProductUpdate{Name: strPtr("Alpine Jacket v2")}); err != nil {
		t.Fatalf("UpdateProduct() error = %v", err)
	}
	if len(updatedSpecs) != 1 || updatedSpecs[0].Spec != "100% merino wool" {
		t.Errorf("specs = %+v, want the existing specification preserved", updatedSpecs)
	}
}

// TestDeleteProduct は商品削除と未検出の扱いを検証する。
func TestDeleteProduct(t *testing.T) {
	deleted := false
	productRepo := &mockProductRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Product, error) {
			if id == "p1" {
				return &model.Product{ID: id}, nil
			}
			return nil, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}
	svc := NewService(productRepo, &mockCategoryRepo{})

	if err := svc.DeleteProduct(context.Background(), "p1"); err != nil {
		t.Fatalf("DeleteProduct() error = %v", err)
	}
	if !deleted {
		t.Error("Delete was not called")
	}

	err := svc.DeleteProduct(context.Background(), "missing")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeProductNotFound {
		t.Errorf("DeleteProduct() error = %v, want code %s", err, model.ErrCodeProductNotFound)
	}
}

// TestListProducts はフィルタの受け渡しを検証する。
func TestListProducts(t *testing.T) {
	var gotFilter repository.ProductFilter
	productRepo := &mockProductRepo{
		listFn: func(ctx context.Context, filter repository.ProductFilter) ([]*model.Product, error) {
			gotFilter = filter
			return []*model.Product{{ID: "p1"}}, nil
		},
	}
	svc := NewService(productRepo, &mockCategoryRepo{})

	inStock := true
	products, err := svc.ListProducts(context.Background(), repository.ProductFilter{
		CategoryID: "jackets",
		Search:     "alpine",
		InStock:    &inStock,
		Limit:      20,
	})
	if err != nil {
		t.Fatalf("ListProducts() error = %v", err)
	}
	if len(products) != 1 {
		t.Errorf("len(products) = %d, want 1", len(products))
	}
	if gotFilter.CategoryID != "jackets" || gotFilter.Search != "alpine" || gotFilter.Limit != 20 {
		t.Errorf("filter = %+v, want passed through", gotFilter)
	}
}

// TestUpdateCategory はカテゴリの部分更新を検証する。
func TestUpdateCategory(t *testing.T) {
	svc := NewService(&mockProductRepo{}, existingCategoryRepo())

	category, err := svc.UpdateCategory(context.Background(), "jackets", CategoryUpdate{
		Description: strPtr("Warm outdoor jackets"),
	})
	if err != nil {
		t.Fatalf("UpdateCategory() error = %v", err)
	}
	if category.Description != "Warm outdoor jackets" {
		t.Errorf("Description = %q", category.Description)
	}
	if category.Name != "Jackets" {
		t.Errorf("Name = %q, want unchanged", category.Name)
	}
}

// TestDeleteCategoryNotFound は存在しないカテゴリの削除を検証する。
func TestDeleteCategoryNotFound(t *testing.T) {
	svc := NewService(&mockProductRepo{}, &mockCategoryRepo{})

	err := svc.DeleteCategory(context.Background(), "missing")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeCategoryNotFound {
		t.Errorf("DeleteCategory() error = %v, want code %s", err, model.ErrCodeCategoryNotFound)
	}
}
