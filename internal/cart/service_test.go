package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/repository"
)

// mockCartRepo はCartRepositoryのテスト用モック。
type mockCartRepo struct {
	listByUserIDFn func(ctx context.Context, userID string) ([]repository.CartEntry, error)
	upsertFn       func(ctx context.Context, userID, productID string, quantity int) error
	setQuantityFn  func(ctx context.Context, userID, productID string, quantity int) (bool, error)
	removeFn       func(ctx context.Context, userID, productID string) (bool, error)
	clearFn        func(ctx context.Context, userID string) error
}

func (m *mockCartRepo) ListByUserID(ctx context.Context, userID string) ([]repository.CartEntry, error) {
	if m.listByUserIDFn != nil {
		return m.listByUserIDFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockCartRepo) Upsert(ctx context.Context, userID, productID string, quantity int) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, userID, productID, quantity)
	}
	return nil
}

func (m *mockCartRepo) SetQuantity(ctx context.Context, userID, productID string, quantity int) (bool, error) {
	if m.setQuantityFn != nil {
		return m.setQuantityFn(ctx, userID, productID, quantity)
	}
	return false, nil
}

func (m *mockCartRepo) Remove(ctx context.Context, userID, productID string) (bool, error) {
	if m.removeFn != nil {
		return m.removeFn(ctx, userID, productID)
	}
	return false, nil
}

func (m *mockCartRepo) Clear(ctx context.Context, userID string) error {
	if m.clearFn != nil {
		return m.clearFn(ctx, userID)
	}
	return nil
}

// mockProductRepo はProductRepositoryのテスト用モック。
type mockProductRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Product, error)
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
	return nil, nil
}

func (m *mockProductRepo) ListByGroupID(ctx context.Context, groupID string) ([]*model.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) Create(ctx context.Context, product *model.Product, specs []model.ProductSpecification, images []model.ProductImage) error {
	return nil
}

func (m *mockProductRepo) Update(ctx context.Context, product *model.Product, specs []model.ProductSpecification, images []model.ProductImage) error {
	return nil
}

func (m *mockProductRepo) Delete(ctx context.Context, id string) error { return nil }

func (m *mockProductRepo) ListSpecifications(ctx context.Context, productID string) ([]model.ProductSpecification, error) {
	return nil, nil
}

func (m *mockProductRepo) ListImages(ctx context.Context, productID string) ([]model.ProductImage, error) {
	return nil, nil
}

func (m *mockProductRepo) UpdateRating(ctx context.Context, productID string, ratingX10, reviewCount int) error {
	return nil
}

func (m *mockProductRepo) UpdateStock(ctx context.Context, productID string, inStock bool) error {
	return nil
}

// TestGetCart はカートの合計金額と数量の集計を検証する。
func TestGetCart(t *testing.T) {
	cartRepo := &mockCartRepo{
		listByUserIDFn: func(ctx context.Context, userID string) ([]repository.CartEntry, error) {
			return []repository.CartEntry{
				{CartItem: model.CartItem{ProductID: "p1", Quantity: 2}, Product: model.Product{ID: "p1", PriceCents: 5000}},
				{CartItem: model.CartItem{ProductID: "p2", Quantity: 1}, Product: model.Product{ID: "p2", PriceCents: 2990}},
			}, nil
		},
	}
	svc := NewService(cartRepo, &mockProductRepo{})

	cart, err := svc.GetCart(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetCart() error = %v", err)
	}
	if len(cart.Items) != 2 {
		t.Errorf("len(Items) = %d, want 2", len(cart.Items))
	}
	if cart.ItemCount != 3 {
		t.Errorf("ItemCount = %d, want 3", cart.ItemCount)
	}
	if cart.TotalCents != 12990 {
		t.Errorf("TotalCents = %d, want 12990", cart.TotalCents)
	}
}

// TestGetCartEmpty は空カートがゼロ値で返ることを検証する。
func TestGetCartEmpty(t *testing.T) {
	svc := NewService(&mockCartRepo{}, &mockProductRepo{})

	cart, err := svc.GetCart(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetCart() error = %v", err)
	}
	if cart.ItemCount != 0 || cart.TotalCents != 0 {
		t.Errorf("empty cart = %+v, want zero totals", cart)
	}
}

// TestAddItem は商品追加とバリデーションを検証する。
func TestAddItem(t *testing.T) {
	var upsertedProductID string
	var upsertedQuantity int
	cartRepo := &mockCartRepo{
		upsertFn: func(ctx context.Context, userID, productID string, quantity int) error {
			upsertedProductID = productID
			upsertedQuantity = quantity
			return nil
		},
	}
	productRepo := &mockProductRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Product, error) {
			return &model.Product{ID: id, PriceCents: 5000}, nil
		},
	}
	svc := NewService(cartRepo, productRepo)

	if err := svc.AddItem(context.Background(), "user-1", "p1", 2); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	if upsertedProductID != "p1" || upsertedQuantity != 2 {
		t.Errorf("Upsert(%q, %d), want (p1, 2)", upsertedProductID, upsertedQuantity)
	}
}

// TestAddItemInvalidQuantity は数量0以下の追加を拒否することを検証する。
func TestAddItemInvalidQuantity(t *testing.T) {
	svc := NewService(&mockCartRepo{}, &mockProductRepo{})

	err := svc.AddItem(context.Background(), "user-1", "p1", 0)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRequest {
		t.Errorf("AddItem() error = %v, want code %s", err, model.ErrCodeInvalidRequest)
	}
}

// TestAddItemProductNotFound は存在しない商品の追加を拒否することを検証する。
func TestAddItemProductNotFound(t *testing.T) {
	svc := NewService(&mockCartRepo{}, &mockProductRepo{})

	err := svc.AddItem(context.Background(), "user-1", "missing", 1)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeProductNotFound {
		t.Errorf("AddItem() error = %v, want code %s", err, model.ErrCodeProductNotFound)
	}
}

// TestUpdateQuantity は数量上書きと行不存在エラーを検証する。
func TestUpdateQuantity(t *testing.T) {
	cartRepo := &mockCartRepo{
		setQuantityFn: func(ctx context.Context, userID, productID string, quantity int) (bool, error) {
			return productID == "p1", nil
		},
	}
	svc := NewService(cartRepo, &mockProductRepo{})

	if err := svc.UpdateQuantity(context.Background(), "user-1", "p1", 3); err != nil {
		t.Errorf("UpdateQuantity() error = %v", err)
	}

	err := svc.UpdateQuantity(context.Background(), "user-1", "missing", 3)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeCartItemNotFound {
		t.Errorf("UpdateQuantity() for missing row error = %v, want code %s", err, model.ErrCodeCartItemNotFound)
	}
}

// TestUpdateQuantityZeroRemoves は数量0が行削除として扱われることを検証する。
func TestUpdateQuantityZeroRemoves(t *testing.T) {
	removed := false
	cartRepo := &mockCartRepo{
		removeFn: func(ctx context.Context, userID, productID string) (bool, error) {
			removed = true
			return true, nil
		},
		setQuantityFn: func(ctx context.Context, userID, productID string, quantity int) (bool, error) {
			t.Error("SetQuantity should not be called for quantity 0")
			return false, nil
		},
	}
	svc := NewService(cartRepo, &mockProductRepo{})

	if err := svc.UpdateQuantity(context.Background(), "user-1", "p1", 0); err != nil {
		t.Fatalf("UpdateQuantity() error = %v", err)
	}
	if !removed {
		t.Error("Remove was not called")
	}
}

// TestRemoveItem は行削除と行不存在エラーを検証する。
func TestRemoveItem(t *testing.T) {
	cartRepo := &mockCartRepo{
		removeFn: func(ctx context.Context, userID, productID string) (bool, error) {
			return productID == "p1", nil
		},
	}
	svc := NewService(cartRepo, &mockProductRepo{})

	if err := svc.RemoveItem(context.Background(), "user-1", "p1"); err != nil {
		t.Errorf("RemoveItem() error = %v", err)
	}

	err := svc.RemoveItem(context.Background(), "user-1", "missing")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeCartItemNotFound {
		t.Errorf("RemoveItem() for missing row error = %v, want code %s", err, model.ErrCodeCartItemNotFound)
	}
}
