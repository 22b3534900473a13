// Package cart はショッピングカートのドメインロジックを提供する。
package cart

import (
	"context"
	"fmt"

	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/repository"
)

// Cart はカートの内容と合計金額を結合したドメインオブジェクト。
// 金額は税込モデルのため、Totalが顧客の支払予定額。
type Cart struct {
	Items      []repository.CartEntry
	ItemCount  int
	TotalCents int64
}

// Service はカートのサービス層。
type Service struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *Service {
	return &Service{cartRepo: cartRepo, productRepo: productRepo}
}

// GetCart はユーザーのカートを合計金額付きで返す。
func (s *Service) GetCart(ctx context.Context, userID string) (*Cart, error) {
	entries, err := s.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("カートの取得に失敗しました: %w", err)
	}

	cart := &Cart{Items: entries}
	for _, e := range entries {
		cart.ItemCount += e.Quantity
		cart.TotalCents += e.Product.PriceCents * int64(e.Quantity)
	}
	return cart, nil
}

// AddItem は商品をカートに追加する。既存行には数量を加算する。
// 商品の存在を検証する。
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	if quantity < 1 {
		return model.NewValidationError("quantity must be at least 1")
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return model.NewProductNotFoundError()
	}
	if err := s.cartRepo.Upsert(ctx, userID, productID, quantity); err != nil {
		return fmt.Errorf("カートへの追加に失敗しました: %w", err)
	}
	return nil
}

// UpdateQuantity はカート行の数量を上書きする。0以下は行の削除として扱う。
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, productID)
	}
	updated, err := s.cartRepo.SetQuantity(ctx, userID, productID, quantity)
	if err != nil {
		return fmt.Errorf("カート数量の更新に失敗しました: %w", err)
	}
	if !updated {
		return model.NewCartItemNotFoundError()
	}
	return nil
}

// RemoveItem は商品をカートから削除する。
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) error {
	removed, err := s.cartRepo.Remove(ctx, userID, productID)
	if err != nil {
		return fmt.Errorf("カートからの削除に失敗しました: %w", err)
	}
	if !removed {
		return model.NewCartItemNotFoundError()
	}
	return nil
}

// Clear はユーザーのカートを空にする。
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		return fmt.Errorf("カートのクリアに失敗しました: %w", err)
	}
	return nil
}
