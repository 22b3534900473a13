// Package review は商品レビューのドメインロジックを提供する。
// 購入済みユーザーのみがレビューでき、投稿時に商品の平均評価を再計算する。
package review

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/repository"
	"github.com/tajdo/backend/internal/security"
)

// Service はレビューのサービス層。
type Service struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	sanitizer   *security.Sanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	reviewRepo repository.ReviewRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	sanitizer *security.Sanitizer,
) *Service {
	return &Service{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		sanitizer:   sanitizer,
	}
}

// CreateInput はレビュー投稿の入力。
type CreateInput struct {
	ProductID string
	Rating    int
	Title     string
	Body      string
}

// Create はレビューを投稿する。商品を購入したユーザーのみ投稿できる。
// タイトル・本文はHTMLを除去して保存する。
// 投稿後に商品のrating/review_countを再計算する。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, model.NewValidationError("rating must be between 1 and 5")
	}

	product, err := s.productRepo.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError()
	}

	purchased, err := s.orderRepo.HasPurchasedProduct(ctx, userID, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("購入履歴の確認に失敗しました: %w", err)
	}
	if !purchased {
		return nil, model.NewReviewNotAllowedError()
	}

	review := &model.Review{
		ID:        uuid.NewString(),
		ProductID: input.ProductID,
		UserID:    userID,
		Rating:    input.Rating,
		Title:     s.sanitizer.Clean(input.Title),
		Body:      s.sanitizer.Clean(input.Body),
		CreatedAt: time.Now(),
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("レビューの作成に失敗しました: %w", err)
	}

	s.refreshProductRating(ctx, input.ProductID)

	return review, nil
}

// refreshProductRating はレビューから商品の平均評価を再計算して反映する。
// 失敗しても投稿自体は成立させ、ログのみ残す。
func (s *Service) refreshProductRating(ctx context.Context, productID string) {
	ratingX10, count, err := s.reviewRepo.AggregateByProductID(ctx, productID)
	if err != nil {
		slog.Error("failed to aggregate product reviews",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.productRepo.UpdateRating(ctx, productID, ratingX10, count); err != nil {
		slog.Error("failed to update product rating",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
}

// ListByProduct は商品のレビュー一覧を投稿者名付きで返す。
func (s *Service) ListByProduct(ctx context.Context, productID string) ([]repository.ReviewEntry, error) {
	entries, err := s.reviewRepo.ListByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}
	return entries, nil
}

// ListAll は全レビューを投稿者名付きで返す。管理者用。
func (s *Service) ListAll(ctx context.Context) ([]repository.ReviewEntry, error) {
	entries, err := s.reviewRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}
	return entries, nil
}

// Delete はレビューを削除する。管理者用。
// 削除後に商品のrating/review_countを再計算する。
func (s *Service) Delete(ctx context.Context, reviewID string) error {
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("レビューの取得に失敗しました: %w", err)
	}
	if review == nil {
		return model.NewReviewNotFoundError()
	}
	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("レビューの削除に失敗しました: %w", err)
	}

	s.refreshProductRating(ctx, review.ProductID)

	return nil
}
