// Package catalog は商品カタログのドメインロジックを提供する。
// 商品・カテゴリの閲覧と管理者による編集を含む。
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/repository"
)

// ProductDetail は商品と仕様・画像・バリエーションを結合したドメインオブジェクト。
type ProductDetail struct {
	Product  *model.Product
	Specs    []model.ProductSpecification
	Images   []model.ProductImage
	Variants []*model.Product
}

// Service はカタログのサービス層。
type Service struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) *Service {
	return &Service{productRepo: productRepo, categoryRepo: categoryRepo}
}

// ListProducts は条件に合致する商品一覧を返す。
func (s *Service) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*model.Product, error) {
	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("商品一覧の取得に失敗しました: %w", err)
	}
	return products, nil
}

// GetProduct は商品を仕様・画像・バリエーション付きで返す。
func (s *Service) GetProduct(ctx context.Context, id string) (*ProductDetail, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError()
	}

	specs, err := s.productRepo.ListSpecifications(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("商品仕様の取得に失敗しました: %w", err)
	}
	images, err := s.productRepo.ListImages(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("商品画像の取得に失敗しました: %w", err)
	}

	var variants []*model.Product
	if product.GroupID != "" {
		group, err := s.productRepo.ListByGroupID(ctx, product.GroupID)
		if err != nil {
			return nil, fmt.Errorf("バリエーションの取得に失敗しました: %w", err)
		}
		for _, v := range group {
			if v.ID != product.ID {
				variants = append(variants, v)
			}
		}
	}

	return &ProductDetail{Product: product, Specs: specs, Images: images, Variants: variants}, nil
}

// ProductInput は商品作成・更新の入力。
type ProductInput struct {
	SKU                    string
	Name                   string
	Description            string
	PriceCents             int64
	OriginalPriceCents     int64
	CategoryID             string
	ImageURL               string
	Badge                  string
	Material               string
	Color                  string
	GroupID                string
	InStock                bool
	ShippingDays           int
	ManufacturingCostCents int64
	TransportCostCents     int64
	Specs                  []string
	ImageURLs              []ProductImageInput
}

// ProductImageInput は追加画像の入力。
type ProductImageInput struct {
	URL       string
	AltText   string
	SortOrder int
}

// CreateProduct は商品を作成する。カテゴリの存在を検証する。
func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (*ProductDetail, error) {
	category, err := s.categoryRepo.FindByID(ctx, input.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("カテゴリの検索に失敗しました: %w", err)
	}
	if category == nil {
		return nil, model.NewCategoryNotFoundError(input.CategoryID)
	}

	now := time.Now()
	product := &model.Product{
		ID:                     uuid.NewString(),
		SKU:                    input.SKU,
		Name:                   input.Name,
		Description:            input.Description,
		PriceCents:             input.PriceCents,
		OriginalPriceCents:     input.OriginalPriceCents,
		CategoryID:             input.CategoryID,
		ImageURL:               input.ImageURL,
		Badge:                  input.Badge,
		Material:               input.Material,
		Color:                  input.Color,
		GroupID:                input.GroupID,
		InStock:                input.InStock,
		ShippingDays:           input.ShippingDays,
		ManufacturingCostCents: input.ManufacturingCostCents,
		TransportCostCents:     input.TransportCostCents,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	specs := buildSpecs(product.ID, input.Specs)
	images := buildImages(product.ID, input.ImageURLs)

	if err := s.productRepo.Create(ctx, product, specs, images); err != nil {
		return nil, fmt.Errorf("商品の作成に失敗しました: %w", err)
	}
	return &ProductDetail{Product: product, Specs: specs, Images: images}, nil
}

// ProductUpdate は商品の部分更新の入力。nilフィールドは変更しない。
type ProductUpdate struct {
	SKU                    *string
	Name                   *string
	Description            *string
	PriceCents             *int64
	OriginalPriceCents     *int64
	CategoryID             *string
	ImageURL               *string
	Badge                  *string
	Material               *string
	Color                  *string
	GroupID                *string
	InStock                *bool
	ShippingDays           *int
	ManufacturingCostCents *int64
	TransportCostCents     *int64
	Specs                  []string            // nilは変更なし
	ImageURLs              []ProductImageInput // nilは変更なし
}

// UpdateProduct は商品を部分更新する。
func (s *Service) UpdateProduct(ctx context.Context, id string, update ProductUpdate) (*ProductDetail, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError()
	}

	if update.CategoryID != nil {
		category, err := s.categoryRepo.FindByID(ctx, *update.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("カテゴリの検索に失敗しました: %w", err)
		}
		if category == nil {
			return nil, model.NewCategoryNotFoundError(*update.CategoryID)
		}
		product.CategoryID = *update.CategoryID
	}
	if update.SKU != nil {
		product.SKU = *update.SKU
	}
	if update.Name != nil {
		product.Name = *update.Name
	}
	if update.Description != nil {
		product.Description = *update.Description
	}
	if update.PriceCents != nil {
		product.PriceCents = *update.PriceCents
	}
	if update.OriginalPriceCents != nil {
		product.OriginalPriceCents = *update.OriginalPriceCents
	}
	if update.ImageURL != nil {
		product.ImageURL = *update.ImageURL
	}
	if update.Badge != nil {
		product.Badge = *update.Badge
	}
	if update.Material != nil {
		product.Material = *update.Material
	}
	if update.Color != nil {
		product.Color = *update.Color
	}
	if update.GroupID != nil {
		product.GroupID = *update.GroupID
	}
	if update.InStock != nil {
		product.InStock = *update.InStock
	}
	if update.ShippingDays != nil {
		product.ShippingDays = *update.ShippingDays
	}
	if update.ManufacturingCostCents != nil {
		product.ManufacturingCostCents = *update.ManufacturingCostCents
	}
	if update.TransportCostCents != nil {
		product.TransportCostCents = *update.TransportCostCents
	}
	product.UpdatedAt = time.Now()

	// specs/imagesはリポジトリ層で全置換されるため、未指定なら既存値を読み直す
	specs := buildSpecs(product.ID, update.Specs)
	if update.Specs == nil {
		specs, err = s.productRepo.ListSpecifications(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("商品仕様の取得に失敗しました: %w", err)
		}
	}
	images := buildImages(product.ID, update.ImageURLs)
	if update.ImageURLs == nil {
		images, err = s.productRepo.ListImages(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("商品画像の取得に失敗しました: %w", err)
		}
	}

	if err := s.productRepo.Update(ctx, product, specs, images); err != nil {
		return nil, fmt.Errorf("商品の更新に失敗しました: %w", err)
	}
	return &ProductDetail{Product: product, Specs: specs, Images: images}, nil
}

// DeleteProduct は商品を削除する。
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return model.NewProductNotFoundError()
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("商品の削除に失敗しました: %w", err)
	}
	return nil
}

func buildSpecs(productID string, specs []string) []model.ProductSpecification {
	result := make([]model.ProductSpecification, 0, len(specs))
	for _, spec := range specs {
		result = append(result, model.ProductSpecification{
			ID:        uuid.NewString(),
			ProductID: productID,
			Spec:      spec,
		})
	}
	return result
}

func buildImages(productID string, images []ProductImageInput) []model.ProductImage {
	result := make([]model.ProductImage, 0, len(images))
	for _, img := range images {
		result = append(result, model.ProductImage{
			ID:        uuid.NewString(),
			ProductID: productID,
			URL:       img.URL,
			AltText:   img.AltText,
			SortOrder: img.SortOrder,
		})
	}
	return result
}

// ListCategories は全カテゴリを返す。
func (s *Service) ListCategories(ctx context.Context) ([]*model.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の取得に失敗しました: %w", err)
	}
	return categories, nil
}

// GetCategory は指定IDのカテゴリを返す。
func (s *Service) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}
	if category == nil {
		return nil, model.NewCategoryNotFoundError(id)
	}
	return category, nil
}

// CategoryInput はカテゴリ作成の入力。IDは人間可読なスラッグ。
type CategoryInput struct {
	ID          string
	Name        string
	Description string
	ImageURL    string
	SortOrder   int
}

// CreateCategory はカテゴリを作成する。
func (s *Service) CreateCategory(ctx context.Context, input CategoryInput) (*model.Category, error) {
	category := &model.Category{
		ID:          input.ID,
		Name:        input.Name,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		SortOrder:   input.SortOrder,
		CreatedAt:   time.Now(),
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("カテゴリの作成に失敗しました: %w", err)
	}
	return category, nil
}

// CategoryUpdate はカテゴリの部分更新の入力。nilフィールドは変更しない。
type CategoryUpdate struct {
	Name        *string
	Description *string
	ImageURL    *string
	SortOrder   *int
}

// UpdateCategory はカテゴリを部分更新する。
func (s *Service) UpdateCategory(ctx context.Context, id string, update CategoryUpdate) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}
	if category == nil {
		return nil, model.NewCategoryNotFoundError(id)
	}

	if update.Name != nil {
		category.Name = *update.Name
	}
	if update.Description != nil {
		category.Description = *update.Description
	}
	if update.ImageURL != nil {
		category.ImageURL = *update.ImageURL
	}
	if update.SortOrder != nil {
		category.SortOrder = *update.SortOrder
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("カテゴリの更新に失敗しました: %w", err)
	}
	return category, nil
}

// DeleteCategory はカテゴリを削除する。
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}
	if category == nil {
		return model.NewCategoryNotFoundError(id)
	}
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("カテゴリの削除に失敗しました: %w", err)
	}
	return nil
}
