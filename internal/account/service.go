// Package account はユーザープロフィール・住所・ウィッシュリストのドメインロジックを提供する。
package account

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/repository"
)

// Service はアカウント管理のサービス層。
type Service struct {
	userRepo     repository.UserRepository
	addressRepo  repository.AddressRepository
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	addressRepo repository.AddressRepository,
	wishlistRepo repository.WishlistRepository,
	productRepo repository.ProductRepository,
) *Service {
	return &Service{
		userRepo:     userRepo,
		addressRepo:  addressRepo,
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
	}
}

// ProfileUpdate はプロフィールの部分更新の入力。nilフィールドは変更しない。
type ProfileUpdate struct {
	FullName *string
	Phone    *string
	Locale   *string
}

// UpdateProfile はユーザーのプロフィールを部分更新する。
func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	if update.FullName != nil {
		user.FullName = *update.FullName
	}
	if update.Phone != nil {
		user.Phone = *update.Phone
	}
	if update.Locale != nil {
		user.Locale = *update.Locale
	}
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
	}
	return user, nil
}

// ListUsers は全ユーザーを返す。管理者用。
func (s *Service) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// AddressInput は住所作成・更新の入力。
type AddressInput struct {
	Label      string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	IsDefault  bool
}

// ListAddresses はユーザーの住所一覧を返す。
func (s *Service) ListAddresses(ctx context.Context, userID string) ([]*model.Address, error) {
	addresses, err := s.addressRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("住所一覧の取得に失敗しました: %w", err)
	}
	return addresses, nil
}

// CreateAddress はユーザーの住所を作成する。
func (s *Service) CreateAddress(ctx context.Context, userID string, input AddressInput) (*model.Address, error) {
	address := &model.Address{
		ID:         uuid.NewString(),
		UserID:     userID,
		Label:      input.Label,
		Line1:      input.Line1,
		Line2:      input.Line2,
		City:       input.City,
		State:      input.State,
		PostalCode: input.PostalCode,
		Country:    input.Country,
		IsDefault:  input.IsDefault,
		CreatedAt:  time.Now(),
	}
	if err := s.addressRepo.Create(ctx, address); err != nil {
		return nil, fmt.Errorf("住所の作成に失敗しました: %w", err)
	}
	return address, nil
}

// UpdateAddress はユーザー自身の住所を更新する。
// 住所の所有者が一致しない場合はForbiddenを返す。
func (s *Service) UpdateAddress(ctx context.Context, userID, addressID string, input AddressInput) (*model.Address, error) {
	address, err := s.addressRepo.FindByID(ctx, addressID)
	if err != nil {
		return nil, fmt.Errorf("住所の取得に失敗しました: %w", err)
	}
	if address == nil {
		return nil, model.NewAddressNotFoundError()
	}
	if address.UserID != userID {
		return nil, model.NewForbiddenError("address")
	}

	address.Label = input.Label
	address.Line1 = input.Line1
	address.Line2 = input.Line2
	address.City = input.City
	address.State = input.State
	address.PostalCode = input.PostalCode
	address.Country = input.Country
	address.IsDefault = input.IsDefault

	if err := s.addressRepo.Update(ctx, address); err != nil {
		return nil, fmt.Errorf("住所の更新に失敗しました: %w", err)
	}
	return address, nil
}

// DeleteAddress はユーザー自身の住所を削除する。
func (s *Service) DeleteAddress(ctx context.Context, userID, addressID string) error {
	address, err := s.addressRepo.FindByID(ctx, addressID)
	if err != nil {
		return fmt.Errorf("住所の取得に失敗しました: %w", err)
	}
	if address == nil {
		return model.NewAddressNotFoundError()
	}
	if address.UserID != userID {
		return model.NewForbiddenError("address")
	}
	if err := s.addressRepo.Delete(ctx, addressID); err != nil {
		return fmt.Errorf("住所の削除に失敗しました: %w", err)
	}
	return nil
}

// ListWishlist はユーザーのウィッシュリストを商品情報付きで返す。
func (s *Service) ListWishlist(ctx context.Context, userID string) ([]repository.WishlistEntry, error) {
	entries, err := s.wishlistRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ウィッシュリストの取得に失敗しました: %w", err)
	}
	return entries, nil
}

// AddToWishlist は商品をウィッシュリストに追加する。商品の存在を検証する。
func (s *Service) AddToWishlist(ctx context.Context, userID, productID string) error {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return model.NewProductNotFoundError()
	}
	if err := s.wishlistRepo.Add(ctx, userID, productID); err != nil {
		return fmt.Errorf("ウィッシュリストへの追加に失敗しました: %w", err)
	}
	return nil
}

// RemoveFromWishlist は商品をウィッシュリストから削除する。
func (s *Service) RemoveFromWishlist(ctx context.Context, userID, productID string) error {
	removed, err := s.wishlistRepo.Remove(ctx, userID, productID)
	if err != nil {
		return fmt.Errorf("ウィッシュリストからの削除に失敗しました: %w", err)
	}
	if !removed {
		return model.NewWishlistItemNotFoundError()
	}
	return nil
}
