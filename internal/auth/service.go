// Package auth は認証・認可のドメインロジックを提供する。
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/repository"
)

// Service は認証のサービス層。
// ユーザー登録、ログイン、トークン検証のビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	tokens   *TokenManager
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, tokens *TokenManager) *Service {
	return &Service{userRepo: userRepo, tokens: tokens}
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
	Locale   string
}

// Register は新規ユーザーを顧客ロールで登録する。
// ロールは外部入力から受け取らない。管理者はcreateadminコマンドでのみ作成される。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	if len(input.Password) > maxPasswordBytes {
		return nil, model.NewPasswordTooLongError()
	}

	existing, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	locale := input.Locale
	if locale == "" {
		locale = "en"
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.NewString(),
		Email:        input.Email,
		PasswordHash: hash,
		FullName:     input.FullName,
		Phone:        input.Phone,
		Role:         model.RoleCustomer,
		Locale:       locale,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}
	return user, nil
}

// Login はメールアドレスとパスワードを検証し、アクセストークンを発行する。
// 認証失敗の理由（ユーザー不存在/パスワード不一致）は呼び出し元に区別させない。
func (s *Service) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil || !VerifyPassword(password, user.PasswordHash) {
		return "", nil, model.NewInvalidCredentialsError()
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("トークンの発行に失敗しました: %w", err)
	}
	return token, user, nil
}

// AdminLogin は管理者ロールのユーザーのみログインを許可する。
func (s *Service) AdminLogin(ctx context.Context, email, password string) (string, *model.User, error) {
	token, user, err := s.Login(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	if !user.IsAdmin() {
		return "", nil, model.NewAdminRequiredError()
	}
	return token, user, nil
}

// CurrentUser はトークンのsubjectからユーザーを解決する。
func (s *Service) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}
