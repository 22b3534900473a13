package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tajdo/backend/internal/model"
)

// mockUserRepo はrepository.UserRepositoryのモック実装。
type mockUserRepo struct {
	findByIDFn    func(ctx context.Context, id string) (*model.User, error)
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
	createFn      func(ctx context.Context, user *model.User) error
	updateFn      func(ctx context.Context, user *model.User) error
	listFn        func(ctx context.Context) ([]*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *model.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func newTestService(repo *mockUserRepo) *Service {
	return NewService(repo, NewTokenManager("test-secret", time.Hour))
}

func TestRegister_Success(t *testing.T) {
	var created *model.User
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			created = user
			return nil
		},
	}
	svc := newTestService(repo)

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "secret-password",
		FullName: "Test User",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if created == nil {
		t.Fatal("expected user to be persisted")
	}
	if user.Role != model.RoleCustomer {
		t.Errorf("Role = %q, want %q", user.Role, model.RoleCustomer)
	}
	if user.Locale != "en" {
		t.Errorf("Locale = %q, want %q", user.Locale, "en")
	}
	if user.PasswordHash == "secret-password" {
		t.Error("password must not be stored in plaintext")
	}
	if !VerifyPassword("secret-password", user.PasswordHash) {
		t.Error("stored hash must verify against the original password")
	}
}

func TestRegister_ForcesCustomerRole(t *testing.T) {
	svc := newTestService(&mockUserRepo{})

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    "sneaky@example.com",
		Password: "password",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// 登録経由では管理者を作れない
	if user.Role != model.RoleCustomer {
		t.Errorf("Role = %q, want %q", user.Role, model.RoleCustomer)
	}
}

func TestRegister_EmailTaken(t *testing.T) {
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "existing", Email: email}, nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "password",
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEmailTaken {
		t.Fatalf("expected EMAIL_TAKEN error, got %v", err)
	}
}

func TestRegister_PasswordTooLong(t *testing.T) {
	svc := newTestService(&mockUserRepo{})

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: strings.Repeat("x", 73),
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodePasswordTooLong {
		t.Fatalf("expected PASSWORD_TOO_LONG error, got %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	hash, err := HashPassword("password")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           "user-1",
				Email:        email,
				PasswordHash: hash,
				Role:         model.RoleCustomer,
			}, nil
		},
	}
	svc := newTestService(repo)

	token, user, err := svc.Login(context.Background(), "user@example.com", "password")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token == "" {
		t.Error("expected a non-empty token")
	}
	if user.ID != "user-1" {
		t.Errorf("user.ID = %q, want %q", user.ID, "user-1")
	}
}

func TestLogin_UnknownUserAndWrongPassword_SameError(t *testing.T) {
	hash, err := HashPassword("password")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	// ユーザー不存在
	svc := newTestService(&mockUserRepo{})
	_, _, errUnknown := svc.Login(context.Background(), "nobody@example.com", "password")

	// パスワード不一致
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "user-1", Email: email, PasswordHash: hash}, nil
		},
	}
	svc = newTestService(repo)
	_, _, errWrong := svc.Login(context.Background(), "user@example.com", "wrong")

	// 列挙攻撃対策としてどちらも同じエラーコードを返す
	for _, err := range []error{errUnknown, errWrong} {
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
			t.Errorf("expected INVALID_CREDENTIALS error, got %v", err)
		}
	}
}

func TestAdminLogin_RejectsCustomer(t *testing.T) {
	hash, err := HashPassword("password")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           "user-1",
				Email:        email,
				PasswordHash: hash,
				Role:         model.RoleCustomer,
			}, nil
		},
	}
	svc := newTestService(repo)

	_, _, err = svc.AdminLogin(context.Background(), "user@example.com", "password")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeAdminRequired {
		t.Fatalf("expected ADMIN_REQUIRED error, got %v", err)
	}
}

func TestAdminLogin_AllowsAdmin(t *testing.T) {
	hash, err := HashPassword("password")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           "admin-1",
				Email:        email,
				PasswordHash: hash,
				Role:         model.RoleAdmin,
			}, nil
		},
	}
	svc := newTestService(repo)

	token, user, err := svc.AdminLogin(context.Background(), "admin@example.com", "password")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token == "" {
		t.Error("expected a non-empty token")
	}
	if !user.IsAdmin() {
		t.Error("expected admin user")
	}
}

func TestCurrentUser_NotFound(t *testing.T) {
	svc := newTestService(&mockUserRepo{})

	_, err := svc.CurrentUser(context.Background(), "missing")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Fatalf("expected USER_NOT_FOUND error, got %v", err)
	}
}
