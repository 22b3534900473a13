package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/tajdo/backend/internal/auth"
	"github.com/tajdo/backend/internal/middleware"
	"github.com/tajdo/backend/internal/model"
)

// --- テストヘルパー ---

// withUser はテスト用にユーザーIDとロールをコンテキストに注入するヘルパー。
func withUser(r *http.Request, userID, role string) *http.Request {
	ctx := middleware.ContextWithUser(r.Context(), userID, role)
	return r.WithContext(ctx)
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeErrorResponse はAPIエラーレスポンスをデコードするヘルパー。
func decodeErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	registerFn    func(ctx context.Context, input auth.RegisterInput) (*model.User, error)
	loginFn       func(ctx context.Context, email, password string) (string, *model.User, error)
	adminLoginFn  func(ctx context.Context, email, password string) (string, *model.User, error)
	currentUserFn func(ctx context.Context, userID string) (*model.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, input auth.RegisterInput) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, input)
	}
	return nil, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return "", nil, nil
}

func (m *mockAuthService) AdminLogin(ctx context.Context, email, password string) (string, *model.User, error) {
	if m.adminLoginFn != nil {
		return m.adminLoginFn(ctx, email, password)
	}
	return "", nil, nil
}

func (m *mockAuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, userID)
	}
	return nil, nil
}

// --- POST /api/users テスト ---

func TestAuthHandler_Register_Success(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, input auth.RegisterInput) (*model.User, error) {
			if input.Email != "anna@example.com" {
				t.Errorf("email = %q, want %q", input.Email, "anna@example.com")
			}
			return &model.User{
				ID:       "user-1",
				Email:    input.Email,
				FullName: input.FullName,
				Role:     model.RoleCustomer,
				Locale:   "en",
			}, nil
		},
	}
	h := NewAuthHandler(svc)

	body := bytes.NewBufferString(`{"email":"anna@example.com","password":"secret123","full_name":"Anna Keller"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/users", body)
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["id"] != "user-1" {
		t.Errorf("id = %v, want %q", result["id"], "user-1")
	}
	if result["role"] != model.RoleCustomer {
		t.Errorf("role = %v, want %q", result["role"], model.RoleCustomer)
	}
	if _, ok := result["password"]; ok {
		t.Error("response must not contain a password field")
	}
}

func TestAuthHandler_Register_MissingFields(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	body := bytes.NewBufferString(`{"email":"anna@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/users", body)
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	result := decodeErrorResponse(t, w)
	if result["code"] != model.ErrCodeInvalidRequest {
		t.Errorf("code = %v, want %q", result["code"], model.ErrCodeInvalidRequest)
	}
}

func TestAuthHandler_Register_InvalidJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAuthHandler_Register_EmailTaken(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, input auth.RegisterInput) (*model.User, error) {
			return nil, model.NewEmailTakenError()
		},
	}
	h := NewAuthHandler(svc)

	body := bytes.NewBufferString(`{"email":"anna@example.com","password":"secret123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/users", body)
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
	result := decodeErrorResponse(t, w)
	if result["code"] != model.ErrCodeEmailTaken {
		t.Errorf("code = %v, want %q", result["code"], model.ErrCodeEmailTaken)
	}
}

// --- POST /api/token テスト ---

func TestAuthHandler_Login_Success(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, *model.User, error) {
			return "token-abc", &model.User{ID: "user-1", Email: email, Role: model.RoleCustomer}, nil
		},
	}
	h := NewAuthHandler(svc)

	body := bytes.NewBufferString(`{"email":"anna@example.com","password":"secret123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/token", body)
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["access_token"] != "token-abc" {
		t.Errorf("access_token = %v, want %q", result["access_token"], "token-abc")
	}
	if result["token_type"] != "bearer" {
		t.Errorf("token_type = %v, want %q", result["token_type"], "bearer")
	}
	user, ok := result["user"].(map[string]interface{})
	if !ok {
		t.Fatal("response does not contain a user object")
	}
	if user["id"] != "user-1" {
		t.Errorf("user.id = %v, want %q", user["id"], "user-1")
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, *model.User, error) {
			return "", nil, model.NewInvalidCredentialsError()
		},
	}
	h := NewAuthHandler(svc)

	body := bytes.NewBufferString(`{"email":"anna@example.com","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/token", body)
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	result := decodeErrorResponse(t, w)
	if result["code"] != model.ErrCodeInvalidCredentials {
		t.Errorf("code = %v, want %q", result["code"], model.ErrCodeInvalidCredentials)
	}
}

// --- POST /api/auth/admin/login テスト ---

func TestAuthHandler_AdminLogin_RejectsCustomer(t *testing.T) {
	svc := &mockAuthService{
		adminLoginFn: func(ctx context.Context, email, password string) (string, *model.User, error) {
			return "", nil, model.NewAdminRequiredError()
		},
	}
	h := NewAuthHandler(svc)

	body := bytes.NewBufferString(`{"email":"anna@example.com","password":"secret123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/admin/login", body)
	w := httptest.NewRecorder()

	h.AdminLogin(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

// --- GET /api/users/me テスト ---

func TestAuthHandler_Me_Success(t *testing.T) {
	svc := &mockAuthService{
		currentUserFn: func(ctx context.Context, userID string) (*model.User, error) {
			if userID != "user-1" {
				t.Errorf("userID = %q, want %q", userID, "user-1")
			}
			return &model.User{ID: userID, Email: "anna@example.com", Role: model.RoleCustomer}, nil
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req = withUser(req, "user-1", model.RoleCustomer)
	w := httptest.NewRecorder()

	h.Me(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	w := httptest.NewRecorder()

	h.Me(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
