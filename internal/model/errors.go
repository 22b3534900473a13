package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// フロントエンドに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, catalog, order, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized          = "UNAUTHORIZED"
	ErrCodeInvalidCredentials    = "INVALID_CREDENTIALS"
	ErrCodeForbidden             = "FORBIDDEN"
	ErrCodeAdminRequired         = "ADMIN_REQUIRED"
	ErrCodeEmailTaken            = "EMAIL_TAKEN"
	ErrCodePasswordTooLong       = "PASSWORD_TOO_LONG"
	ErrCodeUserNotFound          = "USER_NOT_FOUND"
	ErrCodeInvalidRequest        = "INVALID_REQUEST"
	ErrCodeCategoryNotFound      = "CATEGORY_NOT_FOUND"
	ErrCodeProductNotFound       = "PRODUCT_NOT_FOUND"
	ErrCodeAddressNotFound       = "ADDRESS_NOT_FOUND"
	ErrCodeCartItemNotFound      = "CART_ITEM_NOT_FOUND"
	ErrCodeWishlistItemNotFound  = "WISHLIST_ITEM_NOT_FOUND"
	ErrCodeOrderNotFound         = "ORDER_NOT_FOUND"
	ErrCodeOrderUserMismatch     = "ORDER_USER_MISMATCH"
	ErrCodeInvalidOrderStatus    = "INVALID_ORDER_STATUS"
	ErrCodeNotificationNotFound  = "NOTIFICATION_NOT_FOUND"
	ErrCodeReviewNotFound        = "REVIEW_NOT_FOUND"
	ErrCodeReviewNotAllowed      = "REVIEW_NOT_ALLOWED"
	ErrCodeSupplierNotFound      = "SUPPLIER_NOT_FOUND"
	ErrCodeSupplierOrderNotFound = "SUPPLIER_ORDER_NOT_FOUND"
	ErrCodeRescueNotFound        = "RESCUE_CONTRIBUTION_NOT_FOUND"
	ErrCodeInvalidPaymentMethod  = "INVALID_PAYMENT_METHOD"
	ErrCodePaymentFailed         = "PAYMENT_FAILED"
	ErrCodeInternal              = "INTERNAL_ERROR"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Authentication is required.",
		Category: "auth",
		Action:   "Sign in and retry with a valid bearer token.",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// ユーザー不存在とパスワード不一致を区別しない（列挙攻撃対策）。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Incorrect username or password.",
		Category: "auth",
		Action:   "Check your email address and password.",
	}
}

// NewForbiddenError は所有権のないリソースへのアクセスエラーを生成する。
func NewForbiddenError(resource string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  fmt.Sprintf("Not authorized to access this %s.", resource),
		Category: "auth",
		Action:   "You can only access resources belonging to your own account.",
	}
}

// NewAdminRequiredError は管理者権限不足エラーを生成する。
func NewAdminRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeAdminRequired,
		Message:  "The user doesn't have enough privileges.",
		Category: "auth",
		Action:   "This operation requires an administrator account.",
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "Email already registered.",
		Category: "validation",
		Action:   "Sign in with the existing account or use a different email address.",
	}
}

// NewPasswordTooLongError はパスワード長超過エラーを生成する。
func NewPasswordTooLongError() *APIError {
	return &APIError{
		Code:     ErrCodePasswordTooLong,
		Message:  "Password is too long. Maximum length is 72 bytes.",
		Category: "validation",
		Action:   "Choose a shorter password.",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found.",
		Category: "auth",
		Action:   "Sign in again.",
	}
}

// NewValidationError はリクエスト検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("Invalid request: %s", reason),
		Category: "validation",
		Action:   "Fix the highlighted fields and retry.",
	}
}

// NewCategoryNotFoundError はカテゴリ未検出エラーを生成する。
func NewCategoryNotFoundError(categoryID string) *APIError {
	return &APIError{
		Code:     ErrCodeCategoryNotFound,
		Message:  fmt.Sprintf("Category with id '%s' not found.", categoryID),
		Category: "catalog",
		Action:   "Check the category identifier.",
	}
}

// NewProductNotFoundError は商品未検出エラーを生成する。
func NewProductNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeProductNotFound,
		Message:  "Product not found.",
		Category: "catalog",
		Action:   "Check the product identifier.",
	}
}

// NewAddressNotFoundError は住所未検出エラーを生成する。
func NewAddressNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeAddressNotFound,
		Message:  "Address not found.",
		Category: "validation",
		Action:   "Check the address identifier.",
	}
}

// NewCartItemNotFoundError はカート行未検出エラーを生成する。
func NewCartItemNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeCartItemNotFound,
		Message:  "Item not found in cart.",
		Category: "order",
		Action:   "Check the product identifier in your cart.",
	}
}

// NewWishlistItemNotFoundError はウィッシュリスト行未検出エラーを生成する。
func NewWishlistItemNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeWishlistItemNotFound,
		Message:  "Item not found in wishlist.",
		Category: "catalog",
		Action:   "Check the product identifier in your wishlist.",
	}
}

// NewOrderNotFoundError は注文未検出エラーを生成する。
func NewOrderNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeOrderNotFound,
		Message:  "Order not found.",
		Category: "order",
		Action:   "Check the order identifier.",
	}
}

// NewOrderUserMismatchError は対象ユーザーと注文所有者の不一致エラーを生成する。
func NewOrderUserMismatchError() *APIError {
	return &APIError{
		Code:     ErrCodeOrderUserMismatch,
		Message:  "The user does not match the order's owner.",
		Category: "validation",
		Action:   "Reference an order that belongs to the target user.",
	}
}

// NewInvalidOrderStatusError は無効な注文ステータスエラーを生成する。
func NewInvalidOrderStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidOrderStatus,
		Message:  fmt.Sprintf("Invalid order status: %s", status),
		Category: "validation",
		Action:   "Use one of pending, processing, shipped, delivered, cancelled, refunded.",
	}
}

// NewNotificationNotFoundError は通知未検出エラーを生成する。
func NewNotificationNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeNotificationNotFound,
		Message:  "Notification not found.",
		Category: "system",
		Action:   "Check the notification identifier.",
	}
}

// NewReviewNotFoundError はレビュー未検出エラーを生成する。
func NewReviewNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeReviewNotFound,
		Message:  "Review not found.",
		Category: "catalog",
		Action:   "Check the review identifier.",
	}
}

// NewReviewNotAllowedError は未購入商品へのレビューエラーを生成する。
func NewReviewNotAllowedError() *APIError {
	return &APIError{
		Code:     ErrCodeReviewNotAllowed,
		Message:  "You must purchase this product to review it.",
		Category: "catalog",
		Action:   "Reviews can only be written for purchased products.",
	}
}

// NewSupplierNotFoundError は仕入先未検出エラーを生成する。
func NewSupplierNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeSupplierNotFound,
		Message:  "Supplier not found.",
		Category: "catalog",
		Action:   "Check the supplier identifier.",
	}
}

// NewSupplierOrderNotFoundError は仕入発注未検出エラーを生成する。
func NewSupplierOrderNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeSupplierOrderNotFound,
		Message:  "Supplier order not found.",
		Category: "catalog",
		Action:   "Check the supplier order identifier.",
	}
}

// NewRescueContributionNotFoundError は寄付レコード未検出エラーを生成する。
func NewRescueContributionNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeRescueNotFound,
		Message:  "Rescue contribution not found for this order.",
		Category: "order",
		Action:   "Check the order identifier.",
	}
}

// NewInvalidPaymentMethodError は未対応の支払い方法エラーを生成する。
func NewInvalidPaymentMethodError(method string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPaymentMethod,
		Message:  fmt.Sprintf("Unsupported payment method: %s", method),
		Category: "validation",
		Action:   "Use one of card, twint.",
	}
}

// NewPaymentFailedError は決済失敗エラーを生成する。
func NewPaymentFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodePaymentFailed,
		Message:  fmt.Sprintf("Payment failed: %s", reason),
		Category: "order",
		Action:   "Check your payment details and try again.",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに残し、
// ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "An internal error occurred.",
		Category: "system",
		Action:   "Please wait a moment and try again.",
	}
}
