// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"

	"github.com/tajdo/backend/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// Update はユーザーのプロフィール情報を更新する。
	Update(ctx context.Context, user *model.User) error

	// List は全ユーザーを作成日時降順で返す。
	List(ctx context.Context) ([]*model.User, error)
}

// AddressRepository は配送先住所の永続化インターフェース。
type AddressRepository interface {
	// FindByID は指定IDの住所を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Address, error)

	// ListByUserID はユーザーの住所一覧をデフォルト優先で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Address, error)

	// Create は住所を作成する。IsDefaultがtrueの場合、
	// 同一ユーザーの既存デフォルトを同一トランザクションで解除する。
	Create(ctx context.Context, address *model.Address) error

	// Update は住所を更新する。IsDefaultがtrueの場合、
	// 他の住所のデフォルトを同一トランザクションで解除する。
	Update(ctx context.Context, address *model.Address) error

	// Delete は指定IDの住所を削除する。
	Delete(ctx context.Context, id string) error
}

// CategoryRepository は商品カテゴリの永続化インターフェース。
type CategoryRepository interface {
	// FindByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Category, error)

	// List は全カテゴリをsort_order昇順で返す。
	List(ctx context.Context) ([]*model.Category, error)

	// Create はカテゴリを作成する。
	Create(ctx context.Context, category *model.Category) error

	// Update はカテゴリを更新する。
	Update(ctx context.Context, category *model.Category) error

	// Delete は指定IDのカテゴリを削除する。
	Delete(ctx context.Context, id string) error
}

// ProductFilter は商品一覧の絞り込み条件。ゼロ値のフィールドは無視される。
type ProductFilter struct {
	CategoryID string
	Search     string // 名前・説明の部分一致（大文字小文字を区別しない）
	InStock    *bool
	Limit      int
	Offset     int
}

// ProductRepository は商品データの永続化インターフェース。
type ProductRepository interface {
	// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Product, error)

	// FindByIDs は指定ID群の商品を取得する。存在しないIDは結果に含まれない。
	FindByIDs(ctx context.Context, ids []string) ([]*model.Product, error)

	// List は条件に合致する商品一覧を作成日時降順で返す。
	List(ctx context.Context, filter ProductFilter) ([]*model.Product, error)

	// ListByGroupID は同一バリエーショングループの商品を返す。
	ListByGroupID(ctx context.Context, groupID string) ([]*model.Product, error)

	// Create は商品を仕様・画像とともに同一トランザクションで作成する。
	Create(ctx context.Context, product *model.Product, specs []model.ProductSpecification, images []model.ProductImage) error

	// Update は商品を更新する。specs/imagesは全置換する。
	Update(ctx context.Context, product *model.Product, specs []model.ProductSpecification, images []model.ProductImage) error

	// Delete は指定IDの商品を削除する。
	Delete(ctx context.Context, id string) error

	// ListSpecifications は商品の仕様一覧を返す。
	ListSpecifications(ctx context.Context, productID string) ([]model.ProductSpecification, error)

	// ListImages は商品の画像一覧をsort_order昇順で返す。
	ListImages(ctx context.Context, productID string) ([]model.ProductImage, error)

	// UpdateRating はレビューから再計算した評価値を反映する。
	UpdateRating(ctx context.Context, productID string, ratingX10, reviewCount int) error

	// UpdateStock は在庫フラグを更新する。
	UpdateStock(ctx context.Context, productID string, inStock bool) error
}

// WishlistRepository はウィッシュリストの永続化インターフェース。
type WishlistRepository interface {
	// ListByUserID はユーザーのウィッシュリストを商品情報付きで返す。
	ListByUserID(ctx context.Context, userID string) ([]WishlistEntry, error)

	// Add は商品をウィッシュリストに追加する。既に存在する場合は何もしない。
	Add(ctx context.Context, userID, productID string) error

	// Remove は商品をウィッシュリストから削除する。
	// 存在しない場合はsql.ErrNoRowsをラップしたエラーを返さず、削除件数0を示すfalseを返す。
	Remove(ctx context.Context, userID, productID string) (bool, error)
}

// CartRepository はカートの永続化インターフェース。
type CartRepository interface {
	// ListByUserID はユーザーのカートを商品情報付きで返す。
	ListByUserID(ctx context.Context, userID string) ([]CartEntry, error)

	// Upsert はカートに商品を追加する。既に存在する場合は数量を加算する。
	Upsert(ctx context.Context, userID, productID string, quantity int) error

	// SetQuantity はカート行の数量を上書きする。行が存在しない場合はfalseを返す。
	SetQuantity(ctx context.Context, userID, productID string, quantity int) (bool, error)

	// Remove はカートから商品を削除する。行が存在しない場合はfalseを返す。
	Remove(ctx context.Context, userID, productID string) (bool, error)

	// Clear はユーザーのカートを空にする。
	Clear(ctx context.Context, userID string) error
}

// OrderRepository は注文データの永続化インターフェース。
type OrderRepository interface {
	// Create は注文・注文行・初期ステータス履歴・寄付レコードを
	// 同一トランザクションで作成する。rescueはnil可。
	Create(ctx context.Context, order *model.Order, history *model.OrderStatusHistory, rescue *model.RescueContribution) error

	// FindByID は指定IDの注文を注文行付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Order, error)

	// FindByOrderNumber は注文番号で注文を注文行付きで検索する。見つからない場合はnilを返す。
	FindByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error)

	// FindByPaymentIntentID は支払いインテントIDで注文を検索する。見つからない場合はnilを返す。
	FindByPaymentIntentID(ctx context.Context, intentID string) (*model.Order, error)

	// ListByUserID はユーザーの注文一覧を作成日時降順・注文行付きで返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Order, error)

	// List は全注文を作成日時降順・注文行付きで返す。
	List(ctx context.Context) ([]*model.Order, error)

	// UpdateStatus は注文ステータスを更新し、履歴レコードを
	// 同一トランザクションで追加する。trackingNumberが空でなければ併せて設定する。
	UpdateStatus(ctx context.Context, orderID string, history *model.OrderStatusHistory, trackingNumber string) error

	// ListStatusHistory は注文のステータス履歴を時系列で返す。
	ListStatusHistory(ctx context.Context, orderID string) ([]*model.OrderStatusHistory, error)

	// UpdatePaymentIntent は注文の支払いインテントIDと支払い方法を設定する。
	UpdatePaymentIntent(ctx context.Context, orderID, paymentIntentID, paymentMethod string) error

	// HasPurchasedProduct はユーザーが指定商品を含む注文を持つかを返す。
	HasPurchasedProduct(ctx context.Context, userID, productID string) (bool, error)

	// FindRescueByOrderID は注文に紐づく寄付レコードを取得する。見つからない場合はnilを返す。
	FindRescueByOrderID(ctx context.Context, orderID string) (*model.RescueContribution, error)

	// ListRescueContributions は寄付レコードを作成日時降順で返す。
	ListRescueContributions(ctx context.Context) ([]*model.RescueContribution, error)

	// SumRescueContributions は寄付総額（セント）を返す。
	SumRescueContributions(ctx context.Context) (int64, error)
}

// ReviewRepository は商品レビューの永続化インターフェース。
type ReviewRepository interface {
	// Create はレビューを作成する。
	Create(ctx context.Context, review *model.Review) error

	// FindByUserAndProduct はユーザー・商品の組でレビューを検索する。見つからない場合はnilを返す。
	FindByUserAndProduct(ctx context.Context, userID, productID string) (*model.Review, error)

	// ListByProductID は商品のレビュー一覧を投稿者名付き・作成日時降順で返す。
	ListByProductID(ctx context.Context, productID string) ([]ReviewEntry, error)

	// List は全レビューを投稿者名付き・作成日時降順で返す。
	List(ctx context.Context) ([]ReviewEntry, error)

	// FindByID は指定IDのレビューを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Review, error)

	// Delete は指定IDのレビューを削除する。
	Delete(ctx context.Context, id string) error

	// AggregateByProductID は商品の平均評価（10倍整数）とレビュー数を返す。
	// レビューが存在しない場合は (0, 0) を返す。
	AggregateByProductID(ctx context.Context, productID string) (ratingX10, count int, err error)
}

// NotificationRepository はアプリ内通知の永続化インターフェース。
type NotificationRepository interface {
	// Create は通知を作成する。
	Create(ctx context.Context, n *model.Notification) error

	// ListByUserID はユーザーの通知一覧を作成日時降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Notification, error)

	// CountUnread はユーザーの未読通知数を返す。
	CountUnread(ctx context.Context, userID string) (int, error)

	// MarkRead は通知を既読にする。該当通知がユーザーのものでない場合はfalseを返す。
	MarkRead(ctx context.Context, userID, notificationID string) (bool, error)

	// MarkAllRead はユーザーの全通知を既読にする。
	MarkAllRead(ctx context.Context, userID string) error
}

// ComplaintRepository は苦情の永続化インターフェース。
type ComplaintRepository interface {
	// Create は苦情を作成する。
	Create(ctx context.Context, c *model.Complaint) error

	// FindByID は指定IDの苦情を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Complaint, error)

	// ListByUserID はユーザーの苦情一覧を作成日時降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Complaint, error)

	// List は全苦情を作成日時降順で返す。
	List(ctx context.Context) ([]*model.Complaint, error)

	// UpdateStatus は苦情のステータスと解決コメントを更新する。
	UpdateStatus(ctx context.Context, id, status, resolution string) error
}

// ReturnRepository は返品リクエストの永続化インターフェース。
type ReturnRepository interface {
	// Create は返品リクエストを作成する。
	Create(ctx context.Context, r *model.Return) error

	// FindByID は指定IDの返品リクエストを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Return, error)

	// ListByUserID はユーザーの返品リクエスト一覧を作成日時降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Return, error)

	// List は全返品リクエストを作成日時降順で返す。
	List(ctx context.Context) ([]*model.Return, error)

	// UpdateStatus は返品のステータス・返金額・備考を更新する。
	UpdateStatus(ctx context.Context, id, status string, refundAmountCents int64, notes string) error
}

// SupplierRepository は仕入先と仕入発注の永続化インターフェース。
type SupplierRepository interface {
	// FindByID は指定IDの仕入先を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Supplier, error)

	// List は全仕入先を名前昇順で返す。
	List(ctx context.Context) ([]*model.Supplier, error)

	// Create は仕入先を作成する。
	Create(ctx context.Context, s *model.Supplier) error

	// Update は仕入先を更新する。
	Update(ctx context.Context, s *model.Supplier) error

	// CreateOrder は仕入発注を発注行とともに同一トランザクションで作成する。
	CreateOrder(ctx context.Context, order *model.SupplierOrder, items []model.SupplierOrderItem) error

	// FindOrderByID は指定IDの仕入発注を発注行付きで取得する。見つからない場合はnilを返す。
	FindOrderByID(ctx context.Context, id string) (*model.SupplierOrder, error)

	// ListOrders は仕入発注一覧を作成日時降順で返す。supplierIDが空なら全件。
	ListOrders(ctx context.Context, supplierID string) ([]*model.SupplierOrder, error)

	// UpdateOrderStatus は仕入発注のステータスを更新し、対応するタイムスタンプ列を設定する。
	UpdateOrderStatus(ctx context.Context, id, status, trackingNumber string) error

	// CreatePayment は仕入先への支払いを記録する。
	CreatePayment(ctx context.Context, p *model.SupplierPayment) error

	// ListPayments は仕入先への支払い一覧を支払日降順で返す。supplierIDが空なら全件。
	ListPayments(ctx context.Context, supplierID string) ([]*model.SupplierPayment, error)
}

// WishlistEntry はウィッシュリスト行と商品情報を結合した構造体。
type WishlistEntry struct {
	model.WishlistItem
	Product model.Product
}

// CartEntry はカート行と商品情報を結合した構造体。
type CartEntry struct {
	model.CartItem
	Product model.Product
}

// ReviewEntry はレビューと投稿者名を結合した構造体。
type ReviewEntry struct {
	model.Review
	AuthorName string
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
