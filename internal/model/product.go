package model

import "time"

// Category は商品カテゴリを表す。IDは人間可読なスラッグ（例: "rugs"）。
type Category struct {
	ID          string
	Name        string
	Description string
	ImageURL    string
	SortOrder   int
	CreatedAt   time.Time
}

// Product はカタログ上の商品を表す。
// 金額はすべてCHFのセント単位整数で保持する（浮動小数点の丸め誤差を避けるため）。
// RatingX10 は平均評価の10倍整数（45 = 4.5）。レビューから再計算される派生値。
type Product struct {
	ID                     string
	SKU                    string
	Name                   string
	Description            string
	PriceCents             int64
	OriginalPriceCents     int64 // 0 は割引前価格なし
	CategoryID             string
	ImageURL               string
	RatingX10              int
	ReviewCount            int
	Badge                  string
	Material               string
	Color                  string
	GroupID                string // バリエーションのグルーピング用。空は未設定
	InStock                bool
	ShippingDays           int
	ManufacturingCostCents int64
	TransportCostCents     int64
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// ProductSpecification は商品仕様の1行テキストを表す。
type ProductSpecification struct {
	ID        string
	ProductID string
	Spec      string
}

// ProductImage は商品の追加画像を表す。
type ProductImage struct {
	ID        string
	ProductID string
	URL       string
	AltText   string
	SortOrder int
}

// WishlistItem はユーザーのウィッシュリスト登録を表す。
type WishlistItem struct {
	UserID    string
	ProductID string
	CreatedAt time.Time
}

// CartItem はカート内の商品行を表す。user_id + product_id で一意。
type CartItem struct {
	UserID    string
	ProductID string
	Quantity  int
	CreatedAt time.Time
}
