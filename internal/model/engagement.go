package model

import "time"

// Review は購入済みユーザーによる商品レビューを表す。Ratingは1〜5。
type Review struct {
	ID        string
	ProductID string
	UserID    string
	Rating    int
	Title     string
	Body      string
	CreatedAt time.Time
}

// 通知タイプ
const (
	NotificationTypeOrderConfirmation = "order_confirmation"
	NotificationTypeOrderStatusUpdate = "order_status_update"
)

// Notification はユーザー向けのアプリ内通知を表す。
type Notification struct {
	ID        string
	UserID    string
	OrderID   string // 空はNULL（注文に紐付かない通知）
	Type      string
	Title     string
	Message   string
	IsRead    bool
	CreatedAt time.Time
}

// Complaint は顧客からの苦情を表す。
type Complaint struct {
	ID         string
	UserID     string
	OrderID    string // 空はNULL
	Subject    string
	Message    string
	Status     string // open / resolved 等
	Resolution string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Return は返品リクエストを表す。
type Return struct {
	ID                string
	OrderID           string
	UserID            string
	Reason            string
	Status            string // requested から開始
	RefundAmountCents int64
	Notes             string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
