package model

import "time"

// 注文ステータス
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// ValidOrderStatus は注文ステータスとして許可された値かどうかを返す。
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// Order は顧客注文を表す。
// 金額は税込モデル（スイスVAT 8.1%）: Total が顧客の支払額、
// Subtotal は税抜相当額、Tax はTotalに内包される税額。
type Order struct {
	ID                string
	OrderNumber       string
	UserID            string
	ShippingAddressID string // 空はNULL
	Status            string
	SubtotalCents     int64
	ShippingCents     int64
	TaxCents          int64
	TotalCents        int64
	Currency          string
	PaymentMethod     string
	PaymentIntentID   string
	Notes             string
	TrackingNumber    string
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Items []OrderItem
}

// OrderItem は注文内の商品行。注文時点の商品名・単価・原価をスナップショットする。
type OrderItem struct {
	ID                     string
	OrderID                string
	ProductID              string
	ProductName            string
	UnitPriceCents         int64
	Quantity               int
	TotalCents             int64
	ManufacturingCostCents int64
	TransportCostCents     int64
}

// OrderStatusHistory は注文ステータス遷移の監査ログ。
type OrderStatusHistory struct {
	ID        string
	OrderID   string
	OldStatus string
	NewStatus string
	Note      string
	CreatedAt time.Time
}

// RescueContribution は注文総額の30%を記録する寄付レコード。
type RescueContribution struct {
	ID          string
	OrderID     string
	AmountCents int64
	Currency    string
	CreatedAt   time.Time
}
