package model

import "time"

// Supplier は仕入先を表す。IDは人間可読なスラッグ。
type Supplier struct {
	ID              string
	Name            string
	Type            string
	Location        string
	ContactEmail    string
	ContactPhone    string
	DefaultLeadTime int // 標準リードタイム（日）
	Notes           string
	CreatedAt       time.Time
}

// SupplierOrder は仕入先への発注を表す。
// 各 *At は発注ライフサイクルの到達時刻。未到達はnil。
type SupplierOrder struct {
	ID                    string
	OrderNumber           string
	SupplierID            string
	CustomerOrderID       string // 空はNULL（在庫補充など顧客注文に紐付かない発注）
	Status                string
	TotalCostCents        int64
	Currency              string
	EstimatedDeliveryDays int
	TrackingNumber        string
	Notes                 string
	CreatedAt             time.Time
	ConfirmedAt           *time.Time
	InProductionAt        *time.Time
	ShippedAt             *time.Time
	ReceivedAt            *time.Time
}

// SupplierOrderItem は仕入発注内の商品行。
type SupplierOrderItem struct {
	ID              string
	SupplierOrderID string
	ProductID       string
	ProductName     string
	Quantity        int
	UnitCostCents   int64
}

// SupplierPayment は仕入先への支払いを表す。
type SupplierPayment struct {
	ID              string
	SupplierID      string
	SupplierOrderID string // 空はNULL
	AmountCents     int64
	Currency        string
	Method          string
	Reference       string
	PaidAt          time.Time
}
