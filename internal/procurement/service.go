// Package procurement は仕入先・仕入発注・仕入支払いのドメインロジックを提供する。
package procurement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/repository"
)

// Service は調達管理のサービス層。
type Service struct {
	supplierRepo repository.SupplierRepository
	productRepo  repository.ProductRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(supplierRepo repository.SupplierRepository, productRepo repository.ProductRepository) *Service {
	return &Service{supplierRepo: supplierRepo, productRepo: productRepo}
}

// ListSuppliers は全仕入先を返す。
func (s *Service) ListSuppliers(ctx context.Context) ([]*model.Supplier, error) {
	suppliers, err := s.supplierRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("仕入先一覧の取得に失敗しました: %w", err)
	}
	return suppliers, nil
}

// GetSupplier は指定IDの仕入先を返す。
func (s *Service) GetSupplier(ctx context.Context, id string) (*model.Supplier, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("仕入先の取得に失敗しました: %w", err)
	}
	if supplier == nil {
		return nil, model.NewSupplierNotFoundError()
	}
	return supplier, nil
}

// SupplierInput は仕入先作成の入力。IDは人間可読なスラッグ。
type SupplierInput struct {
	ID              string
	Name            string
	Type            string
	Location        string
	ContactEmail    string
	ContactPhone    string
	DefaultLeadTime int
	Notes           string
}

// CreateSupplier は仕入先を作成する。管理者用。
func (s *Service) CreateSupplier(ctx context.Context, input SupplierInput) (*model.Supplier, error) {
	leadTime := input.DefaultLeadTime
	if leadTime <= 0 {
		leadTime = 14
	}
	supplier := &model.Supplier{
		ID:              input.ID,
		Name:            input.Name,
		Type:            input.Type,
		Location:        input.Location,
		ContactEmail:    input.ContactEmail,
		ContactPhone:    input.ContactPhone,
		DefaultLeadTime: leadTime,
		Notes:           input.Notes,
		CreatedAt:       time.Now(),
	}
	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		return nil, fmt.Errorf("仕入先の作成に失敗しました: %w", err)
	}
	return supplier, nil
}

// SupplierOrderItemInput は仕入発注行の入力。
type SupplierOrderItemInput struct {
	ProductID     string
	Quantity      int
	UnitCostCents int64
}

// SupplierOrderInput は仕入発注作成の入力。
type SupplierOrderInput struct {
	SupplierID      string
	CustomerOrderID string
	Currency        string
	Notes           string
	Items           []SupplierOrderItemInput
}

// newSupplierOrderNumber は "PO-" + 大文字16進6桁の発注番号を採番する。
func newSupplierOrderNumber() string {
	id := uuid.New()
	return "PO-" + strings.ToUpper(fmt.Sprintf("%x", id[:3]))
}

// CreateSupplierOrder は仕入発注を作成する。管理者用。
// 発注行の商品名と合計コストは商品マスタからスナップショットする。
func (s *Service) CreateSupplierOrder(ctx context.Context, input SupplierOrderInput) (*model.SupplierOrder, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, input.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("仕入先の取得に失敗しました: %w", err)
	}
	if supplier == nil {
		return nil, model.NewSupplierNotFoundError()
	}
	if len(input.Items) == 0 {
		return nil, model.NewValidationError("supplier order must contain at least one item")
	}

	orderID := uuid.NewString()
	var totalCostCents int64
	items := make([]model.SupplierOrderItem, 0, len(input.Items))
	for _, in := range input.Items {
		product, err := s.productRepo.FindByID(ctx, in.ProductID)
		if err != nil {
			return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
		}
		if product == nil {
			return nil, model.NewProductNotFoundError()
		}
		unitCost := in.UnitCostCents
		if unitCost == 0 {
			unitCost = product.ManufacturingCostCents
		}
		totalCostCents += unitCost * int64(in.Quantity)
		items = append(items, model.SupplierOrderItem{
			ID:              uuid.NewString(),
			SupplierOrderID: orderID,
			ProductID:       in.ProductID,
			ProductName:     product.Name,
			Quantity:        in.Quantity,
			UnitCostCents:   unitCost,
		})
	}

	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}

	order := &model.SupplierOrder{
		ID:                    orderID,
		OrderNumber:           newSupplierOrderNumber(),
		SupplierID:            input.SupplierID,
		CustomerOrderID:       input.CustomerOrderID,
		Status:                "pending",
		TotalCostCents:        totalCostCents,
		Currency:              currency,
		EstimatedDeliveryDays: supplier.DefaultLeadTime,
		Notes:                 input.Notes,
		CreatedAt:             time.Now(),
	}
	if err := s.supplierRepo.CreateOrder(ctx, order, items); err != nil {
		return nil, fmt.Errorf("仕入発注の作成に失敗しました: %w", err)
	}
	return order, nil
}

// GetSupplierOrder は指定IDの仕入発注を返す。
func (s *Service) GetSupplierOrder(ctx context.Context, id string) (*model.SupplierOrder, error) {
	order, err := s.supplierRepo.FindOrderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("仕入発注の取得に失敗しました: %w", err)
	}
	if order == nil {
		return nil, model.NewSupplierOrderNotFoundError()
	}
	return order, nil
}

// ListSupplierOrders は仕入発注一覧を返す。supplierIDが空なら全件。
func (s *Service) ListSupplierOrders(ctx context.Context, supplierID string) ([]*model.SupplierOrder, error) {
	orders, err := s.supplierRepo.ListOrders(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("仕入発注一覧の取得に失敗しました: %w", err)
	}
	return orders, nil
}

// UpdateSupplierOrderStatus は仕入発注のステータスを更新する。管理者用。
func (s *Service) UpdateSupplierOrderStatus(ctx context.Context, id, status, trackingNumber string) (*model.SupplierOrder, error) {
	order, err := s.supplierRepo.FindOrderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("仕入発注の取得に失敗しました: %w", err)
	}
	if order == nil {
		return nil, model.NewSupplierOrderNotFoundError()
	}
	if err := s.supplierRepo.UpdateOrderStatus(ctx, id, status, trackingNumber); err != nil {
		return nil, fmt.Errorf("仕入発注ステータスの更新に失敗しました: %w", err)
	}
	return s.supplierRepo.FindOrderByID(ctx, id)
}

// PaymentInput は仕入支払い記録の入力。
type PaymentInput struct {
	SupplierID      string
	SupplierOrderID string
	AmountCents     int64
	Currency        string
	Method          string
	Reference       string
}

// RecordPayment は仕入先への支払いを記録する。管理者用。
func (s *Service) RecordPayment(ctx context.Context, input PaymentInput) (*model.SupplierPayment, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, input.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("仕入先の取得に失敗しました: %w", err)
	}
	if supplier == nil {
		return nil, model.NewSupplierNotFoundError()
	}

	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}
	payment := &model.SupplierPayment{
		ID:              uuid.NewString(),
		SupplierID:      input.SupplierID,
		SupplierOrderID: input.SupplierOrderID,
		AmountCents:     input.AmountCents,
		Currency:        currency,
		Method:          input.Method,
		Reference:       input.Reference,
		PaidAt:          time.Now(),
	}
	if err := s.supplierRepo.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("仕入支払いの記録に失敗しました: %w", err)
	}
	return payment, nil
}

// ListPayments は仕入支払い一覧を返す。supplierIDが空なら全件。
func (s *Service) ListPayments(ctx context.Context, supplierID string) ([]*model.SupplierPayment, error) {
	payments, err := s.supplierRepo.ListPayments(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("仕入支払い一覧の取得に失敗しました: %w", err)
	}
	return payments, nil
}
