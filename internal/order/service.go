// Package order は注文・チェックアウトのドメインロジックを提供する。
// 税込金額計算、注文番号採番、寄付レコード作成、通知・メール送信を含む。
package order

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tajdo/backend/internal/mailer"
	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/notification"
	"github.com/tajdo/backend/internal/repository"
)

// taxRatePermille はスイス標準VAT税率の千分率表現（8.1% = 81/1000）。
// 税込モデル: net = total / 1.081 を整数演算で求めるため、
// 分母 1081 / 分子 1000 の比率として扱う。
const (
	taxDenominator = 1081
	taxNumerator   = 1000
)

// rescueSharePercent は注文総額に対する寄付割合。
const rescueSharePercent = 30

// divRoundHalfEven は n/d を銀行丸め（偶数丸め）で整数に丸める。
// ちょうど半分の端数は最も近い偶数へ丸める。n >= 0, d > 0 前提。
func divRoundHalfEven(n, d int64) int64 {
	q := n / d
	r := n % d
	switch {
	case 2*r < d:
		return q
	case 2*r > d:
		return q + 1
	case q%2 == 0:
		return q
	default:
		return q + 1
	}
}

// Service は注文のサービス層。
type Service struct {
	orderRepo     repository.OrderRepository
	cartRepo      repository.CartRepository
	productRepo   repository.ProductRepository
	addressRepo   repository.AddressRepository
	userRepo      repository.UserRepository
	notifications *notification.Service
	mail          *mailer.Client
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	addressRepo repository.AddressRepository,
	userRepo repository.UserRepository,
	notifications *notification.Service,
	mail *mailer.Client,
) *Service {
	return &Service{
		orderRepo:     orderRepo,
		cartRepo:      cartRepo,
		productRepo:   productRepo,
		addressRepo:   addressRepo,
		userRepo:      userRepo,
		notifications: notifications,
		mail:          mail,
	}
}

// CheckoutItem は注文する商品と数量の指定。
type CheckoutItem struct {
	ProductID string
	Quantity  int
}

// CheckoutInput はチェックアウトの入力。
// Itemsはカートの内容とは独立に指定する。
type CheckoutInput struct {
	ShippingAddressID string
	PaymentMethod     string
	PaymentIntentID   string
	Notes             string
	Items             []CheckoutItem
}

// newOrderNumber は "ORD-" + 大文字16進6桁の注文番号を採番する。
func newOrderNumber() string {
	id := uuid.New()
	return "ORD-" + strings.ToUpper(fmt.Sprintf("%x", id[:3]))
}

// Checkout は指定された商品リストから注文を作成する。
// 価格は商品マスタからその場でスナップショットする。
// 金額は税込モデル: 合計金額からVAT 8.1%を逆算し、税抜相当額をsubtotalとする。
// 配送はDDP（顧客負担なし）のためshippingは常に0。
// 注文総額の30%を寄付レコードとして同一トランザクションで記録し、
// 成功後に注文した商品のカート行のみを削除して確認通知とメールを送る。
func (s *Service) Checkout(ctx context.Context, userID string, input CheckoutInput) (*model.Order, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	if input.ShippingAddressID != "" {
		address, err := s.addressRepo.FindByID(ctx, input.ShippingAddressID)
		if err != nil {
			return nil, fmt.Errorf("住所の取得に失敗しました: %w", err)
		}
		if address == nil {
			return nil, model.NewAddressNotFoundError()
		}
		if address.UserID != userID {
			return nil, model.NewForbiddenError("address")
		}
	}

	if len(input.Items) == 0 {
		return nil, model.NewValidationError("order must contain at least one item")
	}

	now := time.Now()
	orderID := uuid.NewString()

	// 税込モデル: 商品価格がそのまま顧客の支払額
	var totalCents int64
	items := make([]model.OrderItem, 0, len(input.Items))
	for _, in := range input.Items {
		if in.Quantity <= 0 {
			return nil, model.NewValidationError("item quantity must be positive")
		}
		product, err := s.productRepo.FindByID(ctx, in.ProductID)
		if err != nil {
			return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
		}
		if product == nil {
			return nil, model.NewProductNotFoundError()
		}
		itemTotal := product.PriceCents * int64(in.Quantity)
		totalCents += itemTotal
		items = append(items, model.OrderItem{
			ID:                     uuid.NewString(),
			OrderID:                orderID,
			ProductID:              product.ID,
			ProductName:            product.Name,
			UnitPriceCents:         product.PriceCents,
			Quantity:               in.Quantity,
			TotalCents:             itemTotal,
			ManufacturingCostCents: product.ManufacturingCostCents,
			TransportCostCents:     product.TransportCostCents,
		})
	}

	// 税抜相当額 = total / 1.081、税額 = total - 税抜相当額
	netCents := divRoundHalfEven(totalCents*taxNumerator, taxDenominator)
	taxCents := totalCents - netCents

	order := &model.Order{
		ID:                orderID,
		OrderNumber:       newOrderNumber(),
		UserID:            userID,
		ShippingAddressID: input.ShippingAddressID,
		Status:            model.OrderStatusProcessing,
		SubtotalCents:     netCents,
		ShippingCents:     0,
		TaxCents:          taxCents,
		TotalCents:        totalCents,
		Currency:          "CHF",
		PaymentMethod:     input.PaymentMethod,
		PaymentIntentID:   input.PaymentIntentID,
		Notes:             input.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
		Items:             items,
	}

	history := &model.OrderStatusHistory{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		NewStatus: model.OrderStatusProcessing,
		Note:      "Order placed",
		CreatedAt: now,
	}

	rescue := &model.RescueContribution{
		ID:          uuid.NewString(),
		OrderID:     orderID,
		AmountCents: divRoundHalfEven(totalCents*rescueSharePercent, 100),
		Currency:    "CHF",
		CreatedAt:   now,
	}

	if err := s.orderRepo.Create(ctx, order, history, rescue); err != nil {
		return nil, fmt.Errorf("注文の作成に失敗しました: %w", err)
	}

	// 注文成立後の副作用。失敗しても注文自体は成立させる。
	// カートは全消去ではなく、注文した商品の行だけを取り除く。
	for _, in := range input.Items {
		if _, err := s.cartRepo.Remove(ctx, userID, in.ProductID); err != nil {
			slog.Error("failed to remove ordered item from cart",
				slog.String("order_id", orderID),
				slog.String("product_id", in.ProductID),
				slog.String("error", err.Error()),
			)
		}
	}

	if _, err := s.notifications.Notify(ctx, userID, orderID,
		model.NotificationTypeOrderConfirmation,
		"Order Confirmed",
		fmt.Sprintf("Thank you for your purchase! Your order %s has been placed. We are preparing your order.", order.OrderNumber),
	); err != nil {
		slog.Error("failed to create order confirmation notification",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}

	subject, html := mailer.OrderConfirmation(order, user)
	if err := s.mail.Send(ctx, user.Email, subject, html); err != nil {
		slog.Error("failed to send order confirmation email",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}

	return order, nil
}

// GetOrder は注文を返す。所有者または管理者のみ閲覧できる。
func (s *Service) GetOrder(ctx context.Context, requesterID string, isAdmin bool, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("注文の取得に失敗しました: %w", err)
	}
	if order == nil {
		return nil, model.NewOrderNotFoundError()
	}
	if order.UserID != requesterID && !isAdmin {
		return nil, model.NewForbiddenError("order")
	}
	return order, nil
}

// ListUserOrders は指定ユーザーの注文一覧を返す。本人または管理者のみ。
func (s *Service) ListUserOrders(ctx context.Context, requesterID string, isAdmin bool, targetUserID string) ([]*model.Order, error) {
	if targetUserID != requesterID && !isAdmin {
		return nil, model.NewForbiddenError("order")
	}
	orders, err := s.orderRepo.ListByUserID(ctx, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("注文一覧の取得に失敗しました: %w", err)
	}
	return orders, nil
}

// ListAllOrders は全注文を返す。管理者用。
func (s *Service) ListAllOrders(ctx context.Context) ([]*model.Order, error) {
	orders, err := s.orderRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("注文一覧の取得に失敗しました: %w", err)
	}
	return orders, nil
}

// Track は注文番号とメールアドレスの組で注文を照会する。未認証でも利用できる。
// メール不一致は注文不存在と区別しない。
func (s *Service) Track(ctx context.Context, orderNumber, email string) (*model.Order, error) {
	order, err := s.orderRepo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("注文の取得に失敗しました: %w", err)
	}
	if order == nil {
		return nil, model.NewOrderNotFoundError()
	}
	user, err := s.userRepo.FindByID(ctx, order.UserID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil || user.Email != email {
		return nil, model.NewOrderNotFoundError()
	}
	return order, nil
}

// StatusHistory は注文のステータス履歴を返す。所有者または管理者のみ。
func (s *Service) StatusHistory(ctx context.Context, requesterID string, isAdmin bool, orderID string) ([]*model.OrderStatusHistory, error) {
	if _, err := s.GetOrder(ctx, requesterID, isAdmin, orderID); err != nil {
		return nil, err
	}
	history, err := s.orderRepo.ListStatusHistory(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("ステータス履歴の取得に失敗しました: %w", err)
	}
	return history, nil
}

// statusNotification はステータスに応じた通知タイトルと本文を返す。
func statusNotification(order *model.Order, newStatus, trackingNumber string) (title, message string) {
	title = fmt.Sprintf("Order %s%s", strings.ToUpper(newStatus[:1]), newStatus[1:])
	message = fmt.Sprintf("The status of your order %s has been updated to %s.", order.OrderNumber, newStatus)

	switch newStatus {
	case model.OrderStatusProcessing:
		message = fmt.Sprintf("We are preparing your order %s.", order.OrderNumber)
	case model.OrderStatusShipped:
		title = "Order Shipped"
		message = fmt.Sprintf("Great news! Your order %s is on its way.", order.OrderNumber)
		if trackingNumber != "" {
			message += fmt.Sprintf(" Tracking Number: %s", trackingNumber)
		}
	case model.OrderStatusDelivered:
		title = "Order Delivered"
		message = fmt.Sprintf("Your order %s has arrived! We hope you love your new items.", order.OrderNumber)
	case model.OrderStatusCancelled:
		title = "Order Cancelled"
		message = fmt.Sprintf("Your order %s has been cancelled. If you have questions, please contact us.", order.OrderNumber)
	case model.OrderStatusRefunded:
		title = "Order Refunded"
		message = fmt.Sprintf("A refund has been processed for your order %s.", order.OrderNumber)
	}
	return title, message
}

// UpdateStatus は注文ステータスを更新する。管理者用。
// 履歴追加・通知作成・ステータスに応じたメール送信を行う。
func (s *Service) UpdateStatus(ctx context.Context, adminName, orderID, newStatus, trackingNumber string) (*model.Order, error) {
	if !model.ValidOrderStatus(newStatus) {
		return nil, model.NewInvalidOrderStatusError(newStatus)
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("注文の取得に失敗しました: %w", err)
	}
	if order == nil {
		return nil, model.NewOrderNotFoundError()
	}

	history := &model.OrderStatusHistory{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		OldStatus: order.Status,
		NewStatus: newStatus,
		Note:      fmt.Sprintf("Status updated by admin %s", adminName),
		CreatedAt: time.Now(),
	}
	if err := s.orderRepo.UpdateStatus(ctx, orderID, history, trackingNumber); err != nil {
		return nil, fmt.Errorf("ステータスの更新に失敗しました: %w", err)
	}

	order.Status = newStatus
	if trackingNumber != "" {
		order.TrackingNumber = trackingNumber
	}

	title, message := statusNotification(order, newStatus, trackingNumber)
	if _, err := s.notifications.Notify(ctx, order.UserID, orderID,
		model.NotificationTypeOrderStatusUpdate, title, message,
	); err != nil {
		slog.Error("failed to create status update notification",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}

	s.sendStatusEmail(ctx, order, newStatus, trackingNumber)

	return order, nil
}

// sendStatusEmail はステータスに応じた通知メールを送信する。失敗はログのみ。
func (s *Service) sendStatusEmail(ctx context.Context, order *model.Order, newStatus, trackingNumber string) {
	user, err := s.userRepo.FindByID(ctx, order.UserID)
	if err != nil || user == nil {
		slog.Error("failed to resolve order owner for status email",
			slog.String("order_id", order.ID),
		)
		return
	}

	var subject, html string
	switch newStatus {
	case model.OrderStatusShipped:
		subject, html = mailer.OrderShipped(order, user, trackingNumber)
	case model.OrderStatusDelivered:
		subject, html = mailer.OrderDelivered(order, user)
	case model.OrderStatusCancelled:
		subject, html = mailer.OrderCancelled(order, user)
	case model.OrderStatusRefunded:
		subject, html = mailer.OrderRefunded(order, user)
	default:
		return
	}

	if err := s.mail.Send(ctx, user.Email, subject, html); err != nil {
		slog.Error("failed to send status update email",
			slog.String("order_id", order.ID),
			slog.String("status", newStatus),
			slog.String("error", err.Error()),
		)
	}
}

// RescueContributionForOrder は注文に紐づく寄付レコードを返す。所有者または管理者のみ。
func (s *Service) RescueContributionForOrder(ctx context.Context, requesterID string, isAdmin bool, orderID string) (*model.RescueContribution, error) {
	if _, err := s.GetOrder(ctx, requesterID, isAdmin, orderID); err != nil {
		return nil, err
	}
	contribution, err := s.orderRepo.FindRescueByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("寄付レコードの取得に失敗しました: %w", err)
	}
	if contribution == nil {
		return nil, model.NewRescueContributionNotFoundError()
	}
	return contribution, nil
}

// RescueSummary は寄付レコードの一覧と総額を結合したドメインオブジェクト。
type RescueSummary struct {
	Contributions []*model.RescueContribution
	TotalCents    int64
}

// ListRescueContributions は全寄付レコードと総額を返す。管理者用。
func (s *Service) ListRescueContributions(ctx context.Context) (*RescueSummary, error) {
	contributions, err := s.orderRepo.ListRescueContributions(ctx)
	if err != nil {
		return nil, fmt.Errorf("寄付レコード一覧の取得に失敗しました: %w", err)
	}
	total, err := s.orderRepo.SumRescueContributions(ctx)
	if err != nil {
		return nil, fmt.Errorf("寄付総額の取得に失敗しました: %w", err)
	}
	return &RescueSummary{Contributions: contributions, TotalCents: total}, nil
}
