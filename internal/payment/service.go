// Package payment は決済ゲートウェイのシミュレーションを提供する。
// card / twint の2方式に対応し、確率的な成功・失敗を再現する。
package payment

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/repository"
)

// 対応する支払い方法
const (
	MethodCard  = "card"
	MethodTwint = "twint"
)

// 成功率。実ゲートウェイの挙動を模した固定値。
const (
	cardSuccessRate  = 0.95
	twintSuccessRate = 0.90
)

// Intent は決済インテントを表す。
type Intent struct {
	ID            string
	ClientSecret  string
	AmountCents   int64
	Currency      string
	PaymentMethod string
	Status        string
}

// Service は決済シミュレーションのサービス層。
// randは再現性のあるテストのために注入する。
type Service struct {
	orderRepo repository.OrderRepository
	rand      *rand.Rand
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(orderRepo repository.OrderRepository, rng *rand.Rand) *Service {
	return &Service{orderRepo: orderRepo, rand: rng}
}

// CreateIntent は決済インテントを作成する。
// 支払い方法に応じた成功率で即時に成功・失敗を判定する。
func (s *Service) CreateIntent(ctx context.Context, amountCents int64, method string) (*Intent, error) {
	if amountCents <= 0 {
		return nil, model.NewValidationError("amount must be positive")
	}

	var successRate float64
	var prefix string
	switch method {
	case MethodCard:
		successRate = cardSuccessRate
		prefix = "CARD"
	case MethodTwint:
		successRate = twintSuccessRate
		prefix = "TWINT"
	default:
		return nil, model.NewInvalidPaymentMethodError(method)
	}

	intentID := fmt.Sprintf("%s-%06d", prefix, s.rand.Intn(900000)+100000)

	if s.rand.Float64() >= successRate {
		reason := "Card declined by the issuing bank"
		if method == MethodTwint {
			reason = "Twint payment rejected by user or insufficient funds"
		}
		return nil, model.NewPaymentFailedError(reason)
	}

	return &Intent{
		ID:            intentID,
		ClientSecret:  uuid.NewString(),
		AmountCents:   amountCents,
		Currency:      "CHF",
		PaymentMethod: method,
		Status:        "succeeded",
	}, nil
}

// AttachIntent は注文に決済インテントを紐付ける。
// チェックアウト後に決済が完了した注文をマークするために使う。
func (s *Service) AttachIntent(ctx context.Context, requesterID string, isAdmin bool, orderID, intentID, method string) error {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("注文の取得に失敗しました: %w", err)
	}
	if order == nil {
		return model.NewOrderNotFoundError()
	}
	if order.UserID != requesterID && !isAdmin {
		return model.NewForbiddenError("order")
	}
	if method != MethodCard && method != MethodTwint {
		return model.NewInvalidPaymentMethodError(method)
	}
	if err := s.orderRepo.UpdatePaymentIntent(ctx, orderID, intentID, method); err != nil {
		return fmt.Errorf("決済インテントの紐付けに失敗しました: %w", err)
	}
	return nil
}

// ConfirmIntent はゲートウェイからの決済確認通知を処理する。
// インテントに紐付く保留中の注文をprocessingへ進める。処理済みの注文への再通知は冪等に受け付ける。
func (s *Service) ConfirmIntent(ctx context.Context, intentID string) (*model.Order, error) {
	if intentID == "" {
		return nil, model.NewValidationError("payment_intent_id is required")
	}

	order, err := s.orderRepo.FindByPaymentIntentID(ctx, intentID)
	if err != nil {
		return nil, fmt.Errorf("注文の取得に失敗しました: %w", err)
	}
	if order == nil {
		return nil, model.NewOrderNotFoundError()
	}
	if order.Status != model.OrderStatusPending {
		return order, nil
	}

	history := &model.OrderStatusHistory{
		ID:        uuid.NewString(),
		OrderID:   order.ID,
		OldStatus: order.Status,
		NewStatus: model.OrderStatusProcessing,
		Note:      "Payment confirmed by gateway",
		CreatedAt: time.Now(),
	}
	if err := s.orderRepo.UpdateStatus(ctx, order.ID, history, ""); err != nil {
		return nil, fmt.Errorf("ステータスの更新に失敗しました: %w", err)
	}

	order.Status = model.OrderStatusProcessing
	return order, nil
}
