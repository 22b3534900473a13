// Package notification はアプリ内通知のドメインロジックを提供する。
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/repository"
)

// OrderFinder は通知対象の注文の存在と所有者を確認するためのインターフェース。
type OrderFinder interface {
	// FindByID は指定IDの注文を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Order, error)
}

// Service は通知のサービス層。
type Service struct {
	notificationRepo repository.NotificationRepository
	orders           OrderFinder
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(notificationRepo repository.NotificationRepository, orders OrderFinder) *Service {
	return &Service{notificationRepo: notificationRepo, orders: orders}
}

// CreateInput はAPI経由の通知作成の入力。
type CreateInput struct {
	UserID  string
	OrderID string
	Type    string
	Title   string
	Message string
}

// Create はAPI経由で通知を作成する。
// 宛先が本人でない場合は管理者のみ許可する。
// 注文IDを指定する場合、その注文は宛先ユーザーのものでなければならない。
func (s *Service) Create(ctx context.Context, requesterID string, isAdmin bool, input CreateInput) (*model.Notification, error) {
	if input.UserID != requesterID && !isAdmin {
		return nil, model.NewForbiddenError("notification")
	}
	if input.Type == "" || input.Title == "" || input.Message == "" {
		return nil, model.NewValidationError("type, title and message are required")
	}
	if input.OrderID != "" {
		order, err := s.orders.FindByID(ctx, input.OrderID)
		if err != nil {
			return nil, fmt.Errorf("注文の取得に失敗しました: %w", err)
		}
		if order == nil {
			return nil, model.NewOrderNotFoundError()
		}
		if order.UserID != input.UserID {
			return nil, model.NewValidationError("order does not belong to the notification user")
		}
	}
	return s.Notify(ctx, input.UserID, input.OrderID, input.Type, input.Title, input.Message)
}

// Notify は通知を作成する。orderIDは空でもよい。
func (s *Service) Notify(ctx context.Context, userID, orderID, notificationType, title, message string) (*model.Notification, error) {
	n := &model.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		OrderID:   orderID,
		Type:      notificationType,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("通知の作成に失敗しました: %w", err)
	}
	return n, nil
}

// List はユーザーの通知一覧を返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Notification, error) {
	notifications, err := s.notificationRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("通知一覧の取得に失敗しました: %w", err)
	}
	return notifications, nil
}

// UnreadCount はユーザーの未読通知数を返す。
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("未読通知数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// MarkRead は通知を既読にする。所有者以外からの操作は未検出として扱う。
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	marked, err := s.notificationRepo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return fmt.Errorf("通知の既読化に失敗しました: %w", err)
	}
	if !marked {
		return model.NewNotificationNotFoundError()
	}
	return nil
}

// MarkAllRead はユーザーの全通知を既読にする。
func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.notificationRepo.MarkAllRead(ctx, userID); err != nil {
		return fmt.Errorf("通知の一括既読化に失敗しました: %w", err)
	}
	return nil
}
