// Package support は苦情・返品リクエストのドメインロジックを提供する。
package support

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tajdo/backend/internal/model"
	"github.com/tajdo/backend/internal/repository"
	"github.com/tajdo/backend/internal/security"
)

// 苦情・返品の初期ステータス
const (
	ComplaintStatusOpen   = "open"
	ReturnStatusRequested = "requested"
)

// Service はカスタマーサポートのサービス層。
type Service struct {
	complaintRepo repository.ComplaintRepository
	returnRepo    repository.ReturnRepository
	orderRepo     repository.OrderRepository
	sanitizer     *security.Sanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	complaintRepo repository.ComplaintRepository,
	returnRepo repository.ReturnRepository,
	orderRepo repository.OrderRepository,
	sanitizer *security.Sanitizer,
) *Service {
	return &Service{
		complaintRepo: complaintRepo,
		returnRepo:    returnRepo,
		orderRepo:     orderRepo,
		sanitizer:     sanitizer,
	}
}

// ComplaintInput は苦情作成の入力。OrderIDは空でもよい。
type ComplaintInput struct {
	OrderID string
	Subject string
	Message string
}

// CreateComplaint は苦情を作成する。
// 注文IDが指定された場合は存在と所有者を検証する。
func (s *Service) CreateComplaint(ctx context.Context, userID string, input ComplaintInput) (*model.Complaint, error) {
	if input.OrderID != "" {
		order, err := s.orderRepo.FindByID(ctx, input.OrderID)
		if err != nil {
			return nil, fmt.Errorf("注文の取得に失敗しました: %w", err)
		}
		if order == nil {
			return nil, model.NewOrderNotFoundError()
		}
		if order.UserID != userID {
			return nil, model.NewOrderUserMismatchError()
		}
	}

	now := time.Now()
	complaint := &model.Complaint{
		ID:        uuid.NewString(),
		UserID:    userID,
		OrderID:   input.OrderID,
		Subject:   s.sanitizer.Clean(input.Subject),
		Message:   s.sanitizer.Clean(input.Message),
		Status:    ComplaintStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.complaintRepo.Create(ctx, complaint); err != nil {
		return nil, fmt.Errorf("苦情の作成に失敗しました: %w", err)
	}
	return complaint, nil
}

// ListUserComplaints は指定ユーザーの苦情一覧を返す。本人または管理者のみ。
func (s *Service) ListUserComplaints(ctx context.Context, requesterID string, isAdmin bool, targetUserID string) ([]*model.Complaint, error) {
	if targetUserID != requesterID && !isAdmin {
		return nil, model.NewForbiddenError("complaint")
	}
	complaints, err := s.complaintRepo.ListByUserID(ctx, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("苦情一覧の取得に失敗しました: %w", err)
	}
	return complaints, nil
}

// ListAllComplaints は全苦情を返す。管理者用。
func (s *Service) ListAllComplaints(ctx context.Context) ([]*model.Complaint, error) {
	complaints, err := s.complaintRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("苦情一覧の取得に失敗しました: %w", err)
	}
	return complaints, nil
}

// ResolveComplaint は苦情のステータスと解決コメントを更新する。管理者用。
func (s *Service) ResolveComplaint(ctx context.Context, complaintID, status, resolution string) (*model.Complaint, error) {
	complaint, err := s.complaintRepo.FindByID(ctx, complaintID)
	if err != nil {
		return nil, fmt.Errorf("苦情の取得に失敗しました: %w", err)
	}
	if complaint == nil {
		return nil, model.NewValidationError("complaint not found")
	}
	if err := s.complaintRepo.UpdateStatus(ctx, complaintID, status, s.sanitizer.Clean(resolution)); err != nil {
		return nil, fmt.Errorf("苦情の更新に失敗しました: %w", err)
	}
	complaint.Status = status
	complaint.Resolution = resolution
	return complaint, nil
}

// ReturnInput は返品リクエスト作成の入力。
type ReturnInput struct {
	OrderID string
	Reason  string
}

// CreateReturn は返品リクエストを作成する。
// 注文の存在と所有者を検証する。
func (s *Service) CreateReturn(ctx context.Context, userID string, input ReturnInput) (*model.Return, error) {
	order, err := s.orderRepo.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, fmt.Errorf("注文の取得に失敗しました: %w", err)
	}
	if order == nil {
		return nil, model.NewOrderNotFoundError()
	}
	if order.UserID != userID {
		return nil, model.NewOrderUserMismatchError()
	}

	now := time.Now()
	ret := &model.Return{
		ID:        uuid.NewString(),
		OrderID:   input.OrderID,
		UserID:    userID,
		Reason:    s.sanitizer.Clean(input.Reason),
		Status:    ReturnStatusRequested,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.returnRepo.Create(ctx, ret); err != nil {
		return nil, fmt.Errorf("返品リクエストの作成に失敗しました: %w", err)
	}
	return ret, nil
}

// ListUserReturns は指定ユーザーの返品リクエスト一覧を返す。本人または管理者のみ。
func (s *Service) ListUserReturns(ctx context.Context, requesterID string, isAdmin bool, targetUserID string) ([]*model.Return, error) {
	if targetUserID != requesterID && !isAdmin {
		return nil, model.NewForbiddenError("return")
	}
	returns, err := s.returnRepo.ListByUserID(ctx, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("返品リクエスト一覧の取得に失敗しました: %w", err)
	}
	return returns, nil
}

// ListAllReturns は全返品リクエストを返す。管理者用。
func (s *Service) ListAllReturns(ctx context.Context) ([]*model.Return, error) {
	returns, err := s.returnRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("返品リクエスト一覧の取得に失敗しました: %w", err)
	}
	return returns, nil
}

// UpdateReturn は返品のステータス・返金額・備考を更新する。管理者用。
func (s *Service) UpdateReturn(ctx context.Context, returnID, status string, refundAmountCents int64, notes string) (*model.Return, error) {
	ret, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		return nil, fmt.Errorf("返品リクエストの取得に失敗しました: %w", err)
	}
	if ret == nil {
		return nil, model.NewValidationError("return not found")
	}
	if err := s.returnRepo.UpdateStatus(ctx, returnID, status, refundAmountCents, s.sanitizer.Clean(notes)); err != nil {
		return nil, fmt.Errorf("返品リクエストの更新に失敗しました: %w", err)
	}
	ret.Status = status
	ret.RefundAmountCents = refundAmountCents
	ret.Notes = notes
	return ret, nil
}
