package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tajdo/backend/internal/model"
)

// PostgresComplaintRepo はPostgreSQLを使用した苦情リポジトリ。
type PostgresComplaintRepo struct {
	db *sql.DB
}

// NewPostgresComplaintRepo はPostgresComplaintRepoを生成する。
func NewPostgresComplaintRepo(db *sql.DB) *PostgresComplaintRepo {
	return &PostgresComplaintRepo{db: db}
}

const complaintColumns = `id, user_id, order_id, subject, message, status, resolution, created_at, updated_at`

func scanComplaint(row interface{ Scan(...any) error }) (*model.Complaint, error) {
	c := &model.Complaint{}
	var orderID sql.NullString
	err := row.Scan(&c.ID, &c.UserID, &orderID, &c.Subject, &c.Message,
		&c.Status, &c.Resolution, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.OrderID = orderID.String
	return c, nil
}

// Create は苦情を作成する。
func (r *PostgresComplaintRepo) Create(ctx context.Context, c *model.Complaint) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO complaints (id, user_id, order_id, subject, message, status, resolution, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.UserID, nullString(c.OrderID), c.Subject, c.Message,
		c.Status, c.Resolution, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert complaint: %w", err)
	}
	return nil
}

// FindByID は指定IDの苦情を取得する。見つからない場合はnilを返す。
func (r *PostgresComplaintRepo) FindByID(ctx context.Context, id string) (*model.Complaint, error) {
	c, err := scanComplaint(r.db.QueryRowContext(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find complaint by ID: %w", err)
	}
	return c, nil
}

func (r *PostgresComplaintRepo) queryComplaints(ctx context.Context, query string, args ...any) ([]*model.Complaint, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query complaints: %w", err)
	}
	defer rows.Close()

	var complaints []*model.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan complaint: %w", err)
		}
		complaints = append(complaints, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate complaints: %w", err)
	}
	return complaints, nil
}

// ListByUserID はユーザーの苦情一覧を作成日時降順で返す。
func (r *PostgresComplaintRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Complaint, error) {
	return r.queryComplaints(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
}

// List は全苦情を作成日時降順で返す。
func (r *PostgresComplaintRepo) List(ctx context.Context) ([]*model.Complaint, error) {
	return r.queryComplaints(ctx,
		`SELECT `+complaintColumns+` FROM complaints ORDER BY created_at DESC`)
}

// UpdateStatus は苦情のステータスと解決コメントを更新する。
func (r *PostgresComplaintRepo) UpdateStatus(ctx context.Context, id, status, resolution string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE complaints SET status = $2, resolution = $3, updated_at = now() WHERE id = $1`,
		id, status, resolution,
	)
	if err != nil {
		return fmt.Errorf("failed to update complaint: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("complaint not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ ComplaintRepository = (*PostgresComplaintRepo)(nil)

// PostgresReturnRepo はPostgreSQLを使用した返品リポジトリ。
type PostgresReturnRepo struct {
	db *sql.DB
}

// NewPostgresReturnRepo はPostgresReturnRepoを生成する。
func NewPostgresReturnRepo(db *sql.DB) *PostgresReturnRepo {
	return &PostgresReturnRepo{db: db}
}

const returnColumns = `id, order_id, user_id, reason, status, refund_amount_cents, notes, created_at, updated_at`

func scanReturn(row interface{ Scan(...any) error }) (*model.Return, error) {
	ret := &model.Return{}
	err := row.Scan(&ret.ID, &ret.OrderID, &ret.UserID, &ret.Reason, &ret.Status,
		&ret.RefundAmountCents, &ret.Notes, &ret.CreatedAt, &ret.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Create は返品リクエストを作成する。
func (r *PostgresReturnRepo) Create(ctx context.Context, ret *model.Return) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO returns (id, order_id, user_id, reason, status, refund_amount_cents, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ret.ID, ret.OrderID, ret.UserID, ret.Reason, ret.Status,
		ret.RefundAmountCents, ret.Notes, ret.CreatedAt, ret.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert return: %w", err)
	}
	return nil
}

// FindByID は指定IDの返品リクエストを取得する。見つからない場合はnilを返す。
func (r *PostgresReturnRepo) FindByID(ctx context.Context, id string) (*model.Return, error) {
	ret, err := scanReturn(r.db.QueryRowContext(ctx,
		`SELECT `+returnColumns+` FROM returns WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find return by ID: %w", err)
	}
	return ret, nil
}

func (r *PostgresReturnRepo) queryReturns(ctx context.Context, query string, args ...any) ([]*model.Return, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query returns: %w", err)
	}
	defer rows.Close()

	var returns []*model.Return
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan return: %w", err)
		}
		returns = append(returns, ret)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate returns: %w", err)
	}
	return returns, nil
}

// ListByUserID はユーザーの返品リクエスト一覧を作成日時降順で返す。
func (r *PostgresReturnRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Return, error) {
	return r.queryReturns(ctx,
		`SELECT `+returnColumns+` FROM returns WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
}

// List は全返品リクエストを作成日時降順で返す。
func (r *PostgresReturnRepo) List(ctx context.Context) ([]*model.Return, error) {
	return r.queryReturns(ctx,
		`SELECT `+returnColumns+` FROM returns ORDER BY created_at DESC`)
}

// UpdateStatus は返品のステータス・返金額・備考を更新する。
func (r *PostgresReturnRepo) UpdateStatus(ctx context.Context, id, status string, refundAmountCents int64, notes string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE returns SET status = $2, refund_amount_cents = $3, notes = $4, updated_at = now() WHERE id = $1`,
		id, status, refundAmountCents, notes,
	)
	if err != nil {
		return fmt.Errorf("failed to update return: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("return not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ ReturnRepository = (*PostgresReturnRepo)(nil)
