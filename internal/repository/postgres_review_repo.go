package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tajdo/backend/internal/model"
)

// PostgresReviewRepo はPostgreSQLを使用したレビューリポジトリ。
type PostgresReviewRepo struct {
	db *sql.DB
}

// NewPostgresReviewRepo はPostgresReviewRepoを生成する。
func NewPostgresReviewRepo(db *sql.DB) *PostgresReviewRepo {
	return &PostgresReviewRepo{db: db}
}

// Create はレビューを作成する。
func (r *PostgresReviewRepo) Create(ctx context.Context, review *model.Review) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (id, product_id, user_id, rating, title, body, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		review.ID, review.ProductID, review.UserID, review.Rating,
		review.Title, review.Body, review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

// FindByUserAndProduct はユーザー・商品の組でレビューを検索する。見つからない場合はnilを返す。
func (r *PostgresReviewRepo) FindByUserAndProduct(ctx context.Context, userID, productID string) (*model.Review, error) {
	review := &model.Review{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, product_id, user_id, rating, title, body, created_at
		 FROM reviews WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	).Scan(&review.ID, &review.ProductID, &review.UserID, &review.Rating,
		&review.Title, &review.Body, &review.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find review: %w", err)
	}
	return review, nil
}

// ListByProductID は商品のレビュー一覧を投稿者名付き・作成日時降順で返す。
func (r *PostgresReviewRepo) ListByProductID(ctx context.Context, productID string) ([]ReviewEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.product_id, r.user_id, r.rating, r.title, r.body, r.created_at, u.full_name
		 FROM reviews r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.product_id = $1
		 ORDER BY r.created_at DESC`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var entries []ReviewEntry
	for rows.Next() {
		var e ReviewEntry
		if err := rows.Scan(&e.ID, &e.ProductID, &e.UserID, &e.Rating,
			&e.Title, &e.Body, &e.CreatedAt, &e.AuthorName); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}
	return entries, nil
}

// List は全レビューを投稿者名付き・作成日時降順で返す。
func (r *PostgresReviewRepo) List(ctx context.Context) ([]ReviewEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.product_id, r.user_id, r.rating, r.title, r.body, r.created_at, u.full_name
		 FROM reviews r
		 JOIN users u ON u.id = r.user_id
		 ORDER BY r.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var entries []ReviewEntry
	for rows.Next() {
		var e ReviewEntry
		if err := rows.Scan(&e.ID, &e.ProductID, &e.UserID, &e.Rating,
			&e.Title, &e.Body, &e.CreatedAt, &e.AuthorName); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}
	return entries, nil
}

// FindByID は指定IDのレビューを取得する。見つからない場合はnilを返す。
func (r *PostgresReviewRepo) FindByID(ctx context.Context, id string) (*model.Review, error) {
	review := &model.Review{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, product_id, user_id, rating, title, body, created_at
		 FROM reviews WHERE id = $1`,
		id,
	).Scan(&review.ID, &review.ProductID, &review.UserID, &review.Rating,
		&review.Title, &review.Body, &review.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find review: %w", err)
	}
	return review, nil
}

// Delete は指定IDのレビューを削除する。
func (r *PostgresReviewRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

// AggregateByProductID は商品の平均評価（10倍整数）とレビュー数を返す。
// レビューが存在しない場合は (0, 0) を返す。
func (r *PostgresReviewRepo) AggregateByProductID(ctx context.Context, productID string) (int, int, error) {
	var ratingX10, count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(ROUND(AVG(rating) * 10), 0), COUNT(*)
		 FROM reviews WHERE product_id = $1`,
		productID,
	).Scan(&ratingX10, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate reviews: %w", err)
	}
	return ratingX10, count, nil
}

// compile-time interface check
var _ ReviewRepository = (*PostgresReviewRepo)(nil)
