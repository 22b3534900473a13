package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresWishlistRepo はPostgreSQLを使用したウィッシュリストリポジトリ。
type PostgresWishlistRepo struct {
	db *sql.DB
}

// NewPostgresWishlistRepo はPostgresWishlistRepoを生成する。
func NewPostgresWishlistRepo(db *sql.DB) *PostgresWishlistRepo {
	return &PostgresWishlistRepo{db: db}
}

// ListByUserID はユーザーのウィッシュリストを商品情報付きで返す。
func (r *PostgresWishlistRepo) ListByUserID(ctx context.Context, userID string) ([]WishlistEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT w.user_id, w.product_id, w.created_at,
		        p.id, p.sku, p.name, p.description, p.price_cents, p.original_price_cents,
		        p.category_id, p.image_url, p.rating_x10, p.review_count, p.badge, p.material,
		        p.color, p.group_id, p.in_stock, p.shipping_days,
		        p.manufacturing_cost_cents, p.transport_cost_cents, p.created_at, p.updated_at
		 FROM wishlists w
		 JOIN products p ON p.id = w.product_id
		 WHERE w.user_id = $1
		 ORDER BY w.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	defer rows.Close()

	var entries []WishlistEntry
	for rows.Next() {
		var e WishlistEntry
		p := &e.Product
		if err := rows.Scan(&e.UserID, &e.ProductID, &e.CreatedAt,
			&p.ID, &p.SKU, &p.Name, &p.Description, &p.PriceCents, &p.OriginalPriceCents,
			&p.CategoryID, &p.ImageURL, &p.RatingX10, &p.ReviewCount, &p.Badge, &p.Material,
			&p.Color, &p.GroupID, &p.InStock, &p.ShippingDays,
			&p.ManufacturingCostCents, &p.TransportCostCents, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wishlist: %w", err)
	}
	return entries, nil
}

// Add は商品をウィッシュリストに追加する。既に存在する場合は何もしない。
func (r *PostgresWishlistRepo) Add(ctx context.Context, userID, productID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO wishlists (user_id, product_id, created_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id, product_id) DO NOTHING`,
		userID, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to add wishlist item: %w", err)
	}
	return nil
}

// Remove は商品をウィッシュリストから削除する。削除した場合はtrueを返す。
func (r *PostgresWishlistRepo) Remove(ctx context.Context, userID, productID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM wishlists WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ WishlistRepository = (*PostgresWishlistRepo)(nil)
