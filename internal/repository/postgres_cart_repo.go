package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresCartRepo はPostgreSQLを使用したカートリポジトリ。
type PostgresCartRepo struct {
	db *sql.DB
}

// NewPostgresCartRepo はPostgresCartRepoを生成する。
func NewPostgresCartRepo(db *sql.DB) *PostgresCartRepo {
	return &PostgresCartRepo{db: db}
}

// ListByUserID はユーザーのカートを商品情報付きで返す。
func (r *PostgresCartRepo) ListByUserID(ctx context.Context, userID string) ([]CartEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.user_id, c.product_id, c.quantity, c.created_at,
		        p.id, p.sku, p.name, p.description, p.price_cents, p.original_price_cents,
		        p.category_id, p.image_url, p.rating_x10, p.review_count, p.badge, p.material,
		        p.color, p.group_id, p.in_stock, p.shipping_days,
		        p.manufacturing_cost_cents, p.transport_cost_cents, p.created_at, p.updated_at
		 FROM cart_items c
		 JOIN products p ON p.id = c.product_id
		 WHERE c.user_id = $1
		 ORDER BY c.created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}
	defer rows.Close()

	var entries []CartEntry
	for rows.Next() {
		var e CartEntry
		p := &e.Product
		if err := rows.Scan(&e.UserID, &e.ProductID, &e.Quantity, &e.CreatedAt,
			&p.ID, &p.SKU, &p.Name, &p.Description, &p.PriceCents, &p.OriginalPriceCents,
			&p.CategoryID, &p.ImageURL, &p.RatingX10, &p.ReviewCount, &p.Badge, &p.Material,
			&p.Color, &p.GroupID, &p.InStock, &p.ShippingDays,
			&p.ManufacturingCostCents, &p.TransportCostCents, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cart entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart: %w", err)
	}
	return entries, nil
}

// Upsert はカートに商品を追加する。既に存在する場合は数量を加算する。
func (r *PostgresCartRepo) Upsert(ctx context.Context, userID, productID string, quantity int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cart_items (user_id, product_id, quantity, created_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (user_id, product_id)
		 DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		userID, productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return nil
}

// SetQuantity はカート行の数量を上書きする。行が存在しない場合はfalseを返す。
func (r *PostgresCartRepo) SetQuantity(ctx context.Context, userID, productID string, quantity int) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $3 WHERE user_id = $1 AND product_id = $2`,
		userID, productID, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update cart quantity: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Remove はカートから商品を削除する。行が存在しない場合はfalseを返す。
func (r *PostgresCartRepo) Remove(ctx context.Context, userID, productID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to remove cart item: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Clear はユーザーのカートを空にする。
func (r *PostgresCartRepo) Clear(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CartRepository = (*PostgresCartRepo)(nil)
