package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tajdo/backend/internal/model"
)

// PostgresOrderRepo はPostgreSQLを使用した注文リポジトリ。
type PostgresOrderRepo struct {
	db *sql.DB
}

// NewPostgresOrderRepo はPostgresOrderRepoを生成する。
func NewPostgresOrderRepo(db *sql.DB) *PostgresOrderRepo {
	return &PostgresOrderRepo{db: db}
}

const orderColumns = `id, order_number, user_id, shipping_address_id, status, subtotal_cents,
	shipping_cents, tax_cents, total_cents, currency, payment_method, payment_intent_id,
	notes, tracking_number, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*model.Order, error) {
	o := &model.Order{}
	var shippingAddressID sql.NullString
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &shippingAddressID, &o.Status,
		&o.SubtotalCents, &o.ShippingCents, &o.TaxCents, &o.TotalCents, &o.Currency,
		&o.PaymentMethod, &o.PaymentIntentID, &o.Notes, &o.TrackingNumber,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.ShippingAddressID = shippingAddressID.String
	return o, nil
}

// Create は注文・注文行・初期ステータス履歴・寄付レコードを
// 同一トランザクションで作成する。rescueはnil可。
func (r *PostgresOrderRepo) Create(ctx context.Context, order *model.Order, history *model.OrderStatusHistory, rescue *model.RescueContribution) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, order_number, user_id, shipping_address_id, status,
		 subtotal_cents, shipping_cents, tax_cents, total_cents, currency,
		 payment_method, payment_intent_id, notes, tracking_number, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		order.ID, order.OrderNumber, order.UserID, nullString(order.ShippingAddressID),
		order.Status, order.SubtotalCents, order.ShippingCents, order.TaxCents,
		order.TotalCents, order.Currency, order.PaymentMethod, order.PaymentIntentID,
		order.Notes, order.TrackingNumber, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, product_id, product_name, unit_price_cents,
			 quantity, total_cents, manufacturing_cost_cents, transport_cost_cents)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			item.ID, order.ID, item.ProductID, item.ProductName, item.UnitPriceCents,
			item.Quantity, item.TotalCents, item.ManufacturingCostCents, item.TransportCostCents,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if history != nil {
		if err := insertStatusHistory(ctx, tx, history); err != nil {
			return err
		}
	}

	if rescue != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO rescue_contributions (id, order_id, amount_cents, currency, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			rescue.ID, rescue.OrderID, rescue.AmountCents, rescue.Currency, rescue.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert rescue contribution: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertStatusHistory(ctx context.Context, tx *sql.Tx, h *model.OrderStatusHistory) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO order_status_history (id, order_id, old_status, new_status, note, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		h.ID, h.OrderID, h.OldStatus, h.NewStatus, h.Note, h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order status history: %w", err)
	}
	return nil
}

func (r *PostgresOrderRepo) loadItems(ctx context.Context, order *model.Order) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, product_name, unit_price_cents, quantity,
		        total_cents, manufacturing_cost_cents, transport_cost_cents
		 FROM order_items WHERE order_id = $1 ORDER BY product_name`,
		order.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.UnitPriceCents, &item.Quantity, &item.TotalCents,
			&item.ManufacturingCostCents, &item.TransportCostCents,
		); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate order items: %w", err)
	}
	return nil
}

func (r *PostgresOrderRepo) findOne(ctx context.Context, query string, arg any) (*model.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID は指定IDの注文を注文行付きで取得する。見つからない場合はnilを返す。
func (r *PostgresOrderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// FindByOrderNumber は注文番号で注文を注文行付きで検索する。見つからない場合はnilを返す。
func (r *PostgresOrderRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber)
}

// FindByPaymentIntentID は支払いインテントIDで注文を検索する。見つからない場合はnilを返す。
func (r *PostgresOrderRepo) FindByPaymentIntentID(ctx context.Context, intentID string) (*model.Order, error) {
	return r.findOne(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE payment_intent_id = $1
		 ORDER BY created_at DESC LIMIT 1`, intentID)
}

func (r *PostgresOrderRepo) queryOrders(ctx context.Context, query string, args ...any) ([]*model.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	for _, o := range orders {
		if err := r.loadItems(ctx, o); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// ListByUserID はユーザーの注文一覧を作成日時降順・注文行付きで返す。
func (r *PostgresOrderRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
}

// List は全注文を作成日時降順・注文行付きで返す。
func (r *PostgresOrderRepo) List(ctx context.Context) ([]*model.Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

// UpdateStatus は注文ステータスを更新し、履歴レコードを同一トランザクションで追加する。
// trackingNumberが空でなければ併せて設定する。
func (r *PostgresOrderRepo) UpdateStatus(ctx context.Context, orderID string, history *model.OrderStatusHistory, trackingNumber string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if trackingNumber != "" {
		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET status = $2, tracking_number = $3, updated_at = now() WHERE id = $1`,
			orderID, history.NewStatus, trackingNumber)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`,
			orderID, history.NewStatus)
	}
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if err := insertStatusHistory(ctx, tx, history); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListStatusHistory は注文のステータス履歴を時系列で返す。
func (r *PostgresOrderRepo) ListStatusHistory(ctx context.Context, orderID string) ([]*model.OrderStatusHistory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, old_status, new_status, note, created_at
		 FROM order_status_history WHERE order_id = $1 ORDER BY created_at`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list order status history: %w", err)
	}
	defer rows.Close()

	var history []*model.OrderStatusHistory
	for rows.Next() {
		h := &model.OrderStatusHistory{}
		if err := rows.Scan(&h.ID, &h.OrderID, &h.OldStatus, &h.NewStatus, &h.Note, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order status history: %w", err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order status history: %w", err)
	}
	return history, nil
}

// UpdatePaymentIntent は注文の支払いインテントIDと支払い方法を設定する。
func (r *PostgresOrderRepo) UpdatePaymentIntent(ctx context.Context, orderID, paymentIntentID, paymentMethod string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE orders SET payment_intent_id = $2, payment_method = $3, updated_at = now() WHERE id = $1`,
		orderID, paymentIntentID, paymentMethod,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment intent: %w", err)
	}
	return nil
}

// HasPurchasedProduct はユーザーが指定商品を含む注文を持つかを返す。
func (r *PostgresOrderRepo) HasPurchasedProduct(ctx context.Context, userID, productID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM orders o
		   JOIN order_items oi ON oi.order_id = o.id
		   WHERE o.user_id = $1 AND oi.product_id = $2
		 )`,
		userID, productID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check purchased product: %w", err)
	}
	return exists, nil
}

// FindRescueByOrderID は注文に紐づく寄付レコードを取得する。見つからない場合はnilを返す。
func (r *PostgresOrderRepo) FindRescueByOrderID(ctx context.Context, orderID string) (*model.RescueContribution, error) {
	c := &model.RescueContribution{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, order_id, amount_cents, currency, created_at
		 FROM rescue_contributions WHERE order_id = $1`,
		orderID,
	).Scan(&c.ID, &c.OrderID, &c.AmountCents, &c.Currency, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find rescue contribution: %w", err)
	}
	return c, nil
}

// ListRescueContributions は寄付レコードを作成日時降順で返す。
func (r *PostgresOrderRepo) ListRescueContributions(ctx context.Context) ([]*model.RescueContribution, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, amount_cents, currency, created_at
		 FROM rescue_contributions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rescue contributions: %w", err)
	}
	defer rows.Close()

	var contributions []*model.RescueContribution
	for rows.Next() {
		c := &model.RescueContribution{}
		if err := rows.Scan(&c.ID, &c.OrderID, &c.AmountCents, &c.Currency, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rescue contribution: %w", err)
		}
		contributions = append(contributions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rescue contributions: %w", err)
	}
	return contributions, nil
}

// SumRescueContributions は寄付総額（セント）を返す。
func (r *PostgresOrderRepo) SumRescueContributions(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM rescue_contributions`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum rescue contributions: %w", err)
	}
	return total, nil
}

// compile-time interface check
var _ OrderRepository = (*PostgresOrderRepo)(nil)
