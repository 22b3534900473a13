package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tajdo/backend/internal/model"
)

// PostgresSupplierRepo はPostgreSQLを使用した仕入先リポジトリ。
type PostgresSupplierRepo struct {
	db *sql.DB
}

// NewPostgresSupplierRepo はPostgresSupplierRepoを生成する。
func NewPostgresSupplierRepo(db *sql.DB) *PostgresSupplierRepo {
	return &PostgresSupplierRepo{db: db}
}

const supplierColumns = `id, name, type, location, contact_email, contact_phone, default_lead_time, notes, created_at`

func scanSupplier(row interface{ Scan(...any) error }) (*model.Supplier, error) {
	s := &model.Supplier{}
	err := row.Scan(&s.ID, &s.Name, &s.Type, &s.Location, &s.ContactEmail,
		&s.ContactPhone, &s.DefaultLeadTime, &s.Notes, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// FindByID は指定IDの仕入先を取得する。見つからない場合はnilを返す。
func (r *PostgresSupplierRepo) FindByID(ctx context.Context, id string) (*model.Supplier, error) {
	s, err := scanSupplier(r.db.QueryRowContext(ctx,
		`SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find supplier by ID: %w", err)
	}
	return s, nil
}

// List は全仕入先を名前昇順で返す。
func (r *PostgresSupplierRepo) List(ctx context.Context) ([]*model.Supplier, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+supplierColumns+` FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []*model.Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate suppliers: %w", err)
	}
	return suppliers, nil
}

// Create は仕入先を作成する。
func (r *PostgresSupplierRepo) Create(ctx context.Context, s *model.Supplier) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO suppliers (id, name, type, location, contact_email, contact_phone, default_lead_time, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.Name, s.Type, s.Location, s.ContactEmail, s.ContactPhone,
		s.DefaultLeadTime, s.Notes, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert supplier: %w", err)
	}
	return nil
}

// Update は仕入先を更新する。
func (r *PostgresSupplierRepo) Update(ctx context.Context, s *model.Supplier) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE suppliers
		 SET name = $2, type = $3, location = $4, contact_email = $5,
		     contact_phone = $6, default_lead_time = $7, notes = $8
		 WHERE id = $1`,
		s.ID, s.Name, s.Type, s.Location, s.ContactEmail, s.ContactPhone,
		s.DefaultLeadTime, s.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to update supplier: %w", err)
	}
	return nil
}

const supplierOrderColumns = `id, order_number, supplier_id, customer_order_id, status, total_cost_cents,
	currency, estimated_delivery_days, tracking_number, notes, created_at,
	confirmed_at, in_production_at, shipped_at, received_at`

func scanSupplierOrder(row interface{ Scan(...any) error }) (*model.SupplierOrder, error) {
	o := &model.SupplierOrder{}
	var customerOrderID sql.NullString
	err := row.Scan(&o.ID, &o.OrderNumber, &o.SupplierID, &customerOrderID, &o.Status,
		&o.TotalCostCents, &o.Currency, &o.EstimatedDeliveryDays, &o.TrackingNumber,
		&o.Notes, &o.CreatedAt, &o.ConfirmedAt, &o.InProductionAt, &o.ShippedAt, &o.ReceivedAt)
	if err != nil {
		return nil, err
	}
	o.CustomerOrderID = customerOrderID.String
	return o, nil
}

// CreateOrder は仕入発注を発注行とともに同一トランザクションで作成する。
func (r *PostgresSupplierRepo) CreateOrder(ctx context.Context, order *model.SupplierOrder, items []model.SupplierOrderItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO supplier_orders (id, order_number, supplier_id, customer_order_id, status,
		 total_cost_cents, currency, estimated_delivery_days, tracking_number, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		order.ID, order.OrderNumber, order.SupplierID, nullString(order.CustomerOrderID),
		order.Status, order.TotalCostCents, order.Currency, order.EstimatedDeliveryDays,
		order.TrackingNumber, order.Notes, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert supplier order: %w", err)
	}

	for _, item := range items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO supplier_order_items (id, supplier_order_id, product_id, product_name, quantity, unit_cost_cents)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID, order.ID, item.ProductID, item.ProductName, item.Quantity, item.UnitCostCents,
		)
		if err != nil {
			return fmt.Errorf("failed to insert supplier order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// FindOrderByID は指定IDの仕入発注を発注行付きで取得する。見つからない場合はnilを返す。
func (r *PostgresSupplierRepo) FindOrderByID(ctx context.Context, id string) (*model.SupplierOrder, error) {
	order, err := scanSupplierOrder(r.db.QueryRowContext(ctx,
		`SELECT `+supplierOrderColumns+` FROM supplier_orders WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find supplier order by ID: %w", err)
	}
	return order, nil
}

// ListOrders は仕入発注一覧を作成日時降順で返す。supplierIDが空なら全件。
func (r *PostgresSupplierRepo) ListOrders(ctx context.Context, supplierID string) ([]*model.SupplierOrder, error) {
	query := `SELECT ` + supplierOrderColumns + ` FROM supplier_orders`
	var args []any
	if supplierID != "" {
		query += ` WHERE supplier_id = $1`
		args = append(args, supplierID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list supplier orders: %w", err)
	}
	defer rows.Close()

	var orders []*model.SupplierOrder
	for rows.Next() {
		o, err := scanSupplierOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan supplier order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate supplier orders: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus は仕入発注のステータスを更新し、対応するタイムスタンプ列を設定する。
func (r *PostgresSupplierRepo) UpdateOrderStatus(ctx context.Context, id, status, trackingNumber string) error {
	// ステータス到達時刻の列名。対応しないステータスはステータスのみ更新する。
	var tsColumn string
	switch status {
	case "confirmed":
		tsColumn = "confirmed_at"
	case "in_production":
		tsColumn = "in_production_at"
	case "shipped":
		tsColumn = "shipped_at"
	case "received":
		tsColumn = "received_at"
	}

	query := `UPDATE supplier_orders SET status = $2`
	args := []any{id, status}
	if tsColumn != "" {
		query += `, ` + tsColumn + ` = now()`
	}
	if trackingNumber != "" {
		args = append(args, trackingNumber)
		query += fmt.Sprintf(`, tracking_number = $%d`, len(args))
	}
	query += ` WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update supplier order status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("supplier order not found: %s", id)
	}
	return nil
}

// CreatePayment は仕入先への支払いを記録する。
func (r *PostgresSupplierRepo) CreatePayment(ctx context.Context, p *model.SupplierPayment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO supplier_payments (id, supplier_id, supplier_order_id, amount_cents, currency, method, reference, paid_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.SupplierID, nullString(p.SupplierOrderID), p.AmountCents,
		p.Currency, p.Method, p.Reference, p.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert supplier payment: %w", err)
	}
	return nil
}

// ListPayments は仕入先への支払い一覧を支払日降順で返す。supplierIDが空なら全件。
func (r *PostgresSupplierRepo) ListPayments(ctx context.Context, supplierID string) ([]*model.SupplierPayment, error) {
	query := `SELECT id, supplier_id, supplier_order_id, amount_cents, currency, method, reference, paid_at
	          FROM supplier_payments`
	var args []any
	if supplierID != "" {
		query += ` WHERE supplier_id = $1`
		args = append(args, supplierID)
	}
	query += ` ORDER BY paid_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list supplier payments: %w", err)
	}
	defer rows.Close()

	var payments []*model.SupplierPayment
	for rows.Next() {
		p := &model.SupplierPayment{}
		var supplierOrderID sql.NullString
		if err := rows.Scan(&p.ID, &p.SupplierID, &supplierOrderID, &p.AmountCents,
			&p.Currency, &p.Method, &p.Reference, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("failed to scan supplier payment: %w", err)
		}
		p.SupplierOrderID = supplierOrderID.String
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate supplier payments: %w", err)
	}
	return payments, nil
}

// compile-time interface check
var _ SupplierRepository = (*PostgresSupplierRepo)(nil)
