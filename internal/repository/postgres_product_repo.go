package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/tajdo/backend/internal/model"
)

// PostgresProductRepo はPostgreSQLを使用した商品リポジトリ。
type PostgresProductRepo struct {
	db *sql.DB
}

// NewPostgresProductRepo はPostgresProductRepoを生成する。
func NewPostgresProductRepo(db *sql.DB) *PostgresProductRepo {
	return &PostgresProductRepo{db: db}
}

const productColumns = `id, sku, name, description, price_cents, original_price_cents, category_id,
	image_url, rating_x10, review_count, badge, material, color, group_id, in_stock,
	shipping_days, manufacturing_cost_cents, transport_cost_cents, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*model.Product, error) {
	p := &model.Product{}
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.PriceCents, &p.OriginalPriceCents,
		&p.CategoryID, &p.ImageURL, &p.RatingX10, &p.ReviewCount, &p.Badge, &p.Material,
		&p.Color, &p.GroupID, &p.InStock, &p.ShippingDays, &p.ManufacturingCostCents,
		&p.TransportCostCents, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostgresProductRepo) queryProducts(ctx context.Context, query string, args ...any) ([]*model.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return p, nil
}

// FindByIDs は指定ID群の商品を取得する。存在しないIDは結果に含まれない。
func (r *PostgresProductRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1)`,
		pq.Array(ids))
}

// List は条件に合致する商品一覧を作成日時降順で返す。
func (r *PostgresProductRepo) List(ctx context.Context, filter ProductFilter) ([]*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE TRUE`
	var args []any

	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND (name ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}
	if filter.InStock != nil {
		args = append(args, *filter.InStock)
		query += fmt.Sprintf(" AND in_stock = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return r.queryProducts(ctx, query, args...)
}

// ListByGroupID は同一バリエーショングループの商品を返す。
func (r *PostgresProductRepo) ListByGroupID(ctx context.Context, groupID string) ([]*model.Product, error) {
	return r.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE group_id = $1 ORDER BY name`,
		groupID)
}

// Create は商品を仕様・画像とともに同一トランザクションで作成する。
func (r *PostgresProductRepo) Create(ctx context.Context, product *model.Product, specs []model.ProductSpecification, images []model.ProductImage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO products (id, sku, name, description, price_cents, original_price_cents,
		 category_id, image_url, rating_x10, review_count, badge, material, color, group_id,
		 in_stock, shipping_days, manufacturing_cost_cents, transport_cost_cents, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		product.ID, product.SKU, product.Name, product.Description, product.PriceCents,
		product.OriginalPriceCents, product.CategoryID, product.ImageURL, product.RatingX10,
		product.ReviewCount, product.Badge, product.Material, product.Color, product.GroupID,
		product.InStock, product.ShippingDays, product.ManufacturingCostCents,
		product.TransportCostCents, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	if err := insertProductDetails(ctx, tx, product.ID, specs, images); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Update は商品を更新する。specs/imagesは全置換する。
func (r *PostgresProductRepo) Update(ctx context.Context, product *model.Product, specs []model.ProductSpecification, images []model.ProductImage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE products
		 SET sku = $2, name = $3, description = $4, price_cents = $5, original_price_cents = $6,
		     category_id = $7, image_url = $8, badge = $9, material = $10, color = $11,
		     group_id = $12, in_stock = $13, shipping_days = $14,
		     manufacturing_cost_cents = $15, transport_cost_cents = $16, updated_at = $17
		 WHERE id = $1`,
		product.ID, product.SKU, product.Name, product.Description, product.PriceCents,
		product.OriginalPriceCents, product.CategoryID, product.ImageURL, product.Badge,
		product.Material, product.Color, product.GroupID, product.InStock, product.ShippingDays,
		product.ManufacturingCostCents, product.TransportCostCents, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM product_specifications WHERE product_id = $1`, product.ID); err != nil {
		return fmt.Errorf("failed to delete product specifications: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM product_images WHERE product_id = $1`, product.ID); err != nil {
		return fmt.Errorf("failed to delete product images: %w", err)
	}
	if err := insertProductDetails(ctx, tx, product.ID, specs, images); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertProductDetails(ctx context.Context, tx *sql.Tx, productID string, specs []model.ProductSpecification, images []model.ProductImage) error {
	for _, s := range specs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO product_specifications (id, product_id, spec) VALUES ($1, $2, $3)`,
			s.ID, productID, s.Spec,
		); err != nil {
			return fmt.Errorf("failed to insert product specification: %w", err)
		}
	}
	for _, img := range images {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO product_images (id, product_id, url, alt_text, sort_order)
			 VALUES ($1, $2, $3, $4, $5)`,
			img.ID, productID, img.URL, img.AltText, img.SortOrder,
		); err != nil {
			return fmt.Errorf("failed to insert product image: %w", err)
		}
	}
	return nil
}

// Delete は指定IDの商品を削除する。
func (r *PostgresProductRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("product not found: %s", id)
	}
	return nil
}

// ListSpecifications は商品の仕様一覧を返す。
func (r *PostgresProductRepo) ListSpecifications(ctx context.Context, productID string) ([]model.ProductSpecification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, product_id, spec FROM product_specifications WHERE product_id = $1 ORDER BY id`,
		productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list product specifications: %w", err)
	}
	defer rows.Close()

	var specs []model.ProductSpecification
	for rows.Next() {
		var s model.ProductSpecification
		if err := rows.Scan(&s.ID, &s.ProductID, &s.Spec); err != nil {
			return nil, fmt.Errorf("failed to scan product specification: %w", err)
		}
		specs = append(specs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate product specifications: %w", err)
	}
	return specs, nil
}

// ListImages は商品の画像一覧をsort_order昇順で返す。
func (r *PostgresProductRepo) ListImages(ctx context.Context, productID string) ([]model.ProductImage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, product_id, url, alt_text, sort_order
		 FROM product_images WHERE product_id = $1 ORDER BY sort_order`,
		productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list product images: %w", err)
	}
	defer rows.Close()

	var images []model.ProductImage
	for rows.Next() {
		var img model.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.AltText, &img.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan product image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate product images: %w", err)
	}
	return images, nil
}

// UpdateRating はレビューから再計算した評価値を反映する。
func (r *PostgresProductRepo) UpdateRating(ctx context.Context, productID string, ratingX10, reviewCount int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE products SET rating_x10 = $2, review_count = $3, updated_at = now() WHERE id = $1`,
		productID, ratingX10, reviewCount,
	)
	if err != nil {
		return fmt.Errorf("failed to update product rating: %w", err)
	}
	return nil
}

// UpdateStock は在庫フラグを更新する。
func (r *PostgresProductRepo) UpdateStock(ctx context.Context, productID string, inStock bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE products SET in_stock = $2, updated_at = now() WHERE id = $1`,
		productID, inStock,
	)
	if err != nil {
		return fmt.Errorf("failed to update product stock: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ProductRepository = (*PostgresProductRepo)(nil)
