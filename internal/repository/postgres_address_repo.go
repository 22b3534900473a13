package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tajdo/backend/internal/model"
)

// PostgresAddressRepo はPostgreSQLを使用した住所リポジトリ。
type PostgresAddressRepo struct {
	db *sql.DB
}

// NewPostgresAddressRepo はPostgresAddressRepoを生成する。
func NewPostgresAddressRepo(db *sql.DB) *PostgresAddressRepo {
	return &PostgresAddressRepo{db: db}
}

const addressColumns = `id, user_id, label, line1, line2, city, state, postal_code, country, is_default, created_at`

func scanAddress(row interface{ Scan(...any) error }) (*model.Address, error) {
	a := &model.Address{}
	err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.Line1, &a.Line2,
		&a.City, &a.State, &a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// FindByID は指定IDの住所を取得する。見つからない場合はnilを返す。
func (r *PostgresAddressRepo) FindByID(ctx context.Context, id string) (*model.Address, error) {
	a, err := scanAddress(r.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find address by ID: %w", err)
	}
	return a, nil
}

// ListByUserID はユーザーの住所一覧をデフォルト優先で返す。
func (r *PostgresAddressRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Address, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses
		 WHERE user_id = $1
		 ORDER BY is_default DESC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer rows.Close()

	var addresses []*model.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate addresses: %w", err)
	}
	return addresses, nil
}

// Create は住所を作成する。IsDefaultがtrueの場合、
// 同一ユーザーの既存デフォルトを同一トランザクションで解除する。
func (r *PostgresAddressRepo) Create(ctx context.Context, address *model.Address) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if address.IsDefault {
		if _, err := tx.ExecContext(ctx,
			`UPDATE addresses SET is_default = FALSE WHERE user_id = $1`,
			address.UserID,
		); err != nil {
			return fmt.Errorf("failed to clear default addresses: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO addresses (id, user_id, label, line1, line2, city, state, postal_code, country, is_default, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		address.ID, address.UserID, address.Label, address.Line1, address.Line2,
		address.City, address.State, address.PostalCode, address.Country,
		address.IsDefault, address.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert address: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Update は住所を更新する。IsDefaultがtrueの場合、
// 他の住所のデフォルトを同一トランザクションで解除する。
func (r *PostgresAddressRepo) Update(ctx context.Context, address *model.Address) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if address.IsDefault {
		if _, err := tx.ExecContext(ctx,
			`UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND id <> $2`,
			address.UserID, address.ID,
		); err != nil {
			return fmt.Errorf("failed to clear default addresses: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE addresses
		 SET label = $2, line1 = $3, line2 = $4, city = $5, state = $6,
		     postal_code = $7, country = $8, is_default = $9
		 WHERE id = $1`,
		address.ID, address.Label, address.Line1, address.Line2, address.City,
		address.State, address.PostalCode, address.Country, address.IsDefault,
	)
	if err != nil {
		return fmt.Errorf("failed to update address: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete は指定IDの住所を削除する。
func (r *PostgresAddressRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM addresses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("address not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ AddressRepository = (*PostgresAddressRepo)(nil)
