package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/stockkeep/apiserver/types"
)

// ProductRepository handles persistence for products. Every method takes the
// owner id and folds it into the statement's WHERE clause, so a product owned
// by someone else behaves exactly like a missing one.
type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ProductRepository) List(ctx context.Context, ownerID int) ([]types.Product, error) {
	const query = `
		SELECT id, name, category, price, quantity, description, user_id, created_at
		FROM products
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]types.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) Get(ctx context.Context, ownerID, id int) (types.Product, error) {
	const query = `
		SELECT id, name, category, price, quantity, description, user_id, created_at
		FROM products
		WHERE id = $1 AND user_id = $2`
	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Product{}, ErrNotFound
		}
		return types.Product{}, err
	}
	return product, nil
}

// Create inserts a product for ownerID and returns the row as stored, so
// NUMERIC rounding of the price is visible to the caller.
func (r *ProductRepository) Create(ctx context.Context, ownerID int, in types.ProductInput) (types.Product, error) {
	const query = `
		INSERT INTO products (name, category, price, quantity, description, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, name, category, price, quantity, description, user_id, created_at`
	return scanProduct(r.db.QueryRowContext(
		ctx,
		query,
		in.Name,
		in.Category,
		in.Price,
		in.Quantity,
		in.Description,
		ownerID,
		time.Now().UTC(),
	))
}

// Update rewrites the editable fields of a product the owner holds.
// Identity and ownership are checked by the same statement that writes.
func (r *ProductRepository) Update(ctx context.Context, ownerID, id int, in types.ProductInput) (types.Product, error) {
	const query = `
		UPDATE products
		SET name = $1,
			category = $2,
			price = $3,
			quantity = $4,
			description = $5
		WHERE id = $6 AND user_id = $7
		RETURNING id, name, category, price, quantity, description, user_id, created_at`
	product, err := scanProduct(r.db.QueryRowContext(
		ctx,
		query,
		in.Name,
		in.Category,
		in.Price,
		in.Quantity,
		in.Description,
		id,
		ownerID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Product{}, ErrNotFound
		}
		return types.Product{}, err
	}
	return product, nil
}

func (r *ProductRepository) Delete(ctx context.Context, ownerID, id int) error {
	const query = `DELETE FROM products WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Statistics aggregates only the owner's rows.
func (r *ProductRepository) Statistics(ctx context.Context, ownerID int) (types.Statistics, error) {
	const query = `
		SELECT
			COUNT(*),
			COALESCE(SUM(price * quantity), 0),
			COUNT(*) FILTER (WHERE quantity < $2),
			COUNT(*) FILTER (WHERE quantity >= $2)
		FROM products
		WHERE user_id = $1`
	var stats types.Statistics
	if err := r.db.QueryRowContext(ctx, query, ownerID, types.LowStockThreshold).Scan(
		&stats.TotalProducts,
		&stats.TotalValue,
		&stats.LowStock,
		&stats.InStock,
	); err != nil {
		return types.Statistics{}, err
	}
	return stats, nil
}

func scanProduct(row rowScanner) (types.Product, error) {
	var product types.Product
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Category,
		&product.Price,
		&product.Quantity,
		&product.Description,
		&product.UserID,
		&product.CreatedAt,
	)
	return product, err
}
