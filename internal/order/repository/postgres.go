package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/stitchworks/uniform-order-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, order *model.Order) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	orderQuery := `
        INSERT INTO orders (id, customer_name, level, status, created_at, updated_at)
        VALUES (:id, :customer_name, :level, :status, :created_at, :updated_at)
    `
	if _, err := tx.NamedExecContext(ctx, orderQuery, order); err != nil {
		return err
	}

	itemQuery := `
        INSERT INTO order_items (id, order_id, level, product_type, size, quantity, unit_price)
        VALUES (:id, :order_id, :level, :product_type, :size, :quantity, :unit_price)
    `
	for _, item := range order.Items {
		if _, err := tx.NamedExecContext(ctx, itemQuery, item); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	query := `SELECT id, customer_name, level, status, created_at, updated_at FROM orders WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &order, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	itemsQuery := `
        SELECT id, order_id, level, product_type, size, quantity, unit_price
        FROM order_items WHERE order_id = $1 ORDER BY id
    `
	if err := r.DB.SelectContext(ctx, &order.Items, itemsQuery, id); err != nil {
		return nil, err
	}

	// Image bytes stay out of the order view; only the amounts matter for
	// balance computation.
	receiptsQuery := `
        SELECT id, order_id, type, or_number, date_paid, amount
        FROM receipts WHERE order_id = $1 ORDER BY date_paid
    `
	if err := r.DB.SelectContext(ctx, &order.Receipts, receiptsQuery, id); err != nil {
		return nil, err
	}

	return &order, nil
}
