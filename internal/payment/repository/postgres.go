package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stitchworks/uniform-order-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CreateReceipt(ctx context.Context, receipt *model.Receipt) error {
	query := `
        INSERT INTO receipts (
            id, order_id, type, or_number, date_paid, amount,
            image_filename, image_content_type, image_data
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	var filename, contentType *string
	var data []byte
	if receipt.Image != nil {
		filename = &receipt.Image.Filename
		contentType = &receipt.Image.ContentType
		data = receipt.Image.Data
	}

	_, err := r.DB.ExecContext(ctx, query,
		receipt.ID, receipt.OrderID, receipt.Type, receipt.ORNumber,
		receipt.DatePaid, receipt.Amount, filename, contentType, data,
	)
	return err
}

func (r *PGRepository) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.DB.ExecContext(ctx, query, status, time.Now(), orderID)
	return err
}
