package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/stitchworks/uniform-order-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindAll(ctx context.Context) ([]model.CatalogEntry, error) {
	var entries []model.CatalogEntry
	query := `
        SELECT id, level, product_type, size, unit_price
        FROM catalog_entries
        ORDER BY level, product_type, size
    `
	err := r.DB.SelectContext(ctx, &entries, query)
	if err != nil {
		return nil, err
	}
	return entries, nil
}
