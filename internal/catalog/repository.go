package catalog

import (
	"context"

	"github.com/stitchworks/uniform-order-service/internal/model"
)

type Repository interface {
	// FindAll returns the full applicable catalog feed.
	FindAll(ctx context.Context) ([]model.CatalogEntry, error)
}
