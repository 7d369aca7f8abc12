package catalog

import (
	"context"

	"github.com/stitchworks/uniform-order-service/internal/catalog/dto"
)

type UseCase interface {
	// Load populates the index, preferring the cached feed. Failure is a
	// blocking error: no valid selection is possible without a catalog.
	Load(ctx context.Context) error
	// Reload fetches a fresh feed and fully replaces the index.
	Reload(ctx context.Context) error

	ProductTypeOptions(level string) []string
	SizeOptions(level, productType string) []dto.Option
	ResolvePrice(level, productType, size string) (float64, bool)
}
