package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/stitchworks/uniform-order-service/internal/catalog"
	"github.com/stitchworks/uniform-order-service/internal/catalog/dto"
	"github.com/stitchworks/uniform-order-service/internal/model"
	"github.com/stitchworks/uniform-order-service/pkg/cache"
	"github.com/stitchworks/uniform-order-service/pkg/logger"
	"go.uber.org/zap"
)

const (
	feedCacheKey = "catalog:feed"
	feedCacheTTL = 5 * time.Minute
)

type catalogUseCase struct {
	repo   catalog.Repository
	cache  *cache.RedisClient
	logger logger.ZapLogger

	// Current index, swapped atomically on reload so lookups never block.
	index atomic.Pointer[catalog.Index]
}

func NewCatalogUseCase(repo catalog.Repository, cache *cache.RedisClient, log logger.ZapLogger) catalog.UseCase {
	return &catalogUseCase{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

func (uc *catalogUseCase) Load(ctx context.Context) error {
	if feed, ok := uc.cachedFeed(ctx); ok {
		uc.index.Store(catalog.NewIndex(feed))
		return nil
	}
	return uc.Reload(ctx)
}

func (uc *catalogUseCase) Reload(ctx context.Context) error {
	feed, err := uc.repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load catalog feed: %w", err)
	}

	// Full replacement, never an incremental merge. A stale catalog is
	// simply overwritten.
	uc.index.Store(catalog.NewIndex(feed))
	uc.logger.Info("catalog index rebuilt", zap.Int("entries", len(feed)))

	go uc.storeFeed(context.Background(), feed)

	return nil
}

func (uc *catalogUseCase) cachedFeed(ctx context.Context) ([]model.CatalogEntry, bool) {
	if uc.cache == nil {
		return nil, false
	}
	val, err := uc.cache.Client.Get(ctx, feedCacheKey).Result()
	if err != nil {
		return nil, false
	}
	var feed []model.CatalogEntry
	if err := json.Unmarshal([]byte(val), &feed); err != nil {
		return nil, false
	}
	return feed, true
}

func (uc *catalogUseCase) storeFeed(ctx context.Context, feed []model.CatalogEntry) {
	if uc.cache == nil {
		return
	}
	data, err := json.Marshal(feed)
	if err != nil {
		return
	}
	if err := uc.cache.Client.Set(ctx, feedCacheKey, data, feedCacheTTL).Err(); err != nil {
		uc.logger.Warn("failed to cache catalog feed", zap.Error(err))
	}
}

func (uc *catalogUseCase) ProductTypeOptions(level string) []string {
	return uc.index.Load().ProductTypeOptions(level)
}

func (uc *catalogUseCase) SizeOptions(level, productType string) []dto.Option {
	return uc.index.Load().SizeOptions(level, productType)
}

func (uc *catalogUseCase) ResolvePrice(level, productType, size string) (float64, bool) {
	return uc.index.Load().ResolvePrice(level, productType, size)
}
