package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stitchworks/uniform-order-service/internal/catalog"
	"github.com/stitchworks/uniform-order-service/pkg/broker"
	"github.com/stitchworks/uniform-order-service/pkg/logger"
	"go.uber.org/zap"
)

// CatalogListener reloads the catalog index when the master data service
// announces a change.
type CatalogListener struct {
	consumer *broker.KafkaConsumer
	uc       catalog.UseCase
	logger   logger.ZapLogger
}

func NewCatalogListener(consumer *broker.KafkaConsumer, uc catalog.UseCase, logger logger.ZapLogger) *CatalogListener {
	return &CatalogListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
	}
}

func (l *CatalogListener) Start(ctx context.Context) {
	l.logger.Info("Starting Catalog Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Catalog Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				// Don't log context canceled error as error
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type CatalogUpdatedEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

func (l *CatalogListener) processMessage(ctx context.Context, value []byte) {
	var event CatalogUpdatedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != "CatalogUpdated" {
		return
	}

	l.logger.Info("Processing CatalogUpdated event", zap.String("event_id", event.EventID))

	if err := l.uc.Reload(ctx); err != nil {
		l.logger.Error("Failed to reload catalog", zap.String("event_id", event.EventID), zap.Error(err))
	}
}
