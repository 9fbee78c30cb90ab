package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/contentql/internal/content/domain"
	sharedEvents "github.com/davicafu/contentql/internal/shared/events"
	sharedUtils "github.com/davicafu/contentql/internal/shared/infra/utils"
)

const (
	invalidateAttempts = 3
	invalidateBackoff  = 50 * time.Millisecond
)

// Invalidator borra de caché una entidad.
type Invalidator interface {
	Invalidate(ctx context.Context, t domain.EntityType, id int64) error
}

// ContentConsumer aplica los eventos de cambio de contenido sobre la caché.
// Es idempotente: invalidar dos veces la misma clave no tiene efecto.
type ContentConsumer struct {
	invalidator Invalidator
	registry    map[string]sharedEvents.EventMetadata
	log         *zap.Logger
}

func NewContentConsumer(invalidator Invalidator, log *zap.Logger) *ContentConsumer {
	return &ContentConsumer{
		invalidator: invalidator,
		registry:    domain.NewEventRegistry(),
		log:         log,
	}
}

func (c *ContentConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	var base sharedEvents.IntegrationEvent
	if err := json.Unmarshal(payload, &base); err != nil {
		c.log.Warn("Failed to unmarshal integration event", zap.String("key", key), zap.Error(err))
		return
	}

	if _, ok := c.registry[base.Type]; !ok {
		c.log.Warn("Unknown event type", zap.String("type", base.Type))
		return
	}

	sharedUtils.UnmarshalAndHandle[domain.ContentChanged](c.log, base.Data, func(evt domain.ContentChanged) {
		ctxEvt, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()

		err := sharedUtils.Retry(ctxEvt, invalidateAttempts, invalidateBackoff, func() error {
			return c.invalidator.Invalidate(ctxEvt, evt.Type, evt.ID)
		})
		if err != nil {
			c.log.Warn("Failed to invalidate cache",
				zap.String("event_type", base.Type),
				zap.String("entity_type", string(evt.Type)),
				zap.Int64("id", evt.ID),
				zap.Error(err))
			return
		}
		c.log.Info("Cache invalidated",
			zap.String("event_type", base.Type),
			zap.String("entity_type", string(evt.Type)),
			zap.Int64("id", evt.ID))
	})
}

// RunChan consume el bus en memoria hasta que ctx se cancela.
func (c *ContentConsumer) RunChan(ctx context.Context, ch <-chan interface{}) error {
	for {
		select {
		case <-ctx.Done():
			c.log.Info("ContentConsumer stopped")
			return nil
		case msg := <-ch:
			if payload, ok := msg.([]byte); ok {
				c.HandleMessage(ctx, "", payload)
			}
		}
	}
}
