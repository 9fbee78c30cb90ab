package application

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/davicafu/contentql/internal/content/domain"
	sharedEvents "github.com/davicafu/contentql/internal/shared/events"
	sharedBus "github.com/davicafu/contentql/internal/shared/infra/platform/bus"
)

var ErrUnknownChange = errors.New("unknown content change")

// ChangeNotifier publica en el bus los cambios de contenido que avisa el CMS.
type ChangeNotifier struct {
	bus      sharedBus.EventBus
	registry map[string]sharedEvents.EventMetadata
	log      *zap.Logger
}

func NewChangeNotifier(bus sharedBus.EventBus, log *zap.Logger) *ChangeNotifier {
	return &ChangeNotifier{bus: bus, registry: domain.NewEventRegistry(), log: log}
}

// Notify valida el tipo de evento y de entidad y publica un IntegrationEvent.
func (n *ChangeNotifier) Notify(ctx context.Context, eventType string, t domain.EntityType, id int64) error {
	if _, ok := n.registry[eventType]; !ok {
		return fmt.Errorf("%w: event %q", ErrUnknownChange, eventType)
	}
	switch t {
	case domain.EntityPost, domain.EntityPage, domain.EntityUser, domain.EntityMenuItem:
	default:
		return fmt.Errorf("%w: entity type %q", ErrUnknownChange, t)
	}
	if id <= 0 {
		return fmt.Errorf("%w: id %d", ErrUnknownChange, id)
	}

	evt, err := sharedEvents.NewIntegrationEvent(eventType, &domain.ContentChanged{Type: t, ID: id})
	if err != nil {
		return err
	}
	if err := n.bus.Publish(ctx, evt); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	n.log.Info("Content change published",
		zap.String("event_type", eventType),
		zap.String("entity_type", string(t)),
		zap.Int64("id", id))
	return nil
}
