package events

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Base de todos los eventos de integración
type IntegrationEvent struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"` // contenido específico del evento
	key       string
}

// NewIntegrationEvent serializa el payload y, si este implementa PartitionKey,
// conserva la clave para el broker.
func NewIntegrationEvent(eventType string, payload interface{}) (IntegrationEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return IntegrationEvent{}, err
	}
	evt := IntegrationEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	if k, ok := payload.(interface{ PartitionKey() string }); ok {
		evt.key = k.PartitionKey()
	}
	return evt, nil
}

func (e IntegrationEvent) PartitionKey() string {
	if e.key != "" {
		return e.key
	}
	return e.ID.String()
}

// EventMetadata asocia un tipo de evento con su payload y topic.
type EventMetadata struct {
	Type  reflect.Type
	Topic string
}
