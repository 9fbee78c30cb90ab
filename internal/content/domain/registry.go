package domain

import (
	"reflect"

	sharedEvents "github.com/davicafu/contentql/internal/shared/events"
)

// Tipos de evento que emite el CMS cuando cambia contenido.
const (
	ContentUpdated = "content.updated"
	ContentDeleted = "content.deleted"
)

const ContentTopic = "content"

// ContentChanged es el payload de los eventos de contenido.
type ContentChanged struct {
	Type EntityType `json:"type"`
	ID   int64      `json:"id"`
}

func (c *ContentChanged) PartitionKey() string {
	return CacheKeyByID(c.Type, c.ID)
}

func NewEventRegistry() map[string]sharedEvents.EventMetadata {
	return map[string]sharedEvents.EventMetadata{
		ContentUpdated: {
			Type:  reflect.TypeOf(ContentChanged{}),
			Topic: ContentTopic,
		},
		ContentDeleted: {
			Type:  reflect.TypeOf(ContentChanged{}),
			Topic: ContentTopic,
		},
	}
}
