package events

import (
	"context"
	"encoding/json"
	"sync"

	sharedBus "github.com/davicafu/contentql/internal/shared/infra/platform/bus"
)

// InMemoryEventBus reparte los eventos de un topic entre sus suscriptores.
// Entrega JSON ([]byte), igual que Kafka. Un suscriptor lento pierde eventos.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	subscribers []chan interface{}
	topic       string
}

var _ sharedBus.EventBus = (*InMemoryEventBus)(nil)

func NewInMemoryEventBus(topic string) *InMemoryEventBus {
	return &InMemoryEventBus{topic: topic}
}

// Topic devuelve el topic que maneja el bus.
func (b *InMemoryEventBus) Topic() string {
	return b.topic
}

func (b *InMemoryEventBus) Publish(ctx context.Context, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	b.mu.RLock()
	subs := append([]chan interface{}{}, b.subscribers...)
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub <- payload:
		default:
		}
	}
	return nil
}

// Subscribe registra un oyente con un buffer de bufferSize eventos.
func (b *InMemoryEventBus) Subscribe(bufferSize int) <-chan interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan interface{}, bufferSize)
	b.subscribers = append(b.subscribers, ch)
	return ch
}
