package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedBus "github.com/davicafu/contentql/internal/shared/infra/platform/bus"
)

// KafkaPublisher publica eventos JSON en el topic del writer.
// Si el evento implementa Keyer, la clave decide la partición.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

var _ sharedBus.EventBus = (*KafkaPublisher)(nil)

func NewKafkaPublisher(writer *kafka.Writer, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := kafka.Message{Value: data}
	if keyer, ok := event.(sharedBus.Keyer); ok {
		msg.Key = []byte(keyer.PartitionKey())
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("Error publishing to Kafka", zap.String("topic", p.writer.Topic), zap.Error(err))
		return err
	}
	p.log.Debug("Event published", zap.String("topic", p.writer.Topic), zap.ByteString("key", msg.Key))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
