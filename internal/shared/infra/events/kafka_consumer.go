package events

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageHandler procesa un mensaje ya leído del broker.
type MessageHandler interface {
	HandleMessage(ctx context.Context, key string, payload []byte)
}

// ConsumerAdapter lee de Kafka y delega en un MessageHandler.
type ConsumerAdapter struct {
	reader  *kafka.Reader
	handler MessageHandler
	log     *zap.Logger
}

func NewConsumerAdapter(reader *kafka.Reader, handler MessageHandler, log *zap.Logger) *ConsumerAdapter {
	return &ConsumerAdapter{reader: reader, handler: handler, log: log}
}

// Run bloquea hasta que ctx se cancela y cierra el reader al salir.
func (c *ConsumerAdapter) Run(ctx context.Context) error {
	cfg := c.reader.Config()
	c.log.Info("Kafka consumer started",
		zap.String("topic", cfg.Topic),
		zap.Strings("brokers", cfg.Brokers))
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("Kafka consumer stopped", zap.String("topic", cfg.Topic))
				return nil
			}
			c.log.Error("Error reading from Kafka", zap.Error(err))
			continue
		}
		c.handler.HandleMessage(ctx, string(msg.Key), msg.Value)
	}
}
