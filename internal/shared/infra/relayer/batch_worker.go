package relayer

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Flusher recibe cada lote acumulado.
type Flusher[T any] func(ctx context.Context, batch []T) error

// BatchWorker acumula elementos en memoria y los vuelca por lotes,
// al llenarse el lote o cada interval. Enqueue nunca bloquea.
type BatchWorker[T any] struct {
	name      string
	ch        chan T
	flush     Flusher[T]
	interval  time.Duration
	batchSize int
	dropped   atomic.Uint64
	log       *zap.Logger
}

func NewBatchWorker[T any](name string, flush Flusher[T], interval time.Duration, batchSize, buffer int, log *zap.Logger) *BatchWorker[T] {
	if batchSize <= 0 {
		batchSize = 100
	}
	if buffer < batchSize {
		buffer = batchSize
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &BatchWorker[T]{
		name:      name,
		ch:        make(chan T, buffer),
		flush:     flush,
		interval:  interval,
		batchSize: batchSize,
		log:       log,
	}
}

// Enqueue devuelve false si el buffer está lleno y el elemento se descarta.
func (w *BatchWorker[T]) Enqueue(item T) bool {
	select {
	case w.ch <- item:
		return true
	default:
		w.dropped.Add(1)
		return false
	}
}

// Dropped cuenta los elementos descartados por buffer lleno.
func (w *BatchWorker[T]) Dropped() uint64 {
	return w.dropped.Load()
}

// Start bloquea hasta que se cancela ctx; al salir vuelca lo pendiente.
func (w *BatchWorker[T]) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("Batch worker started",
		zap.String("worker", w.name),
		zap.Duration("interval", w.interval),
		zap.Int("batch_size", w.batchSize))

	batch := make([]T, 0, w.batchSize)
	for {
		select {
		case <-ctx.Done():
			batch = w.drain(batch)
			// El contexto ya está cancelado: el último volcado usa uno propio.
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			w.send(flushCtx, batch)
			cancel()
			w.log.Info("Batch worker stopped", zap.String("worker", w.name))
			return
		case item := <-w.ch:
			batch = append(batch, item)
			if len(batch) >= w.batchSize {
				batch = w.send(ctx, batch)
			}
		case <-ticker.C:
			batch = w.send(ctx, batch)
		}
	}
}

func (w *BatchWorker[T]) drain(batch []T) []T {
	for {
		select {
		case item := <-w.ch:
			batch = append(batch, item)
		default:
			return batch
		}
	}
}

// send vuelca el lote y devuelve uno vacío. Un lote fallido se descarta.
func (w *BatchWorker[T]) send(ctx context.Context, batch []T) []T {
	if len(batch) == 0 {
		return batch
	}
	if err := w.flush(ctx, batch); err != nil {
		w.log.Warn("Batch flush failed",
			zap.String("worker", w.name),
			zap.Int("size", len(batch)),
			zap.Error(err))
	} else {
		w.log.Debug("Batch flushed", zap.String("worker", w.name), zap.Int("size", len(batch)))
	}
	return make([]T, 0, w.batchSize)
}
