package eventbus

import (
	"context"
	"errors"
	"sync"

	"github.com/nerrad567/asset-registry/internal/asset"
)

// queueSize is the buffer of the event channel. Events beyond it are
// dropped so a slow sink never applies back-pressure to requests.
const queueSize = 256

// ErrQueueFull is returned by Queue.Publish when the buffer is full.
var ErrQueueFull = errors.New("eventbus: queue full")

// Logger is the logging interface used by the bus.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type queued struct {
	ctx   context.Context //nolint:containedctx // carried across the queue with cancellation removed
	event asset.Event
}

// Queue delivers events to a sink on a single background goroutine.
type Queue struct {
	sink   asset.EventSink
	logger Logger
	ch     chan queued
	done   chan struct{}
	once   sync.Once
}

// NewQueue creates a Queue in front of sink. Call Run to start delivery.
func NewQueue(sink asset.EventSink, logger Logger) *Queue {
	return &Queue{
		sink:   sink,
		logger: logger,
		ch:     make(chan queued, queueSize),
		done:   make(chan struct{}),
	}
}

// Publish enqueues e without blocking. The request context's values are
// kept but its cancellation is not, so delivery outlives the request.
func (q *Queue) Publish(ctx context.Context, e asset.Event) error {
	select {
	case q.ch <- queued{ctx: context.WithoutCancel(ctx), event: e}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run delivers events until ctx is cancelled, then drains what is left
// and closes Done.
func (q *Queue) Run(ctx context.Context) {
	defer q.once.Do(func() { close(q.done) })

	for {
		select {
		case item := <-q.ch:
			q.deliver(item)
		case <-ctx.Done():
			for {
				select {
				case item := <-q.ch:
					q.deliver(item)
				default:
					return
				}
			}
		}
	}
}

// Done is closed once Run has drained the queue and returned.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

func (q *Queue) deliver(item queued) {
	if err := q.sink.Publish(item.ctx, item.event); err != nil {
		q.logger.Warn("event delivery failed",
			"type", string(item.event.Type),
			"asset_id", item.event.AssetID,
			"error", err,
		)
	}
}
