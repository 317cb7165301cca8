// Package outbox delivers committed domain events from the durable outbox
// table to in-process subscribers. Delivery is at-least-once: a message is
// marked published only after every subscriber has handled it, so a crash
// mid-dispatch redelivers on the next poll. Subscribers must be idempotent
// keyed by order number.
package outbox

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"paycore/internal/repository"
)

// Handler processes one published event payload.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Dispatcher polls the outbox table and fans messages out to subscribers.
type Dispatcher struct {
	txr       repository.TxRunner
	interval  time.Duration
	batchSize int
	logger    *zap.Logger

	mu   sync.RWMutex
	subs map[string][]Handler

	wake      chan struct{}
	cancel    context.CancelFunc
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewDispatcher creates a dispatcher polling at the given interval.
func NewDispatcher(txr repository.TxRunner, interval time.Duration, batchSize int, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		txr:       txr,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
		subs:      make(map[string][]Handler),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// Subscribe registers a handler for an event name. Must be called before
// Start.
func (d *Dispatcher) Subscribe(eventName string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs[eventName] = append(d.subs[eventName], h)
}

// Start begins the poll loop in a background goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
		d.cancel = cancel
		go d.loop(bg)
		d.logger.Info("outbox dispatcher started",
			zap.Duration("interval", d.interval),
			zap.Int("batch_size", d.batchSize),
		)
	})
}

// Stop halts the poll loop and waits for the in-flight batch to finish.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		if d.cancel != nil {
			d.cancel()
		}
		<-d.done
		d.logger.Info("outbox dispatcher stopped")
	})
}

// Wake nudges the dispatcher to poll immediately, typically right after a
// transaction that enqueued a message has committed.
func (d *Dispatcher) Wake() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer close(d.done)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.drain(ctx)
		case <-d.wake:
			d.drain(ctx)
		}
	}
}

// drain dispatches batches until the outbox is empty or a batch fails.
func (d *Dispatcher) drain(ctx context.Context) {
	for {
		n, err := d.dispatchBatch(ctx)
		if err != nil {
			d.logger.Error("outbox dispatch failed", zap.Error(err))
			return
		}
		if n == 0 {
			return
		}
	}
}

// dispatchBatch fetches one batch of unpublished messages inside a
// transaction, fans each out, and marks the fully handled ones published.
// A message whose handler fails stays unpublished and is retried on the
// next poll. Returns the number of messages published so drain stops
// once no further progress is possible.
func (d *Dispatcher) dispatchBatch(ctx context.Context) (int, error) {
	var published int

	err := d.txr.InTx(ctx, func(ctx context.Context, repos repository.TxRepos) error {
		msgs, err := repos.Outbox.FetchUnpublished(ctx, d.batchSize)
		if err != nil {
			return err
		}

		for _, msg := range msgs {
			if !d.deliver(ctx, msg.EventName, msg.Payload) {
				continue
			}
			if err := repos.Outbox.MarkPublished(ctx, msg.ID); err != nil {
				return err
			}
			published++
		}

		return nil
	})

	return published, err
}

// deliver fans one message out to its subscribers and reports whether all
// of them handled it.
func (d *Dispatcher) deliver(ctx context.Context, eventName string, payload json.RawMessage) bool {
	d.mu.RLock()
	handlers := append([]Handler(nil), d.subs[eventName]...)
	d.mu.RUnlock()

	if len(handlers) == 0 {
		d.logger.Debug("outbox event has no subscribers", zap.String("event", eventName))
		return true
	}

	ok := true
	for _, h := range handlers {
		if err := h(ctx, payload); err != nil {
			d.logger.Warn("outbox handler failed",
				zap.String("event", eventName),
				zap.Error(err),
			)
			ok = false
		}
	}

	return ok
}
