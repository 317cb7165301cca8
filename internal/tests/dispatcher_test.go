package tests

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"paycore/internal/domain"
	"paycore/internal/outbox"
)

// ──────────────────────────────────────────────
// 4. OUTBOX DISPATCH
// ──────────────────────────────────────────────

func enqueueEvent(t *testing.T, txr *MockTxRunner, id string, event domain.Event) {
	t.Helper()

	msg, err := domain.NewOutboxMessage(id, event)
	if err != nil {
		t.Fatalf("failed to build outbox message: %v", err)
	}
	if err := txr.Outbox.Enqueue(context.Background(), msg); err != nil {
		t.Fatalf("failed to enqueue: %v", err)
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func approvedEvent(orderNumber string) domain.PaymentApprovedEvent {
	payment, _ := domain.NewApproved("pay-1", orderNumber, "", domain.PaymentTypePoint, 1000, 0)
	return domain.NewPaymentApprovedEvent(payment, time.Now())
}

func TestDispatcher_DeliversAndMarksPublished(t *testing.T) {
	t.Parallel()

	txr := NewMockTxRunner()
	d := outbox.NewDispatcher(txr, 50*time.Millisecond, 10, zap.NewNop())

	var mu sync.Mutex
	var received []string
	d.Subscribe(domain.EventPaymentApproved, func(ctx context.Context, payload json.RawMessage) error {
		var e domain.PaymentApprovedEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return err
		}
		mu.Lock()
		received = append(received, e.OrderNumber)
		mu.Unlock()
		return nil
	})

	enqueueEvent(t, txr, "msg-1", approvedEvent("ORD-1"))

	d.Start(context.Background())
	defer d.Stop()
	d.Wake()

	waitFor(t, time.Second, func() bool {
		return txr.Outbox.CountUnpublished() == 0
	}, "message was never published")

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 || received[0] != "ORD-1" {
		t.Errorf("expected handler to receive ORD-1, got %v", received)
	}
}

func TestDispatcher_FailedHandlerRetriesOnNextPoll(t *testing.T) {
	t.Parallel()

	txr := NewMockTxRunner()
	d := outbox.NewDispatcher(txr, 20*time.Millisecond, 10, zap.NewNop())

	var mu sync.Mutex
	attempts := 0
	d.Subscribe(domain.EventPaymentApproved, func(ctx context.Context, payload json.RawMessage) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return errors.New("downstream unavailable")
		}
		return nil
	})

	enqueueEvent(t, txr, "msg-1", approvedEvent("ORD-1"))

	d.Start(context.Background())
	defer d.Stop()
	d.Wake()

	// The first two deliveries fail and leave the row unpublished; the
	// ticker retries it until the handler finally succeeds.
	waitFor(t, 2*time.Second, func() bool {
		return txr.Outbox.CountUnpublished() == 0
	}, "message was never published after handler recovered")

	mu.Lock()
	defer mu.Unlock()
	if attempts != 3 {
		t.Errorf("expected 3 delivery attempts, got %d", attempts)
	}
}

func TestDispatcher_NoSubscriberStillPublishes(t *testing.T) {
	t.Parallel()

	txr := NewMockTxRunner()
	d := outbox.NewDispatcher(txr, 50*time.Millisecond, 10, zap.NewNop())

	enqueueEvent(t, txr, "msg-1", approvedEvent("ORD-1"))

	d.Start(context.Background())
	defer d.Stop()
	d.Wake()

	waitFor(t, time.Second, func() bool {
		return txr.Outbox.CountUnpublished() == 0
	}, "unsubscribed message should still be marked published")
}

func TestDispatcher_DrainsBacklogInBatches(t *testing.T) {
	t.Parallel()

	txr := NewMockTxRunner()
	d := outbox.NewDispatcher(txr, 50*time.Millisecond, 2, zap.NewNop())

	var delivered int32
	var mu sync.Mutex
	d.Subscribe(domain.EventPaymentApproved, func(ctx context.Context, payload json.RawMessage) error {
		mu.Lock()
		delivered++
		mu.Unlock()
		return nil
	})

	for _, id := range []string{"msg-1", "msg-2", "msg-3", "msg-4", "msg-5"} {
		enqueueEvent(t, txr, id, approvedEvent("ORD-"+id))
	}

	d.Start(context.Background())
	defer d.Stop()
	d.Wake()

	// One wake drains the whole backlog even though the batch size (2) is
	// smaller than the queue.
	waitFor(t, time.Second, func() bool {
		return txr.Outbox.CountUnpublished() == 0
	}, "backlog was never drained")

	mu.Lock()
	defer mu.Unlock()
	if delivered != 5 {
		t.Errorf("expected 5 deliveries, got %d", delivered)
	}
}

func TestDispatcher_StopHaltsLoop(t *testing.T) {
	t.Parallel()

	txr := NewMockTxRunner()
	d := outbox.NewDispatcher(txr, 10*time.Millisecond, 10, zap.NewNop())

	d.Start(context.Background())
	d.Stop()

	enqueueEvent(t, txr, "msg-1", approvedEvent("ORD-1"))
	d.Wake()
	time.Sleep(50 * time.Millisecond)

	if txr.Outbox.CountUnpublished() != 1 {
		t.Error("stopped dispatcher must not process messages")
	}
}
