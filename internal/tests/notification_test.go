package tests

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"paycore/internal/domain"
	"paycore/internal/service"
)

// ──────────────────────────────────────────────
// 6. EVENT CONSUMPTION
// ──────────────────────────────────────────────

func marshalEvent(t *testing.T, e domain.Event) json.RawMessage {
	t.Helper()

	payload, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}
	return payload
}

func TestNotification_ApprovedDedupedByOrderNumber(t *testing.T) {
	t.Parallel()

	guard := NewMockDeliveryGuard()
	svc := service.NewNotificationService(guard, zap.NewNop())

	payment, _ := domain.NewApproved("pay-1", "ORD-1", "", domain.PaymentTypePoint, 1000, 200)
	payload := marshalEvent(t, domain.NewPaymentApprovedEvent(payment, time.Now()))

	// At-least-once delivery redelivers the same event; both calls succeed,
	// the second is a no-op.
	if err := svc.HandleApproved(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.HandleApproved(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error on redelivery: %v", err)
	}
}

func TestNotification_DistinctPartialCancelsBothProcessed(t *testing.T) {
	t.Parallel()

	guard := NewMockDeliveryGuard()
	svc := service.NewNotificationService(guard, zap.NewNop())

	payment, _ := domain.NewApproved("pay-1", "ORD-1", "", domain.PaymentTypePoint, 1000, 0)
	payment.Status = domain.PaymentStatusPartialCanceled

	first := marshalEvent(t, domain.NewPaymentCanceledEvent(payment, "first refund", 300, time.Now()))
	second := marshalEvent(t, domain.NewPaymentCanceledEvent(payment, "second refund", 200, time.Now().Add(time.Minute)))

	if err := svc.HandleCanceled(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.HandleCanceled(context.Background(), second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Redelivery of either one is still absorbed.
	if err := svc.HandleCanceled(context.Background(), first); err != nil {
		t.Fatalf("unexpected error on redelivery: %v", err)
	}
}

func TestNotification_MalformedPayloadFails(t *testing.T) {
	t.Parallel()

	guard := NewMockDeliveryGuard()
	svc := service.NewNotificationService(guard, zap.NewNop())

	if err := svc.HandleApproved(context.Background(), json.RawMessage(`{not json`)); err == nil {
		t.Error("expected error for malformed approved payload")
	}
	if err := svc.HandleCanceled(context.Background(), json.RawMessage(`{not json`)); err == nil {
		t.Error("expected error for malformed canceled payload")
	}
}

func TestNotification_GuardFailurePropagates(t *testing.T) {
	t.Parallel()

	guard := NewMockDeliveryGuard()
	guard.Error = errors.New("redis unavailable")
	svc := service.NewNotificationService(guard, zap.NewNop())

	payment, _ := domain.NewApproved("pay-1", "ORD-1", "", domain.PaymentTypePoint, 1000, 0)
	payload := marshalEvent(t, domain.NewPaymentApprovedEvent(payment, time.Now()))

	// The handler error keeps the outbox row unpublished, so delivery is
	// retried once the guard recovers.
	if err := svc.HandleApproved(context.Background(), payload); err == nil {
		t.Error("expected guard failure to propagate")
	}
}
