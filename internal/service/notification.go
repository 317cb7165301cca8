package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"paycore/internal/domain"
)

// DeliveryGuard claims an event delivery, reporting whether it is the
// first one seen for the given event and order number.
type DeliveryGuard interface {
	FirstDelivery(ctx context.Context, eventName, orderNumber string) (bool, error)
}

// NotificationService consumes committed payment events on behalf of the
// downstream collaborators (order materialization, point crediting).
// In a real deployment the notify methods would call those services;
// here they stop at structured logs. Deliveries are deduplicated by order
// number, so the outbox's at-least-once delivery stays effectively-once.
type NotificationService struct {
	guard  DeliveryGuard
	logger *zap.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(guard DeliveryGuard, logger *zap.Logger) *NotificationService {
	return &NotificationService{guard: guard, logger: logger}
}

// HandleApproved consumes a payment.approved event.
func (s *NotificationService) HandleApproved(ctx context.Context, payload json.RawMessage) error {
	var e domain.PaymentApprovedEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return err
	}

	first, err := s.guard.FirstDelivery(ctx, e.EventName(), e.OrderNumber)
	if err != nil {
		return err
	}
	if !first {
		s.logger.Debug("duplicate approved event skipped", zap.String("order_number", e.OrderNumber))
		return nil
	}

	s.logger.Info("payment approved, notifying order and point services",
		zap.String("order_number", e.OrderNumber),
		zap.Int64("total_amount", e.TotalAmount),
		zap.Int64("point_used", e.PointUsed),
		zap.Time("approved_at", e.ApprovedAt),
	)

	return nil
}

// HandleCanceled consumes a payment.canceled event.
func (s *NotificationService) HandleCanceled(ctx context.Context, payload json.RawMessage) error {
	var e domain.PaymentCanceledEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return err
	}

	// Successive partial cancels for one order are distinct events, so the
	// dedupe key carries the cancellation timestamp as well.
	deliveryKey := fmt.Sprintf("%s:%d", e.OrderNumber, e.CanceledAt.UnixNano())
	first, err := s.guard.FirstDelivery(ctx, e.EventName(), deliveryKey)
	if err != nil {
		return err
	}
	if !first {
		s.logger.Debug("duplicate canceled event skipped", zap.String("order_number", e.OrderNumber))
		return nil
	}

	s.logger.Info("payment canceled, notifying order and point services",
		zap.String("order_number", e.OrderNumber),
		zap.String("cancel_reason", e.CancelReason),
		zap.Int64("canceled_amount", e.CanceledAmount),
		zap.String("status", string(e.Status)),
		zap.Time("canceled_at", e.CanceledAt),
	)

	return nil
}
