package domain

import "time"

// Event is any domain event with a name identifier.
type Event interface {
	EventName() string
}

const (
	EventPaymentApproved = "payment.approved"
	EventPaymentCanceled = "payment.canceled"
)

// PaymentApprovedEvent is emitted after an approval transaction commits.
// Order materialization and point crediting are triggered from it.
type PaymentApprovedEvent struct {
	OrderNumber string        `json:"order_number"`
	TotalAmount int64         `json:"total_amount"`
	PointUsed   int64         `json:"point_used"`
	Status      PaymentStatus `json:"status"`
	ApprovedAt  time.Time     `json:"approved_at"`
}

func (PaymentApprovedEvent) EventName() string { return EventPaymentApproved }

// NewPaymentApprovedEvent builds the approved event from a payment.
func NewPaymentApprovedEvent(p *Payment, approvedAt time.Time) PaymentApprovedEvent {
	return PaymentApprovedEvent{
		OrderNumber: p.OrderNumber,
		TotalAmount: p.TotalAmount,
		PointUsed:   p.PointUsed,
		Status:      p.Status,
		ApprovedAt:  approvedAt,
	}
}

// PaymentCanceledEvent is emitted after a cancellation transaction commits.
type PaymentCanceledEvent struct {
	OrderNumber    string        `json:"order_number"`
	CancelReason   string        `json:"cancel_reason"`
	CanceledAmount int64         `json:"canceled_amount"`
	Status         PaymentStatus `json:"status"`
	CanceledAt     time.Time     `json:"canceled_at"`
}

func (PaymentCanceledEvent) EventName() string { return EventPaymentCanceled }

// NewPaymentCanceledEvent builds the canceled event from a payment.
func NewPaymentCanceledEvent(p *Payment, reason string, canceledAmount int64, canceledAt time.Time) PaymentCanceledEvent {
	return PaymentCanceledEvent{
		OrderNumber:    p.OrderNumber,
		CancelReason:   reason,
		CanceledAmount: canceledAmount,
		Status:         p.Status,
		CanceledAt:     canceledAt,
	}
}
