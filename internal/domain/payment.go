package domain

import "time"

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusApproved        PaymentStatus = "APPROVED"
	PaymentStatusAborted         PaymentStatus = "ABORTED"
	PaymentStatusCanceled        PaymentStatus = "CANCELED"
	PaymentStatusPartialCanceled PaymentStatus = "PARTIAL_CANCELED"
)

// PaymentType represents the payment method used for a payment.
type PaymentType string

const (
	PaymentTypePoint PaymentType = "POINT"
	PaymentTypeToss  PaymentType = "TOSS"
)

// Payment represents one payment attempt for one order. A payment may be
// funded by a blend of cash (TotalAmount) and loyalty points (PointUsed),
// both in integer minor units.
type Payment struct {
	ID          string
	OrderNumber string
	Type        PaymentType
	PaymentKey  string // external gateway reference, empty for pure-point payments
	Status      PaymentStatus
	TotalAmount int64 // remaining cash portion
	PointUsed   int64 // remaining point portion
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   time.Time // zero when the payment is live
}

// NewApproved creates a payment in APPROVED state.
func NewApproved(id, orderNumber, paymentKey string, paymentType PaymentType, totalAmount, pointUsed int64) (*Payment, error) {
	if totalAmount < 0 || pointUsed < 0 {
		return nil, ErrNegativeAmount
	}

	now := time.Now()
	return &Payment{
		ID:          id,
		OrderNumber: orderNumber,
		Type:        paymentType,
		PaymentKey:  paymentKey,
		Status:      PaymentStatusApproved,
		TotalAmount: totalAmount,
		PointUsed:   pointUsed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NewAborted creates a payment in ABORTED state, recording an approval
// attempt that reached the gateway but failed there.
func NewAborted(id, orderNumber, paymentKey string, paymentType PaymentType, totalAmount int64) (*Payment, error) {
	if totalAmount < 0 {
		return nil, ErrNegativeAmount
	}

	now := time.Now()
	return &Payment{
		ID:          id,
		OrderNumber: orderNumber,
		Type:        paymentType,
		PaymentKey:  paymentKey,
		Status:      PaymentStatusAborted,
		TotalAmount: totalAmount,
		PointUsed:   0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// TotalPaid returns the cash plus point portion still held by the payment.
func (p *Payment) TotalPaid() int64 {
	return p.TotalAmount + p.PointUsed
}

// Cancel applies a full or partial cancellation and returns the amount
// canceled in this step.
//
// A nil cancelAmount, or a cancelAmount equal to the exact remaining
// cash+point total, is a full cancel. The equality check runs before the
// positivity check: a caller canceling the exact remaining balance never
// has to satisfy the >0 constraint separately.
//
// Partial cancellation draws the cash portion down first, then points.
func (p *Payment) Cancel(cancelAmount *int64) (int64, error) {
	if p.Status == PaymentStatusCanceled {
		return 0, ErrAlreadyCanceled
	}

	cash := p.TotalAmount
	point := p.PointUsed
	totalPaid := cash + point

	if cancelAmount == nil || *cancelAmount == totalPaid {
		p.TotalAmount = 0
		p.PointUsed = 0
		p.Status = PaymentStatusCanceled
		p.touch()
		return totalPaid, nil
	}

	amount := *cancelAmount
	if amount <= 0 {
		return 0, ErrInvalidCancelAmount
	}
	if amount > totalPaid {
		return 0, ErrExceedCancelAmount
	}

	remaining := amount
	if remaining >= cash {
		remaining -= cash
		p.TotalAmount = 0
		p.PointUsed = point - remaining
		if p.PointUsed < 0 {
			p.PointUsed = 0
		}
	} else {
		p.TotalAmount = cash - remaining
	}

	if p.TotalAmount == 0 && p.PointUsed == 0 {
		p.Status = PaymentStatusCanceled
	} else {
		p.Status = PaymentStatusPartialCanceled
	}
	p.touch()

	return amount, nil
}

func (p *Payment) touch() {
	p.UpdatedAt = time.Now()
}
