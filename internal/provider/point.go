package provider

import (
	"context"
	"time"

	"github.com/google/uuid"

	"paycore/internal/domain"
	"paycore/internal/repository"
)

// PointProvider approves payments funded from local state only. No
// external call is made; the payment, its first history row, and the
// approved event are persisted in one transaction.
type PointProvider struct {
	txr repository.TxRunner
}

// NewPointProvider creates a new PointProvider.
func NewPointProvider(txr repository.TxRunner) *PointProvider {
	return &PointProvider{txr: txr}
}

// Type returns the payment method this provider handles.
func (p *PointProvider) Type() domain.PaymentType {
	return domain.PaymentTypePoint
}

// Approve persists an approved point payment. Point payments carry no
// gateway payment key.
func (p *PointProvider) Approve(ctx context.Context, req ApproveRequest) (*ApproveResult, error) {
	payment, err := domain.NewApproved(uuid.New().String(), req.OrderNumber, "", domain.PaymentTypePoint, req.Amount, req.PointUsed)
	if err != nil {
		return nil, err
	}

	approvedAt := time.Now()

	if err := persistApproval(ctx, p.txr, payment, approvedAt); err != nil {
		return nil, err
	}

	return &ApproveResult{
		OrderNumber: payment.OrderNumber,
		TotalAmount: payment.TotalAmount,
		PointUsed:   payment.PointUsed,
		Status:      payment.Status,
		ApprovedAt:  approvedAt,
	}, nil
}

// persistApproval writes the payment, its APPROVED history row, and the
// approved outbox message in a single transaction.
func persistApproval(ctx context.Context, txr repository.TxRunner, payment *domain.Payment, approvedAt time.Time) error {
	history := domain.NewApprovedHistory(uuid.New().String(), payment, payment.TotalPaid(), approvedAt)

	msg, err := domain.NewOutboxMessage(uuid.New().String(), domain.NewPaymentApprovedEvent(payment, approvedAt))
	if err != nil {
		return err
	}

	return txr.InTx(ctx, func(ctx context.Context, repos repository.TxRepos) error {
		if err := repos.Payments.Create(ctx, payment); err != nil {
			return err
		}
		if err := repos.Histories.Create(ctx, history); err != nil {
			return err
		}
		return repos.Outbox.Enqueue(ctx, msg)
	})
}

// Ensure PointProvider implements Provider.
var _ Provider = (*PointProvider)(nil)
