package provider

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"paycore/internal/domain"
	"paycore/internal/gateway"
	"paycore/internal/repository"
)

// TossProvider approves payments through the external payment gateway.
// The gateway is called first; persistence happens only once the outcome
// of the attempt is known.
type TossProvider struct {
	txr    repository.TxRunner
	gw     *gateway.Client
	logger *zap.Logger
}

// NewTossProvider creates a new TossProvider.
func NewTossProvider(txr repository.TxRunner, gw *gateway.Client, logger *zap.Logger) *TossProvider {
	return &TossProvider{txr: txr, gw: gw, logger: logger}
}

// Type returns the payment method this provider handles.
func (p *TossProvider) Type() domain.PaymentType {
	return domain.PaymentTypeToss
}

// Approve confirms the payment with the gateway and persists the outcome.
//
// Three outcomes are distinguished: a confirmed approval persists an
// APPROVED payment; a rejection or timeout after the request reached the
// gateway persists an ABORTED payment (a record, not an error); a
// transport failure where the request never reached the gateway persists
// nothing and returns the error.
func (p *TossProvider) Approve(ctx context.Context, req ApproveRequest) (*ApproveResult, error) {
	if req.PaymentKey == "" {
		return nil, ErrMissingPaymentKey
	}

	confirmed, err := p.gw.Confirm(ctx, gateway.ConfirmRequest{
		PaymentKey:  req.PaymentKey,
		OrderNumber: req.OrderNumber,
		Amount:      req.Amount,
	})
	if err != nil {
		if !gateway.IsAttempted(err) {
			return nil, err
		}
		return p.recordAbort(ctx, req, err)
	}

	payment, err := domain.NewApproved(uuid.New().String(), req.OrderNumber, req.PaymentKey, domain.PaymentTypeToss, req.Amount, req.PointUsed)
	if err != nil {
		return nil, err
	}

	approvedAt := confirmed.ApprovedAt
	if approvedAt.IsZero() {
		approvedAt = time.Now()
	}

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

// recordAbort persists an ABORTED payment and history row for an approval
// attempt that reached the gateway but failed there. The full gateway
// error is logged server-side; callers only see the abort reason.
func (p *TossProvider) recordAbort(ctx context.Context, req ApproveRequest, cause error) (*ApproveResult, error) {
	p.logger.Error("gateway approval failed",
		zap.String("order_number", req.OrderNumber),
		zap.String("payment_key", req.PaymentKey),
		zap.Int64("amount", req.Amount),
		zap.Error(cause),
	)

	reason := abortReason(cause)

	payment, err := domain.NewAborted(uuid.New().String(), req.OrderNumber, req.PaymentKey, domain.PaymentTypeToss, req.Amount)
	if err != nil {
		return nil, err
	}

	occurredAt := time.Now()
	history, err := domain.NewAbortedHistory(uuid.New().String(), payment, req.Amount, reason, occurredAt)
	if err != nil {
		return nil, err
	}

	err = p.txr.InTx(ctx, func(ctx context.Context, repos repository.TxRepos) error {
		if err := repos.Payments.Create(ctx, payment); err != nil {
			return err
		}
		return repos.Histories.Create(ctx, history)
	})
	if err != nil {
		return nil, err
	}

	return &ApproveResult{
		OrderNumber: payment.OrderNumber,
		TotalAmount: payment.TotalAmount,
		PointUsed:   0,
		Status:      payment.Status,
		ApprovedAt:  occurredAt,
		AbortReason: reason,
	}, nil
}

// abortReason picks the caller-visible reason for an aborted approval
// without leaking transport internals.
func abortReason(cause error) string {
	var gwErr *gateway.Error
	if errors.As(cause, &gwErr) {
		return gwErr.Message
	}
	return "gateway timeout"
}

// Ensure TossProvider implements Provider.
var _ Provider = (*TossProvider)(nil)
