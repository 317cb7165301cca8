package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"paycore/internal/domain"
	"paycore/internal/provider"
	"paycore/internal/repository"
)

// Waker nudges the outbox dispatcher after a transaction that enqueued an
// event has committed.
type Waker interface {
	Wake()
}

// PaymentService orchestrates the payment lifecycle: approval through the
// provider registry, cancellation with ledger append, and post-commit
// event publication via the outbox.
type PaymentService struct {
	providers   *provider.Registry
	txr         repository.TxRunner
	paymentRepo repository.PaymentRepository
	historyRepo repository.HistoryRepository
	dispatcher  Waker
	logger      *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	providers *provider.Registry,
	txr repository.TxRunner,
	paymentRepo repository.PaymentRepository,
	historyRepo repository.HistoryRepository,
	dispatcher Waker,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		providers:   providers,
		txr:         txr,
		paymentRepo: paymentRepo,
		historyRepo: historyRepo,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// Approve routes an approval request to the provider for the requested
// payment method. The provider persists the payment, its first history
// row, and the approved event within its own transaction; the dispatcher
// publishes the event only after that transaction has committed.
func (s *PaymentService) Approve(ctx context.Context, req provider.ApproveRequest) (*provider.ApproveResult, error) {
	if req.OrderNumber == "" {
		return nil, ErrInvalidOrderNumber
	}

	p, err := s.providers.Get(req.PaymentType)
	if err != nil {
		return nil, err
	}

	result, err := p.Approve(ctx, req)
	if err != nil {
		return nil, err
	}

	if result.Status == domain.PaymentStatusApproved {
		s.dispatcher.Wake()
	} else {
		s.logger.Warn("payment approval aborted",
			zap.String("order_number", req.OrderNumber),
			zap.String("payment_type", string(req.PaymentType)),
			zap.String("reason", result.AbortReason),
		)
	}

	return result, nil
}

// CancelRequest contains the parameters for canceling a payment. A nil
// CancelAmount requests a full cancel.
type CancelRequest struct {
	OrderNumber  string
	PaymentKey   string
	CancelReason string
	CancelAmount *int64
}

// CancelResult is the outcome of a cancellation.
type CancelResult struct {
	OrderNumber    string
	CancelReason   string
	CanceledAmount int64
	Status         domain.PaymentStatus
	CanceledAt     time.Time
}

// Cancel applies a full or partial cancellation. The payment row is locked
// for the duration of the transaction, so two concurrent cancels for the
// same order number serialize instead of both observing pre-cancel state.
// Load, mutate, persist, and ledger append are one transaction; any
// failure rolls the whole sequence back.
func (s *PaymentService) Cancel(ctx context.Context, req CancelRequest) (*CancelResult, error) {
	if req.OrderNumber == "" {
		return nil, ErrInvalidOrderNumber
	}
	if req.CancelReason == "" {
		return nil, ErrInvalidCancelReason
	}

	var result *CancelResult

	err := s.txr.InTx(ctx, func(ctx context.Context, repos repository.TxRepos) error {
		payment, err := repos.Payments.GetByOrderNumberForUpdate(ctx, req.OrderNumber)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrOrderNumberNotFound
			}
			return err
		}

		if req.PaymentKey != "" && payment.PaymentKey != req.PaymentKey {
			return ErrPaymentKeyNotFound
		}

		canceledAmount, err := payment.Cancel(req.CancelAmount)
		if err != nil {
			return err
		}

		if err := repos.Payments.Update(ctx, payment); err != nil {
			return err
		}

		canceledAt := time.Now()

		history, err := cancelHistory(payment, canceledAmount, req.CancelReason, canceledAt)
		if err != nil {
			return err
		}
		if err := repos.Histories.Create(ctx, history); err != nil {
			return err
		}

		event := domain.NewPaymentCanceledEvent(payment, req.CancelReason, canceledAmount, canceledAt)
		msg, err := domain.NewOutboxMessage(uuid.New().String(), event)
		if err != nil {
			return err
		}
		if err := repos.Outbox.Enqueue(ctx, msg); err != nil {
			return err
		}

		result = &CancelResult{
			OrderNumber:    payment.OrderNumber,
			CancelReason:   req.CancelReason,
			CanceledAmount: canceledAmount,
			Status:         payment.Status,
			CanceledAt:     canceledAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Wake()

	return result, nil
}

// GetByOrderNumber retrieves a payment by its order number.
func (s *PaymentService) GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Payment, error) {
	if orderNumber == "" {
		return nil, ErrInvalidOrderNumber
	}

	payment, err := s.paymentRepo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNumberNotFound
		}
		return nil, err
	}

	return payment, nil
}

// ListHistory retrieves the full audit trail of a payment, newest first.
func (s *PaymentService) ListHistory(ctx context.Context, orderNumber string) ([]*domain.PaymentHistory, error) {
	payment, err := s.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	return s.historyRepo.ListByPaymentID(ctx, payment.ID)
}

// cancelHistory builds the ledger row matching the post-cancel status.
func cancelHistory(payment *domain.Payment, canceledAmount int64, reason string, occurredAt time.Time) (*domain.PaymentHistory, error) {
	id := uuid.New().String()
	if payment.Status == domain.PaymentStatusCanceled {
		return domain.NewCanceledHistory(id, payment, canceledAmount, reason, occurredAt)
	}
	return domain.NewPartialCanceledHistory(id, payment, canceledAmount, reason, occurredAt)
}
