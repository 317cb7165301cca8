// Package provider routes payment approvals to the handler for the
// requested payment method. Each provider owns its own approval
// transaction and exposes the same result shape, so callers stay
// method-agnostic.
package provider

import (
	"context"
	"errors"
	"time"

	"paycore/internal/domain"
)

var (
	// ErrPaymentMethodNotFound is returned when no provider is registered
	// for the requested payment method.
	ErrPaymentMethodNotFound = errors.New("payment method not found")

	// ErrMissingPaymentKey is returned when a gateway-backed approval is
	// requested without a gateway payment key.
	ErrMissingPaymentKey = errors.New("payment key is required")
)

// ApproveRequest contains the parameters for approving a payment.
type ApproveRequest struct {
	PaymentType domain.PaymentType
	OrderNumber string
	PaymentKey  string
	Amount      int64
	PointUsed   int64
}

// ApproveResult is the provider-agnostic outcome of an approval attempt.
// Status is APPROVED on success and ABORTED when the gateway was reached
// but the approval failed there.
type ApproveResult struct {
	OrderNumber string
	TotalAmount int64
	PointUsed   int64
	Status      domain.PaymentStatus
	ApprovedAt  time.Time
	AbortReason string // set only for ABORTED results
}

// Provider approves payments for exactly one payment method.
type Provider interface {
	// Type returns the payment method this provider handles.
	Type() domain.PaymentType

	// Approve processes an approval request, persisting the payment and
	// its initial history row within the provider's own transaction.
	Approve(ctx context.Context, req ApproveRequest) (*ApproveResult, error)
}

// Registry resolves providers by payment method. It is built once at
// startup from a static set; there is no runtime registration.
type Registry struct {
	providers map[domain.PaymentType]Provider
}

// NewRegistry creates a registry from the given providers.
func NewRegistry(providers ...Provider) *Registry {
	m := make(map[domain.PaymentType]Provider, len(providers))
	for _, p := range providers {
		m[p.Type()] = p
	}
	return &Registry{providers: m}
}

// Get returns the provider for the requested payment method.
func (r *Registry) Get(t domain.PaymentType) (Provider, error) {
	p, ok := r.providers[t]
	if !ok {
		return nil, ErrPaymentMethodNotFound
	}
	return p, nil
}
