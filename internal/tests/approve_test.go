package tests

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"paycore/internal/domain"
	"paycore/internal/gateway"
	"paycore/internal/provider"
	"paycore/internal/service"
)

// ──────────────────────────────────────────────
// 1. APPROVAL THROUGH THE PROVIDER REGISTRY
// ──────────────────────────────────────────────

func newApproveFixture(txr *MockTxRunner, providers ...provider.Provider) (*service.PaymentService, *MockWaker) {
	waker := &MockWaker{}
	svc := service.NewPaymentService(
		provider.NewRegistry(providers...),
		txr,
		txr.Payments,
		txr.Histories,
		waker,
		zap.NewNop(),
	)
	return svc, waker
}

func TestApprove_PointProvider_PersistsPaymentHistoryAndEvent(t *testing.T) {
	t.Parallel()

	txr := NewMockTxRunner()
	svc, waker := newApproveFixture(txr, provider.NewPointProvider(txr))

	result, err := svc.Approve(context.Background(), provider.ApproveRequest{
		PaymentType: domain.PaymentTypePoint,
		OrderNumber: "ORD-1",
		Amount:      10000,
		PointUsed:   2000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != domain.PaymentStatusApproved {
		t.Errorf("expected status %s, got %s", domain.PaymentStatusApproved, result.Status)
	}
	if result.TotalAmount != 10000 || result.PointUsed != 2000 {
		t.Errorf("unexpected amounts: cash=%d point=%d", result.TotalAmount, result.PointUsed)
	}

	if txr.Payments.CountPayments() != 1 {
		t.Errorf("expected 1 payment, got %d", txr.Payments.CountPayments())
	}
	if txr.Histories.CountRows() != 1 {
		t.Errorf("expected 1 history row, got %d", txr.Histories.CountRows())
	}
	if txr.Outbox.CountUnpublished() != 1 {
		t.Errorf("expected 1 outbox message, got %d", txr.Outbox.CountUnpublished())
	}

	rows := txr.Histories.Rows()
	if rows[0].Status != domain.PaymentStatusApproved {
		t.Errorf("expected APPROVED history row, got %s", rows[0].Status)
	}
	if rows[0].Amount != 12000 {
		t.Errorf("expected approved amount 12000 on history row, got %d", rows[0].Amount)
	}

	msgs := txr.Outbox.Messages()
	if msgs[0].EventName != domain.EventPaymentApproved {
		t.Errorf("expected event %s, got %s", domain.EventPaymentApproved, msgs[0].EventName)
	}

	if waker.WakeCount != 1 {
		t.Errorf("expected 1 dispatcher wake, got %d", waker.WakeCount)
	}
}

func TestApprove_UnknownMethod_WritesNothing(t *testing.T) {
	t.Parallel()

	txr := NewMockTxRunner()
	svc, waker := newApproveFixture(txr, provider.NewPointProvider(txr))

	_, err := svc.Approve(context.Background(), provider.ApproveRequest{
		PaymentType: domain.PaymentType("BANK_TRANSFER"),
		OrderNumber: "ORD-1",
		Amount:      1000,
	})
	if !errors.Is(err, provider.ErrPaymentMethodNotFound) {
		t.Fatalf("expected ErrPaymentMethodNotFound, got %v", err)
	}

	if txr.Payments.CountPayments() != 0 || txr.Histories.CountRows() != 0 || txr.Outbox.CountMessages() != 0 {
		t.Error("registry miss must not persist anything")
	}
	if waker.WakeCount != 0 {
		t.Error("registry miss must not wake the dispatcher")
	}
}

func TestApprove_DuplicateOrderNumber_Fails(t *testing.T) {
	t.Parallel()

	txr := NewMockTxRunner()
	svc, _ := newApproveFixture(txr, provider.NewPointProvider(txr))

	req := provider.ApproveRequest{
		PaymentType: domain.PaymentTypePoint,
		OrderNumber: "ORD-1",
		Amount:      1000,
	}

	if _, err := svc.Approve(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Approve(context.Background(), req); err == nil {
		t.Fatal("expected duplicate order number to fail")
	}

	// The failed second approval must leave exactly the first attempt's rows.
	if txr.Payments.CountPayments() != 1 || txr.Histories.CountRows() != 1 {
		t.Errorf("expected single payment and history row, got %d/%d",
			txr.Payments.CountPayments(), txr.Histories.CountRows())
	}
	if txr.RollbackCount != 1 {
		t.Errorf("expected 1 rollback, got %d", txr.RollbackCount)
	}
}

// ──────────────────────────────────────────────
// 2. GATEWAY-BACKED APPROVAL
// ──────────────────────────────────────────────

func TestApprove_GatewaySuccess_PersistsApproved(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"paymentKey":"key-1","orderId":"ORD-1","totalAmount":29800,"approvedAt":"2025-01-02T03:04:05Z"}`))
	}))
	defer server.Close()

	txr := NewMockTxRunner()
	gw := gateway.NewClient(server.URL, "sk_test", time.Second)
	svc, waker := newApproveFixture(txr, provider.NewTossProvider(txr, gw, zap.NewNop()))

	result, err := svc.Approve(context.Background(), provider.ApproveRequest{
		PaymentType: domain.PaymentTypeToss,
		OrderNumber: "ORD-1",
		PaymentKey:  "key-1",
		Amount:      29800,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != domain.PaymentStatusApproved {
		t.Errorf("expected status %s, got %s", domain.PaymentStatusApproved, result.Status)
	}
	if txr.Payments.CountPayments() != 1 || txr.Histories.CountRows() != 1 || txr.Outbox.CountMessages() != 1 {
		t.Error("expected payment, history row, and outbox message persisted")
	}
	if waker.WakeCount != 1 {
		t.Errorf("expected 1 dispatcher wake, got %d", waker.WakeCount)
	}
}

func TestApprove_GatewayDeclined_RecordsAborted(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"REJECT_CARD_PAYMENT","message":"card declined"}`))
	}))
	defer server.Close()

	txr := NewMockTxRunner()
	gw := gateway.NewClient(server.URL, "sk_test", time.Second)
	svc, waker := newApproveFixture(txr, provider.NewTossProvider(txr, gw, zap.NewNop()))

	result, err := svc.Approve(context.Background(), provider.ApproveRequest{
		PaymentType: domain.PaymentTypeToss,
		OrderNumber: "ORD-1",
		PaymentKey:  "key-1",
		Amount:      29800,
	})
	if err != nil {
		t.Fatalf("a declined approval is a recorded outcome, not an error: %v", err)
	}

	if result.Status != domain.PaymentStatusAborted {
		t.Errorf("expected status %s, got %s", domain.PaymentStatusAborted, result.Status)
	}
	if result.AbortReason != "card declined" {
		t.Errorf("expected abort reason from gateway, got %q", result.AbortReason)
	}

	if txr.Payments.CountPayments() != 1 {
		t.Errorf("expected ABORTED payment recorded, got %d payments", txr.Payments.CountPayments())
	}

	rows := txr.Histories.Rows()
	if len(rows) != 1 || rows[0].Status != domain.PaymentStatusAborted {
		t.Fatalf("expected one ABORTED history row, got %v", rows)
	}
	if rows[0].Reason != "card declined" {
		t.Errorf("expected reason on history row, got %q", rows[0].Reason)
	}

	if txr.Outbox.CountMessages() != 0 {
		t.Error("aborted approvals must not publish an approved event")
	}
	if waker.WakeCount != 0 {
		t.Error("aborted approvals must not wake the dispatcher")
	}
}

func TestApprove_GatewayUnreachable_PersistsNothing(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	txr := NewMockTxRunner()
	gw := gateway.NewClient(server.URL, "sk_test", time.Second)
	svc, _ := newApproveFixture(txr, provider.NewTossProvider(txr, gw, zap.NewNop()))

	_, err := svc.Approve(context.Background(), provider.ApproveRequest{
		PaymentType: domain.PaymentTypeToss,
		OrderNumber: "ORD-1",
		PaymentKey:  "key-1",
		Amount:      29800,
	})
	if err == nil {
		t.Fatal("expected transport error")
	}

	if txr.Payments.CountPayments() != 0 || txr.Histories.CountRows() != 0 {
		t.Error("a never-attempted approval must leave no record")
	}
}

func TestApprove_GatewayRequiresPaymentKey(t *testing.T) {
	t.Parallel()

	txr := NewMockTxRunner()
	gw := gateway.NewClient("http://localhost:0", "sk_test", time.Second)
	svc, _ := newApproveFixture(txr, provider.NewTossProvider(txr, gw, zap.NewNop()))

	_, err := svc.Approve(context.Background(), provider.ApproveRequest{
		PaymentType: domain.PaymentTypeToss,
		OrderNumber: "ORD-1",
		Amount:      29800,
	})
	if !errors.Is(err, provider.ErrMissingPaymentKey) {
		t.Fatalf("expected ErrMissingPaymentKey, got %v", err)
	}

	if txr.Payments.CountPayments() != 0 {
		t.Error("missing payment key must not persist anything")
	}
}
