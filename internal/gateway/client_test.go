package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestConfirm_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/confirm" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"paymentKey":"key-1","orderId":"ORD-1","totalAmount":29800,"approvedAt":"2025-01-02T03:04:05Z"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test", time.Second)

	confirmed, err := client.Confirm(context.Background(), ConfirmRequest{
		PaymentKey:  "key-1",
		OrderNumber: "ORD-1",
		Amount:      29800,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if confirmed.Amount != 29800 {
		t.Errorf("expected amount 29800, got %d", confirmed.Amount)
	}
	if confirmed.ApprovedAt.IsZero() {
		t.Error("expected approvedAt to be set")
	}
}

func TestConfirm_Declined(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"REJECT_CARD_PAYMENT","message":"card declined"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test", time.Second)

	_, err := client.Confirm(context.Background(), ConfirmRequest{PaymentKey: "key-1", OrderNumber: "ORD-1", Amount: 100})
	if err == nil {
		t.Fatal("expected error")
	}

	var gwErr *Error
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if gwErr.Code != "REJECT_CARD_PAYMENT" {
		t.Errorf("expected code REJECT_CARD_PAYMENT, got %s", gwErr.Code)
	}

	if !IsAttempted(err) {
		t.Error("gateway rejection should count as attempted")
	}
}

func TestConfirm_DeclinedWithUnparseableBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test", time.Second)

	_, err := client.Confirm(context.Background(), ConfirmRequest{PaymentKey: "key-1", OrderNumber: "ORD-1", Amount: 100})

	var gwErr *Error
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if gwErr.Code != "HTTP_502" {
		t.Errorf("expected synthesized code HTTP_502, got %s", gwErr.Code)
	}
}

func TestConfirm_Timeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test", 20*time.Millisecond)

	_, err := client.Confirm(context.Background(), ConfirmRequest{PaymentKey: "key-1", OrderNumber: "ORD-1", Amount: 100})
	if err == nil {
		t.Fatal("expected timeout error")
	}

	if !IsAttempted(err) {
		t.Error("timeout should count as attempted: the gateway may have processed the request")
	}
}

func TestIsAttempted_TransportFailure(t *testing.T) {
	t.Parallel()

	// Closed server: connection refused, the request never went out.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "sk_test", time.Second)

	_, err := client.Confirm(context.Background(), ConfirmRequest{PaymentKey: "key-1", OrderNumber: "ORD-1", Amount: 100})
	if err == nil {
		t.Fatal("expected error")
	}

	if IsAttempted(err) {
		t.Error("connection refused should not count as attempted")
	}
}
