// Package gateway is the HTTP client for the external payment gateway.
// Only the confirm call is modeled; the gateway's wider API surface is
// out of scope for this service.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Error is a failure reported by the gateway itself: the request was
// received and rejected. It is distinct from transport errors, where the
// request may never have reached the gateway.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway: %s (%s)", e.Message, e.Code)
}

// ConfirmRequest is the approval confirmation sent to the gateway.
type ConfirmRequest struct {
	PaymentKey  string `json:"paymentKey"`
	OrderNumber string `json:"orderId"`
	Amount      int64  `json:"amount"`
}

// ConfirmResponse is the gateway's view of a confirmed payment.
type ConfirmResponse struct {
	PaymentKey  string    `json:"paymentKey"`
	OrderNumber string    `json:"orderId"`
	Amount      int64     `json:"totalAmount"`
	ApprovedAt  time.Time `json:"approvedAt"`
}

// Client calls the external payment gateway. Calls are synchronous and
// bounded by the configured timeout.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewClient creates a gateway client with an explicit request timeout.
func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Confirm asks the gateway to confirm an approval. A *Error return means
// the gateway received and rejected the request; any other error is a
// transport failure.
func (c *Client) Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments/confirm", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.secretKey, "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var gwErr Error
		if decodeErr := json.NewDecoder(resp.Body).Decode(&gwErr); decodeErr != nil || gwErr.Code == "" {
			gwErr = Error{
				Code:    fmt.Sprintf("HTTP_%d", resp.StatusCode),
				Message: "gateway rejected the request",
			}
		}
		return nil, &gwErr
	}

	var confirmed ConfirmResponse
	if err := json.NewDecoder(resp.Body).Decode(&confirmed); err != nil {
		return nil, err
	}

	return &confirmed, nil
}

// IsAttempted reports whether a Confirm failure happened after the request
// reached the gateway. Gateway rejections and timeouts count as attempted;
// for a timeout the gateway may have processed the request, so the attempt
// must be recorded rather than silently dropped.
func IsAttempted(err error) bool {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}
