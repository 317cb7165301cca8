package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"paycore/internal/domain"
	"paycore/internal/provider"
	"paycore/internal/service"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// ApproveRequest is the HTTP request body for approving a payment.
type ApproveRequest struct {
	PaymentType string `json:"payment_type"`
	OrderNumber string `json:"order_number"`
	PaymentKey  string `json:"payment_key"`
	Amount      int64  `json:"amount"`
	PointUsed   int64  `json:"point_used"`
}

// ApproveResponse is the HTTP response for an approval.
type ApproveResponse struct {
	OrderNumber string    `json:"order_number"`
	TotalAmount int64     `json:"total_amount"`
	PointUsed   int64     `json:"point_used"`
	Status      string    `json:"status"`
	ApprovedAt  time.Time `json:"approved_at"`
	AbortReason string    `json:"abort_reason,omitempty"`
}

// Approve handles POST /v1/payments/approve
func (h *PaymentHandler) Approve(c *gin.Context) {
	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.OrderNumber == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "order_number is required"})
		return
	}

	result, err := h.paymentService.Approve(c.Request.Context(), provider.ApproveRequest{
		PaymentType: domain.PaymentType(req.PaymentType),
		OrderNumber: req.OrderNumber,
		PaymentKey:  req.PaymentKey,
		Amount:      req.Amount,
		PointUsed:   req.PointUsed,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	// An aborted approval is a recorded outcome, not an error; 422 tells
	// the caller the payment did not go through.
	code := http.StatusCreated
	if result.Status == domain.PaymentStatusAborted {
		code = http.StatusUnprocessableEntity
	}

	respondJSON(c, code, ApproveResponse{
		OrderNumber: result.OrderNumber,
		TotalAmount: result.TotalAmount,
		PointUsed:   result.PointUsed,
		Status:      string(result.Status),
		ApprovedAt:  result.ApprovedAt,
		AbortReason: result.AbortReason,
	})
}

// CancelRequest is the HTTP request body for canceling a payment.
type CancelRequest struct {
	OrderNumber  string `json:"order_number"`
	PaymentKey   string `json:"payment_key"`
	CancelReason string `json:"cancel_reason"`
	CancelAmount *int64 `json:"cancel_amount"`
}

// CancelResponse is the HTTP response for a cancellation.
type CancelResponse struct {
	OrderNumber    string    `json:"order_number"`
	CancelReason   string    `json:"cancel_reason"`
	CanceledAmount int64     `json:"canceled_amount"`
	Status         string    `json:"status"`
	CanceledAt     time.Time `json:"canceled_at"`
}

// Cancel handles POST /v1/payments/cancel
func (h *PaymentHandler) Cancel(c *gin.Context) {
	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.OrderNumber == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "order_number is required"})
		return
	}

	if req.CancelReason == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cancel_reason is required"})
		return
	}

	result, err := h.paymentService.Cancel(c.Request.Context(), service.CancelRequest{
		OrderNumber:  req.OrderNumber,
		PaymentKey:   req.PaymentKey,
		CancelReason: req.CancelReason,
		CancelAmount: req.CancelAmount,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, CancelResponse{
		OrderNumber:    result.OrderNumber,
		CancelReason:   result.CancelReason,
		CanceledAmount: result.CanceledAmount,
		Status:         string(result.Status),
		CanceledAt:     result.CanceledAt,
	})
}

// PaymentResponse is the HTTP response for a payment lookup.
type PaymentResponse struct {
	OrderNumber string `json:"order_number"`
	PaymentType string `json:"payment_type"`
	PaymentKey  string `json:"payment_key,omitempty"`
	Status      string `json:"status"`
	TotalAmount int64  `json:"total_amount"`
	PointUsed   int64  `json:"point_used"`
}

// GetByOrderNumber handles GET /v1/payments/:orderNumber
func (h *PaymentHandler) GetByOrderNumber(c *gin.Context) {
	orderNumber := c.Param("orderNumber")

	payment, err := h.paymentService.GetByOrderNumber(c.Request.Context(), orderNumber)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, PaymentResponse{
		OrderNumber: payment.OrderNumber,
		PaymentType: string(payment.Type),
		PaymentKey:  payment.PaymentKey,
		Status:      string(payment.Status),
		TotalAmount: payment.TotalAmount,
		PointUsed:   payment.PointUsed,
	})
}
