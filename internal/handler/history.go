package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"paycore/internal/domain"
	"paycore/internal/service"
)

// HistoryHandler handles admin HTTP requests over the payment history ledger.
type HistoryHandler struct {
	historyService *service.HistoryService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historyService *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

// HistoryItem is one ledger row in a search response.
type HistoryItem struct {
	ID         string    `json:"id"`
	PaymentID  string    `json:"payment_id"`
	Status     string    `json:"status"`
	Amount     int64     `json:"amount"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// HistorySearchResponse is a page of ledger rows plus pagination metadata.
type HistorySearchResponse struct {
	Items      []HistoryItem `json:"items"`
	TotalCount int64         `json:"total_count"`
	Page       int           `json:"page"`
	Size       int           `json:"size"`
}

// Search handles GET /v1/admin/payment-histories
//
// Query params: type, status, from, to (RFC 3339 or 2006-01-02), page, size.
// Omitted filters are unconstrained; the date range is inclusive.
func (h *HistoryHandler) Search(c *gin.Context) {
	query := service.HistoryQuery{
		Type:   domain.PaymentType(c.Query("type")),
		Status: domain.PaymentStatus(c.Query("status")),
	}

	if v := c.Query("from"); v != "" {
		from, err := parseDate(v, false)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from date"})
			return
		}
		query.From = from
	}

	if v := c.Query("to"); v != "" {
		to, err := parseDate(v, true)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to date"})
			return
		}
		query.To = to
	}

	if v := c.Query("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
			return
		}
		query.Page = page
	}

	if v := c.Query("size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid size"})
			return
		}
		query.Size = size
	}

	page, err := h.historyService.Search(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]HistoryItem, 0, len(page.Items))
	for _, row := range page.Items {
		items = append(items, HistoryItem{
			ID:         row.ID,
			PaymentID:  row.PaymentID,
			Status:     string(row.Status),
			Amount:     row.Amount,
			Reason:     row.Reason,
			OccurredAt: row.OccurredAt,
		})
	}

	respondJSON(c, http.StatusOK, HistorySearchResponse{
		Items:      items,
		TotalCount: page.TotalCount,
		Page:       page.Page,
		Size:       page.Size,
	})
}

// parseDate accepts RFC 3339 timestamps or bare dates. A bare "to" date is
// pushed to the end of that day so the range stays inclusive.
func parseDate(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}

	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, err
	}

	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}

	return t, nil
}
