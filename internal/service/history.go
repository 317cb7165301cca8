package service

import (
	"context"
	"time"

	"paycore/internal/domain"
	"paycore/internal/repository"
)

// DefaultHistoryPageSize is the page size used when none is requested.
const DefaultHistoryPageSize = 20

// HistoryQuery narrows an admin history search. Zero-valued fields are
// unconstrained; pages are 1-based.
type HistoryQuery struct {
	Type   domain.PaymentType
	Status domain.PaymentStatus
	From   time.Time
	To     time.Time
	Page   int
	Size   int
}

// HistoryPage is one page of history rows plus pagination metadata. The
// total count is computed independently of the page fetch.
type HistoryPage struct {
	Items      []*domain.PaymentHistory
	TotalCount int64
	Page       int
	Size       int
}

// HistoryService is the admin-facing query surface over the payment
// history ledger.
type HistoryService struct {
	historyRepo repository.HistoryRepository
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(historyRepo repository.HistoryRepository) *HistoryService {
	return &HistoryService{historyRepo: historyRepo}
}

// Search retrieves a page of history rows matching the query, sorted by
// occurred_at descending.
func (s *HistoryService) Search(ctx context.Context, query HistoryQuery) (*HistoryPage, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	size := query.Size
	if size < 1 {
		size = DefaultHistoryPageSize
	}

	filter := repository.HistoryFilter{
		Type:   query.Type,
		Status: query.Status,
		From:   query.From,
		To:     query.To,
	}

	items, err := s.historyRepo.Search(ctx, filter, size, (page-1)*size)
	if err != nil {
		return nil, err
	}

	total, err := s.historyRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &HistoryPage{
		Items:      items,
		TotalCount: total,
		Page:       page,
		Size:       size,
	}, nil
}
