package quotation

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/lab404/backend/internal/domain/quotation"
)

// StatisticsService produces read-only rollups over the quotation pipeline.
// It never loads aggregates; everything is computed from repository queries.
type StatisticsService struct {
	quotationRepo quotation.Repository
}

// NewStatisticsService creates a new StatisticsService
func NewStatisticsService(quotationRepo quotation.Repository) *StatisticsService {
	return &StatisticsService{quotationRepo: quotationRepo}
}

// Stats computes the pipeline summary: total count, per-status counts, total
// and average value, and the conversion rate. The conversion rate is the
// share of quotations that reached CONVERTED among all that left draft;
// with nothing sent yet the rate is zero, not a division error.
func (s *StatisticsService) Stats(ctx context.Context) (*QuotationStats, error) {
	counts, err := s.quotationRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	totalValue, err := s.quotationRepo.SumTotalAmount(ctx)
	if err != nil {
		return nil, err
	}

	var totalCount int64
	byStatus := make(map[string]int64, len(counts))
	for status, count := range counts {
		totalCount += count
		byStatus[status.String()] = count
	}

	averageValue := decimal.Zero
	if totalCount > 0 {
		averageValue = totalValue.Div(decimal.NewFromInt(totalCount)).Round(2)
	}

	nonDraft := totalCount - counts[quotation.StatusDraft]
	conversionRate := decimal.Zero
	if nonDraft > 0 {
		conversionRate = decimal.NewFromInt(counts[quotation.StatusConverted]).
			Div(decimal.NewFromInt(nonDraft)).
			Round(4)
	}

	return &QuotationStats{
		TotalCount:     totalCount,
		CountByStatus:  byStatus,
		TotalValue:     totalValue,
		AverageValue:   averageValue,
		ConversionRate: conversionRate,
	}, nil
}
