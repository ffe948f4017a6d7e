package quotation

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lab404/backend/internal/domain/quotation"
)

func TestStatisticsServiceStats(t *testing.T) {
	ctx := context.Background()

	t.Run("computes rollup over a mixed pipeline", func(t *testing.T) {
		quotationRepo := new(MockQuotationRepository)
		svc := NewStatisticsService(quotationRepo)

		quotationRepo.On("CountByStatus", ctx).Return(quotation.StatusCounts{
			quotation.StatusDraft:     4,
			quotation.StatusSent:      3,
			quotation.StatusApproved:  1,
			quotation.StatusRejected:  2,
			quotation.StatusConverted: 2,
		}, nil)
		quotationRepo.On("SumTotalAmount", ctx).Return(decimal.RequireFromString("1200"), nil)

		stats, err := svc.Stats(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(12), stats.TotalCount)
		assert.Equal(t, int64(4), stats.CountByStatus["DRAFT"])
		assert.Equal(t, int64(2), stats.CountByStatus["CONVERTED"])
		assert.Equal(t, "1200", stats.TotalValue.String())
		assert.Equal(t, "100", stats.AverageValue.String())
		// 2 converted out of 8 that left draft.
		assert.Equal(t, "0.25", stats.ConversionRate.String())
	})

	t.Run("empty pipeline yields zeros, not division errors", func(t *testing.T) {
		quotationRepo := new(MockQuotationRepository)
		svc := NewStatisticsService(quotationRepo)

		quotationRepo.On("CountByStatus", ctx).Return(quotation.StatusCounts{}, nil)
		quotationRepo.On("SumTotalAmount", ctx).Return(decimal.Zero, nil)

		stats, err := svc.Stats(ctx)
		require.NoError(t, err)

		assert.Zero(t, stats.TotalCount)
		assert.True(t, stats.AverageValue.IsZero())
		assert.True(t, stats.ConversionRate.IsZero())
	})

	t.Run("drafts only still guards the conversion rate", func(t *testing.T) {
		quotationRepo := new(MockQuotationRepository)
		svc := NewStatisticsService(quotationRepo)

		quotationRepo.On("CountByStatus", ctx).Return(quotation.StatusCounts{
			quotation.StatusDraft: 5,
		}, nil)
		quotationRepo.On("SumTotalAmount", ctx).Return(decimal.RequireFromString("500"), nil)

		stats, err := svc.Stats(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(5), stats.TotalCount)
		assert.Equal(t, "100", stats.AverageValue.String())
		assert.True(t, stats.ConversionRate.IsZero())
	})

	t.Run("propagates repository failure", func(t *testing.T) {
		quotationRepo := new(MockQuotationRepository)
		svc := NewStatisticsService(quotationRepo)

		quotationRepo.On("CountByStatus", ctx).Return(nil, assert.AnError)

		_, err := svc.Stats(ctx)
		assert.ErrorIs(t, err, assert.AnError)
	})
}
