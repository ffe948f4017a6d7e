package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/lab404/backend/internal/domain/order"
	"github.com/lab404/backend/internal/domain/quotation"
	"github.com/lab404/backend/internal/domain/shared"
)

// newMockQuotationRepository creates a GormQuotationRepository with a mocked SQL connection
func newMockQuotationRepository(t *testing.T) (*GormQuotationRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormQuotationRepository(gormDB), mock, mockDB
}

func requireDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, code, de.Code)
}

func TestGormQuotationRepository_FindByID(t *testing.T) {
	t.Run("finds quotation with its items", func(t *testing.T) {
		repo, mock, mockDB := newMockQuotationRepository(t)
		defer mockDB.Close()

		quotationID := uuid.New()
		itemID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "quotation_number", "customer_name", "currency", "status", "total_amount", "version"}).
			AddRow(quotationID, "QT-2026-00001", "Acme Corp", "USD", "DRAFT", decimal.RequireFromString("25"), 1)

		mock.ExpectQuery(`SELECT \* FROM "quotations" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(quotationID, 1).
			WillReturnRows(rows)

		itemRows := sqlmock.NewRows([]string{"id", "quotation_id", "product_name", "quantity", "unit_price", "line_total", "consumed"}).
			AddRow(itemID, quotationID, "Widget", 2, decimal.RequireFromString("10"), decimal.RequireFromString("20"), false)

		mock.ExpectQuery(`SELECT \* FROM "quotation_items" WHERE "quotation_items"."quotation_id" = \$1`).
			WithArgs(quotationID).
			WillReturnRows(itemRows)

		q, err := repo.FindByID(context.Background(), quotationID)

		require.NoError(t, err)
		require.NotNil(t, q)
		assert.Equal(t, quotationID, q.ID)
		assert.Equal(t, "QT-2026-00001", q.QuotationNumber)
		assert.Equal(t, quotation.StatusDraft, q.Status)
		require.Len(t, q.Items, 1)
		assert.Equal(t, itemID, q.Items[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing quotation", func(t *testing.T) {
		repo, mock, mockDB := newMockQuotationRepository(t)
		defer mockDB.Close()

		quotationID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "quotations" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(quotationID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		q, err := repo.FindByID(context.Background(), quotationID)

		assert.Nil(t, q)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormQuotationRepository_CountByStatus(t *testing.T) {
	t.Run("maps grouped counts", func(t *testing.T) {
		repo, mock, mockDB := newMockQuotationRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"status", "count"}).
			AddRow("DRAFT", 4).
			AddRow("SENT", 2).
			AddRow("CONVERTED", 1)

		mock.ExpectQuery(`SELECT status, COUNT\(\*\) as count FROM "quotations" GROUP BY .*`).
			WillReturnRows(rows)

		counts, err := repo.CountByStatus(context.Background())

		require.NoError(t, err)
		assert.Equal(t, int64(4), counts[quotation.StatusDraft])
		assert.Equal(t, int64(2), counts[quotation.StatusSent])
		assert.Equal(t, int64(1), counts[quotation.StatusConverted])
		assert.Zero(t, counts[quotation.StatusRejected])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormQuotationRepository_SumTotalAmount(t *testing.T) {
	t.Run("sums totals", func(t *testing.T) {
		repo, mock, mockDB := newMockQuotationRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(total_amount\), 0\) FROM "quotations"`).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("1234.50"))

		sum, err := repo.SumTotalAmount(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "1234.5", sum.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormQuotationRepository_SaveWithLock(t *testing.T) {
	t.Run("stale version aborts with conflict", func(t *testing.T) {
		repo, mock, mockDB := newMockQuotationRepository(t)
		defer mockDB.Close()

		q := &quotation.Quotation{}
		q.ID = uuid.New()
		q.Version = 1

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "version" FROM "quotations" WHERE id = \$1`).
			WithArgs(q.ID).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(3))
		mock.ExpectRollback()

		err := repo.SaveWithLock(context.Background(), q)

		requireDomainCode(t, err, "CONCURRENCY_CONFLICT")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lost update race aborts with conflict", func(t *testing.T) {
		repo, mock, mockDB := newMockQuotationRepository(t)
		defer mockDB.Close()

		q := &quotation.Quotation{}
		q.ID = uuid.New()
		q.Version = 2

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "version" FROM "quotations" WHERE id = \$1`).
			WithArgs(q.ID).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(2))
		// The conditional update finds no row: someone committed in between.
		mock.ExpectExec(`UPDATE "quotations" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.SaveWithLock(context.Background(), q)

		requireDomainCode(t, err, "CONCURRENCY_CONFLICT")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormQuotationRepository_SaveConversion(t *testing.T) {
	buildConversionPair := func(t *testing.T) (*quotation.Quotation, *order.Order) {
		t.Helper()
		q := &quotation.Quotation{}
		q.ID = uuid.New()
		q.Version = 1
		q.Status = quotation.StatusConverted

		o, err := order.NewOrder("SO-2026-00001", q.ID, "QT-2026-00001",
			order.CustomerInfo{Name: "Acme"}, "USD")
		require.NoError(t, err)
		require.NoError(t, o.AddLine(uuid.New(), "Widget", "WID-001", 2, decimal.RequireFromString("10")))
		require.NoError(t, o.AddLine(uuid.New(), "Gadget", "GAD-001", 1, decimal.RequireFromString("5")))
		return q, o
	}

	t.Run("lost item claim aborts the whole transaction", func(t *testing.T) {
		repo, mock, mockDB := newMockQuotationRepository(t)
		defer mockDB.Close()

		q, o := buildConversionPair(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "version" FROM "quotations" WHERE id = \$1`).
			WithArgs(q.ID).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))
		// Two items selected, only one row still unconsumed.
		mock.ExpectExec(`UPDATE "quotation_items" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectRollback()

		err := repo.SaveConversion(context.Background(), q, o)

		requireDomainCode(t, err, "CONCURRENCY_CONFLICT")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale aggregate version aborts before claiming items", func(t *testing.T) {
		repo, mock, mockDB := newMockQuotationRepository(t)
		defer mockDB.Close()

		q, o := buildConversionPair(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "version" FROM "quotations" WHERE id = \$1`).
			WithArgs(q.ID).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(5))
		mock.ExpectRollback()

		err := repo.SaveConversion(context.Background(), q, o)

		requireDomainCode(t, err, "CONCURRENCY_CONFLICT")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormQuotationRepository_Delete(t *testing.T) {
	t.Run("deletes quotation and its items", func(t *testing.T) {
		repo, mock, mockDB := newMockQuotationRepository(t)
		defer mockDB.Close()

		quotationID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "quotation_items" WHERE quotation_id = \$1`).
			WithArgs(quotationID).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`DELETE FROM "quotations" WHERE id = \$1`).
			WithArgs(quotationID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Delete(context.Background(), quotationID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing quotation rolls back with not found", func(t *testing.T) {
		repo, mock, mockDB := newMockQuotationRepository(t)
		defer mockDB.Close()

		quotationID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "quotation_items" WHERE quotation_id = \$1`).
			WithArgs(quotationID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM "quotations" WHERE id = \$1`).
			WithArgs(quotationID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Delete(context.Background(), quotationID)

		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormQuotationRepository_ExistsByNumber(t *testing.T) {
	t.Run("reports existing number", func(t *testing.T) {
		repo, mock, mockDB := newMockQuotationRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "quotations" WHERE quotation_number = \$1`).
			WithArgs("QT-2026-00001").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		exists, err := repo.ExistsByNumber(context.Background(), "QT-2026-00001")

		require.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormQuotationRepository_GenerateNumber(t *testing.T) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("QT-%d-", year)

	t.Run("increments from the latest number", func(t *testing.T) {
		repo, mock, mockDB := newMockQuotationRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"id", "quotation_number"}).
			AddRow(uuid.New(), prefix+"00042")

		mock.ExpectQuery(`SELECT \* FROM "quotations" WHERE quotation_number LIKE \$1 ORDER BY quotation_number DESC`).
			WithArgs(prefix+"%", 1).
			WillReturnRows(rows)
		mock.ExpectQuery(`SELECT count\(\*\) FROM "quotations" WHERE quotation_number = \$1`).
			WithArgs(prefix + "00043").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		number, err := repo.GenerateNumber(context.Background())

		require.NoError(t, err)
		assert.Equal(t, prefix+"00043", number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("starts at one for a fresh year", func(t *testing.T) {
		repo, mock, mockDB := newMockQuotationRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "quotations" WHERE quotation_number LIKE \$1 ORDER BY quotation_number DESC`).
			WithArgs(prefix+"%", 1).
			WillReturnError(gorm.ErrRecordNotFound)
		mock.ExpectQuery(`SELECT count\(\*\) FROM "quotations" WHERE quotation_number = \$1`).
			WithArgs(prefix + "00001").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		number, err := repo.GenerateNumber(context.Background())

		require.NoError(t, err)
		assert.Equal(t, prefix+"00001", number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
