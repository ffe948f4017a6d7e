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

	"github.com/lab404/backend/internal/domain/shared"
)

func newMockOrderRepository(t *testing.T) (*GormOrderRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormOrderRepository(gormDB), mock, mockDB
}

func TestGormOrderRepository_FindByID(t *testing.T) {
	t.Run("finds order with its lines", func(t *testing.T) {
		repo, mock, mockDB := newMockOrderRepository(t)
		defer mockDB.Close()

		orderID := uuid.New()
		quotationID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "order_number", "quotation_id", "quotation_number", "customer_name", "currency", "status", "total_amount"}).
			AddRow(orderID, "SO-2026-00001", quotationID, "QT-2026-00001", "Acme Corp", "USD", "NEW", decimal.RequireFromString("20"))

		mock.ExpectQuery(`SELECT \* FROM "orders" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(orderID, 1).
			WillReturnRows(rows)

		itemRows := sqlmock.NewRows([]string{"id", "order_id", "quotation_item_id", "product_name", "quantity", "unit_price", "line_total"}).
			AddRow(uuid.New(), orderID, uuid.New(), "Widget", 2, decimal.RequireFromString("10"), decimal.RequireFromString("20"))

		mock.ExpectQuery(`SELECT \* FROM "order_items" WHERE "order_items"."order_id" = \$1`).
			WithArgs(orderID).
			WillReturnRows(itemRows)

		o, err := repo.FindByID(context.Background(), orderID)

		require.NoError(t, err)
		assert.Equal(t, "SO-2026-00001", o.OrderNumber)
		assert.Equal(t, quotationID, o.QuotationID)
		require.Len(t, o.Items, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing order", func(t *testing.T) {
		repo, mock, mockDB := newMockOrderRepository(t)
		defer mockDB.Close()

		orderID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "orders" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(orderID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		o, err := repo.FindByID(context.Background(), orderID)

		assert.Nil(t, o)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormOrderRepository_FindByQuotation(t *testing.T) {
	t.Run("lists orders for a quotation oldest first", func(t *testing.T) {
		repo, mock, mockDB := newMockOrderRepository(t)
		defer mockDB.Close()

		quotationID := uuid.New()
		firstID := uuid.New()
		secondID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "order_number", "quotation_id", "customer_name", "currency", "status"}).
			AddRow(firstID, "SO-2026-00001", quotationID, "Acme", "USD", "NEW").
			AddRow(secondID, "SO-2026-00002", quotationID, "Acme", "USD", "NEW")

		mock.ExpectQuery(`SELECT \* FROM "orders" WHERE quotation_id = \$1 ORDER BY created_at ASC`).
			WithArgs(quotationID).
			WillReturnRows(rows)

		mock.ExpectQuery(`SELECT \* FROM "order_items" WHERE "order_items"."order_id" IN \(\$1,\$2\)`).
			WithArgs(firstID, secondID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "order_id"}))

		orders, err := repo.FindByQuotation(context.Background(), quotationID)

		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, "SO-2026-00001", orders[0].OrderNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormOrderRepository_GenerateOrderNumber(t *testing.T) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("SO-%d-", year)

	t.Run("increments from the latest number", func(t *testing.T) {
		repo, mock, mockDB := newMockOrderRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"id", "order_number"}).
			AddRow(uuid.New(), prefix+"00007")

		mock.ExpectQuery(`SELECT \* FROM "orders" WHERE order_number LIKE \$1 ORDER BY order_number DESC`).
			WithArgs(prefix+"%", 1).
			WillReturnRows(rows)
		mock.ExpectQuery(`SELECT count\(\*\) FROM "orders" WHERE order_number = \$1`).
			WithArgs(prefix + "00008").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		number, err := repo.GenerateOrderNumber(context.Background())

		require.NoError(t, err)
		assert.Equal(t, prefix+"00008", number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("starts at one for a fresh year", func(t *testing.T) {
		repo, mock, mockDB := newMockOrderRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "orders" WHERE order_number LIKE \$1 ORDER BY order_number DESC`).
			WithArgs(prefix+"%", 1).
			WillReturnError(gorm.ErrRecordNotFound)
		mock.ExpectQuery(`SELECT count\(\*\) FROM "orders" WHERE order_number = \$1`).
			WithArgs(prefix + "00001").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		number, err := repo.GenerateOrderNumber(context.Background())

		require.NoError(t, err)
		assert.Equal(t, prefix+"00001", number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
