package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/apperrors"
)

func TestPostgresRepo_ListCustomers(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		t.Cleanup(teardown)

		signup := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows([]string{"customer_id", "name", "gender", "age", "region", "signup_date"}).
			AddRow("C1", "Sari", "F", 31, "Jakarta", signup).
			AddRow("C2", "Budi", "M", 45, "Bandung", signup)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "customers"`)).WillReturnRows(rows)

		customers, err := repo.ListCustomers(context.Background())
		require.NoError(t, err)
		require.Len(t, customers, 2)
		assert.Equal(t, "C1", customers[0].CustomerID)
		assert.Equal(t, "Bandung", customers[1].Region)
	})

	t.Run("Empty Table", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		t.Cleanup(teardown)

		rows := sqlmock.NewRows([]string{"customer_id", "name", "gender", "age", "region", "signup_date"})
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "customers"`)).WillReturnRows(rows)

		customers, err := repo.ListCustomers(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, customers)
		assert.Empty(t, customers)
	})

	t.Run("Query Fails", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		t.Cleanup(teardown)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "customers"`)).
			WillReturnError(errors.New("table does not exist"))

		customers, err := repo.ListCustomers(context.Background())
		assert.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrDatabase)
		assert.Nil(t, customers)
	})
}

func TestPostgresRepo_ListOrders(t *testing.T) {
	repo, mock, teardown := newTestRepo(t)
	t.Cleanup(teardown)

	orderDate := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"order_id", "customer_id", "order_date", "total_amount"}).
		AddRow("O1", "C1", orderDate, 150.0).
		AddRow("O2", "C1", orderDate, nil) // total pending reconciliation
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).WillReturnRows(rows)

	orders, err := repo.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.NotNil(t, orders[0].TotalAmount)
	assert.Equal(t, 150.0, *orders[0].TotalAmount)
	assert.Nil(t, orders[1].TotalAmount)
}

func TestPostgresRepo_ListOrderLines(t *testing.T) {
	repo, mock, teardown := newTestRepo(t)
	t.Cleanup(teardown)

	rows := sqlmock.NewRows([]string{"order_detail_id", "order_id", "product_id", "quantity", "unit_price"}).
		AddRow("L1", "O1", "P9", 2, 10.0).
		AddRow("L2", "O1", "P4", 1, 5.0)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "order_lines"`)).WillReturnRows(rows)

	lines, err := repo.ListOrderLines(context.Background())
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 5.0, lines[1].UnitPrice)
}

func TestPostgresRepo_FillOrderTotals(t *testing.T) {
	updatePattern := regexp.QuoteMeta(`UPDATE "orders" SET "total_amount"`)

	t.Run("Success", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		t.Cleanup(teardown)

		// Orders are updated in sorted key order inside one transaction.
		mock.ExpectBegin()
		mock.ExpectExec(updatePattern).WithArgs(25.0, "O1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(updatePattern).WithArgs(99.9, "O2").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		updated, err := repo.FillOrderTotals(context.Background(), map[string]float64{
			"O2": 99.9,
			"O1": 25.0,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), updated)
	})

	t.Run("Total Already Set", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		t.Cleanup(teardown)

		// The NULL guard means a concurrently-filled total affects 0 rows.
		mock.ExpectBegin()
		mock.ExpectExec(updatePattern).WithArgs(25.0, "O1").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		updated, err := repo.FillOrderTotals(context.Background(), map[string]float64{"O1": 25.0})
		require.NoError(t, err)
		assert.Equal(t, int64(0), updated)
	})

	t.Run("Empty Input", func(t *testing.T) {
		repo, _, teardown := newTestRepo(t)
		t.Cleanup(teardown)

		updated, err := repo.FillOrderTotals(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, int64(0), updated)
	})

	t.Run("Update Fails", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		t.Cleanup(teardown)

		mock.ExpectBegin()
		mock.ExpectExec(updatePattern).WithArgs(25.0, "O1").WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		updated, err := repo.FillOrderTotals(context.Background(), map[string]float64{"O1": 25.0})
		assert.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrDatabase)
		assert.Equal(t, int64(0), updated)
	})
}
