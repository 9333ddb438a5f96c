package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/model"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/observer"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/pkg/logger"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/pkg/utils"
)

// --- Source Table Seeding Methods ---
//
// Used by the seeder binary to populate test datasets. Inserts are
// batched; constraint violations surface through the usual error
// mapping so re-seeding over existing data fails loudly rather than
// silently skipping rows.

// InsertCustomers bulk inserts customer rows.
func (r *PostgresRepo) InsertCustomers(ctx context.Context, customers []model.Customer, batchSize int) error {
	if len(customers) == 0 {
		return nil
	}
	operation := func() error {
		if err := r.db.WithContext(ctx).CreateInBatches(customers, batchSize).Error; err != nil {
			return checkConstraintViolation(err)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "InsertCustomers", operation)
	observer.ObserveDbOperationDuration("insert", "customer", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to insert customers after retries",
			zap.Int("rows", len(customers)),
			zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// InsertOrders bulk inserts order rows.
func (r *PostgresRepo) InsertOrders(ctx context.Context, orders []model.Order, batchSize int) error {
	if len(orders) == 0 {
		return nil
	}
	operation := func() error {
		if err := r.db.WithContext(ctx).CreateInBatches(orders, batchSize).Error; err != nil {
			return checkConstraintViolation(err)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "InsertOrders", operation)
	observer.ObserveDbOperationDuration("insert", "order", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to insert orders after retries",
			zap.Int("rows", len(orders)),
			zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// InsertOrderLines bulk inserts order line rows.
func (r *PostgresRepo) InsertOrderLines(ctx context.Context, lines []model.OrderLine, batchSize int) error {
	if len(lines) == 0 {
		return nil
	}
	operation := func() error {
		if err := r.db.WithContext(ctx).CreateInBatches(lines, batchSize).Error; err != nil {
			return checkConstraintViolation(err)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "InsertOrderLines", operation)
	observer.ObserveDbOperationDuration("insert", "order_line", time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to insert order lines after retries",
			zap.Int("rows", len(lines)),
			zap.Error(commitErr))
		return commitErr
	}
	return nil
}
