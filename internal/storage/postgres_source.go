package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/apperrors"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/model"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/observer"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/pkg/logger"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/pkg/utils"
)

// --- Source Table Repository Methods ---

// ListCustomers loads the full customers table.
func (r *PostgresRepo) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	var customers []model.Customer
	operation := func() error {
		result := r.db.WithContext(ctx).Find(&customers)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "ListCustomers", operation)
	observer.ObserveDbOperationDuration("list", "customer", time.Since(startTime), findErr)

	if findErr != nil {
		logger.FromContext(ctx).Error("Failed to list customers after retries", zap.Error(findErr))
		return nil, findErr // Already wrapped
	}
	if customers == nil { // Ensure empty slice is returned, not nil
		return []model.Customer{}, nil
	}
	return customers, nil
}

// ListOrders loads the full orders table.
func (r *PostgresRepo) ListOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	operation := func() error {
		result := r.db.WithContext(ctx).Find(&orders)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "ListOrders", operation)
	observer.ObserveDbOperationDuration("list", "order", time.Since(startTime), findErr)

	if findErr != nil {
		logger.FromContext(ctx).Error("Failed to list orders after retries", zap.Error(findErr))
		return nil, findErr
	}
	if orders == nil {
		return []model.Order{}, nil
	}
	return orders, nil
}

// ListOrderLines loads the full order_lines table.
func (r *PostgresRepo) ListOrderLines(ctx context.Context) ([]model.OrderLine, error) {
	var lines []model.OrderLine
	operation := func() error {
		result := r.db.WithContext(ctx).Find(&lines)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "ListOrderLines", operation)
	observer.ObserveDbOperationDuration("list", "order_line", time.Since(startTime), findErr)

	if findErr != nil {
		logger.FromContext(ctx).Error("Failed to list order lines after retries", zap.Error(findErr))
		return nil, findErr
	}
	if lines == nil {
		return []model.OrderLine{}, nil
	}
	return lines, nil
}

// FillOrderTotals writes computed totals back to orders whose total_amount
// is still NULL. The NULL guard keeps the write idempotent: re-running the
// reconciliation never overwrites a total that is already present.
func (r *PostgresRepo) FillOrderTotals(ctx context.Context, totals map[string]float64) (int64, error) {
	if len(totals) == 0 {
		return 0, nil
	}
	loggerCtx := logger.FromContext(ctx)

	orderIDs := make([]string, 0, len(totals))
	for orderID := range totals {
		orderIDs = append(orderIDs, orderID)
	}
	sort.Strings(orderIDs)

	var updated int64
	operation := func() error {
		updated = 0
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, orderID := range orderIDs {
				result := tx.Model(&model.Order{}).
					Where("order_id = ? AND total_amount IS NULL", orderID).
					Update("total_amount", totals[orderID])
				if result.Error != nil {
					return checkConstraintViolation(result.Error)
				}
				updated += result.RowsAffected
			}
			return nil
		})
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "FillOrderTotals", operation)
	observer.ObserveDbOperationDuration("fill_totals", "order", time.Since(startTime), commitErr)

	if commitErr != nil {
		loggerCtx.Error("Failed to fill order totals after retries",
			zap.Int("orders", len(orderIDs)),
			zap.Error(commitErr))
		return 0, commitErr // Already wrapped
	}
	if updated < int64(len(orderIDs)) {
		// A concurrent writer may have filled some totals since the
		// snapshot was read. Worth noting but not an error.
		loggerCtx.Warn("Some order totals were already set",
			zap.Int("computed", len(orderIDs)),
			zap.Int64("updated", updated))
	}
	return updated, nil
}
