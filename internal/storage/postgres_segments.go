package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/apperrors"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/model"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/observer"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/pkg/logger"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/pkg/utils"
)

// --- Segment Output Repository Methods ---

// ReplaceSegments swaps the full contents of the output table for the
// given records in a single transaction. Readers either see the previous
// run's segments or the new ones, never a mix.
func (r *PostgresRepo) ReplaceSegments(ctx context.Context, records []model.RFMRecord, batchSize int) error {
	loggerCtx := logger.FromContext(ctx)
	if batchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d", apperrors.ErrBadRequest, batchSize)
	}

	operation := func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			result := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.RFMRecord{})
			if result.Error != nil {
				return checkConstraintViolation(result.Error)
			}
			if len(records) == 0 {
				return nil
			}
			if err := tx.CreateInBatches(records, batchSize).Error; err != nil {
				return checkConstraintViolation(err)
			}
			return nil
		})
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "ReplaceSegments", operation)
	observer.ObserveDbOperationDuration("replace", "rfm_segment", time.Since(startTime), commitErr)

	if commitErr != nil {
		loggerCtx.Error("Failed to replace segments after retries",
			zap.Int("records", len(records)),
			zap.Error(commitErr))
		return commitErr // Already wrapped
	}
	loggerCtx.Debug("Replaced segment table contents", zap.Int("records", len(records)))
	return nil
}

// ListSegments loads the current contents of the output table.
func (r *PostgresRepo) ListSegments(ctx context.Context) ([]model.RFMRecord, error) {
	var records []model.RFMRecord
	operation := func() error {
		result := r.db.WithContext(ctx).Find(&records)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "ListSegments", operation)
	observer.ObserveDbOperationDuration("list", "rfm_segment", time.Since(startTime), findErr)

	if findErr != nil {
		logger.FromContext(ctx).Error("Failed to list segments after retries", zap.Error(findErr))
		return nil, findErr
	}
	if records == nil {
		return []model.RFMRecord{}, nil
	}
	return records, nil
}
