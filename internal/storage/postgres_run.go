package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/apperrors"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/model"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/observer"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/pkg/logger"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/pkg/utils"
)

// --- Run Audit Repository Methods ---

// SaveRun records the audit row for one pipeline invocation. Run rows are
// append-only, so this performs a direct insert.
func (r *PostgresRepo) SaveRun(ctx context.Context, run model.SegmentationRun) error {
	loggerCtx := logger.FromContext(ctx)

	operation := func() error {
		result := r.db.WithContext(ctx).Create(&run)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		if result.RowsAffected == 0 {
			loggerCtx.Warn("SaveRun resulted in 0 rows affected", zap.String("run_id", run.RunID))
			return fmt.Errorf("%w: create operation affected 0 rows", apperrors.ErrDatabase)
		}
		return nil
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "SaveRun", operation)
	observer.ObserveDbOperationDuration("save", "segmentation_run", time.Since(startTime), commitErr)

	if commitErr != nil {
		loggerCtx.Error("Failed to save segmentation run after retries",
			zap.String("run_id", run.RunID),
			zap.Error(commitErr))
		return commitErr // Already wrapped
	}
	return nil
}

// FindRunByID looks up a single run audit row.
func (r *PostgresRepo) FindRunByID(ctx context.Context, runID string) (*model.SegmentationRun, error) {
	loggerCtx := logger.FromContext(ctx)

	var run model.SegmentationRun
	operation := func() error {
		result := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&run)
		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindRunByID", operation)
	observer.ObserveDbOperationDuration("find_by_id", "segmentation_run", time.Since(startTime), findErr)

	if findErr != nil {
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		loggerCtx.Error("Failed to find segmentation run after retries",
			zap.String("run_id", runID),
			zap.Error(findErr))
		return nil, findErr // Already wrapped
	}
	return &run, nil
}
