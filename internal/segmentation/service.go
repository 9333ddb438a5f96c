package segmentation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/model"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/observer"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/storage"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/pkg/logger"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/pkg/utils"
)

// Service orchestrates the five pipeline stages against a full snapshot
// of the source tables and replaces the output table at the end. One
// invocation is one batch recompute; given identical input data and the
// same analysis date the result set is identical, so the caller can
// simply re-invoke after a failed run.
type Service struct {
	source    storage.SourceRepo
	segments  storage.SegmentRepo
	runs      storage.RunRepo
	batchSize int
}

// NewService creates the pipeline service.
func NewService(source storage.SourceRepo, segments storage.SegmentRepo, runs storage.RunRepo, batchSize int) *Service {
	return &Service{
		source:    source,
		segments:  segments,
		runs:      runs,
		batchSize: batchSize,
	}
}

// Run executes the full pipeline as of the given analysis date and
// returns the audit row that was recorded for the invocation. The run
// row is written on both success and failure.
func (s *Service) Run(ctx context.Context, analysisDate time.Time) (*model.SegmentationRun, error) {
	analysisDate = utils.DateOnly(analysisDate)

	run := model.SegmentationRun{
		RunID:        uuid.New().String(),
		AnalysisDate: analysisDate,
		StartedAt:    utils.Now(),
	}
	ctx = logger.WithRunID(ctx, run.RunID)
	log := logger.FromContext(ctx)
	log.Info("Starting segmentation run", zap.Time("analysis_date", analysisDate))

	err := s.execute(ctx, analysisDate, &run)
	run.FinishedAt = utils.Now()
	duration := run.FinishedAt.Sub(run.StartedAt)

	if err != nil {
		run.Status = model.RunStatusFailed
		run.Details = datatypes.JSON(utils.MustMarshalJSON(map[string]interface{}{
			"error": err.Error(),
		}))
		log.Error("Segmentation run failed", zap.Error(err), zap.Duration("duration", duration))
	} else {
		run.Status = model.RunStatusSucceeded
		log.Info("Segmentation run succeeded",
			zap.Int("segments_written", run.SegmentsWritten),
			zap.Int("totals_filled", run.TotalsFilled),
			zap.Duration("duration", duration),
		)
	}
	observer.ObserveRun(run.Status, duration)

	if saveErr := s.runs.SaveRun(ctx, run); saveErr != nil {
		// The audit row is best-effort; losing it must not fail an
		// otherwise successful recompute.
		log.Error("Failed to record segmentation run", zap.Error(saveErr))
	}

	if err != nil {
		return &run, err
	}
	return &run, nil
}

func (s *Service) execute(ctx context.Context, analysisDate time.Time, run *model.SegmentationRun) error {
	log := logger.FromContext(ctx)

	customers, err := s.source.ListCustomers(ctx)
	if err != nil {
		return fmt.Errorf("loading customers: %w", err)
	}
	orders, err := s.source.ListOrders(ctx)
	if err != nil {
		return fmt.Errorf("loading orders: %w", err)
	}
	lines, err := s.source.ListOrderLines(ctx)
	if err != nil {
		return fmt.Errorf("loading order lines: %w", err)
	}
	run.RawCustomers = len(customers)
	run.RawOrders = len(orders)
	run.RawOrderLines = len(lines)

	cleaned := Clean(customers, orders, lines)
	run.CleanCustomers = len(cleaned.Customers)
	run.CleanOrders = len(cleaned.Orders)
	run.CleanOrderLines = len(cleaned.OrderLines)
	observer.AddRowsDropped("customer", cleaned.DroppedCustomers)
	observer.AddRowsDropped("order", cleaned.DroppedOrders)
	observer.AddRowsDropped("order_line", cleaned.DroppedOrderLines)
	observer.AddDuplicatesRemoved(cleaned.DuplicateRows)
	log.Debug("Cleaning complete",
		zap.Int("customers", run.CleanCustomers),
		zap.Int("orders", run.CleanOrders),
		zap.Int("order_lines", run.CleanOrderLines),
		zap.Int("duplicates_removed", cleaned.DuplicateRows),
	)

	reconciled := ReconcileTotals(cleaned.Orders, cleaned.OrderLines)
	run.TotalsFilled = len(reconciled.Filled)
	observer.AddTotalsFilled(run.TotalsFilled)
	if run.TotalsFilled > 0 {
		filled, err := s.source.FillOrderTotals(ctx, reconciled.Filled)
		if err != nil {
			return fmt.Errorf("persisting reconciled totals: %w", err)
		}
		log.Info("Filled missing order totals",
			zap.Int("computed", run.TotalsFilled),
			zap.Int64("rows_updated", filled),
		)
	}

	metrics := ComputeMetrics(cleaned.Customers, reconciled.Orders, cleaned.OrderLines, analysisDate)
	ranked := Rank(metrics)
	composed := Compose(cleaned.Customers, ranked)
	run.SegmentsWritten = len(composed.Records)
	run.CustomersDropped = len(composed.Dropped)
	if run.CustomersDropped > 0 {
		// Should be impossible: every cleaned customer flows through
		// metrics and ranking. Surface loudly rather than silently
		// shrinking the output.
		observer.AddComposeDrops(run.CustomersDropped)
		log.Warn("Customers dropped at compose stage",
			zap.Int("count", run.CustomersDropped),
			zap.Strings("customer_ids", composed.Dropped),
		)
		run.Details = datatypes.JSON(utils.MustMarshalJSON(map[string]interface{}{
			"dropped_customer_ids": composed.Dropped,
		}))
	}

	if err := s.segments.ReplaceSegments(ctx, composed.Records, s.batchSize); err != nil {
		return fmt.Errorf("replacing segments: %w", err)
	}
	observer.AddSegmentsWritten(run.SegmentsWritten)

	return nil
}
