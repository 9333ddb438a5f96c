package storage

import (
	"context"

	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/model"
)

// SourceRepo defines read and reconcile operations on the source tables.
type SourceRepo interface {
	ListCustomers(ctx context.Context) ([]model.Customer, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	ListOrderLines(ctx context.Context) ([]model.OrderLine, error)
	// FillOrderTotals writes computed totals back to orders whose
	// total_amount is still NULL and returns the number of rows updated.
	FillOrderTotals(ctx context.Context, totals map[string]float64) (int64, error)
	Close(ctx context.Context) error
}

// SegmentRepo defines operations on the segment output table.
type SegmentRepo interface {
	// ReplaceSegments atomically swaps the full contents of the output
	// table for the given records.
	ReplaceSegments(ctx context.Context, records []model.RFMRecord, batchSize int) error
	ListSegments(ctx context.Context) ([]model.RFMRecord, error)
	Close(ctx context.Context) error
}

// RunRepo defines operations on the run audit table.
type RunRepo interface {
	SaveRun(ctx context.Context, run model.SegmentationRun) error
	FindRunByID(ctx context.Context, runID string) (*model.SegmentationRun, error)
	Close(ctx context.Context) error
}
