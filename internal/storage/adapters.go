package storage

import (
	"context"

	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/model"
)

// SourceRepoAdapter adapts the PostgresRepo to the SourceRepo interface
type SourceRepoAdapter struct {
	postgres *PostgresRepo
}

// NewSourceRepoAdapter creates a new source repository adapter
func NewSourceRepoAdapter(postgres *PostgresRepo) SourceRepo {
	return &SourceRepoAdapter{postgres: postgres}
}

func (a *SourceRepoAdapter) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	return a.postgres.ListCustomers(ctx)
}

func (a *SourceRepoAdapter) ListOrders(ctx context.Context) ([]model.Order, error) {
	return a.postgres.ListOrders(ctx)
}

func (a *SourceRepoAdapter) ListOrderLines(ctx context.Context) ([]model.OrderLine, error) {
	return a.postgres.ListOrderLines(ctx)
}

func (a *SourceRepoAdapter) FillOrderTotals(ctx context.Context, totals map[string]float64) (int64, error) {
	return a.postgres.FillOrderTotals(ctx, totals)
}

func (a *SourceRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// SegmentRepoAdapter adapts the PostgresRepo to the SegmentRepo interface
type SegmentRepoAdapter struct {
	postgres *PostgresRepo
}

// NewSegmentRepoAdapter creates a new segment repository adapter
func NewSegmentRepoAdapter(postgres *PostgresRepo) SegmentRepo {
	return &SegmentRepoAdapter{postgres: postgres}
}

func (a *SegmentRepoAdapter) ReplaceSegments(ctx context.Context, records []model.RFMRecord, batchSize int) error {
	return a.postgres.ReplaceSegments(ctx, records, batchSize)
}

func (a *SegmentRepoAdapter) ListSegments(ctx context.Context) ([]model.RFMRecord, error) {
	return a.postgres.ListSegments(ctx)
}

func (a *SegmentRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}

// RunRepoAdapter adapts the PostgresRepo to the RunRepo interface
type RunRepoAdapter struct {
	postgres *PostgresRepo
}

// NewRunRepoAdapter creates a new run repository adapter
func NewRunRepoAdapter(postgres *PostgresRepo) RunRepo {
	return &RunRepoAdapter{postgres: postgres}
}

func (a *RunRepoAdapter) SaveRun(ctx context.Context, run model.SegmentationRun) error {
	return a.postgres.SaveRun(ctx, run)
}

func (a *RunRepoAdapter) FindRunByID(ctx context.Context, runID string) (*model.SegmentationRun, error) {
	return a.postgres.FindRunByID(ctx, runID)
}

func (a *RunRepoAdapter) Close(ctx context.Context) error {
	return a.postgres.Close(ctx)
}
