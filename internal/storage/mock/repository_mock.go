package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/model"
)

// --- SourceRepo Mock ---

// SourceRepoMock mocks the SourceRepo interface
type SourceRepoMock struct {
	mock.Mock
}

func (m *SourceRepoMock) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Customer), args.Error(1)
}

func (m *SourceRepoMock) ListOrders(ctx context.Context) ([]model.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *SourceRepoMock) ListOrderLines(ctx context.Context) ([]model.OrderLine, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderLine), args.Error(1)
}

func (m *SourceRepoMock) FillOrderTotals(ctx context.Context, totals map[string]float64) (int64, error) {
	args := m.Called(ctx, totals)
	return args.Get(0).(int64), args.Error(1)
}

func (m *SourceRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- SegmentRepo Mock ---

// SegmentRepoMock mocks the SegmentRepo interface
type SegmentRepoMock struct {
	mock.Mock
}

func (m *SegmentRepoMock) ReplaceSegments(ctx context.Context, records []model.RFMRecord, batchSize int) error {
	args := m.Called(ctx, records, batchSize)
	return args.Error(0)
}

func (m *SegmentRepoMock) ListSegments(ctx context.Context) ([]model.RFMRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RFMRecord), args.Error(1)
}

func (m *SegmentRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- RunRepo Mock ---

// RunRepoMock mocks the RunRepo interface
type RunRepoMock struct {
	mock.Mock
}

func (m *RunRepoMock) SaveRun(ctx context.Context, run model.SegmentationRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *RunRepoMock) FindRunByID(ctx context.Context, runID string) (*model.SegmentationRun, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SegmentationRun), args.Error(1)
}

func (m *RunRepoMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
