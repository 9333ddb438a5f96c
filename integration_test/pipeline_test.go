package integration_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/model"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/segmentation"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/storage"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/pkg/logger"
)

const seedBatchSize = 100

// PipelineIntegrationSuite drives full segmentation runs against a real
// Postgres instance.
type PipelineIntegrationSuite struct {
	BaseIntegrationSuite
	repo    *storage.PostgresRepo
	service *segmentation.Service
}

func (s *PipelineIntegrationSuite) SetupTest() {
	logger.Log = zaptest.NewLogger(s.T()).Named("PipelineIntegrationSuite")

	repo, err := storage.NewPostgresRepo(s.PostgresDSN, true)
	s.Require().NoError(err, "SetupTest: failed to create repo")
	s.repo = repo

	s.service = segmentation.NewService(
		storage.NewSourceRepoAdapter(repo),
		storage.NewSegmentRepoAdapter(repo),
		storage.NewRunRepoAdapter(repo),
		seedBatchSize,
	)

	s.BaseIntegrationSuite.SetupTest()
}

func (s *PipelineIntegrationSuite) TearDownTest() {
	if s.repo != nil {
		s.repo.Close(s.Ctx)
	}
}

func TestPipelineIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PipelineIntegrationSuite))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func floatPtr(v float64) *float64 {
	return &v
}

// seedKnownDataset inserts a small deterministic dataset:
//
//	active   - two priced orders with three line items
//	dormant  - no orders at all
//	unpriced - one order with a NULL total and two line items summing 25
func (s *PipelineIntegrationSuite) seedKnownDataset() {
	customers := []model.Customer{
		*model.NewCustomer(&model.Customer{CustomerID: "cust-active"}),
		*model.NewCustomer(&model.Customer{CustomerID: "cust-dormant"}),
		*model.NewCustomer(&model.Customer{CustomerID: "cust-unpriced"}),
	}
	orders := []model.Order{
		{OrderID: "ord-a1", CustomerID: "cust-active", OrderDate: datePtr(2024, 3, 8), TotalAmount: floatPtr(100)},
		{OrderID: "ord-a2", CustomerID: "cust-active", OrderDate: datePtr(2024, 3, 10), TotalAmount: floatPtr(200)},
		{OrderID: "ord-u1", CustomerID: "cust-unpriced", OrderDate: datePtr(2024, 3, 5), TotalAmount: nil},
	}
	lines := []model.OrderLine{
		{OrderDetailID: "line-a1-1", OrderID: "ord-a1", ProductID: "p1", Quantity: 1, UnitPrice: 60},
		{OrderDetailID: "line-a1-2", OrderID: "ord-a1", ProductID: "p2", Quantity: 2, UnitPrice: 20},
		{OrderDetailID: "line-a2-1", OrderID: "ord-a2", ProductID: "p1", Quantity: 4, UnitPrice: 50},
		{OrderDetailID: "line-u1-1", OrderID: "ord-u1", ProductID: "p3", Quantity: 2, UnitPrice: 10},
		{OrderDetailID: "line-u1-2", OrderID: "ord-u1", ProductID: "p4", Quantity: 1, UnitPrice: 5},
	}

	s.Require().NoError(s.repo.InsertCustomers(s.Ctx, customers, seedBatchSize))
	s.Require().NoError(s.repo.InsertOrders(s.Ctx, orders, seedBatchSize))
	s.Require().NoError(s.repo.InsertOrderLines(s.Ctx, lines, seedBatchSize))
}

func (s *PipelineIntegrationSuite) TestFullRun_WritesSegmentsAndAuditRow() {
	s.seedKnownDataset()

	run, err := s.service.Run(s.Ctx, date(2024, 3, 1))
	s.Require().NoError(err, "pipeline run failed")
	s.Require().Equal(model.RunStatusSucceeded, run.Status)
	s.Require().Equal(3, run.SegmentsWritten)
	s.Require().Equal(1, run.TotalsFilled)

	// Verify segment rows with a direct query, bypassing the repo.
	db, err := connectDB(s.PostgresDSN)
	s.Require().NoError(err)
	defer db.Close()

	type segRow struct {
		score   string
		recency int
	}
	segments := map[string]segRow{}
	rows, err := db.QueryContext(s.Ctx, `SELECT customer_id, "total_RFM_score", recency FROM "rfm_segments"`)
	s.Require().NoError(err)
	defer rows.Close()
	for rows.Next() {
		var id string
		var r segRow
		s.Require().NoError(rows.Scan(&id, &r.score, &r.recency))
		segments[id] = r
	}
	s.Require().NoError(rows.Err())
	s.Require().Len(segments, 3)

	// active: latest order 9 days out, highest frequency and monetary.
	s.Require().Equal("333", segments["cust-active"].score)
	s.Require().Equal(9, segments["cust-active"].recency)

	// dormant: no orders, sentinel recency materialized at the output.
	s.Require().Equal("411", segments["cust-dormant"].score)
	s.Require().Equal(model.RecencySentinelDays, segments["cust-dormant"].recency)

	// unpriced: middle of the pack once its total is reconciled.
	s.Require().Equal("122", segments["cust-unpriced"].score)
	s.Require().Equal(4, segments["cust-unpriced"].recency)

	// The NULL total must be persisted back as the line sum.
	var filledTotal float64
	err = db.QueryRowContext(s.Ctx,
		`SELECT total_amount FROM "orders" WHERE order_id = $1`, "ord-u1").Scan(&filledTotal)
	s.Require().NoError(err)
	s.Require().InDelta(25.0, filledTotal, 0.001)

	// Audit row is readable through the repo as well.
	stored, err := s.repo.FindRunByID(s.Ctx, run.RunID)
	s.Require().NoError(err)
	s.Require().Equal(model.RunStatusSucceeded, stored.Status)
	s.Require().Equal(3, stored.CleanCustomers)
}

func (s *PipelineIntegrationSuite) TestRerun_IsIdempotent() {
	s.seedKnownDataset()

	first, err := s.service.Run(s.Ctx, date(2024, 3, 1))
	s.Require().NoError(err)

	second, err := s.service.Run(s.Ctx, date(2024, 3, 1))
	s.Require().NoError(err)

	s.Require().Equal(first.SegmentsWritten, second.SegmentsWritten)
	// The second run sees already-filled totals and fills nothing.
	s.Require().Equal(1, first.TotalsFilled)
	s.Require().Equal(0, second.TotalsFilled)

	count, err := countRows(s.Ctx, s.PostgresDSN, "rfm_segments")
	s.Require().NoError(err)
	s.Require().Equal(3, count, "rerun must replace, not append")

	runCount, err := countRows(s.Ctx, s.PostgresDSN, "segmentation_runs")
	s.Require().NoError(err)
	s.Require().Equal(2, runCount, "each invocation writes its own audit row")
}

func (s *PipelineIntegrationSuite) TestRun_DropsRowsWithMissingKeys() {
	s.seedKnownDataset()

	// A customer with a blank ID is structurally unusable and must be
	// cleaned out, not scored.
	blankCustomer := model.Customer{CustomerID: "", Name: "nameless", SignupDate: datePtr(2020, 1, 1)}
	s.Require().NoError(s.repo.InsertCustomers(s.Ctx, []model.Customer{blankCustomer}, seedBatchSize))

	run, err := s.service.Run(s.Ctx, date(2024, 3, 1))
	s.Require().NoError(err)
	s.Require().Equal(4, run.RawCustomers)
	s.Require().Equal(3, run.CleanCustomers)
	s.Require().Equal(3, run.SegmentsWritten)

	db, err := connectDB(s.PostgresDSN)
	s.Require().NoError(err)
	defer db.Close()

	var blankCount int
	err = db.QueryRowContext(s.Ctx,
		`SELECT COUNT(*) FROM "rfm_segments" WHERE customer_id = ''`).Scan(&blankCount)
	s.Require().NoError(err)
	s.Require().Zero(blankCount)
}

func (s *PipelineIntegrationSuite) TestRun_EmptySourceTables() {
	run, err := s.service.Run(s.Ctx, date(2024, 3, 1))
	s.Require().NoError(err)
	s.Require().Equal(model.RunStatusSucceeded, run.Status)
	s.Require().Zero(run.SegmentsWritten)

	count, err := countRows(s.Ctx, s.PostgresDSN, "rfm_segments")
	s.Require().NoError(err)
	s.Require().Zero(count)
}
