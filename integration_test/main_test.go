package integration_test

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
	pgtc "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"

	"gitlab.com/arvadi/analytics/rfm-segmentation-service/pkg/logger"
)

// Table names touched by the pipeline, in truncate order.
var pipelineTables = []string{
	"rfm_segments",
	"segmentation_runs",
	"order_lines",
	"orders",
	"customers",
}

// BaseIntegrationSuite starts the core infrastructure (Postgres, NATS)
// once per suite. The service under test runs in-process against the
// containers, so no Docker network or application image is needed.
type BaseIntegrationSuite struct {
	suite.Suite
	Postgres    testcontainers.Container
	PostgresDSN string
	NATS        testcontainers.Container
	NATSURL     string
	Ctx         context.Context
	cancel      context.CancelFunc
}

// SetupSuite runs once before the tests in the base suite are run.
func (s *BaseIntegrationSuite) SetupSuite() {
	s.Ctx, s.cancel = context.WithCancel(context.Background())
	log.Println("Setting up BaseIntegrationSuite...")
	logger.Log = zaptest.NewLogger(s.T()).Named("BaseIntegrationSuite")

	startTime := time.Now()
	var err error

	s.Postgres, s.PostgresDSN, err = startPostgres(s.Ctx)
	if err != nil {
		s.T().Fatalf("Failed to start postgres: %v", err)
	}
	log.Println("PostgreSQL container started.")

	s.NATS, s.NATSURL, err = startNATSContainer(s.Ctx)
	if err != nil {
		s.T().Fatalf("Failed to start NATS: %v", err)
	}
	log.Println("NATS container started.")

	log.Printf("BaseIntegrationSuite setup complete in %v", time.Since(startTime))
}

// TearDownSuite runs once after all tests in the base suite have finished.
func (s *BaseIntegrationSuite) TearDownSuite() {
	log.Println("Tearing down BaseIntegrationSuite...")

	if s.NATS != nil {
		if err := s.NATS.Terminate(s.Ctx); err != nil {
			s.T().Logf("Error terminating NATS container: %v", err)
		}
	}
	if s.Postgres != nil {
		if err := s.Postgres.Terminate(s.Ctx); err != nil {
			s.T().Logf("Error terminating PostgreSQL container: %v", err)
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
}

// SetupTest truncates all pipeline tables so each test starts clean.
func (s *BaseIntegrationSuite) SetupTest() {
	err := truncateTables(s.Ctx, s.PostgresDSN, pipelineTables)
	s.Require().NoError(err, "Failed to truncate tables")
}

// startPostgres starts a PostgreSQL container and returns it along with
// its connection string.
func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	pgContainer, err := pgtc.Run(ctx,
		"postgres:17-bookworm",
		pgtc.WithDatabase("rfm_segmentation"),
		pgtc.WithUsername("postgres"),
		pgtc.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start PostgreSQL container: %w", err)
	}

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return pgContainer, "", fmt.Errorf("failed to get PostgreSQL connection string: %w", err)
	}
	return pgContainer, dsn, nil
}

// startNATSContainer starts a plain NATS container and returns it along
// with its client URL.
func startNATSContainer(ctx context.Context) (testcontainers.Container, string, error) {
	natsContainer, err := tcnats.Run(ctx,
		"nats:2.11-alpine",
		tcnats.WithArgument("name", "test-nats-server"),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start NATS container: %w", err)
	}

	natsURL, err := natsContainer.ConnectionString(ctx)
	if err != nil {
		return natsContainer, "", fmt.Errorf("failed to get NATS connection string: %w", err)
	}
	return natsContainer, natsURL, nil
}

// connectDB opens a plain database/sql connection for direct
// verification queries, bypassing the repository layer.
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// truncateTables removes all rows from the given tables. Tables that do
// not exist yet (first run before AutoMigrate) are skipped.
func truncateTables(ctx context.Context, dsn string, tables []string) error {
	db, err := connectDB(dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, table := range tables {
		stmt := fmt.Sprintf(`TRUNCATE TABLE %q CASCADE`, table)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			var exists bool
			checkErr := db.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
			if checkErr == nil && !exists {
				continue
			}
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}

// countRows returns the row count of a table via a direct query.
func countRows(ctx context.Context, dsn, table string) (int, error) {
	db, err := connectDB(dsn)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var count int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %q`, table)
	if err := db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	return count, nil
}
