package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/config"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/model"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/observer"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/storage"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/pkg/logger"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/pkg/utils"
)

// ChunkTask is one unit of work for the pool: generate and insert a
// contiguous range of customers with their orders and line items.
type ChunkTask struct {
	ChunkIndex    int
	CustomerCount int
}

// chunkResult carries per-chunk counts back to the summary.
type chunkResult struct {
	customers  int
	orders     int
	lines      int
	nullTotals int
	err        error
}

const defaultChunkSize = 200

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	dsn := flag.String("dsn", cfg.Database.PostgresDSN, "Postgres DSN")
	customerCount := flag.Int("customers", 1000, "Number of customers to generate")
	maxOrders := flag.Int("max-orders", 8, "Maximum orders per customer (uniform 0..N)")
	maxLines := flag.Int("max-lines", 5, "Maximum line items per order (uniform 1..N)")
	nullTotalRate := flag.Float64("null-total-rate", 0.2, "Fraction of orders seeded with a NULL total_amount")
	nullDateRate := flag.Float64("null-date-rate", 0.02, "Fraction of orders seeded with a NULL order_date")
	concurrency := flag.Int("concurrency", 4, "Number of concurrent seeding workers")
	chunkSize := flag.Int("chunk-size", defaultChunkSize, "Customers generated per worker task")
	batchSize := flag.Int("batch-size", cfg.Pipeline.InsertBatchSize, "Rows per INSERT batch")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "RFM Source Data Seeder\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Populates the customers, orders and order_lines tables with fake data\n")
		fmt.Fprintf(os.Stderr, "so a segmentation run has something to chew on.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *chunkSize <= 0 {
		*chunkSize = defaultChunkSize
		fmt.Printf("Invalid chunk size, using default: %d\n", defaultChunkSize)
	}
	if *nullTotalRate < 0 || *nullTotalRate > 1 {
		fmt.Printf("null-total-rate must be within [0,1], got %f\n", *nullTotalRate)
		os.Exit(1)
	}
	if *nullDateRate < 0 || *nullDateRate > 1 {
		fmt.Printf("null-date-rate must be within [0,1], got %f\n", *nullDateRate)
		os.Exit(1)
	}

	if err := logger.Initialize(*logLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	observer.InitMetrics(false)
	gofakeit.Seed(time.Now().UnixNano())

	logger.Log.Info("Starting source data seeder",
		zap.Int("customers", *customerCount),
		zap.Int("max_orders", *maxOrders),
		zap.Int("max_lines", *maxLines),
		zap.Float64("null_total_rate", *nullTotalRate),
		zap.Float64("null_date_rate", *nullDateRate),
		zap.Int("concurrency", *concurrency),
		zap.Int("chunk_size", *chunkSize),
		zap.Int("batch_size", *batchSize),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	repo, err := storage.NewPostgresRepo(*dsn, true)
	if err != nil {
		logger.Log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer repo.Close(ctx)

	results := make(chan chunkResult, (*customerCount / *chunkSize)+1)

	var wg sync.WaitGroup
	pool, err := ants.NewPoolWithFunc(*concurrency, func(data interface{}) {
		defer wg.Done()
		task := data.(ChunkTask)
		results <- seedChunk(ctx, repo, task, *maxOrders, *maxLines, *nullTotalRate, *nullDateRate, *batchSize)
	})
	if err != nil {
		logger.Log.Fatal("Failed to create worker pool", zap.Error(err))
	}
	defer pool.Release()

	startTime := utils.Now()
	chunkIndex := 0
	for remaining := *customerCount; remaining > 0; remaining -= *chunkSize {
		count := *chunkSize
		if remaining < count {
			count = remaining
		}
		wg.Add(1)
		if err := pool.Invoke(ChunkTask{ChunkIndex: chunkIndex, CustomerCount: count}); err != nil {
			wg.Done()
			logger.Log.Error("Failed to submit chunk to worker pool",
				zap.Int("chunk", chunkIndex), zap.Error(err))
		}
		chunkIndex++
	}

	wg.Wait()
	close(results)

	var total chunkResult
	failedChunks := 0
	for res := range results {
		if res.err != nil {
			failedChunks++
			continue
		}
		total.customers += res.customers
		total.orders += res.orders
		total.lines += res.lines
		total.nullTotals += res.nullTotals
	}

	logger.Log.Info("Seeding finished",
		zap.Int("customers_inserted", total.customers),
		zap.Int("orders_inserted", total.orders),
		zap.Int("order_lines_inserted", total.lines),
		zap.Int("orders_with_null_total", total.nullTotals),
		zap.Int("failed_chunks", failedChunks),
		zap.Duration("elapsed", time.Since(startTime)),
	)

	if failedChunks > 0 {
		os.Exit(1)
	}
}

// sourceInserter is the slice of the storage layer the seeder writes
// through. Satisfied by *storage.PostgresRepo.
type sourceInserter interface {
	InsertCustomers(ctx context.Context, customers []model.Customer, batchSize int) error
	InsertOrders(ctx context.Context, orders []model.Order, batchSize int) error
	InsertOrderLines(ctx context.Context, lines []model.OrderLine, batchSize int) error
}

// seedChunk generates one chunk of customers with orders and line items
// and inserts them. Orders seeded with a NULL total keep line items whose
// sum is what the reconciliation stage should later fill in.
func seedChunk(ctx context.Context, ins sourceInserter, task ChunkTask, maxOrders, maxLines int, nullTotalRate, nullDateRate float64, batchSize int) chunkResult {
	customers := make([]model.Customer, 0, task.CustomerCount)
	orders := make([]model.Order, 0, task.CustomerCount*maxOrders/2)
	lines := make([]model.OrderLine, 0, task.CustomerCount*maxOrders)
	nullTotals := 0

	for i := 0; i < task.CustomerCount; i++ {
		customer := model.NewCustomer()
		customers = append(customers, *customer)

		orderCount := rand.Intn(maxOrders + 1)
		for j := 0; j < orderCount; j++ {
			order := model.NewOrder(customer.CustomerID)

			lineCount := rand.Intn(maxLines) + 1
			lineSum := 0.0
			for k := 0; k < lineCount; k++ {
				line := model.NewOrderLine(order.OrderID)
				lineSum += line.UnitPrice * float64(line.Quantity)
				lines = append(lines, *line)
			}

			if rand.Float64() < nullTotalRate {
				order.TotalAmount = nil
				nullTotals++
			} else {
				// Keep the header consistent with its lines so filled and
				// pre-set totals land in the same value range.
				total := utils.Round2(lineSum)
				order.TotalAmount = &total
			}
			if rand.Float64() < nullDateRate {
				order.OrderDate = nil
			}
			orders = append(orders, *order)
		}
	}

	if err := ins.InsertCustomers(ctx, customers, batchSize); err != nil {
		logger.Log.Error("Chunk failed inserting customers", zap.Int("chunk", task.ChunkIndex), zap.Error(err))
		return chunkResult{err: err}
	}
	if err := ins.InsertOrders(ctx, orders, batchSize); err != nil {
		logger.Log.Error("Chunk failed inserting orders", zap.Int("chunk", task.ChunkIndex), zap.Error(err))
		return chunkResult{err: err}
	}
	if err := ins.InsertOrderLines(ctx, lines, batchSize); err != nil {
		logger.Log.Error("Chunk failed inserting order lines", zap.Int("chunk", task.ChunkIndex), zap.Error(err))
		return chunkResult{err: err}
	}

	logger.Log.Debug("Chunk seeded",
		zap.Int("chunk", task.ChunkIndex),
		zap.Int("customers", len(customers)),
		zap.Int("orders", len(orders)),
		zap.Int("order_lines", len(lines)),
	)

	return chunkResult{
		customers:  len(customers),
		orders:     len(orders),
		lines:      len(lines),
		nullTotals: nullTotals,
	}
}
