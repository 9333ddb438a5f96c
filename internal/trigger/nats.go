package trigger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/apperrors"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/model"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/validator"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/pkg/logger"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/pkg/utils"
)

// Runner executes one pipeline run for an analysis date.
type Runner interface {
	Run(ctx context.Context, analysisDate time.Time) (*model.SegmentationRun, error)
}

// RunRequest is the message payload that triggers a pipeline run.
type RunRequest struct {
	AnalysisDate string `json:"analysis_date" validate:"required,datetime=2006-01-02"`
}

// RunCompleted is published after a triggered run finishes, successfully
// or not.
type RunCompleted struct {
	RunID           string `json:"run_id"`
	AnalysisDate    string `json:"analysis_date"`
	Status          string `json:"status"`
	SegmentsWritten int    `json:"segments_written"`
	FinishedAt      string `json:"finished_at"`
	Error           string `json:"error,omitempty"`
}

// Config carries the subjects and queue group the listener binds to.
type Config struct {
	URL              string
	RunSubject       string
	CompletedSubject string
	QueueGroup       string
}

// Listener subscribes to run requests over core NATS and drives the
// pipeline. A queue group ensures only one instance picks up each
// request when the service is scaled out.
type Listener struct {
	nc     *nats.Conn
	cfg    Config
	runner Runner
	sub    *nats.Subscription

	// The pipeline is a whole-table recompute; two overlapping runs
	// would race on the output swap, so requests execute serially.
	runMu sync.Mutex
}

// NewListener connects to NATS and returns a listener ready to start.
func NewListener(cfg Config, runner Runner) (*Listener, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Log.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(nc *nats.Conn, s *nats.Subscription, err error) {
			logger.Log.Error("NATS error", zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to NATS: %w", apperrors.ErrNATS, err)
	}

	return &Listener{nc: nc, cfg: cfg, runner: runner}, nil
}

// Start subscribes to the run subject. Message handling runs on the NATS
// callback goroutine; the handler itself is panic-safe.
func (l *Listener) Start(ctx context.Context) error {
	sub, err := l.nc.QueueSubscribe(l.cfg.RunSubject, l.cfg.QueueGroup, func(msg *nats.Msg) {
		l.handleRunRequest(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("%w: failed to subscribe to %s: %w", apperrors.ErrNATS, l.cfg.RunSubject, err)
	}
	l.sub = sub
	logger.Log.Info("Listening for run requests",
		zap.String("subject", l.cfg.RunSubject),
		zap.String("queue_group", l.cfg.QueueGroup),
	)
	return nil
}

func (l *Listener) handleRunRequest(ctx context.Context, msg *nats.Msg) {
	log := logger.FromContext(ctx)

	req, err := ParseRunRequest(msg.Data)
	if err != nil {
		log.Error("Rejecting malformed run request",
			zap.ByteString("payload", msg.Data),
			zap.Error(err))
		return
	}
	analysisDate, _ := utils.ParseDate(req.AnalysisDate) // validated above

	l.runMu.Lock()
	defer l.runMu.Unlock()

	var run *model.SegmentationRun
	runErr := utils.WrapWithContextRecovery(func(ctx context.Context) error {
		var err error
		run, err = l.runner.Run(ctx, analysisDate)
		return err
	})(ctx)

	if run == nil {
		// Run panicked before producing an audit row; there is nothing
		// to publish a completion event for.
		log.Error("Triggered run produced no result", zap.Error(runErr))
		return
	}

	event := RunCompleted{
		RunID:           run.RunID,
		AnalysisDate:    req.AnalysisDate,
		Status:          run.Status,
		SegmentsWritten: run.SegmentsWritten,
		FinishedAt:      utils.FormatISO8601(run.FinishedAt),
	}
	if runErr != nil {
		event.Error = runErr.Error()
	}
	if err := l.nc.Publish(l.cfg.CompletedSubject, utils.MustMarshalJSON(event)); err != nil {
		log.Error("Failed to publish run completion event",
			zap.String("run_id", run.RunID),
			zap.Error(err))
	}
}

// ParseRunRequest decodes and validates a run request payload.
func ParseRunRequest(data []byte) (*RunRequest, error) {
	var req RunRequest
	if err := utils.UnmarshalJSON(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrBadRequest, err)
	}
	if err := validator.Validate(&req); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
	}
	return &req, nil
}

// Drain unsubscribes and closes the connection, letting in-flight
// handlers finish.
func (l *Listener) Drain() error {
	if l.sub != nil {
		if err := l.sub.Drain(); err != nil {
			return fmt.Errorf("%w: failed to drain subscription: %w", apperrors.ErrNATS, err)
		}
	}
	if l.nc != nil {
		if err := l.nc.Drain(); err != nil {
			return fmt.Errorf("%w: failed to drain connection: %w", apperrors.ErrNATS, err)
		}
	}
	return nil
}
