package stream

import (
	"context"
	"log/slog"
	"time"

	"insighthub/internal/audit/metrics"
	"insighthub/internal/audit/models"
)

// Worker drains an in-process queue of persisted records and publishes them.
// Enqueue never blocks; a full queue drops the record and counts it.
type Worker struct {
	producer Producer
	inbox    chan *models.ExecutionAttempt
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

func WithQueueSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.inbox = make(chan *models.ExecutionAttempt, n)
		}
	}
}

func NewWorker(producer Producer, opts ...Option) *Worker {
	w := &Worker{
		producer: producer,
		inbox:    make(chan *models.ExecutionAttempt, defaultQueueSize),
		timeout:  defaultPublishTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Worker) Enqueue(rec *models.ExecutionAttempt) {
	select {
	case w.inbox <- rec:
	default:
		w.metrics.IncMirrorDropped()
		w.logger.Warn("audit mirror queue full, dropping record",
			"log_type", "audit",
			"audit_id", rec.AuditID,
		)
	}
}

// Run publishes until ctx is cancelled, then flushes what is already queued.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case rec := <-w.inbox:
			w.publish(ctx, rec)
		}
	}
}

func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	for {
		select {
		case rec := <-w.inbox:
			w.publish(ctx, rec)
		default:
			return
		}
	}
}

func (w *Worker) publish(ctx context.Context, rec *models.ExecutionAttempt) {
	record, err := Encode(rec)
	if err != nil {
		w.metrics.IncMirrorFailures()
		w.logger.ErrorContext(ctx, "failed to encode audit record", "audit_id", rec.AuditID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if err := w.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		w.metrics.IncMirrorFailures()
		w.logger.ErrorContext(ctx, "failed to mirror audit record",
			"log_type", "audit",
			"audit_id", rec.AuditID,
			"error", err,
		)
		return
	}
	w.metrics.IncMirrorPublished()
}
