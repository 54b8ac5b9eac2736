// Package reporter hands the terminal settlement record back to the
// merchant backend. Reporting is best-effort: its own failure is logged and
// never overrides the settlement's outcome.
package reporter

import (
	"context"
	"time"

	"github.com/paybridge/settler/internal/entity"
	"github.com/paybridge/settler/pkg/retrier"
	"go.uber.org/zap"
)

const (
	reportAttempts = 3
	reportBackoff  = 2 * time.Second
)

// Sink receives the serialized settlement record.
type Sink interface {
	Report(ctx context.Context, record *entity.SettlementRecord) error
}

// Reporter publishes terminal settlement records exactly once per run.
type Reporter struct {
	sink    Sink
	logger  *zap.Logger
	retrier *retrier.Retrier
}

func New(sink Sink, logger *zap.Logger) *Reporter {
	return &Reporter{
		sink:    sink,
		logger:  logger,
		retrier: retrier.New(reportAttempts, reportBackoff),
	}
}

// Publish sends the record to the backend. Records without an order id
// (the no-pending-orders no-op path) are skipped entirely.
func (r *Reporter) Publish(ctx context.Context, record *entity.SettlementRecord) {
	if record == nil || !record.Reportable() {
		return
	}

	err := r.retrier.Do(ctx, func() error {
		return r.sink.Report(ctx, record)
	})
	if err != nil {
		r.logger.Error("failed to report settlement outcome",
			zap.Int64("payment_id", record.PaymentID),
			zap.String("stage", string(record.Stage)),
			zap.Error(err))
		return
	}

	r.logger.Info("settlement outcome reported",
		zap.Int64("payment_id", record.PaymentID),
		zap.String("stage", string(record.Stage)),
		zap.Bool("error", record.Error))
}
