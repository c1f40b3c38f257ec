// Package notification publishes transaction lifecycle events. The producer
// may or may not be present depending on deployment configuration, so the
// concrete implementation is picked once at startup: a real producer when
// notifications are enabled, a no-op otherwise.
package notification

import (
	"context"
	"log/slog"

	"upiswitch/internal/models"
	"upiswitch/internal/utils"
)

// Producer publishes transaction lifecycle events.
type Producer interface {
	TransactionCompleted(ctx context.Context, txn *models.SwitchTransaction) error
}

// LogProducer emits notification events to the structured log. It stands in
// for the downstream delivery pipeline, which consumes the same payload.
type LogProducer struct {
	logger *slog.Logger
}

// NewLogProducer creates a logging producer.
func NewLogProducer() *LogProducer {
	return &LogProducer{logger: slog.With("component", "notification")}
}

func (p *LogProducer) TransactionCompleted(_ context.Context, txn *models.SwitchTransaction) error {
	p.logger.Info("transaction event",
		"txn_id", txn.GlobalTxnID,
		"status", txn.Status,
		"payer", utils.MaskVPA(txn.PayerVPA),
		"payee", utils.MaskVPA(txn.PayeeVPA),
		"amount", txn.Amount,
	)
	return nil
}

// NoopProducer drops all events.
type NoopProducer struct{}

func (NoopProducer) TransactionCompleted(context.Context, *models.SwitchTransaction) error {
	return nil
}

// FromConfig selects the producer implementation.
func FromConfig(enabled bool) Producer {
	if enabled {
		return NewLogProducer()
	}
	return NoopProducer{}
}
