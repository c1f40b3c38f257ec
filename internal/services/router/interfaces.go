package router

import (
	"context"

	"upiswitch/internal/clients/directory"
	"upiswitch/internal/models"
	"upiswitch/internal/services/fraud"

	"github.com/shopspring/decimal"
)

// Service is the transaction router. It consumes a validated payment intent,
// scores it, drives debit/credit with compensation and commits ledger
// entries.
type Service interface {
	Route(ctx context.Context, req *models.PaymentRequest) (*models.TransactionResult, error)
	InitiateRequest(ctx context.Context, requesterVPA, payerVPA string, amount decimal.Decimal) (*models.SwitchTransaction, error)
	ApproveRequest(ctx context.Context, txnID string, approval ApprovalRequest) (*models.TransactionResult, error)
	GetTransaction(ctx context.Context, txnID string) (*models.SwitchTransaction, error)
}

// BankClient drives the institution adapters.
type BankClient interface {
	Debit(ctx context.Context, req *models.PaymentRequest, handle, accountNumber string, riskScore float64) (*models.TransactionResult, error)
	Credit(ctx context.Context, req *models.PaymentRequest, handle, accountNumber string, riskScore float64) (*models.TransactionResult, error)
	Reverse(ctx context.Context, req *models.PaymentRequest, handle, accountNumber string) (*models.TransactionResult, error)
}

// Scorer is the fraud decision pipeline.
type Scorer interface {
	Score(ctx context.Context, req *models.PaymentRequest) (fraud.Verdict, error)
}

// AccountDirectory resolves payment addresses to institution routes.
type AccountDirectory interface {
	Resolve(ctx context.Context, vpa string) (*directory.Route, error)
}

// Notifier publishes transaction lifecycle events. It may be a no-op; the
// router logs and ignores its errors.
type Notifier interface {
	TransactionCompleted(ctx context.Context, txn *models.SwitchTransaction) error
}

// MetricsCollector records routing observability signals.
type MetricsCollector interface {
	RecordOutcome(status string)
	RecordFraudAction(action string)
	RecordRateLimited()
	RecordReplay()
	RecordRouteDuration(seconds float64)
}
