// Package router orchestrates payment routing: fraud scoring, two-phase
// debit/credit against the institution adapters with compensating reversal,
// and idempotent ledger bookkeeping. The global transaction id is the
// idempotency key across the whole network; the router guarantees at most
// one in-flight execution per id, with the ledger's uniqueness constraint as
// the correctness backstop for retries that survive process restarts.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"upiswitch/internal/models"
	"upiswitch/internal/repositories"
	"upiswitch/internal/services/fraud"
	"upiswitch/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

type service struct {
	transactions repositories.TransactionRepository
	ledger       repositories.LedgerRepository
	bank         BankClient
	fraud        Scorer
	directory    AccountDirectory
	notifier     Notifier
	metrics      MetricsCollector
	cfg          RouterConfig

	inflight singleflight.Group
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates the transaction router.
func NewService(
	transactions repositories.TransactionRepository,
	ledger repositories.LedgerRepository,
	bank BankClient,
	scorer Scorer,
	dir AccountDirectory,
	notifier Notifier,
	metrics MetricsCollector,
	cfg RouterConfig,
) Service {
	if transactions == nil {
		panic("transaction repository is required")
	}
	if ledger == nil {
		panic("ledger repository is required")
	}
	if bank == nil {
		panic("bank client is required")
	}
	if scorer == nil {
		panic("fraud scorer is required")
	}
	if dir == nil {
		panic("account directory is required")
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if cfg.RateLimitCeiling <= 0 {
		cfg.RateLimitCeiling = DefaultRateLimitCeiling
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = DefaultRateLimitWindow
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	return &service{
		transactions: transactions,
		ledger:       ledger,
		bank:         bank,
		fraud:        scorer,
		directory:    dir,
		notifier:     notifier,
		metrics:      metrics,
		cfg:          cfg,
		logger:       slog.With("component", "router"),
		now:          time.Now,
	}
}

// Route executes a validated payment intent. Concurrent calls sharing a
// global transaction id collapse onto a single execution and observe its
// result.
func (s *service) Route(ctx context.Context, req *models.PaymentRequest) (*models.TransactionResult, error) {
	if req.TxnID == "" {
		req.TxnID = uuid.NewString()
	}
	v, err, _ := s.inflight.Do(req.TxnID, func() (any, error) {
		return s.route(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.TransactionResult), nil
}

func (s *service) route(ctx context.Context, req *models.PaymentRequest) (*models.TransactionResult, error) {
	start := s.now()
	defer func() { s.metrics.RecordRouteDuration(s.now().Sub(start).Seconds()) }()

	log := s.logger.With(
		"txn_id", req.TxnID,
		"payer", utils.MaskVPA(req.PayerVPA),
		"payee", utils.MaskVPA(req.PayeeVPA),
	)

	// Idempotent replay: a transaction already past REQUESTED is not
	// re-executed. Terminal rows return their recorded outcome; PENDING
	// rows awaiting reconciliation must not risk a double movement. Only
	// challenged rows (REVIEW flag, no money moved yet) are resumable.
	txn, err := s.transactions.FindByID(ctx, req.TxnID)
	if err != nil && !errors.Is(err, repositories.ErrTransactionNotFound) {
		return nil, err
	}
	if txn != nil {
		switch {
		case models.IsTerminalStatus(txn.Status):
			log.Info("replaying recorded outcome", "status", txn.Status)
			s.metrics.RecordReplay()
			return txn.Result(), nil
		case txn.Status == models.StatusPending && txn.RiskFlag != models.RiskFlagReview:
			log.Info("transaction awaiting reconciliation, not re-executing")
			s.metrics.RecordReplay()
			return txn.Result(), nil
		}
	}

	// Device velocity ceiling, checked before scoring, resolution and any
	// bank call.
	if device := req.DeviceID(); device != "" {
		count, err := s.transactions.CountByDeviceSince(ctx, device, s.now().Add(-s.cfg.RateLimitWindow))
		if err != nil {
			return nil, fmt.Errorf("rate limit check: %w", err)
		}
		if count >= int64(s.cfg.RateLimitCeiling) {
			log.Warn("device rate limited", "count", count)
			s.metrics.RecordRateLimited()
			return nil, ErrRateLimited
		}
	}

	if txn == nil {
		txn = &models.SwitchTransaction{
			GlobalTxnID: req.TxnID,
			PayerVPA:    req.PayerVPA,
			PayeeVPA:    req.PayeeVPA,
			Amount:      req.Amount,
			Status:      models.StatusPending,
			CreatedAt:   s.now(),
		}
		applyFraudContext(txn, req)
		if err := s.transactions.Create(ctx, txn); err != nil {
			return nil, err
		}
	} else {
		// Resuming a REQUESTED (money-request approval) or challenged row.
		txn.Status = models.StatusPending
		applyFraudContext(txn, req)
		if err := s.transactions.Save(ctx, txn); err != nil {
			return nil, err
		}
	}

	// Step 1: resolve both legs through the account directory.
	payerRoute, err := s.resolve(ctx, req.PayerVPA)
	if err != nil {
		log.Warn("payer resolution failed", "error", err)
		return s.finalize(ctx, txn, models.StatusFailed, "Payer address could not be resolved")
	}
	payeeRoute, err := s.resolve(ctx, req.PayeeVPA)
	if err != nil {
		log.Warn("payee resolution failed", "error", err)
		return s.finalize(ctx, txn, models.StatusFailed, "Payee address could not be resolved")
	}
	txn.PayerBank = payerRoute.BankHandle
	txn.PayeeBank = payeeRoute.BankHandle

	// Step 2: fraud pipeline.
	verdict, err := s.score(ctx, req)
	if err != nil {
		log.Error("fraud screening failed", "error", err)
		if _, ferr := s.finalize(ctx, txn, models.StatusFailed, "Fraud screening unavailable"); ferr != nil {
			log.Error("failed to persist screening failure", "error", ferr)
		}
		return nil, fmt.Errorf("%w: %v", ErrScreeningUnavailable, err)
	}
	txn.FraudScore = decimal.NewFromFloat(verdict.Score)
	txn.RiskStage = verdict.Stage
	s.metrics.RecordFraudAction(verdict.Action.String())

	switch verdict.Action {
	case fraud.ActionBlock:
		txn.RiskFlag = models.RiskFlagBlock
		return s.finalize(ctx, txn, models.StatusBlockedFraud, "Transaction blocked by risk engine")
	case fraud.ActionChallenge:
		// Not finalized: the transaction stays resumable once the caller
		// completes step-up authentication.
		txn.RiskFlag = models.RiskFlagReview
		txn.Message = "Step-up authentication required"
		if err := s.transactions.Save(ctx, txn); err != nil {
			return nil, err
		}
		log.Info("step-up authentication required")
		return txn.Result(), nil
	default:
		txn.RiskFlag = models.RiskFlagSafe
	}

	// Step 3: debit the payer's institution.
	debit, err := s.debit(ctx, req, payerRoute.BankHandle, payerRoute.AccountNumber, verdict.Score)
	if err != nil {
		// Unknown institution handle: configuration error, surfaced as-is.
		if _, ferr := s.finalize(ctx, txn, models.StatusFailed, err.Error()); ferr != nil {
			log.Error("failed to persist configuration failure", "error", ferr)
		}
		return nil, err
	}
	switch debit.Status {
	case models.StatusFailed:
		return s.finalize(ctx, txn, models.StatusFailed, debit.Message)
	case models.StatusPending:
		// Indeterminate: money may or may not have left the payer account.
		// Never blindly retried; policy picks the terminal interpretation.
		return s.finalize(ctx, txn, s.indeterminateStatus(), debit.Message)
	}

	// Step 4: debit leg committed to the ledger, idempotent per
	// (txn, account, DEBIT).
	s.recordLedger(ctx, req.TxnID, payerRoute.AccountNumber, models.DirectionDebit, req.Amount, debit.BalanceAfter)

	// Step 5: credit the payee's institution.
	credit, err := s.credit(ctx, req, payeeRoute.BankHandle, payeeRoute.AccountNumber, verdict.Score)
	if err == nil && credit.Status == models.StatusSuccess {
		s.recordLedger(ctx, req.TxnID, payeeRoute.AccountNumber, models.DirectionCredit, req.Amount, credit.BalanceAfter)
		return s.finalize(ctx, txn, models.StatusSuccess, "Payment successful")
	}

	// Step 6: credit failed after a successful debit; compensate.
	if err != nil {
		log.Error("credit call failed", "error", err)
	} else {
		log.Warn("credit not successful, reversing debit", "credit_status", credit.Status)
	}
	reversal, rerr := s.reverse(ctx, req, payerRoute.BankHandle, payerRoute.AccountNumber)
	if rerr == nil && reversal.Status == models.StatusSuccess {
		return s.finalize(ctx, txn, models.StatusFailed, "Credit failed; debit reversed")
	}
	// The reversal itself is indeterminate or rejected: funds state must be
	// reconciled out-of-band.
	if rerr != nil {
		log.Error("reversal call failed", "error", rerr)
	} else {
		log.Error("reversal not confirmed", "reversal_status", reversal.Status)
	}
	return s.finalize(ctx, txn, s.indeterminateStatus(), "Credit failed; reversal unconfirmed, reconciliation required")
}

// InitiateRequest pre-creates a transaction for the deferred "request money"
// flow: the payee asks, the payer approves later under the same id.
func (s *service) InitiateRequest(ctx context.Context, requesterVPA, payerVPA string, amount decimal.Decimal) (*models.SwitchTransaction, error) {
	txn := &models.SwitchTransaction{
		GlobalTxnID: uuid.NewString(),
		PayeeVPA:    requesterVPA,
		PayerVPA:    payerVPA,
		Amount:      amount,
		Status:      models.StatusRequested,
		CreatedAt:   s.now(),
	}
	if err := s.transactions.Create(ctx, txn); err != nil {
		return nil, err
	}
	s.logger.Info("money request created",
		"txn_id", txn.GlobalTxnID,
		"requester", utils.MaskVPA(requesterVPA),
		"payer", utils.MaskVPA(payerVPA),
	)
	return txn, nil
}

// ApproveRequest executes a pre-created money request with the payer's
// credential and fraud context.
func (s *service) ApproveRequest(ctx context.Context, txnID string, approval ApprovalRequest) (*models.TransactionResult, error) {
	txn, err := s.transactions.FindByID(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if txn.Status != models.StatusRequested {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotRequested, txnID, txn.Status)
	}
	return s.Route(ctx, &models.PaymentRequest{
		TxnID:      txn.GlobalTxnID,
		PayerVPA:   txn.PayerVPA,
		PayeeVPA:   txn.PayeeVPA,
		Amount:     txn.Amount,
		MPINHash:   approval.MPINHash,
		FraudCheck: approval.FraudCheck,
	})
}

// GetTransaction returns the durable record for a global transaction id.
func (s *service) GetTransaction(ctx context.Context, txnID string) (*models.SwitchTransaction, error) {
	return s.transactions.FindByID(ctx, txnID)
}

// finalize persists a status transition, publishes the lifecycle event and
// projects the outcome.
func (s *service) finalize(ctx context.Context, txn *models.SwitchTransaction, status, message string) (*models.TransactionResult, error) {
	txn.Status = status
	txn.Message = message
	txn.UpdatedAt = s.now()
	if err := s.transactions.Save(ctx, txn); err != nil {
		return nil, err
	}
	s.metrics.RecordOutcome(status)
	if s.notifier != nil {
		if err := s.notifier.TransactionCompleted(ctx, txn); err != nil {
			s.logger.Warn("notification failed", "txn_id", txn.GlobalTxnID, "error", err)
		}
	}
	s.logger.Info("transaction finalized", "txn_id", txn.GlobalTxnID, "status", status)
	return txn.Result(), nil
}

// recordLedger appends an entry, treating a duplicate as the prior success
// it is.
func (s *service) recordLedger(ctx context.Context, txnID, account, direction string, amount decimal.Decimal, balanceAfter *decimal.Decimal) {
	balance := decimal.Zero
	if balanceAfter != nil {
		balance = *balanceAfter
	}
	_, err := s.ledger.RecordEntry(ctx, txnID, account, direction, amount, balance)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateEntry) {
			s.logger.Info("ledger entry already recorded", "txn_id", txnID, "direction", direction)
			return
		}
		// Money moved but the entry is missing; reconciliation will replay
		// it from the transaction record.
		s.logger.Error("ledger write failed", "txn_id", txnID, "direction", direction, "error", err)
	}
}

func (s *service) indeterminateStatus() string {
	if s.cfg.DeemApprovedOnIndeterminate {
		return models.StatusDeemedApproved
	}
	return models.StatusPending
}

func (s *service) resolve(ctx context.Context, vpa string) (route *routeRec, err error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	r, err := s.directory.Resolve(callCtx, vpa)
	if err != nil {
		return nil, err
	}
	return &routeRec{BankHandle: r.BankHandle, AccountNumber: r.AccountNumber}, nil
}

type routeRec struct {
	BankHandle    string
	AccountNumber string
}

func (s *service) score(ctx context.Context, req *models.PaymentRequest) (fraud.Verdict, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	return s.fraud.Score(callCtx, req)
}

func (s *service) debit(ctx context.Context, req *models.PaymentRequest, handle, account string, risk float64) (*models.TransactionResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	return s.bank.Debit(callCtx, req, handle, account, risk)
}

func (s *service) credit(ctx context.Context, req *models.PaymentRequest, handle, account string, risk float64) (*models.TransactionResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	return s.bank.Credit(callCtx, req, handle, account, risk)
}

func (s *service) reverse(ctx context.Context, req *models.PaymentRequest, handle, account string) (*models.TransactionResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	return s.bank.Reverse(callCtx, req, handle, account)
}

func applyFraudContext(txn *models.SwitchTransaction, req *models.PaymentRequest) {
	if req.FraudCheck == nil {
		return
	}
	txn.SenderIP = req.FraudCheck.IPAddress
	txn.SenderDeviceID = req.FraudCheck.DeviceID
}
