package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"upiswitch/internal/clients/directory"
	"upiswitch/internal/models"
	"upiswitch/internal/repositories"
	"upiswitch/internal/services/fraud"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTxnRepo struct {
	mu   sync.Mutex
	rows map[string]*models.SwitchTransaction
}

func newMemTxnRepo() *memTxnRepo {
	return &memTxnRepo{rows: map[string]*models.SwitchTransaction{}}
}

func (r *memTxnRepo) Create(ctx context.Context, txn *models.SwitchTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rows[txn.GlobalTxnID]; exists {
		return fmt.Errorf("transaction %s already exists", txn.GlobalTxnID)
	}
	clone := *txn
	r.rows[txn.GlobalTxnID] = &clone
	return nil
}

func (r *memTxnRepo) Save(ctx context.Context, txn *models.SwitchTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *txn
	r.rows[txn.GlobalTxnID] = &clone
	return nil
}

func (r *memTxnRepo) FindByID(ctx context.Context, globalTxnID string) (*models.SwitchTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txn, ok := r.rows[globalTxnID]
	if !ok {
		return nil, repositories.ErrTransactionNotFound
	}
	clone := *txn
	return &clone, nil
}

func (r *memTxnRepo) CountByDeviceSince(ctx context.Context, deviceID string, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, txn := range r.rows {
		if txn.SenderDeviceID == deviceID && !txn.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

type memLedger struct {
	mu      sync.Mutex
	seq     int64
	entries []models.LedgerEntry
}

func (l *memLedger) NextSequence(ctx context.Context) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	return l.seq, nil
}

func (l *memLedger) RecordEntry(ctx context.Context, globalTxnID, accountNumber, direction string, amount, balanceAfter decimal.Decimal) (*models.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.GlobalTxnID == globalTxnID && e.AccountNumber == accountNumber && e.Direction == direction {
			return nil, repositories.ErrDuplicateEntry
		}
	}
	l.seq++
	entry := models.LedgerEntry{
		LedgerID:      l.seq,
		GlobalTxnID:   globalTxnID,
		AccountNumber: accountNumber,
		Direction:     direction,
		Amount:        amount,
		BalanceAfter:  balanceAfter,
		CreatedAt:     time.Now(),
	}
	l.entries = append(l.entries, entry)
	return &entry, nil
}

func (l *memLedger) Statement(ctx context.Context, accountNumber string, from, to time.Time) ([]models.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.LedgerEntry
	for _, e := range l.entries {
		if e.AccountNumber == accountNumber {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *memLedger) ReversalLookup(ctx context.Context, globalTxnID, direction string) ([]models.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.LedgerEntry
	for _, e := range l.entries {
		if e.GlobalTxnID == globalTxnID && e.Direction == direction {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *memLedger) byDirection(direction string) []models.LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.LedgerEntry
	for _, e := range l.entries {
		if e.Direction == direction {
			out = append(out, e)
		}
	}
	return out
}

type scriptedBank struct {
	mu       sync.Mutex
	debits   int
	credits  int
	reverses int

	debitResult   *models.TransactionResult
	debitErr      error
	creditResult  *models.TransactionResult
	creditErr     error
	reverseResult *models.TransactionResult
	reverseErr    error
}

func bankResult(txnID, status, message string) *models.TransactionResult {
	return &models.TransactionResult{TxnID: txnID, Status: status, Message: message}
}

func (b *scriptedBank) Debit(ctx context.Context, req *models.PaymentRequest, handle, accountNumber string, riskScore float64) (*models.TransactionResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.debits++
	if b.debitErr != nil {
		return nil, b.debitErr
	}
	if b.debitResult != nil {
		return b.debitResult, nil
	}
	return bankResult(req.TxnID, models.StatusSuccess, "Debit successful"), nil
}

func (b *scriptedBank) Credit(ctx context.Context, req *models.PaymentRequest, handle, accountNumber string, riskScore float64) (*models.TransactionResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credits++
	if b.creditErr != nil {
		return nil, b.creditErr
	}
	if b.creditResult != nil {
		return b.creditResult, nil
	}
	return bankResult(req.TxnID, models.StatusSuccess, "Credit successful"), nil
}

func (b *scriptedBank) Reverse(ctx context.Context, req *models.PaymentRequest, handle, accountNumber string) (*models.TransactionResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reverses++
	if b.reverseErr != nil {
		return nil, b.reverseErr
	}
	if b.reverseResult != nil {
		return b.reverseResult, nil
	}
	return bankResult(req.TxnID, models.StatusSuccess, "Reversal successful"), nil
}

type stubScorer struct {
	mu      sync.Mutex
	calls   int
	verdict fraud.Verdict
	err     error
}

func (s *stubScorer) Score(ctx context.Context, req *models.PaymentRequest) (fraud.Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.verdict, s.err
}

type stubDirectory struct {
	routes map[string]directory.Route
}

func (d *stubDirectory) Resolve(ctx context.Context, vpa string) (*directory.Route, error) {
	route, ok := d.routes[vpa]
	if !ok {
		return nil, fmt.Errorf("address %s not found", vpa)
	}
	return &route, nil
}

type routerFixture struct {
	txns   *memTxnRepo
	ledger *memLedger
	bank   *scriptedBank
	scorer *stubScorer
	svc    Service
}

func newFixture(t *testing.T, cfg RouterConfig) *routerFixture {
	t.Helper()
	f := &routerFixture{
		txns:   newMemTxnRepo(),
		ledger: &memLedger{},
		bank:   &scriptedBank{},
		scorer: &stubScorer{verdict: fraud.Verdict{Score: 0.0, Action: fraud.ActionAllow, Stage: fraud.StagePolicy}},
	}
	dir := &stubDirectory{routes: map[string]directory.Route{
		"alice@axis": {BankHandle: "AXIS", AccountNumber: "ACC-ALICE"},
		"bob@sbi":    {BankHandle: "SBI", AccountNumber: "ACC-BOB"},
	}}
	f.svc = NewService(f.txns, f.ledger, f.bank, f.scorer, dir, nil, nil, cfg)
	return f
}

func payment(txnID string) *models.PaymentRequest {
	return &models.PaymentRequest{
		TxnID:    txnID,
		PayerVPA: "alice@axis",
		PayeeVPA: "bob@sbi",
		Amount:   decimal.NewFromFloat(1000),
		FraudCheck: &models.FraudContext{
			IPAddress: "10.0.0.1",
			DeviceID:  "device-1",
		},
	}
}

func TestRoute_Success(t *testing.T) {
	f := newFixture(t, RouterConfig{})

	result, err := f.svc.Route(context.Background(), payment("txn-ok"))
	require.NoError(t, err)

	assert.Equal(t, models.StatusSuccess, result.Status)
	assert.Equal(t, 1, f.bank.debits)
	assert.Equal(t, 1, f.bank.credits)
	assert.Equal(t, 0, f.bank.reverses)

	debits := f.ledger.byDirection(models.DirectionDebit)
	credits := f.ledger.byDirection(models.DirectionCredit)
	require.Len(t, debits, 1)
	require.Len(t, credits, 1)
	assert.Equal(t, "ACC-ALICE", debits[0].AccountNumber)
	assert.Equal(t, "ACC-BOB", credits[0].AccountNumber)

	txn, err := f.txns.FindByID(context.Background(), "txn-ok")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, txn.Status)
	assert.Equal(t, "AXIS", txn.PayerBank)
	assert.Equal(t, "SBI", txn.PayeeBank)
}

func TestRoute_AssignsTxnIDWhenEmpty(t *testing.T) {
	f := newFixture(t, RouterConfig{})

	result, err := f.svc.Route(context.Background(), payment(""))
	require.NoError(t, err)
	assert.NotEmpty(t, result.TxnID)
}

func TestRoute_FraudBlock(t *testing.T) {
	f := newFixture(t, RouterConfig{})
	f.scorer.verdict = fraud.Verdict{Score: 1.0, Action: fraud.ActionBlock, Stage: fraud.StageRules}

	result, err := f.svc.Route(context.Background(), payment("txn-blocked"))
	require.NoError(t, err)

	assert.Equal(t, models.StatusBlockedFraud, result.Status)
	assert.Equal(t, 0, f.bank.debits)
	assert.Equal(t, 0, f.bank.credits)
	assert.Empty(t, f.ledger.entries)

	txn, err := f.txns.FindByID(context.Background(), "txn-blocked")
	require.NoError(t, err)
	assert.Equal(t, models.RiskFlagBlock, txn.RiskFlag)
}

func TestRoute_ChallengeLeavesResumableRow(t *testing.T) {
	f := newFixture(t, RouterConfig{})
	f.scorer.verdict = fraud.Verdict{Score: 0.65, Action: fraud.ActionChallenge, Stage: fraud.StagePolicy}

	result, err := f.svc.Route(context.Background(), payment("txn-challenged"))
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, result.Status)
	assert.Equal(t, 0, f.bank.debits)
	assert.Empty(t, f.ledger.entries)

	txn, err := f.txns.FindByID(context.Background(), "txn-challenged")
	require.NoError(t, err)
	assert.Equal(t, models.RiskFlagReview, txn.RiskFlag)

	// After step-up the same id routes to completion.
	f.scorer.verdict = fraud.Verdict{Score: 0.0, Action: fraud.ActionAllow, Stage: fraud.StagePolicy}
	result, err = f.svc.Route(context.Background(), payment("txn-challenged"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, result.Status)
	assert.Equal(t, 1, f.bank.debits)
}

func TestRoute_ScreeningUnavailable(t *testing.T) {
	f := newFixture(t, RouterConfig{})
	f.scorer.err = errors.New("blocklist store down")

	_, err := f.svc.Route(context.Background(), payment("txn-noscreen"))
	assert.ErrorIs(t, err, ErrScreeningUnavailable)
	assert.Equal(t, 0, f.bank.debits)

	txn, ferr := f.txns.FindByID(context.Background(), "txn-noscreen")
	require.NoError(t, ferr)
	assert.Equal(t, models.StatusFailed, txn.Status)
}

func TestRoute_DebitRejected(t *testing.T) {
	f := newFixture(t, RouterConfig{})
	f.bank.debitResult = bankResult("txn-nsf", models.StatusFailed, "AXIS rejected: 400")

	result, err := f.svc.Route(context.Background(), payment("txn-nsf"))
	require.NoError(t, err)

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Equal(t, 0, f.bank.credits)
	assert.Empty(t, f.ledger.entries)
}

func TestRoute_DebitIndeterminate(t *testing.T) {
	t.Run("deemed approved by default policy", func(t *testing.T) {
		f := newFixture(t, RouterConfig{DeemApprovedOnIndeterminate: true})
		f.bank.debitResult = bankResult("txn-d1", models.StatusPending, "AXIS unreachable. Transaction pending.")

		result, err := f.svc.Route(context.Background(), payment("txn-d1"))
		require.NoError(t, err)
		assert.Equal(t, models.StatusDeemedApproved, result.Status)
		assert.Equal(t, 0, f.bank.credits)
		assert.Empty(t, f.ledger.entries)
	})

	t.Run("held pending when deemed approval is off", func(t *testing.T) {
		f := newFixture(t, RouterConfig{DeemApprovedOnIndeterminate: false})
		f.bank.debitResult = bankResult("txn-d2", models.StatusPending, "AXIS unreachable. Transaction pending.")

		result, err := f.svc.Route(context.Background(), payment("txn-d2"))
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, result.Status)
	})
}

func TestRoute_CreditFailureReversesDebit(t *testing.T) {
	f := newFixture(t, RouterConfig{})
	f.bank.creditResult = bankResult("txn-rev", models.StatusPending, "SBI unreachable. Transaction pending.")

	result, err := f.svc.Route(context.Background(), payment("txn-rev"))
	require.NoError(t, err)

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Message, "debit reversed")
	assert.Equal(t, 1, f.bank.reverses)

	// The debit leg was committed before the credit attempt; no credit entry
	// ever lands.
	assert.Len(t, f.ledger.byDirection(models.DirectionDebit), 1)
	assert.Empty(t, f.ledger.byDirection(models.DirectionCredit))
}

func TestRoute_ReversalUnconfirmed(t *testing.T) {
	f := newFixture(t, RouterConfig{DeemApprovedOnIndeterminate: true})
	f.bank.creditResult = bankResult("txn-stuck", models.StatusPending, "SBI unreachable.")
	f.bank.reverseResult = bankResult("txn-stuck", models.StatusPending, "AXIS unreachable.")

	result, err := f.svc.Route(context.Background(), payment("txn-stuck"))
	require.NoError(t, err)

	assert.Equal(t, models.StatusDeemedApproved, result.Status)
	assert.Contains(t, result.Message, "reconciliation required")
	assert.Empty(t, f.ledger.byDirection(models.DirectionCredit))
}

func TestRoute_UnknownInstitution(t *testing.T) {
	f := newFixture(t, RouterConfig{})
	configErr := errors.New("unknown institution handle: HDFC")
	f.bank.debitErr = configErr

	_, err := f.svc.Route(context.Background(), payment("txn-config"))
	assert.ErrorIs(t, err, configErr)

	txn, ferr := f.txns.FindByID(context.Background(), "txn-config")
	require.NoError(t, ferr)
	assert.Equal(t, models.StatusFailed, txn.Status)
}

func TestRoute_UnresolvableAddressFails(t *testing.T) {
	f := newFixture(t, RouterConfig{})
	req := payment("txn-noaddr")
	req.PayeeVPA = "ghost@nowhere"

	result, err := f.svc.Route(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Equal(t, 0, f.bank.debits)
}

func TestRoute_DeviceRateLimit(t *testing.T) {
	f := newFixture(t, RouterConfig{RateLimitCeiling: 5, RateLimitWindow: time.Minute})

	for i := 0; i < 5; i++ {
		_, err := f.svc.Route(context.Background(), payment(fmt.Sprintf("txn-rl-%d", i)))
		require.NoError(t, err)
	}
	scoredBefore := f.scorer.calls
	debitsBefore := f.bank.debits

	_, err := f.svc.Route(context.Background(), payment("txn-rl-6"))
	assert.ErrorIs(t, err, ErrRateLimited)

	// Rejected before scoring and before any bank call; no row persisted.
	assert.Equal(t, scoredBefore, f.scorer.calls)
	assert.Equal(t, debitsBefore, f.bank.debits)
	_, err = f.txns.FindByID(context.Background(), "txn-rl-6")
	assert.ErrorIs(t, err, repositories.ErrTransactionNotFound)
}

func TestRoute_IdempotentReplay(t *testing.T) {
	f := newFixture(t, RouterConfig{})

	first, err := f.svc.Route(context.Background(), payment("txn-replay"))
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, first.Status)

	second, err := f.svc.Route(context.Background(), payment("txn-replay"))
	require.NoError(t, err)

	assert.Equal(t, models.StatusSuccess, second.Status)
	assert.Equal(t, 1, f.bank.debits)
	assert.Equal(t, 1, f.bank.credits)
	assert.Len(t, f.ledger.entries, 2)
}

func TestRoute_PendingRowIsNotReExecuted(t *testing.T) {
	f := newFixture(t, RouterConfig{})
	require.NoError(t, f.txns.Create(context.Background(), &models.SwitchTransaction{
		GlobalTxnID: "txn-recon",
		PayerVPA:    "alice@axis",
		PayeeVPA:    "bob@sbi",
		Amount:      decimal.NewFromFloat(1000),
		Status:      models.StatusPending,
		Message:     "AXIS unreachable. Transaction pending.",
		CreatedAt:   time.Now(),
	}))

	result, err := f.svc.Route(context.Background(), payment("txn-recon"))
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, result.Status)
	assert.Equal(t, 0, f.bank.debits)
	assert.Empty(t, f.ledger.entries)
}

func TestRoute_DuplicateLedgerEntryTolerated(t *testing.T) {
	f := newFixture(t, RouterConfig{})
	_, err := f.ledger.RecordEntry(context.Background(), "txn-dup", "ACC-ALICE", models.DirectionDebit,
		decimal.NewFromFloat(1000), decimal.Zero)
	require.NoError(t, err)

	result, err := f.svc.Route(context.Background(), payment("txn-dup"))
	require.NoError(t, err)

	assert.Equal(t, models.StatusSuccess, result.Status)
	assert.Len(t, f.ledger.byDirection(models.DirectionDebit), 1)
	assert.Len(t, f.ledger.byDirection(models.DirectionCredit), 1)
}

func TestRequestMoneyFlow(t *testing.T) {
	f := newFixture(t, RouterConfig{})

	txn, err := f.svc.InitiateRequest(context.Background(), "bob@sbi", "alice@axis", decimal.NewFromFloat(750))
	require.NoError(t, err)
	assert.Equal(t, models.StatusRequested, txn.Status)
	assert.Equal(t, "bob@sbi", txn.PayeeVPA)
	assert.Equal(t, "alice@axis", txn.PayerVPA)

	result, err := f.svc.ApproveRequest(context.Background(), txn.GlobalTxnID, ApprovalRequest{
		MPINHash:   "hash",
		FraudCheck: &models.FraudContext{DeviceID: "device-1", IPAddress: "10.0.0.1"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, result.Status)
	assert.Len(t, f.ledger.entries, 2)
}

func TestApproveRequest_RejectsNonRequestedRows(t *testing.T) {
	f := newFixture(t, RouterConfig{})

	_, err := f.svc.Route(context.Background(), payment("txn-done"))
	require.NoError(t, err)

	_, err = f.svc.ApproveRequest(context.Background(), "txn-done", ApprovalRequest{})
	assert.ErrorIs(t, err, ErrNotRequested)

	_, err = f.svc.ApproveRequest(context.Background(), "txn-missing", ApprovalRequest{})
	assert.ErrorIs(t, err, repositories.ErrTransactionNotFound)
}

func TestRoute_ConcurrentCallsCollapse(t *testing.T) {
	f := newFixture(t, RouterConfig{})

	var wg sync.WaitGroup
	results := make([]*models.TransactionResult, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.Route(context.Background(), payment("txn-concurrent"))
		}(i)
	}
	wg.Wait()

	for i, result := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, models.StatusSuccess, result.Status)
	}
	// Between single-flight collapse and replay, money moves at most once.
	assert.Len(t, f.ledger.byDirection(models.DirectionDebit), 1)
	assert.Len(t, f.ledger.byDirection(models.DirectionCredit), 1)
}
