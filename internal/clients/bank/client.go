// Package bank implements the HTTP client for the institution adapters.
// It routes debit/credit/reverse calls by institution handle and normalizes
// heterogeneous failure modes into three outcome classes: a 4xx response is
// a definitive business rejection (FAILED), while 5xx and transport errors
// are indeterminate (PENDING) because money may or may not have moved on the
// remote side. Indeterminate outcomes are never retried blindly; they go to
// reconciliation.
package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"upiswitch/internal/models"
	"upiswitch/internal/utils"
)

// ErrUnknownInstitution signals a handle with no configured adapter. This is
// a configuration error, not a remote failure, and is surfaced immediately.
var ErrUnknownInstitution = errors.New("unknown institution handle")

const defaultTimeout = 10 * time.Second

// Client talks to institution adapters over their bank HTTP contract.
type Client struct {
	endpoints map[string]string
	client    *http.Client
	logger    *slog.Logger
}

// New creates a bank client. endpoints maps upper-case institution handles
// (e.g. "AXIS") to their base URLs.
func New(endpoints map[string]string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	normalized := make(map[string]string, len(endpoints))
	for handle, base := range endpoints {
		normalized[strings.ToUpper(handle)] = strings.TrimRight(base, "/")
	}
	return &Client{
		endpoints: normalized,
		client:    &http.Client{Timeout: timeout},
		logger:    slog.With("component", "bank_client"),
	}
}

// Debit asks the payer's institution to debit the account.
func (c *Client) Debit(ctx context.Context, req *models.PaymentRequest, handle, accountNumber string, riskScore float64) (*models.TransactionResult, error) {
	return c.call(ctx, req, "debit", handle, accountNumber, riskScore)
}

// Credit asks the payee's institution to credit the account.
func (c *Client) Credit(ctx context.Context, req *models.PaymentRequest, handle, accountNumber string, riskScore float64) (*models.TransactionResult, error) {
	return c.call(ctx, req, "credit", handle, accountNumber, riskScore)
}

// Reverse compensates a debit after a failed credit.
func (c *Client) Reverse(ctx context.Context, req *models.PaymentRequest, handle, accountNumber string) (*models.TransactionResult, error) {
	return c.call(ctx, req, "reverse", handle, accountNumber, 0.0)
}

func (c *Client) call(ctx context.Context, req *models.PaymentRequest, operation, handle, accountNumber string, riskScore float64) (*models.TransactionResult, error) {
	base, err := c.resolve(handle)
	if err != nil {
		return nil, err
	}
	url := base + "/api/bank/" + operation

	log := c.logger.With(
		"operation", strings.ToUpper(operation),
		"bank", handle,
		"txn_id", req.TxnID,
		"account", utils.MaskAccount(accountNumber),
	)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build bank request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Account-Number", accountNumber)
	httpReq.Header.Set("X-Risk-Score", strconv.FormatFloat(riskScore, 'f', -1, 64))

	resp, err := c.client.Do(httpReq)
	if err != nil {
		// Transport error or timeout: indeterminate, money may have moved.
		log.Error("bank unreachable", "error", err)
		return &models.TransactionResult{
			TxnID:   req.TxnID,
			Status:  models.StatusPending,
			Message: handle + " unreachable. Transaction pending.",
		}, nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		log.Error("bank server error", "status", resp.StatusCode)
		return &models.TransactionResult{
			TxnID:   req.TxnID,
			Status:  models.StatusPending,
			Message: handle + " service error. Transaction pending.",
		}, nil
	case resp.StatusCode >= 400:
		log.Warn("bank rejected request", "status", resp.StatusCode)
		return &models.TransactionResult{
			TxnID:   req.TxnID,
			Status:  models.StatusFailed,
			Message: fmt.Sprintf("%s rejected: %d", handle, resp.StatusCode),
		}, nil
	}

	var result models.TransactionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		// A 2xx with an unreadable body is as indeterminate as a timeout.
		log.Error("unreadable bank response", "error", err)
		return &models.TransactionResult{
			TxnID:   req.TxnID,
			Status:  models.StatusPending,
			Message: handle + " returned an unreadable response. Transaction pending.",
		}, nil
	}
	log.Info("bank call completed", "status", result.Status)
	return &result, nil
}

// HealthCheck probes an institution adapter. Failures are reported as false,
// never as errors.
func (c *Client) HealthCheck(ctx context.Context, handle string) bool {
	base, err := c.resolve(handle)
	if err != nil {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/actuator/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("health check failed", "bank", handle, "error", err)
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *Client) resolve(handle string) (string, error) {
	base, ok := c.endpoints[strings.ToUpper(handle)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownInstitution, handle)
	}
	return base, nil
}
