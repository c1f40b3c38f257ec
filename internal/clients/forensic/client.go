// Package forensic holds the client for the external explanation service
// that produces forensic reports for blocked transactions.
package forensic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const defaultTimeout = 15 * time.Second

// Client calls the forensic report service.
type Client struct {
	baseURL string
	client  *http.Client
}

// ReportRequest describes a blocked transaction to investigate.
type ReportRequest struct {
	TxnID    string          `json:"txnId"`
	PayerVPA string          `json:"payerVpa"`
	PayeeVPA string          `json:"payeeVpa"`
	Amount   decimal.Decimal `json:"amount"`
	Reason   string          `json:"reason"`
}

// New creates a forensic service client.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// GenerateReport requests an investigation report. The caller runs this
// fire-and-forget; errors are for logging only.
func (c *Client) GenerateReport(ctx context.Context, report ReportRequest) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/investigate/generate-report", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("forensic service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("forensic service returned %d", resp.StatusCode)
	}
	return nil
}
