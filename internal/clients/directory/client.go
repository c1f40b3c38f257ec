// Package directory resolves VPA-equivalent identifiers to an institution
// handle and account number via the network account directory.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultTimeout = 5 * time.Second

// Route is the resolved destination for a payment address.
type Route struct {
	BankHandle    string `json:"bankHandle"`
	AccountNumber string `json:"accountNumber"`
}

// Client calls the account directory.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a directory client.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Resolve looks up the institution handle and account number for a VPA.
func (c *Client) Resolve(ctx context.Context, vpa string) (*Route, error) {
	endpoint := c.baseURL + "/api/internal/directory/" + url.PathEscape(vpa)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build directory request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("vpa not registered: %s", vpa)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory returned %d", resp.StatusCode)
	}

	var route Route
	if err := json.NewDecoder(resp.Body).Decode(&route); err != nil {
		return nil, fmt.Errorf("decode directory response: %w", err)
	}
	if route.BankHandle == "" || route.AccountNumber == "" {
		return nil, fmt.Errorf("incomplete directory record for %s", vpa)
	}
	return &route, nil
}
