// Package gateway holds the client for the identity/access service owned by
// the gateway. The switch uses it to mark devices of confirmed-fraud
// accounts as untrusted.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

// Client calls the gateway's internal endpoints.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

type blockUsersRequest struct {
	UserIDs []string `json:"userIds"`
	Reason  string   `json:"reason"`
}

// New creates a gateway client. token is the service bearer token for the
// internal API.
func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// BlockUsers asks the gateway to mark every listed account's devices as
// untrusted in a single batch call.
func (c *Client) BlockUsers(ctx context.Context, userIDs []string, reason string) error {
	body, err := json.Marshal(blockUsersRequest{UserIDs: userIDs, Reason: reason})
	if err != nil {
		return fmt.Errorf("encode block-users request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/internal/block-users", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build block-users request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("gateway block-users returned %d", resp.StatusCode)
	}
	return nil
}
