package inference

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// PolicyClient calls the policy-decision model endpoint. The model accepts a
// fixed 4-float state vector and returns one logit per action.
type PolicyClient struct {
	baseURL string
	client  *http.Client
}

type policyRequest struct {
	State [4]float32 `json:"state"`
}

type policyResponse struct {
	Logits []float64 `json:"logits"`
}

// NewPolicyClient creates a policy model client.
func NewPolicyClient(baseURL string, timeout time.Duration) *PolicyClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &PolicyClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Logits returns the per-action logits for the state vector
// {graphRisk, normalizedAmount, historicalRisk, timeDelta}.
func (c *PolicyClient) Logits(ctx context.Context, state [4]float32) ([]float64, error) {
	var resp policyResponse
	if err := postJSON(ctx, c.client, c.baseURL+"/v1/policy", policyRequest{State: state}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Logits) == 0 {
		return nil, fmt.Errorf("malformed policy response")
	}
	return resp.Logits, nil
}
