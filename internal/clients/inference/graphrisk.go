// Package inference holds the HTTP clients for the two model endpoints the
// switch consumes as opaque services: the graph-risk model and the policy
// model. Both are served by the model runtime sidecar.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 5 * time.Second

// GraphRiskClient calls the graph-risk model endpoint. The model accepts a
// node-feature matrix plus edge-index pairs and returns per-node class
// probability pairs; the payer sits at local index 0.
type GraphRiskClient struct {
	baseURL string
	client  *http.Client
}

type graphRiskRequest struct {
	NodeFeatures [][]float32 `json:"node_features"`
	EdgeIndex    [2][]int64  `json:"edge_index"`
}

type graphRiskResponse struct {
	Probabilities [][]float64 `json:"probabilities"`
}

// NewGraphRiskClient creates a graph-risk model client.
func NewGraphRiskClient(baseURL string, timeout time.Duration) *GraphRiskClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &GraphRiskClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Score runs inference over the local subgraph. features is a flattened
// numNodes x 2 matrix; edges alternates src,dst pairs already remapped to
// local indices. Returns the fraud-class probability of node 0.
func (c *GraphRiskClient) Score(ctx context.Context, features []float32, numNodes int, edges []int64) (float64, error) {
	if numNodes <= 0 || len(features) != numNodes*2 {
		return 0, fmt.Errorf("feature matrix shape mismatch: %d nodes, %d floats", numNodes, len(features))
	}

	req := graphRiskRequest{NodeFeatures: make([][]float32, numNodes)}
	for i := 0; i < numNodes; i++ {
		req.NodeFeatures[i] = []float32{features[i*2], features[i*2+1]}
	}
	numEdges := len(edges) / 2
	req.EdgeIndex[0] = make([]int64, numEdges)
	req.EdgeIndex[1] = make([]int64, numEdges)
	for i := 0; i < numEdges; i++ {
		req.EdgeIndex[0][i] = edges[2*i]
		req.EdgeIndex[1][i] = edges[2*i+1]
	}

	var resp graphRiskResponse
	if err := postJSON(ctx, c.client, c.baseURL+"/v1/graph-risk", req, &resp); err != nil {
		return 0, err
	}
	if len(resp.Probabilities) == 0 || len(resp.Probabilities[0]) < 2 {
		return 0, fmt.Errorf("malformed graph-risk response")
	}
	return resp.Probabilities[0][1], nil
}

func postJSON(ctx context.Context, client *http.Client, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode inference request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("inference call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("inference endpoint returned %d: %s", resp.StatusCode, raw)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode inference response: %w", err)
	}
	return nil
}
