package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphRiskClient_Score(t *testing.T) {
	var got graphRiskRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/graph-risk", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(graphRiskResponse{
			Probabilities: [][]float64{{0.2, 0.8}, {0.9, 0.1}},
		})
	}))
	defer server.Close()

	client := NewGraphRiskClient(server.URL, time.Second)
	risk, err := client.Score(context.Background(), []float32{0.5, 1.0, 0, 0}, 2, []int64{0, 1, 1, 0})
	require.NoError(t, err)

	assert.Equal(t, 0.8, risk)
	assert.Equal(t, [][]float32{{0.5, 1.0}, {0, 0}}, got.NodeFeatures)
	assert.Equal(t, []int64{0, 1}, got.EdgeIndex[0])
	assert.Equal(t, []int64{1, 0}, got.EdgeIndex[1])
}

func TestGraphRiskClient_ShapeMismatch(t *testing.T) {
	client := NewGraphRiskClient("http://localhost:1", time.Second)
	_, err := client.Score(context.Background(), []float32{0.5}, 2, nil)
	assert.Error(t, err)
}

func TestGraphRiskClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewGraphRiskClient(server.URL, time.Second)
	_, err := client.Score(context.Background(), []float32{0, 0}, 1, nil)
	assert.ErrorContains(t, err, "500")
}

func TestPolicyClient_Logits(t *testing.T) {
	var got policyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/policy", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(policyResponse{Logits: []float64{0.1, 2.5, 0.4}})
	}))
	defer server.Close()

	client := NewPolicyClient(server.URL, time.Second)
	logits, err := client.Logits(context.Background(), [4]float32{0.8, 0.5, 0.1, 1.0})
	require.NoError(t, err)

	assert.Equal(t, []float64{0.1, 2.5, 0.4}, logits)
	assert.Equal(t, [4]float32{0.8, 0.5, 0.1, 1.0}, got.State)
}

func TestPolicyClient_EmptyLogits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(policyResponse{})
	}))
	defer server.Close()

	client := NewPolicyClient(server.URL, time.Second)
	_, err := client.Logits(context.Background(), [4]float32{})
	assert.Error(t, err)
}
