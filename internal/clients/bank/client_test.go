package bank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"upiswitch/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() *models.PaymentRequest {
	return &models.PaymentRequest{
		TxnID:    "txn-abc",
		PayerVPA: "alice@axis",
		PayeeVPA: "bob@sbi",
		Amount:   decimal.NewFromFloat(250.50),
	}
}

func TestClient_Debit_Success(t *testing.T) {
	var gotAccount, gotRisk string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/bank/debit", r.URL.Path)
		gotAccount = r.Header.Get("X-Account-Number")
		gotRisk = r.Header.Get("X-Risk-Score")

		var req models.PaymentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "txn-abc", req.TxnID)

		json.NewEncoder(w).Encode(models.TransactionResult{
			TxnID:   req.TxnID,
			Status:  models.StatusSuccess,
			Message: "Debit successful",
		})
	}))
	defer server.Close()

	client := New(map[string]string{"axis": server.URL}, time.Second)
	result, err := client.Debit(context.Background(), testRequest(), "AXIS", "ACC-42", 0.65)
	require.NoError(t, err)

	assert.Equal(t, models.StatusSuccess, result.Status)
	assert.Equal(t, "ACC-42", gotAccount)
	assert.Equal(t, "0.65", gotRisk)
}

func TestClient_Call_BusinessRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "insufficient funds", http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(map[string]string{"AXIS": server.URL}, time.Second)
	result, err := client.Debit(context.Background(), testRequest(), "AXIS", "ACC-42", 0.0)
	require.NoError(t, err)

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Message, "AXIS rejected")
}

func TestClient_Call_ServerErrorIsIndeterminate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(map[string]string{"SBI": server.URL}, time.Second)
	result, err := client.Credit(context.Background(), testRequest(), "SBI", "ACC-99", 0.0)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, result.Status)
}

func TestClient_Call_TimeoutIsIndeterminate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := New(map[string]string{"AXIS": server.URL}, 50*time.Millisecond)
	result, err := client.Debit(context.Background(), testRequest(), "AXIS", "ACC-42", 0.0)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, result.Status)
	assert.Contains(t, result.Message, "unreachable")
}

func TestClient_Call_UnreadableBodyIsIndeterminate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := New(map[string]string{"AXIS": server.URL}, time.Second)
	result, err := client.Debit(context.Background(), testRequest(), "AXIS", "ACC-42", 0.0)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, result.Status)
}

func TestClient_Call_UnknownHandle(t *testing.T) {
	client := New(map[string]string{"AXIS": "http://localhost:1"}, time.Second)
	_, err := client.Debit(context.Background(), testRequest(), "HDFC", "ACC-42", 0.0)
	assert.ErrorIs(t, err, ErrUnknownInstitution)
}

func TestClient_Reverse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bank/reverse", r.URL.Path)
		json.NewEncoder(w).Encode(models.TransactionResult{
			TxnID:  "txn-abc",
			Status: models.StatusSuccess,
		})
	}))
	defer server.Close()

	client := New(map[string]string{"AXIS": server.URL}, time.Second)
	result, err := client.Reverse(context.Background(), testRequest(), "AXIS", "ACC-42")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, result.Status)
}

func TestClient_HealthCheck(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/actuator/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	unhealthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer unhealthy.Close()

	client := New(map[string]string{"AXIS": healthy.URL, "SBI": unhealthy.URL}, time.Second)

	assert.True(t, client.HealthCheck(context.Background(), "AXIS"))
	assert.False(t, client.HealthCheck(context.Background(), "SBI"))
	assert.False(t, client.HealthCheck(context.Background(), "HDFC"))
}
