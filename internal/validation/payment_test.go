package validation

import (
	"testing"

	"upiswitch/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validRequest() *models.PaymentRequest {
	return &models.PaymentRequest{
		TxnID:    "txn-1",
		PayerVPA: "alice@axis",
		PayeeVPA: "bob@sbi",
		Amount:   decimal.NewFromFloat(100),
	}
}

func TestValidatePaymentRequest(t *testing.T) {
	assert.NoError(t, ValidatePaymentRequest(validRequest()))
}

func TestValidatePaymentRequest_SameParty(t *testing.T) {
	req := validRequest()
	req.PayeeVPA = "Alice@Axis"
	assert.ErrorIs(t, ValidatePaymentRequest(req), ErrSamePartyTransfer)
}

func TestValidatePaymentRequest_Amount(t *testing.T) {
	req := validRequest()
	req.Amount = decimal.Zero
	assert.ErrorIs(t, ValidatePaymentRequest(req), ErrNonPositiveAmount)

	req.Amount = decimal.NewFromFloat(-50)
	assert.ErrorIs(t, ValidatePaymentRequest(req), ErrNonPositiveAmount)
}

func TestValidatePaymentRequest_MalformedVPA(t *testing.T) {
	for _, vpa := range []string{"aliceaxis", "@axis", "alice@", "alice@@axis"} {
		req := validRequest()
		req.PayerVPA = vpa
		assert.ErrorIs(t, ValidatePaymentRequest(req), ErrMalformedVPA, "vpa %q", vpa)
	}
}

func TestValidatePaymentRequest_MissingFields(t *testing.T) {
	req := validRequest()
	req.PayerVPA = ""
	assert.Error(t, ValidatePaymentRequest(req))
}
