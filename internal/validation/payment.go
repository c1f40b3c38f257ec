// Package validation holds business validation for inbound payment intents.
package validation

import (
	"errors"
	"strings"

	"upiswitch/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validation errors
var (
	ErrSamePartyTransfer = errors.New("payer and payee must differ")
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrMalformedVPA      = errors.New("malformed payment address")
)

// ValidatePaymentRequest checks structural and business rules before a
// request reaches the router.
func ValidatePaymentRequest(req *models.PaymentRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	if !req.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if strings.EqualFold(req.PayerVPA, req.PayeeVPA) {
		return ErrSamePartyTransfer
	}
	for _, vpa := range []string{req.PayerVPA, req.PayeeVPA} {
		if !validVPA(vpa) {
			return ErrMalformedVPA
		}
	}
	return nil
}

func validVPA(vpa string) bool {
	at := strings.Index(vpa, "@")
	return at > 0 && at < len(vpa)-1 && strings.Count(vpa, "@") == 1
}
