package models

import "github.com/golang-jwt/jwt/v5"

// ServiceClaims are the claims carried by service-to-service tokens on the
// switch's internal endpoints. Token issuance lives in the gateway; the
// switch only verifies.
type ServiceClaims struct {
	Service string `json:"service"`
	jwt.RegisteredClaims
}
