// Package middleware provides HTTP middleware for the switch's API surface.
package middleware

import (
	"log/slog"
	"strings"

	"upiswitch/internal/models"
	"upiswitch/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// ServiceAuth validates service-to-service bearer tokens on internal
// endpoints. Token issuance lives in the gateway; the switch only verifies
// the shared-secret signature.
type ServiceAuth struct {
	secret []byte
}

// NewServiceAuth creates the middleware with the shared HS256 secret.
func NewServiceAuth(secret string) *ServiceAuth {
	return &ServiceAuth{secret: []byte(secret)}
}

// Handler verifies the bearer token and stores the calling service name in
// the request context.
func (m *ServiceAuth) Handler(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return utils.Unauthorized(c)
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	token, err := jwt.ParseWithClaims(tokenString, &models.ServiceClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		slog.Warn("service token rejected", "error", err)
		return utils.Unauthorized(c)
	}

	claims, ok := token.Claims.(*models.ServiceClaims)
	if !ok || claims.Service == "" {
		return utils.Unauthorized(c)
	}
	c.Locals("service", claims.Service)
	return c.Next()
}
