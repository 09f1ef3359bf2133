package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// CustomerTokenPayload captures the data available when minting a JWT.
type CustomerTokenPayload struct {
	CustomerID string
	Email      string
}

// CustomerTokenClaims represents the typed JWT issued to storefront
// customers.
type CustomerTokenClaims struct {
	CustomerID string `json:"customer_id"`
	Email      string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
