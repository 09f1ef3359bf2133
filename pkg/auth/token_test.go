package auth

import (
	"testing"
	"time"

	"github.com/dmarchetti/orchard-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "unit-test-secret",
		Issuer:            "orchard-test",
		ExpirationMinutes: 15,
	}
}

func TestMintAndParseCustomerToken(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	token, err := MintCustomerToken(cfg, time.Now(), CustomerTokenPayload{CustomerID: "cus_123", Email: "dana@example.com"})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	claims, err := ParseCustomerToken(cfg, token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.CustomerID != "cus_123" || claims.Email != "dana@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	token, err := MintCustomerToken(cfg, time.Now().Add(-time.Hour), CustomerTokenPayload{CustomerID: "cus_456"})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	if _, err := ParseCustomerToken(cfg, token); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	token, err := MintCustomerToken(cfg, time.Now(), CustomerTokenPayload{CustomerID: "cus_789"})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	other := cfg
	other.Secret = "different-secret"
	if _, err := ParseCustomerToken(other, token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestMintRequiresCustomerID(t *testing.T) {
	t.Parallel()

	if _, err := MintCustomerToken(testJWTConfig(), time.Now(), CustomerTokenPayload{}); err == nil {
		t.Fatal("expected error without customer id")
	}
}
