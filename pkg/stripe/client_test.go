package stripe

import (
	"context"
	"testing"

	"github.com/dmarchetti/orchard-backend/pkg/config"
)

func TestNewClientValidation(t *testing.T) {
	ctx := context.Background()

	if _, err := NewClient(ctx, config.StripeConfig{Env: "test", Secret: "whsec_x"}, nil); err != errAPIKeyRequired {
		t.Fatalf("expected api key error, got %v", err)
	}
	if _, err := NewClient(ctx, config.StripeConfig{Env: "test", APIKey: "sk_test_123"}, nil); err != errSecretRequired {
		t.Fatalf("expected signing secret error, got %v", err)
	}
	if _, err := NewClient(ctx, config.StripeConfig{Env: "staging", APIKey: "sk_test_123", Secret: "whsec_x"}, nil); err == nil {
		t.Fatal("expected invalid environment error")
	}
	if _, err := NewClient(ctx, config.StripeConfig{Env: "live", APIKey: "sk_test_123", Secret: "whsec_x"}, nil); err == nil {
		t.Fatal("expected key/environment mismatch error")
	}

	client, err := NewClient(ctx, config.StripeConfig{Env: "test", APIKey: "sk_test_123", Secret: "whsec_x"}, nil)
	if err != nil {
		t.Fatalf("expected client, got %v", err)
	}
	if client.Environment() != "test" {
		t.Fatalf("unexpected environment %q", client.Environment())
	}
	if client.SigningSecret() != "whsec_x" {
		t.Fatalf("unexpected signing secret %q", client.SigningSecret())
	}
}
