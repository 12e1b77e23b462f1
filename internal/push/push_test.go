package push

import (
	"testing"

	"github.com/dukerupert/hearth/internal/model"
)

func TestServiceNotConfigured(t *testing.T) {
	s := NewService("", "", "mailto:test@example.com")
	if s.Configured() {
		t.Error("expected unconfigured service")
	}

	err := s.Send(&model.PushSubscription{Endpoint: "https://example.com"}, Payload{Title: "hi"})
	if err == nil {
		t.Error("expected Send to fail without VAPID keys")
	}
}

func TestGenerateVAPIDKeys(t *testing.T) {
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("GenerateVAPIDKeys failed: %v", err)
	}
	if pub == "" || priv == "" {
		t.Fatal("expected non-empty keys")
	}

	s := NewService(pub, priv, "mailto:test@example.com")
	if !s.Configured() {
		t.Error("expected configured service")
	}
	if s.VAPIDPublicKey() != pub {
		t.Error("expected VAPIDPublicKey to return the public key")
	}
}
