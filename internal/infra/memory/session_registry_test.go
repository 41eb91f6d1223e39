package memory

import (
	"testing"

	"quizify-engine/internal/engine"
)

func TestSessionRegistry(t *testing.T) {
	registry := NewSessionRegistry()

	if _, ok := registry.Get("ABC1234"); ok {
		t.Fatalf("expected empty registry")
	}

	session := engine.NewSession("ABC1234", nil, 1800)
	registry.Add(session)

	got, ok := registry.Get("ABC1234")
	if !ok || got != session {
		t.Fatalf("expected stored session back, ok=%v", ok)
	}

	registry.Delete("ABC1234")
	if _, ok := registry.Get("ABC1234"); ok {
		t.Fatalf("expected session dropped")
	}
}
