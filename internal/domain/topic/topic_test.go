package topic_test

import (
	"testing"

	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/topic"
)

func TestNewTopic(t *testing.T) {
	tp, err := topic.New("  Math ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tp.Name != "Math" {
		t.Errorf("expected name %q, got %q", "Math", tp.Name)
	}

	if tp.ID != 0 {
		t.Errorf("expected unassigned ID, got %d", tp.ID)
	}
}

func TestNewTopic_EmptyName(t *testing.T) {
	if _, err := topic.New("   "); err == nil {
		t.Error("expected error for blank name, got nil")
	}
}
