package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/pavelanni/sqi/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCurrentPromptEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CurrentPrompt(ctx)
	if err != nil {
		t.Fatalf("CurrentPrompt: %v", err)
	}
	if p.Version != 0 || p.Content != "" || p.ID != "" {
		t.Errorf("expected zero prompt, got %+v", p)
	}
	if tag := VersionTag(p); tag != "v1" {
		t.Errorf("VersionTag(zero) = %q, want v1", tag)
	}
}

func TestSavePromptRevisions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.SavePrompt(ctx, "Diagnose weak concepts.")
	if err != nil {
		t.Fatalf("SavePrompt: %v", err)
	}
	if first.Version != 1 {
		t.Errorf("first version = %d, want 1", first.Version)
	}
	if first.ID == "" {
		t.Error("expected an id on the saved prompt")
	}

	second, err := s.SavePrompt(ctx, "Diagnose weak concepts, briefly.")
	if err != nil {
		t.Fatalf("SavePrompt: %v", err)
	}
	if second.Version != 2 {
		t.Errorf("second version = %d, want 2", second.Version)
	}
	if second.ID == first.ID {
		t.Error("revisions should have distinct ids")
	}

	cur, err := s.CurrentPrompt(ctx)
	if err != nil {
		t.Fatalf("CurrentPrompt: %v", err)
	}
	if cur.Content != "Diagnose weak concepts, briefly." {
		t.Errorf("current content = %q", cur.Content)
	}
	if cur.ID != second.ID {
		t.Errorf("current id = %q, want %q", cur.ID, second.ID)
	}
	if cur.CreatedAt.IsZero() {
		t.Error("expected created_at to round-trip")
	}
	if tag := VersionTag(cur); tag != "v2" {
		t.Errorf("VersionTag = %q, want v2", tag)
	}
}

func TestSavePromptEmptyContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.SavePrompt(ctx, "first"); err != nil {
		t.Fatalf("SavePrompt: %v", err)
	}
	// Clearing the prompt is a revision like any other.
	p, err := s.SavePrompt(ctx, "")
	if err != nil {
		t.Fatalf("SavePrompt: %v", err)
	}
	cur, err := s.CurrentPrompt(ctx)
	if err != nil {
		t.Fatalf("CurrentPrompt: %v", err)
	}
	if cur.Version != p.Version || cur.Content != "" {
		t.Errorf("current = %+v, want empty revision %d", cur, p.Version)
	}
}

func TestListPrompts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	list, err := s.ListPrompts(ctx, 10)
	if err != nil {
		t.Fatalf("ListPrompts: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}

	for i := 1; i <= 5; i++ {
		if _, err := s.SavePrompt(ctx, fmt.Sprintf("prompt %d", i)); err != nil {
			t.Fatalf("SavePrompt: %v", err)
		}
	}

	tests := []struct {
		name      string
		limit     int
		wantCount int
		wantFirst int
	}{
		{"limited", 3, 3, 5},
		{"more than stored", 50, 5, 5},
		{"zero uses default", 0, 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := s.ListPrompts(ctx, tt.limit)
			if err != nil {
				t.Fatalf("ListPrompts: %v", err)
			}
			if len(list) != tt.wantCount {
				t.Fatalf("expected %d prompts, got %d", tt.wantCount, len(list))
			}
			if list[0].Version != tt.wantFirst {
				t.Errorf("first version = %d, want %d", list[0].Version, tt.wantFirst)
			}
			for i := 1; i < len(list); i++ {
				if list[i].Version >= list[i-1].Version {
					t.Errorf("list not newest first at %d", i)
				}
			}
		})
	}
}

func TestVersionTag(t *testing.T) {
	tests := []struct {
		version int
		want    string
	}{
		{0, "v1"},
		{-1, "v1"},
		{1, "v1"},
		{12, "v12"},
	}
	for _, tt := range tests {
		if got := VersionTag(model.Prompt{Version: tt.version}); got != tt.want {
			t.Errorf("VersionTag(%d) = %q, want %q", tt.version, got, tt.want)
		}
	}
}
