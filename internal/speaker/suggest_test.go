package speaker_test

import (
	"testing"

	"quotecard/internal/speaker"
)

func TestSuggest(t *testing.T) {
	t.Parallel()

	existing := []speaker.Speaker{
		{Name: "Bob"},
		{Name: "Alice"},
		{Name: "Coach Carter"},
	}

	tests := []struct {
		name     string
		input    string
		wantName string
		wantHit  bool
	}{
		{name: "case variant of stored name", input: "bob", wantName: "Bob", wantHit: true},
		{name: "close typo", input: "Alicee", wantName: "Alice", wantHit: true},
		{name: "unrelated name", input: "Zhenya", wantHit: false},
		{name: "exact match never suggests", input: "Bob", wantHit: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, hit := speaker.Suggest(existing, tt.input)
			if hit != tt.wantHit {
				t.Fatalf("Suggest(%q): hit=%v, want %v (got %+v)", tt.input, hit, tt.wantHit, got)
			}
			if hit && got.Name != tt.wantName {
				t.Fatalf("Suggest(%q): got %q, want %q", tt.input, got.Name, tt.wantName)
			}
		})
	}
}

func TestSuggestEmptyStore(t *testing.T) {
	t.Parallel()

	if _, hit := speaker.Suggest(nil, "Bob"); hit {
		t.Fatal("Suggest: expected no hit for empty store")
	}
}
