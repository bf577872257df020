package id

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewRunIsUniqueAndParseable(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewRun()
		if seen[id] {
			t.Fatalf("duplicate run id: %s", id)
		}
		seen[id] = true

		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("run id %q is not a UUID: %v", id, err)
		}
	}
}

func TestNewRequestIsUnique(t *testing.T) {
	if NewRequest() == NewRequest() {
		t.Error("request ids should be unique")
	}
}

func TestShort(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0d5c9d3e-91c2-4a7e-a258-2b62a1cf3f3c", "0d5c9d3e"},
		{"abcdefgh", "abcdefgh"},
		{"abc", "abc"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Short(tt.in); got != tt.want {
			t.Errorf("Short(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShortOfNewRunFitsDisplay(t *testing.T) {
	short := Short(NewRun())
	if len(short) != 8 {
		t.Errorf("short run id should be 8 characters, got %d", len(short))
	}
}
