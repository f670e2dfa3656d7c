package noteid

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	id := New()

	if len(id) != 2*drawLength {
		t.Errorf("New() length = %d, want %d", len(id), 2*drawLength)
	}

	for _, r := range id {
		if !strings.ContainsRune(alphabet, r) {
			t.Errorf("New() produced character %q outside the alphabet", r)
		}
	}

	if err := Validate(id); err != nil {
		t.Errorf("Validate(New()) = %v, want nil", err)
	}
}

func TestNewUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := New()
		if seen[id] {
			t.Fatalf("New() produced duplicate identifier %s", id)
		}
		seen[id] = true
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{
			name:    "alphanumeric",
			id:      "abc123",
			wantErr: false,
		},
		{
			name:    "hyphens and underscores",
			id:      "my-note_2024",
			wantErr: false,
		},
		{
			name:    "empty",
			id:      "",
			wantErr: true,
		},
		{
			name:    "path traversal",
			id:      "../etc/passwd",
			wantErr: true,
		},
		{
			name:    "whitespace",
			id:      "my note",
			wantErr: true,
		},
		{
			name:    "too long",
			id:      strings.Repeat("a", maxCustomLength+1),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}
