package token

import (
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestGenerateAndValidate(t *testing.T) {
	signed, err := Generate("abc123", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	claims, err := Validate(signed, testSecret)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if claims.NoteID != "abc123" {
		t.Errorf("NoteID = %s, want abc123", claims.NoteID)
	}
}

func TestValidateWrongSecret(t *testing.T) {
	signed, err := Generate("abc123", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if _, err := Validate(signed, "other-secret"); err == nil {
		t.Error("Validate() with wrong secret = nil, want error")
	}
}

func TestValidateExpired(t *testing.T) {
	signed, err := Generate("abc123", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if _, err := Validate(signed, testSecret); err == nil {
		t.Error("Validate() with expired token = nil, want error")
	}
}

func TestUnlocks(t *testing.T) {
	signed, err := Generate("abc123", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	tests := []struct {
		name   string
		token  string
		noteID string
		want   bool
	}{
		{
			name:   "matching note",
			token:  signed,
			noteID: "abc123",
			want:   true,
		},
		{
			name:   "different note",
			token:  signed,
			noteID: "other",
			want:   false,
		},
		{
			name:   "empty token",
			token:  "",
			noteID: "abc123",
			want:   false,
		},
		{
			name:   "garbage token",
			token:  "not-a-token",
			noteID: "abc123",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Unlocks(tt.token, tt.noteID, testSecret); got != tt.want {
				t.Errorf("Unlocks() = %v, want %v", got, tt.want)
			}
		})
	}
}
