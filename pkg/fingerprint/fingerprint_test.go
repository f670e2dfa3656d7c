package fingerprint

import "testing"

func TestSum(t *testing.T) {
	if Sum("hello") != Sum("hello") {
		t.Error("Sum() is not deterministic")
	}

	if Sum("hello") == Sum("hello!") {
		t.Error("Sum() returned identical fingerprints for different content")
	}

	if len(Sum("")) != 16 {
		t.Errorf("Sum(\"\") length = %d, want 16", len(Sum("")))
	}

	// The empty note gets a real fingerprint, not a placeholder.
	if Sum("") == "0000000000000000" {
		t.Error("Sum(\"\") looks like a placeholder value")
	}
}
