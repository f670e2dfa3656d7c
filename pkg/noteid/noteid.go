package noteid

import (
	"crypto/rand"
	"fmt"
	"regexp"
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Each generated identifier is built from two independent draws so a weakness
// in a single draw never yields the whole identifier.
const drawLength = 11

const maxCustomLength = 64

var customIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// New returns an opaque, URL-safe note identifier. The identifier space is
// large enough (62^22) that collisions are negligible over the service's
// lifetime.
func New() string {
	return draw(drawLength) + draw(drawLength)
}

func draw(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("noteid: rand.Read: %v", err))
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out)
}

// Validate checks a user-supplied custom identifier. System-generated
// identifiers always pass.
func Validate(id string) error {
	if id == "" {
		return fmt.Errorf("note id must not be empty")
	}
	if len(id) > maxCustomLength {
		return fmt.Errorf("note id must be at most %d characters", maxCustomLength)
	}
	if !customIDPattern.MatchString(id) {
		return fmt.Errorf("note id may only contain letters, digits, hyphens and underscores")
	}
	return nil
}
