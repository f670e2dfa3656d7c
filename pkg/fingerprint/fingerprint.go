// Package fingerprint computes advisory content hashes for version records.
// The hash is display/dedup metadata only; exact content comparison remains
// the sole authority on equality.
package fingerprint

import (
	"fmt"

	"github.com/cespare/xxhash"
)

// Sum returns a deterministic hex fingerprint of content.
func Sum(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}
