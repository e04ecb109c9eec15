// internal/registry/code.go
//
// Tenant-code generation.
//
// A tenant code is the short public identifier embedded in auth
// credentials: “0x” followed by eight uppercase hex digits.  The random
// value is 24 bits wide, zero-padded to the full width, so codes look
// like “0x00ABCDEF”.
//
// Generation draws from crypto/rand and redraws on collision against the
// existing codes.  The loop is bounded; exhausting it returns an error
// instead of spinning forever on a crowded code space.

package registry

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"regexp"
)

// maxCodeAttempts bounds the collision-redraw loop.
const maxCodeAttempts = 32

// codePattern matches a well-formed tenant code.
var codePattern = regexp.MustCompile(`^0x[0-9A-F]{8}$`)

// ValidCode reports whether s is a well-formed tenant code.
func ValidCode(s string) bool { return codePattern.MatchString(s) }

// newCode formats one random 24-bit draw as a tenant code.
func newCode() (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[1:]); err != nil {
		return "", fmt.Errorf("registry: draw tenant code: %w", err)
	}
	n := binary.BigEndian.Uint32(buf[:]) // top byte zero, 24-bit value
	return fmt.Sprintf("0x%08X", n), nil
}
