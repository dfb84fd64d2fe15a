package downloader

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum256 returns the hex encoded SHA256 digest of b.
func Sum256(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// Verify checks that b hashes to the expected hex digest.
// The comparison ignores case and any "sha256:" prefix.
func Verify(url string, b []byte, expected string) error {
	expected = strings.TrimPrefix(strings.TrimSpace(expected), "sha256:")
	actual := Sum256(b)
	if !strings.EqualFold(actual, expected) {
		return &IntegrityError{
			URL:      url,
			Expected: expected,
			Actual:   actual,
		}
	}
	return nil
}
