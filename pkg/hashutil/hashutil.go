package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"lukechampine.com/blake3"
)

type HashAlgo string

const (
	HashAlgoSHA256 HashAlgo = "sha256"
	HashAlgoBLAKE3 HashAlgo = "blake3"
)

// fieldSeparator joins fingerprint parts; it cannot appear in normalized text.
const fieldSeparator = "\x1f"

// HashBytes returns the hash of bytes as a hex string using the specified algorithm.
func HashBytes(data []byte, algo HashAlgo) (string, error) {
	switch algo {
	case HashAlgoSHA256:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:]), nil
	case HashAlgoBLAKE3:
		sum := blake3.Sum256(data)
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %s", algo)
	}
}

// Fingerprint hashes the ordered parts with BLAKE3. Parts are joined with a
// unit separator so ("ab","c") and ("a","bc") never collide.
func Fingerprint(parts ...string) string {
	sum := blake3.Sum256([]byte(strings.Join(parts, fieldSeparator)))
	return hex.EncodeToString(sum[:])
}

// ShortFingerprint is the first n hex chars of Fingerprint, for log fields and cache keys.
func ShortFingerprint(n int, parts ...string) string {
	fp := Fingerprint(parts...)
	if n <= 0 || n >= len(fp) {
		return fp
	}
	return fp[:n]
}
