package gateways

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

const sha256Prefix = "sha256:"

// CalculateChecksum computes the SHA-256 digest of the file at path and
// returns it as a lowercase hex string.
func CalculateChecksum(path string) (string, error) {
	//nolint:gosec // G304: path comes from our own download step
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for checksum: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to calculate checksum: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// VerifyChecksum compares the file at path against expected, which may be a
// bare hex digest or carry a "sha256:" prefix. The comparison is
// case-insensitive.
func VerifyChecksum(path, expected string) error {
	want := strings.TrimSpace(expected)
	want = strings.TrimPrefix(want, sha256Prefix)
	if want == "" {
		return fmt.Errorf("empty checksum for %s", path)
	}

	got, err := CalculateChecksum(path)
	if err != nil {
		return err
	}

	if !strings.EqualFold(got, want) {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", path, want, got)
	}

	return nil
}
