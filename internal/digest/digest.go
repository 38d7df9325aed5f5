// Package digest computes the BLAKE3 content digests recorded for archives.
package digest

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Size is the digest length in bytes.
const Size = 32

// Reader hashes everything read from r and returns the hex digest and
// the number of bytes consumed.
func Reader(r io.Reader) (string, int64, error) {
	h := blake3.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, fmt.Errorf("hashing: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// File hashes the file at path.
func File(path string) (string, int64, error) {
	f, err := os.Open(path) //nolint:gosec // G304: archive paths are resolved by the caller
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = f.Close() }()
	return Reader(f)
}

// Bytes returns the hex digest of data.
func Bytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Valid reports whether s looks like a hex digest produced by this package.
func Valid(s string) bool {
	if len(s) != Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
