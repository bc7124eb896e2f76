package internal

import (
	"encoding/hex"
	"hash"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// hashChunkSize keeps fingerprinting memory-bounded regardless of file size.
const hashChunkSize = 64 * 1024

func newHash() hash.Hash {
	return blake3.New()
}

// Hasher computes content fingerprints with a per-path cache. The cache key
// is the absolute, symlink-resolved path, so the same file reached through
// different spellings hashes once. A cached digest is returned as-is even if
// the file changed after the first read; a run never rewrites its inputs, so
// staleness is not a concern here.
type Hasher struct {
	cache map[string]string
}

func NewHasher() *Hasher {
	return &Hasher{cache: make(map[string]string)}
}

// Fingerprint returns the hex-encoded digest of the file's content.
func (h *Hasher) Fingerprint(path string) (string, error) {
	key := resolvePath(path)
	if sum, ok := h.cache[key]; ok {
		return sum, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hs := newHash()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(hs, f, buf); err != nil {
		return "", err
	}

	sum := hex.EncodeToString(hs.Sum(nil))
	h.cache[key] = sum
	return sum, nil
}

func resolvePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
