package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns size random bytes hex encoded, joined to prefix with an
// underscore when prefix is set.
func NewID(prefix string, size int) string {
	if size <= 0 {
		size = 8
	}
	buf := make([]byte, size)
	_, _ = rand.Read(buf)
	if prefix == "" {
		return hex.EncodeToString(buf)
	}
	return prefix + "_" + hex.EncodeToString(buf)
}
