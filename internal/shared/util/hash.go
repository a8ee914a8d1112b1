package util

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// SHA256Hex returns the lowercase hex sha256 digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ContentID derives a stable uuid (v5) for data inside namespace.
// Identical bytes always produce the same id.
func ContentID(namespace uuid.UUID, data []byte) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(SHA256Hex(data)))
}
