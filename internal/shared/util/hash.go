package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// OwnerKey returns a stable hex digest of an owner id. It scopes object store
// paths for uploaded page images and review cache keys without exposing the
// raw id, which may be an email-like subject or a "guest:" identity.
func OwnerKey(ownerID string) string {
	sum := sha256.Sum256([]byte(ownerID))
	return hex.EncodeToString(sum[:])
}
