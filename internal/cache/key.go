package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// KeySeparator joins the components of a stored key.
const KeySeparator = "_"

// Key builds the stored key <namespace>_<prefix>_<hash> for a request
// fingerprint. Equal fingerprints give equal keys.
func Key(namespace, prefix, fingerprint string) string {
	var b strings.Builder
	b.Grow(len(namespace) + len(prefix) + 2 + sha256.Size*2)
	b.WriteString(namespace)
	b.WriteString(KeySeparator)
	b.WriteString(prefix)
	b.WriteString(KeySeparator)
	b.WriteString(HashKey(fingerprint))
	return b.String()
}

// HashKey returns the hex encoded SHA256 of key.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
