package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
)

// FingerprintToken returns the base64url-encoded SHA-256 digest of token.
// Stores persist fingerprints instead of raw token strings so a database leak
// does not hand out usable credentials.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
