package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// CredentialTokenBytes is the entropy of a bearer credential.
const CredentialTokenBytes = 32

// NewCredentialToken returns a fresh opaque bearer value and the fingerprint
// stored for it. The raw value is never persisted.
func NewCredentialToken() (raw, fingerprint string, err error) {
	buf := make([]byte, CredentialTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("cryptox: read token entropy: %w", err)
	}
	raw = base64.RawURLEncoding.EncodeToString(buf)
	return raw, FingerprintToken(raw), nil
}

// FingerprintToken is the SHA-256 of raw, base64url encoded. Credentials are
// looked up by fingerprint, so the same raw value always maps to the same
// row.
func FingerprintToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// EqualSecret compares two shared secrets in constant time.
func EqualSecret(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
