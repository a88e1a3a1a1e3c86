package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for new hashes. Verification reads the parameters
// stored in the hash, so rows written under older settings still verify.
const (
	memory      = 19 * 1024 // KiB
	iterations  = 2
	parallelism = 1
	keyLength   = 32
	saltLength  = 16
)

var (
	ErrPasswordMismatch = errors.New("cryptox: password does not match")
	ErrMalformedHash    = errors.New("cryptox: malformed password hash")
)

// HashPassword returns the PHC string stored in the password_hash column:
// $argon2id$v=19$m=<KiB>,t=<iterations>,p=<threads>$<salt>$<key>.
// The secret is peppered before hashing.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("cryptox: read salt: %w", err)
	}
	key := argon2.IDKey([]byte(password+GetPepper()), salt, iterations, memory, parallelism, keyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memory, iterations, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword checks password against a stored PHC string. A wrong
// password is ErrPasswordMismatch; a value that is not an argon2id PHC
// string is ErrMalformedHash.
func VerifyPassword(password, encoded string) error {
	h, err := decodeHash(encoded)
	if err != nil {
		return err
	}
	computed := argon2.IDKey([]byte(password+GetPepper()), h.salt, h.iterations, h.memory, h.parallelism,
		uint32(len(h.key))) // #nosec G115 -- key length comes from a short decoded hash
	if subtle.ConstantTimeCompare(computed, h.key) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

type phcHash struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func decodeHash(encoded string) (phcHash, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return phcHash{}, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return phcHash{}, fmt.Errorf("%w: version %q", ErrMalformedHash, parts[2])
	}

	var h phcHash
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.memory, &h.iterations, &h.parallelism); err != nil {
		return phcHash{}, fmt.Errorf("%w: parameters: %v", ErrMalformedHash, err)
	}
	if h.memory == 0 || h.iterations == 0 || h.parallelism == 0 {
		return phcHash{}, fmt.Errorf("%w: zero parameter", ErrMalformedHash)
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return phcHash{}, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(h.key) == 0 {
		return phcHash{}, fmt.Errorf("%w: key", ErrMalformedHash)
	}
	return h, nil
}
