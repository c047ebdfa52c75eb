package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidHashFormat   = errors.New("invalid encoded hash format")
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
	ErrHashParamsRange     = errors.New("argon2 parameters out of range")
)

// dummyHash is checked against when no stored hash exists, so a lookup miss
// costs the same key derivation as a wrong password.
const dummyHash = "$argon2id$v=19$m=65536,t=3,p=2$c2l0ZWNyYWZ0LWR1bW15$Jx0Yv8nqJ8o3m6p8S2b4Gg1q0vZ3kq2nqQh1r9oJk2A"

// Bounds a stored hash must respect before it is verified. Memory is in KiB.
const (
	maxMemory      = 1 << 20
	maxIterations  = 16
	maxKeyLength   = 128
	minSaltLength  = 8
	phcFieldCount  = 6
	phcAlgorithmID = "argon2id"
)

var b64 = base64.RawStdEncoding

// HashParams are the Argon2id cost settings carried in every encoded hash.
type HashParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultHashParams returns the parameters new password hashes are created with.
func DefaultHashParams() HashParams {
	return HashParams{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Validate rejects parameters that are degenerate or that would let a
// stored hash demand an unbounded amount of work.
func (p HashParams) Validate() error {
	switch {
	case p.Memory == 0 || p.Memory > maxMemory:
		return fmt.Errorf("%w: memory %d", ErrHashParamsRange, p.Memory)
	case p.Iterations == 0 || p.Iterations > maxIterations:
		return fmt.Errorf("%w: iterations %d", ErrHashParamsRange, p.Iterations)
	case p.Parallelism == 0:
		return fmt.Errorf("%w: parallelism 0", ErrHashParamsRange)
	case p.SaltLength < minSaltLength:
		return fmt.Errorf("%w: salt length %d", ErrHashParamsRange, p.SaltLength)
	case p.KeyLength == 0 || p.KeyLength > maxKeyLength:
		return fmt.Errorf("%w: key length %d", ErrHashParamsRange, p.KeyLength)
	}
	return nil
}

func (p HashParams) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
}

// encode renders the PHC string $argon2id$v=19$m=..,t=..,p=..$<salt>$<key>.
func (p HashParams) encode(salt, key []byte) string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		phcAlgorithmID, argon2.Version,
		p.Memory, p.Iterations, p.Parallelism,
		b64.EncodeToString(salt), b64.EncodeToString(key),
	)
}

// Hash derives a fresh salted key for password and returns it PHC encoded.
func (p HashParams) Hash(password string) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	return p.encode(salt, p.derive(password, salt)), nil
}

// HashPassword hashes password with DefaultHashParams.
func HashPassword(password string) (string, error) {
	return DefaultHashParams().Hash(password)
}

// VerifyPassword reports whether password matches the Argon2id encoded hash.
// A malformed or out-of-range hash never matches.
func VerifyPassword(password, encodedHash string) bool {
	params, salt, key, err := decodeHash(encodedHash)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(key, params.derive(password, salt)) == 1
}

// BurnVerify performs one verification against a fixed hash and discards the
// result. Callers use it when the account being logged into does not exist.
func BurnVerify(password string) {
	_ = VerifyPassword(password, dummyHash)
}

// decodeHash parses a PHC string and recovers the parameters it was made with.
// Salt and key lengths come from the decoded fields.
func decodeHash(encodedHash string) (HashParams, []byte, []byte, error) {
	fields := strings.Split(encodedHash, "$")
	if len(fields) != phcFieldCount || fields[0] != "" || fields[1] != phcAlgorithmID {
		return HashParams{}, nil, nil, ErrInvalidHashFormat
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil {
		return HashParams{}, nil, nil, ErrInvalidHashFormat
	}
	if version != argon2.Version {
		return HashParams{}, nil, nil, ErrIncompatibleVersion
	}

	var p HashParams
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return HashParams{}, nil, nil, ErrInvalidHashFormat
	}

	salt, err := b64.DecodeString(fields[4])
	if err != nil {
		return HashParams{}, nil, nil, ErrInvalidHashFormat
	}
	key, err := b64.DecodeString(fields[5])
	if err != nil {
		return HashParams{}, nil, nil, ErrInvalidHashFormat
	}
	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))

	if err := p.Validate(); err != nil {
		return HashParams{}, nil, nil, err
	}
	return p, salt, key, nil
}
