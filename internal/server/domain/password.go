package domain

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/argon2"
)

// MinPasswordLength is the only password policy rule, counted in characters.
const MinPasswordLength = 8

// Password is a raw password that passed the policy check.
// It exists only for the duration of a signup or login request.
type Password struct {
	value string
}

func ParsePassword(s string) (Password, error) {
	if utf8.RuneCountInString(s) < MinPasswordLength {
		return Password{}, ErrInvalidPassword
	}
	return Password{value: s}, nil
}

// String never reveals the password, so a Password may be logged by accident safely.
func (p Password) String() string { return "[redacted]" }

// HashParams controls Argon2id cost. Memory is in KiB, as argon2.IDKey expects.
type HashParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultHashParams are the production policy constants.
func DefaultHashParams() HashParams {
	return HashParams{
		Memory:      15000,
		Iterations:  2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Bounds accepted when decoding a stored hash. Anything outside them is
// treated as corrupted storage rather than verified at attacker-chosen cost.
const (
	minMemory     = 8
	maxMemory     = 1 << 20
	maxIterations = 20
	minSaltLength = 8
	maxSaltLength = 64
	minKeyLength  = 16
	maxKeyLength  = 64
)

const argon2Version = argon2.Version

// ValidateHashParams reports whether p lies within the bounds
// ParseHashedPassword accepts, so a hash written with p can be read back.
func ValidateHashParams(p HashParams) error {
	switch {
	case p.Memory < minMemory || p.Memory > maxMemory:
		return fmt.Errorf("argon2 memory must be within [%d, %d] KiB, got %d", minMemory, maxMemory, p.Memory)
	case p.Iterations == 0 || p.Iterations > maxIterations:
		return fmt.Errorf("argon2 iterations must be within [1, %d], got %d", maxIterations, p.Iterations)
	case p.Parallelism == 0:
		return fmt.Errorf("argon2 parallelism must be positive")
	case p.SaltLength < minSaltLength || p.SaltLength > maxSaltLength:
		return fmt.Errorf("salt length must be within [%d, %d], got %d", minSaltLength, maxSaltLength, p.SaltLength)
	case p.KeyLength < minKeyLength || p.KeyLength > maxKeyLength:
		return fmt.Errorf("key length must be within [%d, %d], got %d", minKeyLength, maxKeyLength, p.KeyLength)
	}
	return nil
}

// HashedPassword is an Argon2id hash in PHC string form:
//
//	$argon2id$v=19$m=<KiB>,t=<iterations>,p=<parallelism>$<salt>$<key>
//
// It is compared only through Verify, never by string equality.
type HashedPassword struct {
	encoded string
	params  HashParams
	salt    []byte
	key     []byte
}

// HashPassword derives a fresh Argon2id hash with a random salt. It is CPU and
// memory heavy; servers call it through hasher.Pool.
func HashPassword(p Password, params HashParams) (HashedPassword, error) {
	if p.value == "" {
		return HashedPassword{}, ErrInvalidPassword
	}

	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return HashedPassword{}, fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey([]byte(p.value), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	b64 := base64.RawStdEncoding
	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		params.Memory,
		params.Iterations,
		params.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	)

	return HashedPassword{encoded: encoded, params: params, salt: salt, key: key}, nil
}

// ParseHashedPassword decodes a hash read back from storage.
func ParseHashedPassword(encoded string) (HashedPassword, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return HashedPassword{}, ErrInvalidHash
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2Version) {
		return HashedPassword{}, ErrInvalidHash
	}

	var mem, it, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return HashedPassword{}, ErrInvalidHash
	}
	if fmt.Sprintf("m=%d,t=%d,p=%d", mem, it, par) != parts[3] {
		return HashedPassword{}, ErrInvalidHash
	}
	if par > 255 {
		return HashedPassword{}, ErrInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return HashedPassword{}, ErrInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil {
		return HashedPassword{}, ErrInvalidHash
	}

	params := HashParams{
		Memory:      mem,
		Iterations:  it,
		Parallelism: uint8(par),
		SaltLength:  uint32(len(salt)),
		KeyLength:   uint32(len(key)),
	}
	if ValidateHashParams(params) != nil {
		return HashedPassword{}, ErrInvalidHash
	}

	return HashedPassword{encoded: encoded, params: params, salt: salt, key: key}, nil
}

// Verify recomputes the hash of candidate with the stored parameters and salt
// and compares in constant time. A zero HashedPassword never verifies.
func (h HashedPassword) Verify(candidate string) bool {
	if len(h.key) == 0 {
		return false
	}
	got := argon2.IDKey([]byte(candidate), h.salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, uint32(len(h.key)))
	return subtle.ConstantTimeCompare(got, h.key) == 1
}

// String returns the PHC encoding, which is what gets persisted.
func (h HashedPassword) String() string { return h.encoded }

func (h HashedPassword) IsZero() bool { return h.encoded == "" }
