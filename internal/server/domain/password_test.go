package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastParams = HashParams{Memory: 64, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func mustPassword(t *testing.T, s string) Password {
	t.Helper()
	p, err := ParsePassword(s)
	require.NoError(t, err)
	return p
}

func TestParsePassword(t *testing.T) {
	_, err := ParsePassword("")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, err = ParsePassword("1234567")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, err = ParsePassword("12345678")
	assert.NoError(t, err)

	// eight characters, more than eight bytes
	_, err = ParsePassword("пароль12")
	assert.NoError(t, err)
}

func TestPassword_StringIsRedacted(t *testing.T) {
	p := mustPassword(t, "password123")
	assert.NotContains(t, p.String(), "password123")
}

func TestHashPassword_VerifyRoundTrip(t *testing.T) {
	for _, raw := range []string{"password123", "correct horse battery staple", "ünïcödé-pässwörd"} {
		h, err := HashPassword(mustPassword(t, raw), fastParams)
		require.NoError(t, err)

		assert.True(t, h.Verify(raw), raw)
		assert.False(t, h.Verify(raw+"x"), raw)
		assert.False(t, h.Verify(""), raw)
		assert.False(t, h.Verify(strings.ToUpper(raw)), raw)
	}
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	p := mustPassword(t, "password123")
	a, err := HashPassword(p, fastParams)
	require.NoError(t, err)
	b, err := HashPassword(p, fastParams)
	require.NoError(t, err)

	assert.NotEqual(t, a.String(), b.String())
	assert.True(t, a.Verify("password123"))
	assert.True(t, b.Verify("password123"))
}

func TestHashPassword_Format(t *testing.T) {
	h, err := HashPassword(mustPassword(t, "password123"), fastParams)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(h.String(), "$argon2id$v=19$m=64,t=1,p=1$"), h.String())
}

func TestHashPassword_ZeroPassword(t *testing.T) {
	_, err := HashPassword(Password{}, fastParams)
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestParseHashedPassword_RoundTrip(t *testing.T) {
	h, err := HashPassword(mustPassword(t, "password123"), fastParams)
	require.NoError(t, err)

	parsed, err := ParseHashedPassword(h.String())
	require.NoError(t, err)
	assert.Equal(t, h.String(), parsed.String())
	assert.True(t, parsed.Verify("password123"))
	assert.False(t, parsed.Verify("password124"))
}

func TestParseHashedPassword_Rejects(t *testing.T) {
	h, err := HashPassword(mustPassword(t, "password123"), fastParams)
	require.NoError(t, err)
	parts := strings.Split(h.String(), "$")
	salt, key := parts[4], parts[5]

	cases := map[string]string{
		"empty":            "",
		"plaintext":        "password123",
		"bcrypt":           "$2a$10$abcdefghijklmnopqrstuuvwxyz0123456789ABCDEFGHIJKLMNOPQ",
		"argon2i":          "$argon2i$v=19$m=64,t=1,p=1$" + salt + "$" + key,
		"old version":      "$argon2id$v=16$m=64,t=1,p=1$" + salt + "$" + key,
		"missing params":   "$argon2id$v=19$m=64,t=1$" + salt + "$" + key,
		"trailing garbage": "$argon2id$v=19$m=64,t=1,p=1x$" + salt + "$" + key,
		"huge memory":      "$argon2id$v=19$m=4194304,t=1,p=1$" + salt + "$" + key,
		"zero iterations":  "$argon2id$v=19$m=64,t=0,p=1$" + salt + "$" + key,
		"bad salt b64":     "$argon2id$v=19$m=64,t=1,p=1$!!!$" + key,
		"short key":        "$argon2id$v=19$m=64,t=1,p=1$" + salt + "$AAAA",
		"too many parts":   h.String() + "$extra",
	}
	for name, in := range cases {
		_, err := ParseHashedPassword(in)
		assert.ErrorIs(t, err, ErrInvalidHash, name)
	}
}

func TestHashedPassword_ZeroNeverVerifies(t *testing.T) {
	var h HashedPassword
	assert.True(t, h.IsZero())
	assert.False(t, h.Verify(""))
	assert.False(t, h.Verify("password123"))
}

func TestValidateHashParams(t *testing.T) {
	require.NoError(t, ValidateHashParams(DefaultHashParams()))
	require.NoError(t, ValidateHashParams(fastParams))

	bad := map[string]func(*HashParams){
		"memory too low":   func(p *HashParams) { p.Memory = 4 },
		"memory too high":  func(p *HashParams) { p.Memory = 2000000 },
		"zero iterations":  func(p *HashParams) { p.Iterations = 0 },
		"too many iter":    func(p *HashParams) { p.Iterations = 21 },
		"zero parallelism": func(p *HashParams) { p.Parallelism = 0 },
		"short salt":       func(p *HashParams) { p.SaltLength = 4 },
		"long key":         func(p *HashParams) { p.KeyLength = 128 },
	}
	for name, mutate := range bad {
		p := DefaultHashParams()
		mutate(&p)
		assert.Error(t, ValidateHashParams(p), name)
	}
}

func TestHashPassword_ParamsWithinBoundsReadBack(t *testing.T) {
	p := fastParams
	p.Iterations = 20
	require.NoError(t, ValidateHashParams(p))

	pw, err := ParsePassword("password123")
	require.NoError(t, err)
	h, err := HashPassword(pw, p)
	require.NoError(t, err)

	_, err = ParseHashedPassword(h.String())
	assert.NoError(t, err)
}
