package security_test

import (
	"strings"
	"testing"

	"github.com/nsets/erp-backend/pkg/config"
	"github.com/nsets/erp-backend/pkg/security"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	cfg := testPasswordConfig()
	hash, err := security.HashPassword("very-secure-password", cfg)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=32768,t=1,p=1$"))
	require.False(t, security.NeedsRehash(hash, cfg))

	ok, err := security.VerifyPassword("very-secure-password", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = security.VerifyPassword("bogus-password", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNeedsRehashAfterParameterChange(t *testing.T) {
	cfg := testPasswordConfig()
	hash, err := security.HashPassword("very-secure-password", cfg)
	require.NoError(t, err)

	cfg.ArgonTime = 2
	require.True(t, security.NeedsRehash(hash, cfg))
	require.False(t, security.NeedsRehash("not-a-hash", cfg))
}

func TestHashPasswordLength(t *testing.T) {
	_, err := security.HashPassword("short", testPasswordConfig())
	require.Error(t, err)
	_, err = security.HashPassword(strings.Repeat("x", security.MaxPasswordLength+1), testPasswordConfig())
	require.Error(t, err)
}

func TestVerifyPasswordBadHash(t *testing.T) {
	for _, encoded := range []string{
		"not-a-hash",
		"$argon2id$v=18$m=8,t=1,p=1$c2FsdHNhbHQ$a2V5",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHQ$a2V5",
		"$argon2id$v=19$m=8,t=1,p=1$!!$a2V5",
	} {
		_, err := security.VerifyPassword("irrelevant", encoded)
		require.ErrorIs(t, err, security.ErrInvalidHash, encoded)
	}
}

func TestVerifyPasswordLegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("imported-secret"), bcrypt.MinCost)
	require.NoError(t, err)
	require.True(t, security.NeedsRehash(string(legacy), testPasswordConfig()))

	ok, err := security.VerifyPassword("imported-secret", string(legacy))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = security.VerifyPassword("wrong", string(legacy))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGenerateTempPassword(t *testing.T) {
	pw, err := security.GenerateTempPassword(16)
	require.NoError(t, err)
	require.Len(t, pw, 16)
	require.NotContains(t, pw, "0")

	_, err = security.GenerateTempPassword(4)
	require.Error(t, err)
}
