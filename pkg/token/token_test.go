package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIssuerRequiresSecret(t *testing.T) {
	_, err := NewIssuer("", time.Minute)
	assert.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	iss, err := NewIssuer("test-secret", 15*time.Minute)
	require.NoError(t, err)

	signed, claims, err := iss.IssueAccess(42, "editor")
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	parsed, err := iss.ParseAccess(signed)
	require.NoError(t, err)
	assert.Equal(t, "editor", parsed.Role)
	assert.Equal(t, claims.ID, parsed.ID)

	uid, err := parsed.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), uid)
}

func TestParseAccessRejectsWrongSecret(t *testing.T) {
	a, _ := NewIssuer("secret-a", time.Minute)
	b, _ := NewIssuer("secret-b", time.Minute)

	signed, _, err := a.IssueAccess(1, "viewer")
	require.NoError(t, err)

	_, err = b.ParseAccess(signed)
	assert.Error(t, err)
}

func TestParseAccessRejectsExpired(t *testing.T) {
	iss := &Issuer{secret: []byte("test-secret"), ttl: -time.Minute, name: "docman"}

	signed, _, err := iss.IssueAccess(1, "viewer")
	require.NoError(t, err)

	_, err = iss.ParseAccess(signed)
	assert.Error(t, err)
}

func TestParseAccessRejectsGarbage(t *testing.T) {
	iss, _ := NewIssuer("test-secret", time.Minute)
	_, err := iss.ParseAccess("not.a.jwt")
	assert.Error(t, err)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	plain, hash, err := NewRefreshToken()
	require.NoError(t, err)
	assert.Len(t, plain, 64) // 32 bytes hex-encoded
	assert.True(t, CheckRefreshToken(hash, plain))
	assert.False(t, CheckRefreshToken(hash, plain+"x"))

	plain2, _, err := NewRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, plain, plain2)
	assert.False(t, CheckRefreshToken(hash, plain2))
}
