package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestGenerateAndValidate(t *testing.T) {
	t.Parallel()

	a := NewJWTAuthenticator("landlordy", "landlordy")
	claims := a.RegisteredClaims("acc-1", time.Now(), time.Hour)

	tok, err := a.GenerateToken(claims, testSecret)
	require.NoError(t, err)

	var parsed jwt.RegisteredClaims
	_, err = a.ValidateTokenWithClaims(tok, testSecret, &parsed)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", parsed.Subject)
	assert.Equal(t, "landlordy", parsed.Issuer)
}

func TestValidate_Expired(t *testing.T) {
	t.Parallel()

	a := NewJWTAuthenticator("landlordy", "landlordy")
	claims := a.RegisteredClaims("acc-1", time.Now().Add(-2*time.Hour), time.Hour)

	tok, err := a.GenerateToken(claims, testSecret)
	require.NoError(t, err)

	var parsed jwt.RegisteredClaims
	_, err = a.ValidateTokenWithClaims(tok, testSecret, &parsed)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidate_WrongSecret(t *testing.T) {
	t.Parallel()

	a := NewJWTAuthenticator("landlordy", "landlordy")
	tok, err := a.GenerateToken(a.RegisteredClaims("acc-1", time.Now(), time.Hour), testSecret)
	require.NoError(t, err)

	var parsed jwt.RegisteredClaims
	_, err = a.ValidateTokenWithClaims(tok, "another-secret-another-secret-xx", &parsed)
	require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestValidate_WrongIssuer(t *testing.T) {
	t.Parallel()

	issuer := NewJWTAuthenticator("landlordy", "someone-else")
	tok, err := issuer.GenerateToken(issuer.RegisteredClaims("acc-1", time.Now(), time.Hour), testSecret)
	require.NoError(t, err)

	verifier := NewJWTAuthenticator("landlordy", "landlordy")
	var parsed jwt.RegisteredClaims
	_, err = verifier.ValidateTokenWithClaims(tok, testSecret, &parsed)
	require.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}
