package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParse(t *testing.T) {
	tok, err := SignJWT("ops", "s3cret", time.Hour)
	require.NoError(t, err)

	sub, err := ParseJWT(tok, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "ops", sub)
}

func TestParseRejects(t *testing.T) {
	tok, err := SignJWT("ops", "s3cret", time.Hour)
	require.NoError(t, err)
	_, err = ParseJWT(tok, "other")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := SignJWT("ops", "s3cret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(expired, "s3cret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "ops"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseJWT(none, "s3cret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = SignJWT("ops", "", time.Hour)
	assert.Error(t, err)
}
