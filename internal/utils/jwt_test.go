package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestJWTUtil_GenerateToken(t *testing.T) {
	jwtUtil := NewJWTUtil("secret", time.Hour)
	var userID int64 = 1

	tokenString, err := jwtUtil.GenerateToken(userID)

	assert.NoError(t, err)
	assert.NotEmpty(t, tokenString)

	// Validate the token to ensure it's well-formed and contains correct claims
	claims, err := jwtUtil.ValidateToken(tokenString)
	require.NoError(t, err)
	require.NotNil(t, claims)
	id, err := claims.UserID()
	assert.NoError(t, err)
	assert.Equal(t, userID, id)
	assert.Equal(t, "1", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
	assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, 5*time.Second)
}

func TestJWTUtil_ValidateToken_BeforeExpiry(t *testing.T) {
	issuedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	issuer := NewJWTUtil("secret", DefaultTokenLifetime, WithClock(fixedClock(issuedAt)))
	tokenString, err := issuer.GenerateToken(42)
	require.NoError(t, err)

	verifier := NewJWTUtil("secret", DefaultTokenLifetime, WithClock(fixedClock(issuedAt.Add(23*time.Hour))))
	claims, err := verifier.ValidateToken(tokenString)
	require.NoError(t, err)
	id, _ := claims.UserID()
	assert.Equal(t, int64(42), id)
	assert.Equal(t, issuer.Lifetime(), claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestJWTUtil_ValidateToken_InvalidToken(t *testing.T) {
	jwtUtil := NewJWTUtil("secret", time.Hour)

	_, err := jwtUtil.ValidateToken("invalid.token.string")
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.NotErrorIs(t, err, ErrTokenExpired)
}

func TestJWTUtil_ValidateToken_ExpiredToken(t *testing.T) {
	issuedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	issuer := NewJWTUtil("secret", DefaultTokenLifetime, WithClock(fixedClock(issuedAt)))
	tokenString, err := issuer.GenerateToken(1)
	require.NoError(t, err)

	verifier := NewJWTUtil("secret", DefaultTokenLifetime, WithClock(fixedClock(issuedAt.Add(25*time.Hour))))
	_, err = verifier.ValidateToken(tokenString)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.NotErrorIs(t, err, ErrTokenInvalid)
}

func TestJWTUtil_ValidateToken_NegativeLifetime(t *testing.T) {
	jwtUtil := NewJWTUtil("secret", -time.Hour) // Token expires in the past

	tokenString, err := jwtUtil.GenerateToken(1)
	require.NoError(t, err)

	_, err = jwtUtil.ValidateToken(tokenString)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestJWTUtil_ValidateToken_WrongSecret(t *testing.T) {
	jwtUtil1 := NewJWTUtil("secret1", time.Hour)
	jwtUtil2 := NewJWTUtil("secret2", time.Hour)

	tokenString, _ := jwtUtil1.GenerateToken(1)

	_, err := jwtUtil2.ValidateToken(tokenString)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestJWTUtil_ValidateToken_TamperedSignature(t *testing.T) {
	jwtUtil := NewJWTUtil("secret", time.Hour)
	tokenString, err := jwtUtil.GenerateToken(7)
	require.NoError(t, err)

	parts := strings.Split(tokenString, ".")
	require.Len(t, parts, 3)

	sig := []byte(parts[2])
	for _, i := range []int{0, len(sig) / 2} {
		tampered := make([]byte, len(sig))
		copy(tampered, sig)
		if tampered[i] == 'a' {
			tampered[i] = 'b'
		} else {
			tampered[i] = 'a'
		}
		forged := parts[0] + "." + parts[1] + "." + string(tampered)

		_, err := jwtUtil.ValidateToken(forged)
		assert.ErrorIs(t, err, ErrTokenInvalid, "byte %d", i)
	}
}

func TestJWTUtil_ValidateToken_TamperedPayload(t *testing.T) {
	jwtUtil := NewJWTUtil("secret", time.Hour)
	tokenString, _ := jwtUtil.GenerateToken(7)
	other, _ := jwtUtil.GenerateToken(8)

	parts := strings.Split(tokenString, ".")
	otherParts := strings.Split(other, ".")
	forged := parts[0] + "." + otherParts[1] + "." + parts[2]

	_, err := jwtUtil.ValidateToken(forged)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestJWTUtil_ValidateToken_InvalidSigningMethod(t *testing.T) {
	jwtUtil := NewJWTUtil("secret", time.Hour)
	// Create a token with a different signing method (e.g., HS384 instead of HS256)
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS384, claims)
	// Sign with the same secret, as the key type is compatible for HMAC algorithms
	tokenString, _ := token.SignedString([]byte("secret"))

	_, err := jwtUtil.ValidateToken(tokenString)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestJWTUtil_ValidateToken_MissingExpiry(t *testing.T) {
	jwtUtil := NewJWTUtil("secret", time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
	})
	tokenString, _ := token.SignedString([]byte("secret"))

	_, err := jwtUtil.ValidateToken(tokenString)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestJWTUtil_ValidateToken_NonNumericSubject(t *testing.T) {
	jwtUtil := NewJWTUtil("secret", time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "abc",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tokenString, _ := token.SignedString([]byte("secret"))

	_, err := jwtUtil.ValidateToken(tokenString)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
