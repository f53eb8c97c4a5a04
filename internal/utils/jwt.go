package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenLifetime is how long an issued token stays valid
const DefaultTokenLifetime = 24 * time.Hour

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// JWTClaims are the claims carried by a session token: sub, iat and exp
type JWTClaims struct {
	jwt.RegisteredClaims
}

// UserID parses the subject claim back into a user identifier
func (c *JWTClaims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// JWTUtil provides JWT generation and validation
type JWTUtil struct {
	secretKey []byte
	lifetime  time.Duration
	now       func() time.Time
}

// JWTOption configures a JWTUtil
type JWTOption func(*JWTUtil)

// WithClock overrides the time source used for issuing and validating tokens
func WithClock(now func() time.Time) JWTOption {
	return func(ju *JWTUtil) {
		ju.now = now
	}
}

// NewJWTUtil creates a new JWTUtil
func NewJWTUtil(secretKey string, lifetime time.Duration, opts ...JWTOption) *JWTUtil {
	ju := &JWTUtil{
		secretKey: []byte(secretKey),
		lifetime:  lifetime,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(ju)
	}
	return ju
}

// Lifetime returns the validity window of issued tokens
func (ju *JWTUtil) Lifetime() time.Duration {
	return ju.lifetime
}

// GenerateToken generates a new JWT token for userID
func (ju *JWTUtil) GenerateToken(userID int64) (string, error) {
	now := ju.now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ju.lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(ju.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken validates the JWT token. Expired tokens fail with ErrTokenExpired,
// everything else (bad signature, foreign secret, wrong algorithm, garbage) with ErrTokenInvalid.
func (ju *JWTUtil) ValidateToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ju.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ju.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: malformed subject", ErrTokenInvalid)
	}
	return claims, nil
}
