package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"gym_backend/internal/metrics"
	"gym_backend/internal/model"
	"gym_backend/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	AuthUserKey = "authUser"
	AuthRoleKey = "authRole"
)

var (
	ErrMissingToken = errors.New("access token required")
	ErrUnknownUser  = errors.New("user not found")
)

// AuthPolicy selects what the gate does when a request cannot be authenticated
type AuthPolicy int

const (
	// StrictAuth rejects unauthenticated requests
	StrictAuth AuthPolicy = iota
	// OptionalAuth lets unauthenticated requests through without a user
	OptionalAuth
)

func (p AuthPolicy) String() string {
	if p == OptionalAuth {
		return "optional"
	}
	return "strict"
}

// TokenVerifier validates bearer tokens
type TokenVerifier interface {
	ValidateToken(tokenString string) (*utils.JWTClaims, error)
}

// UserFinder resolves a token subject to a stored user
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// gateError pairs an authentication failure with its HTTP status and client message
type gateError struct {
	status int
	reason string
	msg    string
	err    error
}

// AuthGate creates a middleware that authenticates requests with a bearer token
func AuthGate(policy AuthPolicy, tokens TokenVerifier, users UserFinder, m *metrics.AuthMetrics, logger *slog.Logger) gin.HandlerFunc {
	if m == nil {
		m = metrics.NewNop()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return func(c *gin.Context) {
		user, gErr := authenticate(c, tokens, users)
		if gErr == nil {
			// Set user information in context
			c.Set(AuthUserKey, user)
			c.Set(AuthRoleKey, user.Role)
			c.Next()
			return
		}

		if policy == OptionalAuth {
			if gErr.status == http.StatusInternalServerError {
				logger.WarnContext(c.Request.Context(), "Optional auth lookup failed", slog.Any("error", gErr.err))
			}
			c.Next()
			return
		}

		m.GateRejectionsTotal.WithLabelValues(gErr.reason).Inc()
		if gErr.status == http.StatusInternalServerError {
			logger.ErrorContext(c.Request.Context(), "Error in authentication middleware", slog.Any("error", gErr.err))
		}
		c.AbortWithStatusJSON(gErr.status, gin.H{"error": gErr.msg})
	}
}

func authenticate(c *gin.Context, tokens TokenVerifier, users UserFinder) (*model.User, *gateError) {
	tokenString, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		return nil, &gateError{http.StatusUnauthorized, "missing_token", ErrMissingToken.Error(), ErrMissingToken}
	}

	claims, err := tokens.ValidateToken(tokenString)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return nil, &gateError{http.StatusForbidden, "expired", utils.ErrTokenExpired.Error(), err}
		}
		return nil, &gateError{http.StatusForbidden, "invalid_token", utils.ErrTokenInvalid.Error(), err}
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, &gateError{http.StatusForbidden, "invalid_token", utils.ErrTokenInvalid.Error(), err}
	}

	user, err := users.FindByID(c.Request.Context(), userID)
	if err != nil {
		return nil, &gateError{http.StatusInternalServerError, "internal_error", "internal server error", err}
	}
	if user == nil {
		return nil, &gateError{http.StatusUnauthorized, "unknown_user", ErrUnknownUser.Error(), ErrUnknownUser}
	}
	return user, nil
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// CurrentUser returns the user attached by AuthGate, if any
func CurrentUser(c *gin.Context) (*model.User, bool) {
	val, exists := c.Get(AuthUserKey)
	if !exists {
		return nil, false
	}
	user, ok := val.(*model.User)
	return user, ok && user != nil
}
