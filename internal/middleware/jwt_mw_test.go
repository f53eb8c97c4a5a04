package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gym_backend/internal/metrics"
	"gym_backend/internal/model"
	"gym_backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubUsers struct {
	users map[int64]*model.User
	err   error
}

func (s stubUsers) FindByID(_ context.Context, id int64) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.users[id], nil
}

var testMember = &model.User{ID: 1, Name: "Ann", Email: "ann@x.io", Role: model.RoleMember}

func newGateRouter(policy AuthPolicy, tokens TokenVerifier, users UserFinder, m *metrics.AuthMetrics) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthGate(policy, tokens, users, m, nil), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"anonymous": true})
			return
		}
		role, _ := c.Get(AuthRoleKey)
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "role": role})
	})
	return r
}

func doGet(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestAuthGate_Strict(t *testing.T) {
	issued := time.Now()
	jwtUtil := utils.NewJWTUtil("secret", time.Hour, utils.WithClock(func() time.Time { return issued }))
	users := stubUsers{users: map[int64]*model.User{1: testMember}}

	valid, err := jwtUtil.GenerateToken(1)
	require.NoError(t, err)
	orphan, err := jwtUtil.GenerateToken(99)
	require.NoError(t, err)
	expired, err := utils.NewJWTUtil("secret", time.Hour, utils.WithClock(func() time.Time {
		return issued.Add(-2 * time.Hour)
	})).GenerateToken(1)
	require.NoError(t, err)
	foreign, err := utils.NewJWTUtil("other-secret", time.Hour, utils.WithClock(func() time.Time { return issued })).GenerateToken(1)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
		wantReason string
	}{
		{"missing header", "", http.StatusUnauthorized, "access token required", "missing_token"},
		{"wrong scheme", "Token " + valid, http.StatusUnauthorized, "access token required", "missing_token"},
		{"bearer without token", "Bearer", http.StatusUnauthorized, "access token required", "missing_token"},
		{"garbage token", "Bearer not.a.jwt", http.StatusForbidden, "invalid token", "invalid_token"},
		{"wrong secret", "Bearer " + foreign, http.StatusForbidden, "invalid token", "invalid_token"},
		{"expired", "Bearer " + expired, http.StatusForbidden, "token expired", "expired"},
		{"deleted user", "Bearer " + orphan, http.StatusUnauthorized, "user not found", "unknown_user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New(prometheus.NewRegistry())
			w := doGet(newGateRouter(StrictAuth, jwtUtil, users, m), tt.header)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantError, errorBody(t, w))
			assert.Equal(t, 1.0, testutil.ToFloat64(m.GateRejectionsTotal.WithLabelValues(tt.wantReason)))
		})
	}

	t.Run("valid token", func(t *testing.T) {
		w := doGet(newGateRouter(StrictAuth, jwtUtil, users, nil), "bearer "+valid)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":1,"role":"member"}`, w.Body.String())
	})
}

func TestAuthGate_StrictLookupFailure(t *testing.T) {
	jwtUtil := utils.NewJWTUtil("secret", time.Hour)
	token, err := jwtUtil.GenerateToken(1)
	require.NoError(t, err)

	w := doGet(newGateRouter(StrictAuth, jwtUtil, stubUsers{err: errors.New("db down")}, nil), "Bearer "+token)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", errorBody(t, w))
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestAuthGate_Optional(t *testing.T) {
	jwtUtil := utils.NewJWTUtil("secret", time.Hour)
	users := stubUsers{users: map[int64]*model.User{1: testMember}}
	valid, err := jwtUtil.GenerateToken(1)
	require.NoError(t, err)

	r := newGateRouter(OptionalAuth, jwtUtil, users, nil)

	for _, header := range []string{"", "Bearer garbage", "Basic dXNlcjpwdw=="} {
		w := doGet(r, header)
		assert.Equal(t, http.StatusOK, w.Code, header)
		assert.JSONEq(t, `{"anonymous":true}`, w.Body.String())
	}

	w := doGet(r, "Bearer "+valid)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"role":"member"}`, w.Body.String())

	failing := newGateRouter(OptionalAuth, jwtUtil, stubUsers{err: errors.New("db down")}, nil)
	w = doGet(failing, "Bearer "+valid)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"anonymous":true}`, w.Body.String())
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Bearer", "", false},
		{"Bearer a b", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

func TestAuthPolicyString(t *testing.T) {
	assert.Equal(t, "strict", StrictAuth.String())
	assert.Equal(t, "optional", OptionalAuth.String())
}
