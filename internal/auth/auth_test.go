package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func newTestTokenService(t *testing.T) *TokenService {
	ts, err := NewTokenService(testSecret, "url-shortener", time.Hour)
	require.NoError(t, err)
	return ts
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		issuer  string
		ttl     time.Duration
		wantErr bool
	}{
		{"valid", "s", "i", time.Minute, false},
		{"empty secret", "", "i", time.Minute, true},
		{"empty issuer", "s", "", time.Minute, true},
		{"zero ttl", "s", "i", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTokenService(tt.secret, tt.issuer, tt.ttl)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Sign(42)
	require.NoError(t, err)

	id, err := ts.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = ts.Sign(0)
	assert.Error(t, err)
}

func TestVerifyRejects(t *testing.T) {
	ts := newTestTokenService(t)

	otherIssuer, err := NewTokenService(testSecret, "someone-else", time.Hour)
	require.NoError(t, err)
	foreign, err := otherIssuer.Sign(1)
	require.NoError(t, err)

	otherSecret, err := NewTokenService("different", "url-shortener", time.Hour)
	require.NoError(t, err)
	forged, err := otherSecret.Sign(1)
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "url-shortener",
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "url-shortener",
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not.a.token",
		"wrong issuer": foreign,
		"wrong secret": forged,
		"expired":      expired,
		"bad subject":  badSubject,
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ts.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestParseBearer(t *testing.T) {
	assert.Equal(t, "abc", parseBearer("Bearer abc"))
	assert.Equal(t, "abc", parseBearer("bearer abc"))
	assert.Equal(t, "", parseBearer("Basic abc"))
	assert.Equal(t, "", parseBearer("Bearer"))
	assert.Equal(t, "", parseBearer(""))
}

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ts := newTestTokenService(t)
	valid, err := ts.Sign(9)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", RequireAuth(ts, zap.NewNop()), func(c *gin.Context) {
		id, ok := PrincipalID(c)
		ctxID, ctxOK := PrincipalFromContext(c.Request.Context())
		assert.True(t, ok)
		assert.True(t, ctxOK)
		assert.Equal(t, id, ctxID)
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{"valid token", "Bearer " + valid, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + valid, http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusUnauthorized {
				assert.JSONEq(t, `{"message":"Unauthorized"}`, w.Body.String())
			} else {
				assert.JSONEq(t, `{"id":9}`, w.Body.String())
			}
		})
	}
}

func TestPrincipalIDMissing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := PrincipalID(c)
	assert.False(t, ok)

	_, ok = PrincipalFromContext(context.Background())
	assert.False(t, ok)
}
