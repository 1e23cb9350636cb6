package auth

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/reviewhub/internal/domain"
)

const testSecret = "test-secret-key-that-is-long-enough"

func sign(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(userID string) jwt.MapClaims {
	return jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
}

func setupResolver(t *testing.T) (*Resolver, *miniredis.Miniredis, *bytes.Buffer) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	return NewResolver(testSecret, client, log), mr, &buf
}

func TestResolve_ValidToken(t *testing.T) {
	r, _, _ := setupResolver(t)

	tests := []struct {
		name   string
		claims jwt.Claims
		want   int64
	}{
		{"string user_id", validClaims("7"), 7},
		{"numeric user_id", jwt.MapClaims{"user_id": 8, "exp": time.Now().Add(time.Hour).Unix()}, 8},
		{"subject fallback", jwt.MapClaims{"sub": "9", "exp": time.Now().Add(time.Hour).Unix()}, 9},
		{"without expiry", jwt.MapClaims{"user_id": "10"}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := r.Resolve(context.Background(), sign(t, testSecret, tt.claims))
			assert.Equal(t, domain.Identity{UserID: tt.want}, id)
		})
	}
}

func TestResolve_RejectedCredentials(t *testing.T) {
	r, _, buf := setupResolver(t)

	expired := jwt.MapClaims{"user_id": "7", "exp": time.Now().Add(-time.Minute).Unix()}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims("7")).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, validClaims("7")).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name       string
		credential string
	}{
		{"malformed", "not-a-token"},
		{"wrong secret", sign(t, "another-secret-entirely", validClaims("7"))},
		{"expired", sign(t, testSecret, expired)},
		{"alg none", none},
		{"unexpected algorithm", hs512},
		{"non numeric subject", sign(t, testSecret, jwt.MapClaims{"sub": "alice"})},
		{"non numeric user_id", sign(t, testSecret, validClaims("alice"))},
		{"negative user_id", sign(t, testSecret, validClaims("-3"))},
		{"no user", sign(t, testSecret, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			id := r.Resolve(context.Background(), tt.credential)
			assert.True(t, id.IsAnonymous())
			assert.Contains(t, buf.String(), `"level":"WARN"`)
		})
	}
}

func TestResolve_EmptyCredentialIsSilent(t *testing.T) {
	r, _, buf := setupResolver(t)

	assert.Equal(t, domain.Anonymous, r.Resolve(context.Background(), ""))
	assert.Empty(t, buf.String())
}

func TestResolve_RevokedToken(t *testing.T) {
	r, mr, _ := setupResolver(t)
	claims := validClaims("7")
	claims["jti"] = "tok-1"
	token := sign(t, testSecret, claims)

	assert.Equal(t, int64(7), r.Resolve(context.Background(), token).UserID)

	// The account service writes revocations with a TTL covering the token's lifetime.
	require.NoError(t, mr.Set(RevokedKeyPrefix+"tok-1", "1"))
	mr.SetTTL(RevokedKeyPrefix+"tok-1", time.Hour)
	assert.True(t, r.Resolve(context.Background(), token).IsAnonymous())

	mr.FastForward(2 * time.Hour)
	assert.Equal(t, int64(7), r.Resolve(context.Background(), token).UserID)
}

func TestResolve_RedisUnavailableFailsClosed(t *testing.T) {
	r, mr, buf := setupResolver(t)
	claims := validClaims("7")
	claims["jti"] = "tok-2"
	token := sign(t, testSecret, claims)

	mr.Close()

	assert.True(t, r.Resolve(context.Background(), token).IsAnonymous())
	assert.Contains(t, buf.String(), "check revocation")
}

func TestResolve_WithoutRedis(t *testing.T) {
	r := NewResolver(testSecret, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	claims := validClaims("7")
	claims["jti"] = "tok-3"

	assert.Equal(t, int64(7), r.Resolve(context.Background(), sign(t, testSecret, claims)).UserID)
}
