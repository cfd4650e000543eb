package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	v, err := NewJWTVerifier("s3cret")
	require.NoError(t, err)

	token, err := v.GenerateToken("u1", "u1@example.com")
	require.NoError(t, err)
	id, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, "u1@example.com", id.Email)
}

func TestJWTRejects(t *testing.T) {
	v, err := NewJWTVerifier("s3cret")
	require.NoError(t, err)

	other, _ := NewJWTVerifier("other")
	foreign, err := other.GenerateToken("u1", "")
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	v.TTL = -time.Minute
	expired, err := v.GenerateToken("u1", "")
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), noUser)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewJWTVerifier("")
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	v, err := NewJWTVerifier("s3cret")
	require.NoError(t, err)
	token, err := v.GenerateToken("u1", "")
	require.NoError(t, err)

	h := Middleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, err := GetUserIDFromContext(r.Context())
		require.NoError(t, err)
		_, _ = w.Write([]byte(uid))
	}))

	cases := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK},
		{"query", func(r *http.Request) { r.URL.RawQuery = "access_token=" + token }, http.StatusOK},
		{"missing", func(r *http.Request) {}, http.StatusUnauthorized},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/selection", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "u1", rec.Body.String())
			} else {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestGetUserIDWithoutIdentity(t *testing.T) {
	_, err := GetUserIDFromContext(context.Background())
	assert.Error(t, err)
}
