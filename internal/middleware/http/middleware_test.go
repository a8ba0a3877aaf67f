package middleware_http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test_jwt_secret")

func signed(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func protected() http.Handler {
	return AuthMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte(claims["sub"].(string)))
	}))
}

func TestAuthMiddleware(t *testing.T) {
	valid := signed(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "admin", "exp": time.Now().Add(time.Hour).Unix()})
	otherSecret := signed(t, jwt.SigningMethodHS256, []byte("nope"), jwt.MapClaims{"sub": "admin"})
	expired := signed(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "admin", "exp": time.Now().Add(-time.Hour).Unix()})
	wrongAlg := signed(t, jwt.SigningMethodHS512, testSecret, jwt.MapClaims{"sub": "admin"})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"no scheme", valid, http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"other secret", "Bearer " + otherSecret, http.StatusForbidden},
		{"expired", "Bearer " + expired, http.StatusForbidden},
		{"wrong algorithm", "Bearer " + wrongAlg, http.StatusForbidden},
		{"garbage", "Bearer not.a.jwt", http.StatusForbidden},
		{"valid", "Bearer " + valid, http.StatusOK},
		{"lowercase scheme", "bearer " + valid, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/products", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			protected().ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "admin", rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestTraceMiddleware_RecoversPanic(t *testing.T) {
	h := TraceMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("query text: db.products.find({secret})")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestTraceMiddleware_PassesThrough(t *testing.T) {
	h := TraceMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"name":"x"}`)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, `{"ok":true}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
}

func TestResponseWriter_CapturesStatus(t *testing.T) {
	rw := &ResponseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}

	_, err := rw.Write([]byte("hello"))
	require.NoError(t, err)
	rw.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusOK, rw.statusCode)
	assert.Equal(t, int64(5), rw.size)
	assert.Equal(t, "hello", rw.buf.String())
}
