package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// mockValidator is a mock implementation of TokenValidator
type mockValidator struct {
	tokens map[string][2]int
}

func (m *mockValidator) ValidateAccessToken(token string) (int, int, error) {
	claims, ok := m.tokens[token]
	if !ok {
		return 0, 0, errors.New("token is invalid")
	}
	return claims[0], claims[1], nil
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthAndRoleMiddleware(t *testing.T) {
	validator := &mockValidator{tokens: map[string][2]int{
		"student":    {11, 1},
		"instructor": {22, 2},
		"admin":      {33, 3},
	}}

	tests := []struct {
		name           string
		header         string
		cookie         string
		requiredRole   int
		expectedStatus int
		expectedUserID int
	}{
		{name: "no token", requiredRole: 1, expectedStatus: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer forged", requiredRole: 1, expectedStatus: http.StatusUnauthorized},
		{name: "malformed header", header: "Token instructor", requiredRole: 1, expectedStatus: http.StatusUnauthorized},
		{name: "bearer token", header: "Bearer instructor", requiredRole: 2, expectedStatus: http.StatusOK, expectedUserID: 22},
		{name: "lowercase bearer", header: "bearer instructor", requiredRole: 2, expectedStatus: http.StatusOK, expectedUserID: 22},
		{name: "cookie token", cookie: "admin", requiredRole: 3, expectedStatus: http.StatusOK, expectedUserID: 33},
		{name: "admin passes instructor routes", header: "Bearer admin", requiredRole: 2, expectedStatus: http.StatusOK, expectedUserID: 33},
		{name: "student on instructor route", header: "Bearer student", requiredRole: 2, expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seenUserID int
			handler := AuthMiddleware(validator)(RoleMiddleware(tt.requiredRole)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenUserID, _ = GetUserID(r.Context())
				w.WriteHeader(http.StatusOK)
			})))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, tt.expectedUserID, seenUserID)
			} else {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestRoleMiddleware_WithoutAuth(t *testing.T) {
	rec := httptest.NewRecorder()
	RoleMiddleware(1)(http.HandlerFunc(okHandler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "no header", incoming: ""},
		{name: "client id is kept", incoming: "abc-123_x.y", keep: true},
		{name: "uuid is kept", incoming: "6f1c1d1e-3f3a-4c53-9a4e-52a1f0f3f0aa", keep: true},
		{name: "control characters are replaced", incoming: "abc\ninjected=1"},
		{name: "spaces are replaced", incoming: "abc def"},
		{name: "too long id is replaced", incoming: strings.Repeat("a", 65)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
			if tt.keep {
				assert.Equal(t, tt.incoming, seen)
			} else {
				assert.NotEqual(t, tt.incoming, seen)
				_, err := uuid.Parse(seen)
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Run("panic becomes a logged 500", func(t *testing.T) {
		core, logs := observer.New(zap.ErrorLevel)
		handler := RequestIDMiddleware(RecoveryMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})))
		req := httptest.NewRequest(http.MethodGet, "/courses", nil)
		req.Header.Set(RequestIDHeader, "req-7")
		req = req.WithContext(WithUser(req.Context(), 42, 2))

		rec := httptest.NewRecorder()
		require.NotPanics(t, func() {
			handler.ServeHTTP(rec, req)
		})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
		require.Equal(t, 1, logs.Len())
		fields := logs.All()[0].ContextMap()
		assert.Equal(t, "req-7", fields["request_id"])
		assert.Equal(t, int64(42), fields["user_id"])
		assert.Equal(t, "boom", fields["panic"])
		assert.Equal(t, "/courses", fields["path"])
	})

	t.Run("started response is not rewritten", func(t *testing.T) {
		core, logs := observer.New(zap.ErrorLevel)
		handler := RecoveryMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
			w.Write([]byte("partial"))
			panic("late")
		}))

		rec := httptest.NewRecorder()
		require.NotPanics(t, func() {
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		})

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, "partial", rec.Body.String())
		assert.Equal(t, 1, logs.Len())
		assert.NotContains(t, logs.All()[0].ContextMap(), "user_id")
	})

	t.Run("abort handler is re-raised", func(t *testing.T) {
		handler := RecoveryMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(http.ErrAbortHandler)
		}))

		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		})
	})
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		allowed        []string
		origin         string
		method         string
		expectedOrigin string
		expectedStatus int
	}{
		{name: "wildcard", allowed: []string{"*"}, origin: "https://x.dev", method: http.MethodGet, expectedOrigin: "*", expectedStatus: http.StatusOK},
		{name: "listed origin", allowed: []string{"https://app.dev"}, origin: "https://APP.dev", method: http.MethodGet, expectedOrigin: "https://APP.dev", expectedStatus: http.StatusOK},
		{name: "unlisted origin", allowed: []string{"https://app.dev"}, origin: "https://evil.dev", method: http.MethodGet, expectedOrigin: "", expectedStatus: http.StatusOK},
		{name: "preflight", allowed: []string{"*"}, origin: "https://x.dev", method: http.MethodOptions, expectedOrigin: "*", expectedStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()

			CORSMiddleware(tt.allowed)(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	handler := RequestSizeLimitMiddleware(8)(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123")))
	assert.Equal(t, http.StatusOK, rec.Code)
}
