package middlewares

import (
	"encoding/json"
	"github.com/bootcamp67/ms-transaction/internal/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const secret = "test-secret"

func capture(seen *Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func withHeaders(username, customerID, role string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	if username != "" {
		r.Header.Set("X-Auth-Username", username)
	}
	if customerID != "" {
		r.Header.Set("X-Auth-Customer-Id", customerID)
	}
	if role != "" {
		r.Header.Set("X-Auth-Role", role)
	}
	return r
}

func sign(t *testing.T, key string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func TestIdentityMiddlewareHeaders(t *testing.T) {
	cases := []struct {
		name    string
		req     *http.Request
		code    int
		message string
	}{
		{"all_present", withHeaders("jdoe", "C1", "CUSTOMER"), http.StatusNoContent, ""},
		{"missing_username", withHeaders("", "C1", "CUSTOMER"), http.StatusUnauthorized, errors.ErrMissingUsername},
		{"missing_customer", withHeaders("jdoe", "", "CUSTOMER"), http.StatusUnauthorized, errors.ErrMissingCustomerID},
		{"missing_role", withHeaders("jdoe", "C1", ""), http.StatusUnauthorized, errors.ErrMissingRole},
		{"blank_username", withHeaders("   ", "C1", "CUSTOMER"), http.StatusUnauthorized, errors.ErrMissingUsername},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen Identity
			w := httptest.NewRecorder()
			IdentityMiddleware("")(capture(&seen)).ServeHTTP(w, tc.req)

			assert.Equal(t, tc.code, w.Code)
			if tc.message != "" {
				var body errors.HTTPError
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, tc.message, body.Message)
			} else {
				assert.Equal(t, Identity{Username: "jdoe", CustomerID: "C1", Role: "CUSTOMER"}, seen)
			}
		})
	}
}

func TestIdentityMiddlewareBearer(t *testing.T) {
	claims := Claims{
		CustomerID: "C9",
		Role:       "ADMIN",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	t.Run("token_overrides_headers", func(t *testing.T) {
		var seen Identity
		r := withHeaders("jdoe", "C1", "CUSTOMER")
		r.Header.Set("Authorization", "Bearer "+sign(t, secret, claims))
		w := httptest.NewRecorder()
		IdentityMiddleware(secret)(capture(&seen)).ServeHTTP(w, r)

		require.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, Identity{Username: "ops", CustomerID: "C9", Role: "ADMIN"}, seen)
		assert.True(t, seen.IsAdmin())
	})

	t.Run("token_alone_is_enough", func(t *testing.T) {
		var seen Identity
		r := withHeaders("", "", "")
		r.Header.Set("Authorization", "bearer "+sign(t, secret, claims))
		w := httptest.NewRecorder()
		IdentityMiddleware(secret)(capture(&seen)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("wrong_key", func(t *testing.T) {
		r := withHeaders("jdoe", "C1", "CUSTOMER")
		r.Header.Set("Authorization", "Bearer "+sign(t, "other", claims))
		w := httptest.NewRecorder()
		IdentityMiddleware(secret)(capture(new(Identity))).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired", func(t *testing.T) {
		expired := claims
		expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		r := withHeaders("jdoe", "C1", "CUSTOMER")
		r.Header.Set("Authorization", "Bearer "+sign(t, secret, expired))
		w := httptest.NewRecorder()
		IdentityMiddleware(secret)(capture(new(Identity))).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("ignored_without_secret", func(t *testing.T) {
		var seen Identity
		r := withHeaders("jdoe", "C1", "CUSTOMER")
		r.Header.Set("Authorization", "Bearer not-a-jwt")
		w := httptest.NewRecorder()
		IdentityMiddleware("")(capture(&seen)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "C1", seen.CustomerID)
	})
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	cases := map[string]struct {
		role string
		code int
	}{
		"admin":      {"ADMIN", http.StatusNoContent},
		"lower_case": {"admin", http.StatusNoContent},
		"customer":   {"CUSTOMER", http.StatusForbidden},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			chain := IdentityMiddleware("")(RequireAdmin(ok))
			chain.ServeHTTP(w, withHeaders("u", "C1", tc.role))
			assert.Equal(t, tc.code, w.Code)
		})
	}

	t.Run("no_identity", func(t *testing.T) {
		w := httptest.NewRecorder()
		RequireAdmin(ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestCanAccessCustomer(t *testing.T) {
	assert.True(t, Identity{CustomerID: "C1", Role: "CUSTOMER"}.CanAccessCustomer("C1"))
	assert.False(t, Identity{CustomerID: "C1", Role: "CUSTOMER"}.CanAccessCustomer("C2"))
	assert.True(t, Identity{CustomerID: "C1", Role: "Admin"}.CanAccessCustomer("C2"))
}
