package middlewares

import (
	"context"
	"github.com/bootcamp67/ms-transaction/internal/errors"
	http2 "github.com/bootcamp67/ms-transaction/internal/infrastructure/api/http"
	"github.com/bootcamp67/ms-transaction/pkg/log"
	"github.com/golang-jwt/jwt/v5"
	"net/http"
	"strings"
)

type identityKey struct{}

// Identity is the caller as asserted by the gateway.
type Identity struct {
	Username   string
	CustomerID string
	Role       string
}

func (i Identity) IsAdmin() bool {
	return strings.EqualFold(i.Role, http2.RoleAdmin)
}

// CanAccessCustomer reports whether the caller may read data owned by customerID.
func (i Identity) CanAccessCustomer(customerID string) bool {
	return i.IsAdmin() || i.CustomerID == customerID
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// Claims carried by a bearer token; the subject is the username.
type Claims struct {
	CustomerID string `json:"cid"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// IdentityMiddleware resolves the caller from the gateway headers. A bearer token signed
// with secret overrides them when secret is set.
func IdentityMiddleware(secret string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := log.GetLogger()
			id := Identity{
				Username:   strings.TrimSpace(r.Header.Get(http2.UsernameHeader)),
				CustomerID: strings.TrimSpace(r.Header.Get(http2.CustomerIDHeader)),
				Role:       strings.TrimSpace(r.Header.Get(http2.RoleHeader)),
			}

			if token, ok := bearer(r); ok && secret != "" {
				claims, err := parseToken(token, secret)
				if err != nil {
					logger.Warn().Err(err).Msg(errors.ErrInvalidToken)
					errors.HandleHTTPError(w, errors.NewUnauthorizedError(errors.ErrInvalidToken))
					return
				}
				id = merge(id, claims)
			}

			if msg := missing(id); msg != "" {
				logger.Warn().Str("path", r.URL.Path).Msg(msg)
				errors.HandleHTTPError(w, errors.NewUnauthorizedError(msg))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < len("Bearer ") || !strings.EqualFold(h[:len("Bearer ")], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(h[len("Bearer "):])
	return token, token != ""
}

func parseToken(token, secret string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func merge(id Identity, c *Claims) Identity {
	if c.Subject != "" {
		id.Username = c.Subject
	}
	if c.CustomerID != "" {
		id.CustomerID = c.CustomerID
	}
	if c.Role != "" {
		id.Role = c.Role
	}
	return id
}

func missing(id Identity) string {
	switch {
	case id.Username == "":
		return errors.ErrMissingUsername
	case id.CustomerID == "":
		return errors.ErrMissingCustomerID
	case id.Role == "":
		return errors.ErrMissingRole
	}
	return ""
}
