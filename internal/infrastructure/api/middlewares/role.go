package middlewares

import (
	"github.com/bootcamp67/ms-transaction/internal/errors"
	"github.com/bootcamp67/ms-transaction/pkg/log"
	"net/http"
)

// RequireAdmin allows only callers with the ADMIN role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok || !id.IsAdmin() {
			logger := log.GetLogger()
			logger.Warn().Str("username", id.Username).Str("path", r.URL.Path).Msg(errors.ErrAccessDenied)
			errors.HandleHTTPError(w, errors.NewForbiddenError())
			return
		}
		next.ServeHTTP(w, r)
	})
}
