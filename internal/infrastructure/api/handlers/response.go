package handlers

import (
	"encoding/json"
	"github.com/bootcamp67/ms-transaction/internal/errors"
	"github.com/bootcamp67/ms-transaction/internal/infrastructure/api/middlewares"
	"github.com/rs/zerolog"
	"net"
	"net/http"
)

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// identity returns the caller set by IdentityMiddleware, writing 401 when there is none.
func identity(w http.ResponseWriter, r *http.Request) (middlewares.Identity, bool) {
	id, ok := middlewares.IdentityFromContext(r.Context())
	if !ok {
		errors.HandleHTTPError(w, errors.NewUnauthorizedError(errors.ErrMissingUsername))
	}
	return id, ok
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func logFailure(logger *zerolog.Logger, err error, msg string) {
	if errors.ToHTTPError(err).Code >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg(msg)
		return
	}
	logger.Warn().Err(err).Msg(msg)
}
