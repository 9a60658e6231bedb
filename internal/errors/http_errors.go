package errors

import (
	"encoding/json"
	"net/http"
)

type HTTPError struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

// HandleHTTPError handles http errors
func HandleHTTPError(w http.ResponseWriter, err error) {
	httpErr := ToHTTPError(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpErr.Code)
	json.NewEncoder(w).Encode(httpErr)
}

// ToHTTPError maps an error kind to its status code. The most specific kind wins,
// so ServiceUnavailableError is checked before ProcessingError.
func ToHTTPError(err error) *HTTPError {
	var (
		badRequest   *BadRequestError
		validation   *ValidationError
		notFound     *NotFoundError
		insufficient *InsufficientFundsError
		unavailable  *ServiceUnavailableError
		processing   *ProcessingError
		unauthorized *UnauthorizedError
		forbidden    *ForbiddenError
	)

	switch {
	case As(err, &badRequest):
		return &HTTPError{Code: http.StatusBadRequest, Message: badRequest.Error()}
	case As(err, &validation):
		return &HTTPError{Code: http.StatusBadRequest, Message: validation.Error()}
	case As(err, &insufficient):
		return &HTTPError{Code: http.StatusBadRequest, Message: insufficient.Error()}
	case As(err, &notFound):
		return &HTTPError{Code: http.StatusNotFound, Message: notFound.Error()}
	case As(err, &unauthorized):
		return &HTTPError{Code: http.StatusUnauthorized, Message: unauthorized.Error()}
	case As(err, &forbidden):
		return &HTTPError{Code: http.StatusForbidden, Message: forbidden.Error()}
	case As(err, &unavailable):
		return &HTTPError{Code: http.StatusServiceUnavailable, Message: unavailable.Error()}
	case As(err, &processing):
		return &HTTPError{Code: http.StatusUnprocessableEntity, Message: processing.Error()}
	default:
		return &HTTPError{Code: http.StatusInternalServerError, Message: "Internal server error"}
	}
}
