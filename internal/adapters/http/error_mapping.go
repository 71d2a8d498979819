package httpadapter

import (
	"net/http"

	"github.com/abelyaev/cv-match/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage keeps upstream failure detail out of response bodies. A 503
// must be distinguishable from "no matches", so its message names the
// search backend explicitly.
func errorMessage(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid request"
	case domain.IsKind(err, domain.ErrUnauthorized):
		return "unauthorized"
	case domain.IsKind(err, domain.ErrUnavailable):
		return "search backend unavailable, retry shortly"
	default:
		return "internal error"
	}
}
