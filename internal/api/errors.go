package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fridgewatch/fridgewatch/backend/internal/backend"
	"github.com/fridgewatch/fridgewatch/backend/internal/service"
)

// ErrInvalidRequest wraps body and query validation failures.
var ErrInvalidRequest = errors.New("invalid request")

func invalidRequest(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
}

// ClassifyError maps handler errors to a status code and client message. It
// is installed with middleware.ErrorHandler.
func ClassifyError(err error) (int, string) {
	var statusErr *backend.StatusError
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrMissingGroup):
		return http.StatusBadRequest, service.ErrMissingGroup.Error()
	case errors.Is(err, service.ErrWatchNotFound):
		return http.StatusNotFound, service.ErrWatchNotFound.Error()
	case errors.Is(err, service.ErrWatchNotOwned):
		return http.StatusForbidden, service.ErrWatchNotOwned.Error()
	case errors.Is(err, backend.ErrUnauthorized):
		return http.StatusUnauthorized, backend.ErrUnauthorized.Error()
	case errors.As(err, &statusErr):
		return http.StatusBadGateway, "store backend unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "store backend timed out"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
