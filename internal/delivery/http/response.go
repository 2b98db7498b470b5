package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"pipaura/internal/domain"
)

// ErrorBody is the body of every non-2xx response
type ErrorBody struct {
	Error string `json:"error"`
}

// ErrorResponse sends an error response
func ErrorResponse(c echo.Context, statusCode int, message string) error {
	return c.JSON(statusCode, ErrorBody{Error: message})
}

// BadRequestResponse sends a 400 Bad Request response
func BadRequestResponse(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusBadRequest, message)
}

// StatusFor maps an error to the HTTP status and message shown to the caller
func StatusFor(err error) (int, string) {
	var (
		httpErr   *echo.HTTPError
		authErr   *domain.AuthenticationError
		configErr *domain.ConfigurationError
		transErr  *domain.TransportError
	)

	switch {
	case errors.As(err, &httpErr):
		if msg, ok := httpErr.Message.(string); ok {
			return httpErr.Code, msg
		}
		return httpErr.Code, http.StatusText(httpErr.Code)
	case errors.As(err, &authErr):
		return http.StatusUnauthorized, authErr.Error()
	case errors.As(err, &configErr):
		return http.StatusInternalServerError, "Server configuration error"
	case errors.Is(err, domain.ErrNotLinked):
		return http.StatusNotFound, "No MyFxBook account linked"
	case errors.As(err, &transErr):
		return http.StatusBadGateway, transErr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Request timed out"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// NewErrorHandler renders handler errors as {error} bodies
func NewErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, message := StatusFor(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Int("status", status).
				Msg("Request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = ErrorResponse(c, status, message)
		}
		if err != nil {
			log.Error().Err(err).Msg("Failed to write error response")
		}
	}
}
