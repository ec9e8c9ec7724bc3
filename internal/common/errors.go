package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Kind classifies an application error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindConflict
)

// AppError is the error type returned across service boundaries.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) error {
	return &AppError{Kind: KindValidation, Message: message}
}

// NewNotFoundError reports a missing resource, e.g. "Medicine not found".
func NewNotFoundError(resource string) error {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// NewNotFoundMessage reports a missing resource with a custom message.
func NewNotFoundMessage(message string) error {
	return &AppError{Kind: KindNotFound, Message: message}
}

func NewForbiddenError(message string) error {
	return &AppError{Kind: KindForbidden, Message: message}
}

func NewConflictError(message string) error {
	return &AppError{Kind: KindConflict, Message: message}
}

// NewInternalError wraps a store or upstream failure. The underlying message
// is surfaced to the caller unchanged.
func NewInternalError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	return &AppError{Kind: KindInternal, Message: err.Error(), Err: err}
}

// NewInternalMessage reports a failure with a fixed client-facing message,
// keeping the cause for logging.
func NewInternalMessage(message string, cause error) error {
	return &AppError{Kind: KindInternal, Message: message, Err: cause}
}

// KindOf returns the kind of err, KindInternal when it is not an AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

// ToHTTPError converts a service error into an echo HTTP error.
func ToHTTPError(err error) *echo.HTTPError {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	switch KindOf(err) {
	case KindValidation, KindConflict:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case KindNotFound:
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case KindForbidden:
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
}

// HTTPErrorHandler renders every error as {success: false, message}.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	httpErr := ToHTTPError(err)
	message := fmt.Sprintf("%v", httpErr.Message)
	if httpErr.Code >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("request failed")
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(httpErr.Code)
	} else {
		writeErr = c.JSON(httpErr.Code, map[string]interface{}{
			"success": false,
			"message": message,
		})
	}
	if writeErr != nil {
		log.Error().Err(writeErr).Msg("failed to write error response")
	}
}
