package errs

import (
	"errors"
	"fmt"

	"farmconnect/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// 錯誤分類: handler 依此對應 HTTP status / websocket error event
var (
	// ErrValidation malformed input, rejected before persistence
	ErrValidation = errors.New("validation error")
	// ErrAuthorization caller is not allowed to touch the target
	ErrAuthorization = errors.New("access denied")
	// ErrNotFound referenced resource does not exist
	ErrNotFound = errors.New("not found")
	// ErrInternal underlying store or transport failure
	ErrInternal = errors.New("internal error")
)

// Validationf create a validation error
func Validationf(format string, args ...interface{}) error {
	return newErr(ErrValidation, format, args...)
}

// Authorizationf create an authorization error
func Authorizationf(format string, args ...interface{}) error {
	return newErr(ErrAuthorization, format, args...)
}

// NotFoundf create a not-found error
func NotFoundf(format string, args ...interface{}) error {
	return newErr(ErrNotFound, format, args...)
}

// Internalf wrap a store/transport failure
func Internalf(format string, args ...interface{}) error {
	return newErr(ErrInternal, format, args...)
}

func newErr(kind error, format string, args ...interface{}) error {
	err := fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
	if logger.Log != nil {
		logger.Log.Warn(err.Error())
	}
	return err
}

// HTTPStatus map an error kind to a fiber status code
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrAuthorization):
		return fiber.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}
