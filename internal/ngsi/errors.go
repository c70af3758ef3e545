package ngsi

import (
	"fmt"
	"strings"
)

// Error is a protocol-level error carrying the numeric code, short name
// and human-readable detail that the dialect error writers shape into
// wire responses.
type Error struct {
	Code    int
	Name    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Message)
}

// Protocol error constructors. Codes follow the taxonomy of the
// context-management protocol: lookup misses are 404, semantic request
// problems are 400, missing handler wiring is 500.

// NewDeviceNotFound reports a device lookup miss.
func NewDeviceNotFound(id string) *Error {
	return &Error{
		Code:    404,
		Name:    "DEVICE_NOT_FOUND",
		Message: fmt.Sprintf("no device was found with id: %s", id),
	}
}

// NewBadRequest reports a semantically impossible request, such as a
// multi-entity or pattern query in v2.
func NewBadRequest(message string) *Error {
	return &Error{
		Code:    400,
		Name:    "BAD_REQUEST",
		Message: message,
	}
}

// NewInvalidExpression reports a syntactically invalid expression or one
// referencing identifiers outside the allowed scope.
func NewInvalidExpression(expression string) *Error {
	return &Error{
		Code:    400,
		Name:    "INVALID_EXPRESSION",
		Message: fmt.Sprintf("invalid expression: %s", expression),
	}
}

// NewNotificationError reports a non-success status in an inbound v1
// notification record.
func NewNotificationError(code string) *Error {
	return &Error{
		Code:    400,
		Name:    "NOTIFICATION_ERROR",
		Message: fmt.Sprintf("error accepting notification with code: %s", code),
	}
}

// NewConfigurationError reports a required handler that was never
// registered. This is a deployment mistake, not a client error.
func NewConfigurationError(role string) *Error {
	return &Error{
		Code:    500,
		Name:    "CONFIGURATION_ERROR",
		Message: fmt.Sprintf("no %s handler is registered", role),
	}
}

// NewInternalError wraps a downstream collaborator failure.
func NewInternalError(err error) *Error {
	return &Error{
		Code:    500,
		Name:    "INTERNAL_ERROR",
		Message: err.Error(),
	}
}

// HTTPStatus maps an error code to an HTTP status: the code itself when
// it is a plausible status (2xx-5xx), otherwise 500.
func HTTPStatus(code int) int {
	if code >= 200 && code <= 599 {
		return code
	}
	return 500
}

// unsafeDetailChars are stripped from user-visible detail strings so
// upstream messages cannot smuggle markup or quoting characters into
// error responses.
const unsafeDetailChars = `<>"'=;()`

// Sanitize strips markup and quoting characters from a detail string.
func Sanitize(detail string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(unsafeDetailChars, r) {
			return -1
		}
		return r
	}, detail)
}
