package errs

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"

	"userdash/internal/pkg/logx"
)

// CustomError is the error returned to HTTP clients: a business code, a
// client-safe message and the HTTP status to answer with.
type CustomError struct {
	Code    int
	Message string
	Status  int
}

// Error implements the error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// templateDefaults is used when a templated message is requested without details.
var templateDefaults = map[int]string{
	ErrInvalidParams: "Invalid request parameters.",
}

// NewError builds a *CustomError for code. For templated messages the details
// are printf arguments. For ErrUnknown the first detail, when it is an error,
// is logged and reported to Sentry; it never reaches the client.
// An unregistered code yields ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]
	if !ok {
		logx.Error(
			fmt.Errorf("unknown error code %d", code),
			"errs.NewError called with an unregistered code",
		)
		templateErr = errorMap[ErrUnknown]
	}

	customErr := templateErr
	if customErr.Status == 0 {
		customErr.Status = http.StatusBadRequest
	}

	switch {
	case customErr.Code == ErrUnknown:
		if len(details) > 0 {
			if originalErr, ok := details[0].(error); ok {
				logx.Error(originalErr, "unhandled error mapped to ErrUnknown")
				sentry.CaptureException(originalErr)
			}
		}
	case strings.Contains(customErr.Message, "%"):
		if len(details) > 0 {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			customErr.Message = templateDefaults[customErr.Code]
		}
	case len(details) > 0:
		logx.Warn("error details ignored: message has no placeholders", "code", code)
	}

	return &customErr
}
