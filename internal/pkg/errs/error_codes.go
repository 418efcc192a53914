/*
Package errs provides the application error type and its numeric codes.

Codes are stable identifiers shared with clients; the message and HTTP status
attached to each code live in errorMap.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not application/json.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates a malformed JSON body or an unknown field.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing data after the JSON value.
	ErrExtraContentInBody = 1004

	// ErrRequestEntityTooLarge indicates that the body exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the caller exceeded the request rate.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Account Errors
const (
	// ErrDuplicateEmail indicates that another account already uses the email.
	ErrDuplicateEmail = 2001

	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = 2002

	// ErrUserNotFound indicates that the referenced account does not exist.
	ErrUserNotFound = 2003
)

// 3xxx: Authentication Errors
const (
	// ErrMissingToken indicates that no bearer token was presented.
	ErrMissingToken = 3001

	// ErrInvalidToken indicates a malformed, expired or wrongly signed token.
	ErrInvalidToken = 3002
)

// 4xxx: QR Code Errors
const (
	// ErrQRCodeEncode indicates that rendering the QR symbol failed.
	ErrQRCodeEncode = 4001
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified server error.
	ErrUnknown = 5000
)
