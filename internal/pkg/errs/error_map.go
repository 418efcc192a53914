package errs

import "net/http"

// errorMap holds the client message and HTTP status for every code.
// A zero Status means http.StatusBadRequest.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "%s"},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Content-Type must be application/json.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Malformed request body."},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Account Errors
	ErrDuplicateEmail:     {Code: ErrDuplicateEmail, Message: "User already exists."},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Invalid credentials."},
	ErrUserNotFound:       {Code: ErrUserNotFound, Message: "User not found.", Status: http.StatusNotFound},

	// 3xxx: Authentication Errors
	ErrMissingToken: {Code: ErrMissingToken, Message: "No token, authorization denied.", Status: http.StatusUnauthorized},
	ErrInvalidToken: {Code: ErrInvalidToken, Message: "Token is not valid.", Status: http.StatusUnauthorized},

	// 4xxx: QR Code Errors
	ErrQRCodeEncode: {Code: ErrQRCodeEncode, Message: "Error generating QR code.", Status: http.StatusInternalServerError},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Server error.", Status: http.StatusInternalServerError},
}
