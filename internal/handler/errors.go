package handler

import (
	"errors"

	"userdash/internal/app/auth"
	"userdash/internal/app/qrcode"
	"userdash/internal/app/user"
	"userdash/internal/pkg/errs"
)

// mapError translates a service error into the client-facing error.
// Anything unrecognised becomes ErrUnknown, which logs and reports the cause.
func mapError(err error) *errs.CustomError {
	var vErr *user.ValidationError

	switch {
	case errors.As(err, &vErr):
		return errs.NewError(errs.ErrInvalidParams, vErr.Error())
	case errors.Is(err, user.ErrDuplicateEmail):
		return errs.NewError(errs.ErrDuplicateEmail)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return errs.NewError(errs.ErrInvalidCredentials)
	case errors.Is(err, user.ErrNotFound):
		return errs.NewError(errs.ErrUserNotFound)
	case errors.Is(err, qrcode.ErrEncode):
		return errs.NewError(errs.ErrQRCodeEncode)
	default:
		return errs.NewError(errs.ErrUnknown, err)
	}
}
