package auth

import "errors"

var (
	ErrUserNotFound             = errors.New("user not found")
	ErrIncorrectPassword        = errors.New("incorrect password")
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrCannotValidateToken      = errors.New("cannot validate token")
	ErrValidation               = errors.New("validation failed")
	ErrInvalidConfirmationToken = errors.New("invalid confirmation token")

	ErrConfirmationTokenNotFound = errors.New("confirmation token not found")
)
