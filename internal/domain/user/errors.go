package user

import "errors"

var (
	ErrInvalidToken            = errors.New("invalid or missing access token")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrNotOwnRecord            = errors.New("employees may only act on their own attendance")
)
