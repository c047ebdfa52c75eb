package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountTaken       = errors.New("email or nickname already taken")
	ErrMissingToken       = errors.New("authorization required")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("access denied: administrators only")
	ErrUserNotFound       = errors.New("user not found")
)
