package auth

import "errors"

var (
	ErrEmailPasswordRequired = errors.New("Email and password are required")
	ErrInvalidCredentials    = errors.New("Invalid email or password")
	ErrEmailTaken            = errors.New("Email is already registered")
	ErrNotAuthenticated      = errors.New("Not authenticated")
)
