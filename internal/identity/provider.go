package identity

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// Provider authenticates students. Implementations are the in-process
// DemoProvider and the HTTP-backed provider in package api.
type Provider interface {
	Login(ctx context.Context, in LoginInput) (*Session, error)
	Register(ctx context.Context, in RegisterInput) (*Session, error)
	// Me returns the user behind an access token.
	Me(ctx context.Context, token string) (*User, error)
	// Refresh exchanges a refresh token for a new access token.
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, token string) error
	// UpdateProfile replaces the editable profile fields of the user behind
	// token and returns the updated user. The email cannot be changed.
	UpdateProfile(ctx context.Context, token string, in UpdateProfileInput) (*User, error)
}
