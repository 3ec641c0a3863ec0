package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prodiplan/essaygrader/internal/identity"
)

// AuthProvider implements identity.Provider against the backend.
type AuthProvider struct {
	client *Client
}

func NewAuthProvider(c *Client) *AuthProvider {
	return &AuthProvider{client: c}
}

var _ identity.Provider = (*AuthProvider)(nil)

func (p *AuthProvider) Login(ctx context.Context, in identity.LoginInput) (*identity.Session, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var data AuthData
	if err := p.client.Do(ctx, http.MethodPost, PathLogin, "", in, &data); err != nil {
		return nil, mapAuthError(err)
	}
	return &identity.Session{User: data.User, Token: data.Token, RefreshToken: data.RefreshToken}, nil
}

func (p *AuthProvider) Register(ctx context.Context, in identity.RegisterInput) (*identity.Session, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	// The confirmation never leaves the client.
	in.ConfirmPassword = ""
	var data AuthData
	if err := p.client.Do(ctx, http.MethodPost, PathRegister, "", in, &data); err != nil {
		return nil, mapAuthError(err)
	}
	return &identity.Session{User: data.User, Token: data.Token, RefreshToken: data.RefreshToken}, nil
}

func (p *AuthProvider) Me(ctx context.Context, token string) (*identity.User, error) {
	var u identity.User
	if err := p.client.Do(ctx, http.MethodGet, PathMe, token, nil, &u); err != nil {
		return nil, mapAuthError(err)
	}
	return &u, nil
}

func (p *AuthProvider) Refresh(ctx context.Context, refreshToken string) (string, error) {
	var data RefreshData
	if err := p.client.Do(ctx, http.MethodPost, PathRefresh, "", RefreshRequest{RefreshToken: refreshToken}, &data); err != nil {
		return "", mapAuthError(err)
	}
	return data.Token, nil
}

func (p *AuthProvider) Logout(ctx context.Context, token string) error {
	if err := p.client.Do(ctx, http.MethodPost, PathLogout, token, nil, nil); err != nil {
		return mapAuthError(err)
	}
	return nil
}

func (p *AuthProvider) UpdateProfile(ctx context.Context, token string, in identity.UpdateProfileInput) (*identity.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var u identity.User
	if err := p.client.Do(ctx, http.MethodPut, PathMe, token, in, &u); err != nil {
		return nil, mapAuthError(err)
	}
	return &u, nil
}

// mapAuthError turns well-known API codes into identity sentinels.
func mapAuthError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Code {
	case CodeInvalidCredentials:
		return fmt.Errorf("%w: %s", identity.ErrInvalidCredentials, apiErr.Message)
	case CodeEmailTaken:
		return fmt.Errorf("%w: %s", identity.ErrEmailTaken, apiErr.Message)
	case CodeTokenInvalid, CodeTokenRequired:
		return fmt.Errorf("%w: %s", identity.ErrInvalidToken, apiErr.Message)
	case CodeValidation:
		if len(apiErr.Fields) > 0 {
			return &identity.FormError{Fields: apiErr.Fields}
		}
	}
	return err
}
