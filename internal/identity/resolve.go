package identity

import (
	"context"
	"fmt"
)

// TokenStore is the persistence Resolve needs.
type TokenStore interface {
	Load() (*Tokens, error)
	Save(Tokens) error
	Clear() error
}

// Resolve restores the session saved by a previous run. An invalid access
// token is refreshed once; if that fails too the stored tokens are cleared
// and (nil, nil) is returned so the caller shows the login screen.
func Resolve(ctx context.Context, p Provider, store TokenStore) (*Session, error) {
	tokens, err := store.Load()
	if err != nil {
		// A corrupt file is treated like a missing one.
		_ = store.Clear()
		return nil, nil
	}
	if tokens == nil {
		return nil, nil
	}

	if tokens.Token != "" {
		if u, err := p.Me(ctx, tokens.Token); err == nil {
			return &Session{User: *u, Token: tokens.Token, RefreshToken: tokens.RefreshToken}, nil
		}
	}

	if tokens.RefreshToken != "" {
		access, err := p.Refresh(ctx, tokens.RefreshToken)
		if err == nil {
			u, err := p.Me(ctx, access)
			if err == nil {
				next := Tokens{Token: access, RefreshToken: tokens.RefreshToken}
				if err := store.Save(next); err != nil {
					return nil, fmt.Errorf("save refreshed token: %w", err)
				}
				return &Session{User: *u, Token: access, RefreshToken: tokens.RefreshToken}, nil
			}
		}
	}

	if err := store.Clear(); err != nil {
		return nil, err
	}
	return nil, nil
}

// Persist saves a freshly issued session's tokens.
func Persist(store TokenStore, s *Session) error {
	return store.Save(Tokens{Token: s.Token, RefreshToken: s.RefreshToken})
}
