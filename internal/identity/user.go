// Package identity models the authenticated student and the providers that
// resolve one.
package identity

import (
	"strings"
	"time"
)

// User is the authenticated student.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	BirthDate     string    `json:"birth_date,omitempty"`
	SchoolOrigin  string    `json:"school_origin,omitempty"`
	DreamMajor    string    `json:"dream_major,omitempty"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	PhoneNumber   string    `json:"phone_number,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DisplayName is the full name, falling back to the local part of the email.
func (u *User) DisplayName() string {
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(u.Email, "@"); ok && local != "" {
		return local
	}
	return u.Email
}

// TargetMajor returns the chosen major, or "" if none was picked.
func (u *User) TargetMajor() string {
	return strings.TrimSpace(u.DreamMajor)
}

// Session is a resolved identity plus the tokens that prove it.
type Session struct {
	User         User   `json:"user"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}
