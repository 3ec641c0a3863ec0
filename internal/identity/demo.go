package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	AccessTokenTTL  = 7 * 24 * time.Hour
	RefreshTokenTTL = 30 * 24 * time.Hour
)

// TokenType distinguishes access from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims extends the registered JWT claims with the student's identity.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
}

// DemoAccount is a seeded login.
type DemoAccount struct {
	Password string
	User     User
}

// DemoUsers returns the accounts available without a backend.
func DemoUsers() []DemoAccount {
	return []DemoAccount{
		{
			Password: "demo123",
			User: User{
				ID:            "user-demo-001",
				Email:         "demo@prodiplan.id",
				FullName:      "Demo User",
				BirthDate:     "2005-01-15",
				SchoolOrigin:  "SMAN 1 Jakarta",
				DreamMajor:    "Computer Science",
				PhoneNumber:   "+62812345678",
				EmailVerified: true,
				CreatedAt:     time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
				UpdatedAt:     time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
			},
		},
		{
			Password: "student123",
			User: User{
				ID:            "user-student-001",
				Email:         "student@prodiplan.id",
				FullName:      "Budi Santoso",
				BirthDate:     "2006-05-20",
				SchoolOrigin:  "SMAN 2 Bandung",
				DreamMajor:    "Teknik Informatika",
				PhoneNumber:   "+62812345679",
				EmailVerified: true,
				CreatedAt:     time.Date(2024, 1, 16, 9, 15, 0, 0, time.UTC),
				UpdatedAt:     time.Date(2024, 1, 16, 9, 15, 0, 0, time.UTC),
			},
		},
		{
			Password: "test123",
			User: User{
				ID:            "user-test-001",
				Email:         "test@prodiplan.id",
				FullName:      "Siti Nur Azizah",
				BirthDate:     "2005-08-10",
				SchoolOrigin:  "SMAN 3 Surabaya",
				DreamMajor:    "Kedokteran",
				PhoneNumber:   "+62812345680",
				EmailVerified: true,
				CreatedAt:     time.Date(2024, 1, 17, 14, 45, 0, 0, time.UTC),
				UpdatedAt:     time.Date(2024, 1, 17, 14, 45, 0, 0, time.UTC),
			},
		},
	}
}

type demoRecord struct {
	hash []byte
	user User
}

// DemoProvider is an in-memory Provider. Passwords are bcrypt hashed and
// tokens are HS256 JWTs, so the same provider backs the mock API server.
type DemoProvider struct {
	secret []byte
	cost   int
	now    func() time.Time

	mu      sync.RWMutex
	users   map[string]*demoRecord // by email
	revoked map[string]time.Time   // jti → expiry
}

// DemoOption configures a DemoProvider.
type DemoOption func(*DemoProvider)

// WithBcryptCost sets the hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) DemoOption {
	return func(p *DemoProvider) { p.cost = cost }
}

// WithDemoClock overrides time.Now for token timestamps.
func WithDemoClock(now func() time.Time) DemoOption {
	return func(p *DemoProvider) { p.now = now }
}

// NewDemoProvider seeds a provider with accounts, signing tokens with secret.
func NewDemoProvider(secret string, accounts []DemoAccount, opts ...DemoOption) (*DemoProvider, error) {
	if secret == "" {
		return nil, errors.New("demo provider: empty signing secret")
	}
	p := &DemoProvider{
		secret:  []byte(secret),
		cost:    bcrypt.DefaultCost,
		now:     time.Now,
		users:   make(map[string]*demoRecord),
		revoked: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	for _, acct := range accounts {
		if err := p.add(acct.User, acct.Password); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *DemoProvider) add(u User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	p.users[u.Email] = &demoRecord{hash: hash, user: u}
	return nil
}

func (p *DemoProvider) Login(_ context.Context, in LoginInput) (*Session, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	rec, ok := p.users[in.Email]
	p.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(rec.hash, []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return p.issue(rec.user)
}

// Register accepts any valid form whose email is not already taken.
func (p *DemoProvider) Register(_ context.Context, in RegisterInput) (*Session, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := p.now().UTC()
	u := User{
		ID:           "user-" + uuid.NewString(),
		Email:        in.Email,
		FullName:     in.FullName,
		BirthDate:    in.BirthDate,
		SchoolOrigin: in.SchoolOrigin,
		DreamMajor:   in.DreamMajor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	p.mu.Lock()
	if _, exists := p.users[u.Email]; exists {
		p.mu.Unlock()
		return nil, ErrEmailTaken
	}
	err := p.add(u, in.Password)
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return p.issue(u)
}

func (p *DemoProvider) Me(_ context.Context, token string) (*User, error) {
	claims, err := p.ValidateToken(token, TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return p.lookup(claims.Email)
}

func (p *DemoProvider) Refresh(_ context.Context, refreshToken string) (string, error) {
	claims, err := p.ValidateToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", err
	}
	u, err := p.lookup(claims.Email)
	if err != nil {
		return "", err
	}
	return p.sign(*u, TokenTypeAccess, AccessTokenTTL)
}

// Logout revokes the access token.
func (p *DemoProvider) Logout(_ context.Context, token string) error {
	claims, err := p.ValidateToken(token, TokenTypeAccess)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.revoked[claims.ID] = claims.ExpiresAt.Time
	p.mu.Unlock()
	return nil
}

func (p *DemoProvider) UpdateProfile(_ context.Context, token string, in UpdateProfileInput) (*User, error) {
	claims, err := p.ValidateToken(token, TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.users[claims.Email]
	if !ok {
		return nil, ErrInvalidToken
	}
	in.Apply(&rec.user)
	rec.user.UpdatedAt = p.now().UTC()
	u := rec.user
	return &u, nil
}

// ValidateToken parses a token and checks its signature, expiry, type and
// revocation.
func (p *DemoProvider) ValidateToken(tokenStr string, want TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != want {
		return nil, ErrInvalidToken
	}

	p.mu.RLock()
	_, revoked := p.revoked[claims.ID]
	p.mu.RUnlock()
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (p *DemoProvider) lookup(email string) (*User, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, ok := p.users[email]
	if !ok {
		return nil, ErrInvalidToken
	}
	u := rec.user
	return &u, nil
}

func (p *DemoProvider) issue(u User) (*Session, error) {
	access, err := p.sign(u, TokenTypeAccess, AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := p.sign(u, TokenTypeRefresh, RefreshTokenTTL)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: access, RefreshToken: refresh}, nil
}

func (p *DemoProvider) sign(u User, typ TokenType, ttl time.Duration) (string, error) {
	now := p.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: typ,
		UserID:    u.ID,
		Email:     u.Email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

var _ Provider = (*DemoProvider)(nil)
