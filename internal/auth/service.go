package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"myrupee/internal/core"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

const minPasswordLen = 6

// AccountStore persists sign-in accounts.
type AccountStore interface {
	InsertAccount(ctx context.Context, a core.Account) error
	AccountByEmail(ctx context.Context, email string) (core.Account, error)
}

// Claims are carried in every session token.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Service creates accounts and issues HS256 session tokens. Signed-out
// tokens are remembered until they would have expired.
type Service struct {
	accounts AccountStore
	secret   []byte
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewService(accounts AccountStore, secret []byte, ttl time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		accounts: accounts,
		secret:   secret,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		revoked:  make(map[string]time.Time),
	}
}

// SignUp registers a new account and returns its user.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (*User, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	if _, err := s.accounts.AccountByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acct := core.Account{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.accounts.InsertAccount(ctx, acct); err != nil {
		if errors.Is(err, core.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	s.logger.InfoContext(ctx, "Account registered", "uid", acct.ID)
	return userFromAccount(acct), nil
}

// SignIn checks the password and issues a token.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, *User, error) {
	acct, err := s.accounts.AccountByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, core.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("lookup account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "Invalid password attempt", "uid", acct.ID)
		return "", nil, ErrInvalidCredentials
	}

	u := userFromAccount(acct)
	token, err := s.issue(u)
	if err != nil {
		return "", nil, err
	}
	s.logger.InfoContext(ctx, "Successful sign-in", "uid", u.UID)
	return token, u, nil
}

// Verify parses a token and returns its user and token id.
func (s *Service) Verify(token string) (*User, string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, "", ErrInvalidToken
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, "", ErrInvalidToken
	}

	s.mu.Lock()
	_, revoked := s.revoked[claims.ID]
	s.mu.Unlock()
	if revoked {
		return nil, "", ErrInvalidToken
	}

	return &User{UID: claims.Subject, Email: claims.Email, DisplayName: claims.Name}, claims.ID, nil
}

// Revoke invalidates a token. Unparseable tokens are ignored.
func (s *Service) Revoke(token string) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || claims.ID == "" {
		return
	}

	exp := s.now().Add(s.ttl)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[claims.ID] = exp
	now := s.now()
	for id, until := range s.revoked {
		if now.After(until) {
			delete(s.revoked, id)
		}
	}
}

func (s *Service) issue(u *User) (string, error) {
	now := s.now()
	claims := Claims{
		Email: u.Email,
		Name:  u.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func userFromAccount(a core.Account) *User {
	return &User{UID: a.ID, Email: a.Email, DisplayName: a.DisplayName}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
