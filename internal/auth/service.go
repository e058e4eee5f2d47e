package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/maison-core/internal/infrastructure/logging"
)

// Service wires credential checks and token issuance over the user
// repository.
type Service struct {
	users  UserRepository
	secret string
	ttl    time.Duration
	logger *logging.Logger
}

// NewService creates the auth service. secret signs access tokens and
// ttl bounds their lifetime.
func NewService(users UserRepository, secret string, ttl time.Duration, logger *logging.Logger) *Service {
	return &Service{
		users:  users,
		secret: secret,
		ttl:    ttl,
		logger: logger.With("component", "auth"),
	}
}

// TokenTTL returns the configured access token lifetime.
func (s *Service) TokenTTL() time.Duration {
	if s.ttl <= 0 {
		return defaultTokenTTL
	}
	return s.ttl
}

// Login verifies the credentials and returns a signed access token
// plus the account. Unknown username and wrong password both return
// ErrInvalidCredentials so callers cannot probe for accounts.
func (s *Service) Login(ctx context.Context, username, password string) (string, *User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return "", nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		s.logger.Warn("failed login attempt", "username", username)
		return "", nil, ErrInvalidCredentials
	}

	token, err := GenerateAccessToken(user, s.secret, s.ttl)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return token, user, nil
}

// Authenticate validates an access token and returns its claims.
func (s *Service) Authenticate(token string) (*CustomClaims, error) {
	return ParseToken(token, s.secret)
}

// CreateUser registers a new account with the given role.
func (s *Service) CreateUser(ctx context.Context, username, password string, role Role) (*User, error) {
	if !IsValidUsername(username) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}
	if !IsValidUserRole(role) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", user.ID, "role", string(role))
	return user, nil
}

// ChangePassword verifies the current password, then stores a hash of
// the new one.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := VerifyPassword(current, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(next)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}
