// ABOUTME: Account service for registration, login, and password management
// ABOUTME: Wraps the user store, password hasher, and token service behind one API

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/appsecdash/appsec-gateway/internal/auth"
	"github.com/appsecdash/appsec-gateway/internal/metrics"
	"github.com/appsecdash/appsec-gateway/internal/store"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// Default admin bootstrap credentials. The account is created with the
// default-credential flag set, and the dashboard nags until it is changed.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminEmail    = "admin@localhost"
	DefaultAdminPassword = "admin"
)

// Account errors
var (
	// ErrInvalidCredentials is returned for both unknown users and wrong
	// passwords, deliberately indistinguishable to prevent username
	// enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrPasswordTooShort is returned when a new password is below the
	// minimum length.
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
)

// Service implements account operations on top of the user store.
type Service struct {
	store  store.UserStore
	hasher *auth.PasswordHasher
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewService creates an account service.
func NewService(userStore store.UserStore, hasher *auth.PasswordHasher, tokens *auth.TokenService, logger *slog.Logger) *Service {
	return &Service{
		store:  userStore,
		hasher: hasher,
		tokens: tokens,
		logger: logger.With("component", "account"),
	}
}

// Register creates a new user and issues a bearer token for it.
// Returns store.ErrUsernameExists or store.ErrEmailExists on conflict;
// uniqueness is enforced atomically by the insert itself.
func (s *Service) Register(ctx context.Context, username, email, password string) (*store.User, string, error) {
	if len(password) < MinPasswordLength {
		return nil, "", ErrPasswordTooShort
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	user := &store.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		// Self-registered users chose their own password
		CredentialIsDefault: false,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, "", fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user.Sanitized(), token, nil
}

// Login authenticates by username or email plus password and issues a token.
// Lookup misses and password mismatches both return ErrInvalidCredentials,
// and a miss still burns a bcrypt comparison so the two cases cost the same.
func (s *Service) Login(ctx context.Context, usernameOrEmail, password string) (*store.User, string, error) {
	user, err := s.store.GetUserByUsername(ctx, usernameOrEmail)
	if err != nil {
		return nil, "", fmt.Errorf("looking up user: %w", err)
	}
	if user == nil {
		user, err = s.store.GetUserByEmail(ctx, usernameOrEmail)
		if err != nil {
			return nil, "", fmt.Errorf("looking up user: %w", err)
		}
	}

	if user == nil {
		s.hasher.DummyVerify(password)
		metrics.AuthFailuresTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, "", ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		metrics.AuthFailuresTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, "", fmt.Errorf("issuing token: %w", err)
	}

	metrics.LoginsTotal.Inc()
	s.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)
	return user.Sanitized(), token, nil
}

// Get returns the user record for the given id without the hash.
func (s *Service) Get(ctx context.Context, id int64) (*store.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// ChangePassword verifies the current password, then replaces the hash and
// clears the default-credential flag. A wrong current password returns
// ErrInvalidCredentials. Existing tokens stay valid until expiry; there is
// no revocation.
func (s *Service) ChangePassword(ctx context.Context, id int64, currentPassword, newPassword string) (*store.User, error) {
	if len(newPassword) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		metrics.AuthFailuresTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	if err := s.store.UpdateUserPassword(ctx, id, hash); err != nil {
		return nil, err
	}

	updated, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("password changed", "user_id", id)
	return updated.Sanitized(), nil
}

// EnsureDefaultAdmin creates the bootstrap admin account on first run.
// The account carries the well-known default credential and the
// default-credential flag until the password is changed. Idempotent.
func (s *Service) EnsureDefaultAdmin(ctx context.Context) error {
	existing, err := s.store.GetUserByUsername(ctx, DefaultAdminUsername)
	if err != nil {
		return fmt.Errorf("checking for admin user: %w", err)
	}
	if existing != nil {
		s.logger.Debug("default admin already exists")
		return nil
	}

	hash, err := s.hasher.Hash(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing default password: %w", err)
	}

	admin := &store.User{
		Username:            DefaultAdminUsername,
		Email:               DefaultAdminEmail,
		PasswordHash:        hash,
		CredentialIsDefault: true,
	}

	if err := s.store.CreateUser(ctx, admin); err != nil {
		// Another instance may have won the race; that is fine
		if errors.Is(err, store.ErrUsernameExists) || errors.Is(err, store.ErrEmailExists) {
			return nil
		}
		return fmt.Errorf("creating admin user: %w", err)
	}

	s.logger.Warn("default admin user created - change the default password after first login",
		"username", DefaultAdminUsername,
	)
	return nil
}
