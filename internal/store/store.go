// ABOUTME: Store interface and data types for appsec-gateway persistence
// ABOUTME: Defines the User record and the UserStore interface for database operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrUsernameExists is returned when creating a user whose username is taken
var ErrUsernameExists = errors.New("username already exists")

// ErrEmailExists is returned when creating a user whose email is taken
var ErrEmailExists = errors.New("email already exists")

// User represents a registered dashboard user.
// PasswordHash is a bcrypt hash and must never leave the store/auth boundary;
// API handlers work with copies that have the hash stripped.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string

	// CredentialIsDefault is true until the user changes their initial
	// password. The bootstrap admin starts with it set.
	CredentialIsDefault bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Sanitized returns a copy of the user with the password hash removed.
func (u *User) Sanitized() *User {
	c := *u
	c.PasswordHash = ""
	return &c
}

// UserStore defines the interface for user persistence
type UserStore interface {
	// CreateUser inserts a new user record. The uniqueness of username and
	// email is enforced atomically by the insert itself; violations surface
	// as ErrUsernameExists or ErrEmailExists with no partial write.
	CreateUser(ctx context.Context, user *User) error

	// GetUser returns the user with the given id, or ErrNotFound.
	GetUser(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername returns (nil, nil) when no such user exists.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// GetUserByEmail returns (nil, nil) when no such user exists.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// UpdateUserPassword replaces the password hash, clears the
	// default-credential flag, and refreshes the update timestamp.
	// Returns ErrNotFound for an unknown id.
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error

	// CountUsers returns the total number of user records.
	CountUsers(ctx context.Context) (int, error)

	// Close releases the underlying database handle.
	Close() error
}
