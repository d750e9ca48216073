// ABOUTME: Mock UserStore implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sync"
	"time"
)

// MockUserStore is an in-memory UserStore implementation for testing.
type MockUserStore struct {
	mu     sync.RWMutex
	users  map[int64]*User
	nextID int64

	// CreateErr, when set, is returned by CreateUser to simulate failures.
	CreateErr error
}

// NewMockUserStore creates a new MockUserStore.
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		users:  make(map[int64]*User),
		nextID: 1,
	}
}

// CreateUser stores a new user, enforcing username/email uniqueness.
func (m *MockUserStore) CreateUser(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return m.CreateErr
	}

	for _, existing := range m.users {
		if existing.Username == user.Username {
			return ErrUsernameExists
		}
		if existing.Email == user.Email {
			return ErrEmailExists
		}
	}

	now := time.Now().UTC()
	user.ID = m.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	m.nextID++

	// Make a copy to avoid external modification
	u := *user
	m.users[u.ID] = &u
	return nil
}

// GetUser retrieves a user by id.
func (m *MockUserStore) GetUser(ctx context.Context, id int64) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *u
	return &c, nil
}

// GetUserByUsername retrieves a user by username, (nil, nil) on absence.
func (m *MockUserStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// GetUserByEmail retrieves a user by email, (nil, nil) on absence.
func (m *MockUserStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// UpdateUserPassword replaces the stored hash and clears the default flag.
func (m *MockUserStore) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.CredentialIsDefault = false
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// CountUsers returns the number of stored users.
func (m *MockUserStore) CountUsers(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

// Close is a no-op for the mock.
func (m *MockUserStore) Close() error {
	return nil
}
