package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"chessgame/internal/storage"

	"github.com/google/uuid"
	"github.com/lixenwraith/auth"
)

// User is the public view of an account
type User struct {
	UserID      string     `json:"userId"`
	Username    string     `json:"username"`
	Email       string     `json:"email,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

var ErrUserExists = storage.ErrUserExists

// dummyHash is verified against when the account does not exist so that
// unknown and known identifiers take the same time.
var dummyHash = sync.OnceValue(func() string {
	h, err := auth.HashPassword("placeholder-password-0")
	if err != nil {
		return ""
	}
	return h
})

func userFromRecord(r *storage.UserRecord) *User {
	return &User{
		UserID:      r.UserID,
		Username:    r.Username,
		Email:       r.Email,
		CreatedAt:   r.CreatedAt,
		LastLoginAt: r.LastLoginAt,
	}
}

// CreateUser hashes the password and stores a new account. Username and
// email must already be normalized by the caller.
func (s *Service) CreateUser(username, email, password string) (*User, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.generateUniqueUserID()
	if err != nil {
		return nil, err
	}

	record := storage.UserRecord{
		UserID:       userID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(record); err != nil {
		return nil, err
	}
	return userFromRecord(&record), nil
}

// AuthenticateUser checks credentials; identifier is a username or, when it
// contains '@', an email.
func (s *Service) AuthenticateUser(identifier, password string) (*User, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	var (
		record *storage.UserRecord
		err    error
	)
	if strings.Contains(identifier, "@") {
		record, err = s.store.GetUserByEmail(identifier)
	} else {
		record, err = s.store.GetUserByUsername(identifier)
	}
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		_ = auth.VerifyPassword(password, dummyHash())
		return nil, ErrInvalidCredentials
	}

	if err := auth.VerifyPassword(password, record.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}
	return userFromRecord(record), nil
}

func (s *Service) UpdateLastLogin(userID string) error {
	if s.store == nil {
		return ErrStorageDisabled
	}
	if err := s.store.UpdateUserLastLogin(userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to update last login for user %s: %w", userID, err)
	}
	return nil
}

func (s *Service) GetUserByID(userID string) (*User, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	record, err := s.store.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	return userFromRecord(record), nil
}

// GenerateUserToken issues an HS256 token carrying username and email claims.
func (s *Service) GenerateUserToken(userID string) (string, time.Time, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return "", time.Time{}, err
	}

	claims := map[string]any{
		"username": user.Username,
		"email":    user.Email,
	}
	expiresAt := time.Now().Add(TokenTTL)
	token, err := auth.GenerateHS256Token(s.jwtSecret, userID, claims, TokenTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ValidateToken verifies a token and returns its subject and claims.
func (s *Service) ValidateToken(token string) (string, map[string]any, error) {
	return auth.ValidateHS256Token(s.jwtSecret, token)
}

func (s *Service) generateUniqueUserID() (string, error) {
	const maxAttempts = 10

	for range maxAttempts {
		id := uuid.New().String()
		if _, err := s.store.GetUserByID(id); errors.Is(err, storage.ErrNotFound) {
			return id, nil
		} else if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("failed to generate unique user ID after %d attempts", maxAttempts)
}
