package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrUserExists = errors.New("username or email already exists")

const userColumns = `user_id, username, email, password_hash, created_at, last_login_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*UserRecord, error) {
	var (
		user  UserRecord
		email sql.NullString
	)
	err := row.Scan(&user.UserID, &user.Username, &email,
		&user.PasswordHash, &user.CreatedAt, &user.LastLoginAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user.Email = email.String
	return &user, nil
}

// CreateUser inserts a user, checking uniqueness inside the same transaction.
func (s *Store) CreateUser(record UserRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := userExists(tx, record.Username, record.Email)
	if err != nil {
		return err
	}
	if exists {
		return ErrUserExists
	}

	_, err = tx.Exec(`INSERT INTO users (
		user_id, username, email, password_hash, created_at
	) VALUES (?, ?, ?, ?, ?)`,
		record.UserID, record.Username, record.Email, record.PasswordHash, record.CreatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func userExists(tx *sql.Tx, username, email string) (bool, error) {
	query := `SELECT COUNT(*) FROM users WHERE username = ? COLLATE NOCASE`
	args := []any{username}

	if email != "" {
		query += ` OR email = ? COLLATE NOCASE`
		args = append(args, email)
	}

	var count int
	if err := tx.QueryRow(query, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByUsername matches case-insensitively.
func (s *Store) GetUserByUsername(username string) (*UserRecord, error) {
	return scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = ? COLLATE NOCASE`, username))
}

// GetUserByEmail matches case-insensitively.
func (s *Store) GetUserByEmail(email string) (*UserRecord, error) {
	return scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email))
}

func (s *Store) GetUserByID(userID string) (*UserRecord, error) {
	return scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID))
}

// ListUsers returns all users, newest first.
func (s *Store) ListUsers() ([]UserRecord, error) {
	rows, err := s.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []UserRecord
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUserLastLogin(userID string, loginTime time.Time) error {
	if _, err := s.db.Exec(`UPDATE users SET last_login_at = ? WHERE user_id = ?`, loginTime, userID); err != nil {
		return fmt.Errorf("failed to update last login for user %s: %w", userID, err)
	}
	return nil
}

func (s *Store) UpdateUserPassword(userID, passwordHash string) error {
	res, err := s.db.Exec(`UPDATE users SET password_hash = ? WHERE user_id = ?`, passwordHash, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) DeleteUser(userID string) error {
	res, err := s.db.Exec(`DELETE FROM users WHERE user_id = ?`, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
