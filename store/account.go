package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	sqlite "modernc.org/sqlite"
)

// Account is a registered user identity. The password is held only as a
// bcrypt hash. Accounts are never updated or deleted.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// sqliteConstraintUnique is SQLITE_CONSTRAINT_UNIQUE (2067).
const sqliteConstraintUnique = 2067

// Register creates a new account with a bcrypt hash of password.
// Returns ErrEmailTaken when the email already has an account; the
// existing account is never overwritten. Email is stored verbatim,
// without case-folding or trimming.
func (s *Store) Register(ctx context.Context, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("store: hash password: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?)`,
		email, string(hash), time.Now().Unix())
	if err != nil {
		var se *sqlite.Error
		if errors.As(err, &se) && se.Code() == sqliteConstraintUnique {
			return ErrEmailTaken
		}
		return fmt.Errorf("store: register: %w", err)
	}
	return nil
}

// Authenticate verifies email/password against the stored hash.
// Both an unknown email and a wrong password yield ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, email, password string) error {
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT password_hash FROM users WHERE email = ?`, email).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("store: authenticate: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}
