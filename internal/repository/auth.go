// Package repository provides persistence implementations for accounts,
// contacts and share grants on top of database/sql.
//
// Queries use $N placeholders, which both lib/pq and modernc.org/sqlite accept.
// Timestamps are stored as Unix milliseconds.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/ContactKeeper/internal/models"
)

// ErrNotFound is returned when no row matches the lookup.
var ErrNotFound = models.ErrNotFound

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

// AccountRepository implements account persistence.
type AccountRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewAccountRepository creates a new AccountRepository with the given database connection.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{DB: db}
}

// UserExists checks whether an account with the specified username exists.
func (r *AccountRepository) UserExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE username = $1)`,
		username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("UserExists: %w", err)
	}
	return exists, nil
}

// CreateAccount inserts a new account row.
func (r *AccountRepository) CreateAccount(ctx context.Context, acc models.Account) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO accounts (id, username, password_hash, encryption_key, created_at) VALUES ($1, $2, $3, $4, $5)`,
		acc.ID, acc.Username, string(acc.PasswordHash), acc.EncryptionKey, toMillis(acc.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("CreateAccount: %w", err)
	}
	return nil
}

// GetAccountByUsername loads an account for login.
// Returns ErrNotFound if there is no such user.
func (r *AccountRepository) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	var (
		acc     models.Account
		hash    string
		created int64
	)
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT id, username, password_hash, encryption_key, created_at FROM accounts WHERE username = $1`,
		username,
	).Scan(&acc.ID, &acc.Username, &hash, &acc.EncryptionKey, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetAccountByUsername: %w", err)
	}
	acc.PasswordHash = []byte(hash)
	acc.CreatedAt = fromMillis(created)
	return &acc, nil
}

// GetEncryptionKey returns the stored key of the account.
func (r *AccountRepository) GetEncryptionKey(ctx context.Context, accountID string) (string, error) {
	var key string
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT encryption_key FROM accounts WHERE id = $1`,
		accountID,
	).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("GetEncryptionKey: %w", err)
	}
	return key, nil
}
