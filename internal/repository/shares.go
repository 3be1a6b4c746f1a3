package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/ContactKeeper/internal/models"
)

// ShareRepository implements share grant persistence.
type ShareRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewShareRepository creates a new ShareRepository using the provided *sql.DB.
func NewShareRepository(db *sql.DB) *ShareRepository {
	return &ShareRepository{DB: db}
}

// CreateShare inserts a new grant. Existing grants for the same contact are left alone.
func (r *ShareRepository) CreateShare(ctx context.Context, grant models.ShareGrant) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO shares (id, contact_id, code, expires_at, created_at, revoked)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, grant.ID, grant.ContactID, grant.Code, toMillis(grant.ExpiresAt), toMillis(grant.CreatedAt), grant.Revoked)
	if err != nil {
		return fmt.Errorf("CreateShare: %w", err)
	}
	return nil
}

// GetSharedRecord looks a grant up by code, joined with the contact
// ciphertext and the owner's key.
// Returns ErrNotFound if no grant has that code.
func (r *ShareRepository) GetSharedRecord(ctx context.Context, code string) (*models.SharedRecord, error) {
	var (
		rec     models.SharedRecord
		expires int64
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT c.ciphertext, a.encryption_key, s.expires_at, s.revoked
		FROM shares s
		JOIN contacts c ON s.contact_id = c.id
		JOIN accounts a ON c.account_id = a.id
		WHERE s.code = $1
	`, code).Scan(&rec.Ciphertext, &rec.EncryptionKey, &expires, &rec.Revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetSharedRecord: %w", err)
	}
	rec.ExpiresAt = fromMillis(expires)
	return &rec, nil
}

// RevokeShare marks a grant as revoked if its contact belongs to the account.
// Returns ErrNotFound otherwise.
func (r *ShareRepository) RevokeShare(ctx context.Context, accountID, code string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE shares SET revoked = $1
		WHERE code = $2 AND contact_id IN (SELECT id FROM contacts WHERE account_id = $3)
	`, true, code, accountID)
	if err != nil {
		return fmt.Errorf("RevokeShare: %w", err)
	}
	return requireAffected(res)
}

// DeleteExpiredShares removes grants that expired at or before now, and
// revoked ones. It returns the number of rows removed.
func (r *ShareRepository) DeleteExpiredShares(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM shares WHERE expires_at <= $1 OR revoked = $2
	`, toMillis(now), true)
	if err != nil {
		return 0, fmt.Errorf("DeleteExpiredShares: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
