package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/ContactKeeper/internal/models"
)

// ContactRepository implements encrypted contact persistence.
type ContactRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewContactRepository creates a new ContactRepository using the provided *sql.DB.
func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{DB: db}
}

// ListContacts fetches every contact record of the account, oldest first.
func (r *ContactRepository) ListContacts(ctx context.Context, accountID string) ([]models.ContactRecord, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, account_id, ciphertext, created_at, updated_at FROM contacts
		WHERE account_id = $1 ORDER BY created_at, id
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("ListContacts: %w", err)
	}
	defer rows.Close()

	var records []models.ContactRecord
	for rows.Next() {
		rec, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListContacts: %w", err)
	}
	return records, nil
}

// GetContact retrieves a single contact owned by the account.
// Returns ErrNotFound if it does not exist or belongs to someone else.
func (r *ContactRepository) GetContact(ctx context.Context, accountID, id string) (*models.ContactRecord, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, account_id, ciphertext, created_at, updated_at FROM contacts
		WHERE account_id = $1 AND id = $2
	`, accountID, id)
	rec, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// CreateContact inserts a contact record.
func (r *ContactRepository) CreateContact(ctx context.Context, rec models.ContactRecord) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO contacts (id, account_id, ciphertext, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.ID, rec.AccountID, rec.Ciphertext, toMillis(rec.CreatedAt), toMillis(rec.UpdatedAt))
	if err != nil {
		return fmt.Errorf("CreateContact: %w", err)
	}
	return nil
}

// CreateContacts inserts many records in one transaction.
func (r *ContactRepository) CreateContacts(ctx context.Context, recs []models.ContactRecord) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range recs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO contacts (id, account_id, ciphertext, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
		`, rec.ID, rec.AccountID, rec.Ciphertext, toMillis(rec.CreatedAt), toMillis(rec.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// UpdateContact replaces the ciphertext of a contact owned by the account.
// Returns ErrNotFound if nothing was updated.
func (r *ContactRepository) UpdateContact(ctx context.Context, rec models.ContactRecord) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE contacts SET ciphertext = $1, updated_at = $2
		WHERE id = $3 AND account_id = $4
	`, rec.Ciphertext, toMillis(rec.UpdatedAt), rec.ID, rec.AccountID)
	if err != nil {
		return fmt.Errorf("UpdateContact: %w", err)
	}
	return requireAffected(res)
}

// DeleteContact removes a contact and its share grants.
// Returns ErrNotFound if the account has no such contact.
func (r *ContactRepository) DeleteContact(ctx context.Context, accountID, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM shares WHERE contact_id IN (SELECT id FROM contacts WHERE id = $1 AND account_id = $2)
	`, id, accountID)
	if err != nil {
		return fmt.Errorf("delete shares: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1 AND account_id = $2`, id, accountID)
	if err != nil {
		return fmt.Errorf("DeleteContact: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(s rowScanner) (*models.ContactRecord, error) {
	var (
		rec              models.ContactRecord
		created, updated int64
	)
	if err := s.Scan(&rec.ID, &rec.AccountID, &rec.Ciphertext, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan: %w", err)
	}
	rec.CreatedAt = fromMillis(created)
	rec.UpdatedAt = fromMillis(updated)
	return &rec, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
