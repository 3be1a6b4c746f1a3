package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/ContactKeeper/internal/codec"
	"github.com/atinyakov/ContactKeeper/internal/models"
)

// KeyStore returns the encryption key of an account.
type KeyStore interface {
	GetEncryptionKey(ctx context.Context, accountID string) (string, error)
}

// ContactRepository defines the persistence operations needed by the ContactService.
type ContactRepository interface {
	// ListContacts returns every record of the account.
	ListContacts(ctx context.Context, accountID string) ([]models.ContactRecord, error)
	// GetContact returns models.ErrNotFound unless the account owns the contact.
	GetContact(ctx context.Context, accountID, id string) (*models.ContactRecord, error)
	CreateContact(ctx context.Context, rec models.ContactRecord) error
	// CreateContacts inserts all records or none.
	CreateContacts(ctx context.Context, recs []models.ContactRecord) error
	// UpdateContact returns models.ErrNotFound if nothing matched.
	UpdateContact(ctx context.Context, rec models.ContactRecord) error
	// DeleteContact returns models.ErrNotFound if nothing matched.
	DeleteContact(ctx context.Context, accountID, id string) error
}

// ContactService encrypts contacts on the way in and decrypts them on the way out.
type ContactService struct {
	repo ContactRepository
	keys KeyStore
	log  *zap.Logger
	now  func() time.Time
}

// NewContactService constructs a ContactService.
func NewContactService(repo ContactRepository, keys KeyStore, log *zap.Logger) *ContactService {
	return &ContactService{repo: repo, keys: keys, log: log, now: time.Now}
}

// List returns the decrypted contacts of the account. Records that cannot
// be decrypted are left out instead of failing the whole listing.
func (s *ContactService) List(ctx context.Context, accountID string) ([]models.Contact, error) {
	key, err := s.keys.GetEncryptionKey(ctx, accountID)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.ListContacts(ctx, accountID)
	if err != nil {
		return nil, err
	}

	contacts := make([]models.Contact, 0, len(records))
	for _, rec := range records {
		data, err := codec.Decrypt(rec.Ciphertext, key)
		if err != nil {
			s.log.Warn("skipping unreadable contact",
				zap.String("contact_id", rec.ID), zap.Error(err))
			continue
		}
		contacts = append(contacts, models.Contact{
			ID:          rec.ID,
			ContactData: data,
			CreatedAt:   rec.CreatedAt,
			UpdatedAt:   rec.UpdatedAt,
		})
	}
	return contacts, nil
}

// Export returns only the payloads of every readable contact.
func (s *ContactService) Export(ctx context.Context, accountID string) ([]models.ContactData, error) {
	contacts, err := s.List(ctx, accountID)
	if err != nil {
		return nil, err
	}
	out := make([]models.ContactData, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, c.ContactData)
	}
	return out, nil
}

// Create validates, encrypts and stores a new contact.
func (s *ContactService) Create(ctx context.Context, accountID string, data models.ContactData) (*models.Contact, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	key, err := s.keys.GetEncryptionKey(ctx, accountID)
	if err != nil {
		return nil, err
	}
	ct, err := codec.Encrypt(data, key)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec := models.ContactRecord{
		ID:         uuid.NewString(),
		AccountID:  accountID,
		Ciphertext: ct,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateContact(ctx, rec); err != nil {
		return nil, err
	}
	return &models.Contact{ID: rec.ID, ContactData: data, CreatedAt: now, UpdatedAt: now}, nil
}

// Update replaces the stored payload of a contact the account owns.
func (s *ContactService) Update(ctx context.Context, accountID, id string, data models.ContactData) (*models.Contact, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	key, err := s.keys.GetEncryptionKey(ctx, accountID)
	if err != nil {
		return nil, err
	}
	ct, err := codec.Encrypt(data, key)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec := models.ContactRecord{ID: id, AccountID: accountID, Ciphertext: ct, UpdatedAt: now}
	if err := s.repo.UpdateContact(ctx, rec); err != nil {
		return nil, err
	}
	return &models.Contact{ID: id, ContactData: data, UpdatedAt: now}, nil
}

// Delete removes a contact and any grants pointing at it.
func (s *ContactService) Delete(ctx context.Context, accountID, id string) error {
	return s.repo.DeleteContact(ctx, accountID, id)
}

// Import stores every entry that has both names and skips the rest.
// It returns the number of contacts stored.
func (s *ContactService) Import(ctx context.Context, accountID string, entries []models.ContactData) (int, error) {
	key, err := s.keys.GetEncryptionKey(ctx, accountID)
	if err != nil {
		return 0, err
	}

	now := s.now()
	recs := make([]models.ContactRecord, 0, len(entries))
	for _, data := range entries {
		if data.Validate() != nil {
			continue
		}
		ct, err := codec.Encrypt(data, key)
		if err != nil {
			return 0, err
		}
		recs = append(recs, models.ContactRecord{
			ID:         uuid.NewString(),
			AccountID:  accountID,
			Ciphertext: ct,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	if len(recs) == 0 {
		return 0, nil
	}
	if err := s.repo.CreateContacts(ctx, recs); err != nil {
		return 0, err
	}
	return len(recs), nil
}
