package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/ContactKeeper/internal/codec"
	"github.com/atinyakov/ContactKeeper/internal/models"
)

// ShareTTL is how long a share code stays redeemable.
const ShareTTL = 30 * time.Minute

var (
	// ErrShareNotFound is returned when no grant has the given code.
	ErrShareNotFound = errors.New("share not found")
	// ErrShareExpired is returned for grants past their expiry or revoked.
	ErrShareExpired = errors.New("share expired")
	// ErrShareUnreadable is returned when the shared contact cannot be decrypted.
	ErrShareUnreadable = errors.New("could not decrypt shared contact")
)

// ShareRepository defines the persistence operations needed by the ShareService.
type ShareRepository interface {
	CreateShare(ctx context.Context, grant models.ShareGrant) error
	// GetSharedRecord returns models.ErrNotFound for unknown codes.
	GetSharedRecord(ctx context.Context, code string) (*models.SharedRecord, error)
	// RevokeShare returns models.ErrNotFound unless the account owns the shared contact.
	RevokeShare(ctx context.Context, accountID, code string) error
	DeleteExpiredShares(ctx context.Context, now time.Time) (int64, error)
}

// ContactLookup resolves a contact owned by an account.
type ContactLookup interface {
	GetContact(ctx context.Context, accountID, id string) (*models.ContactRecord, error)
}

// ShareOption configures a ShareService.
type ShareOption func(*ShareService)

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) ShareOption {
	return func(s *ShareService) { s.now = now }
}

// ShareService issues, redeems, revokes and sweeps share grants.
//
// A grant is ACTIVE until its expiry passes or its owner revokes it, then
// EXPIRED for good. Redemption checks time and the revoked flag itself, so
// it never depends on the sweep having run.
type ShareService struct {
	shares   ShareRepository
	contacts ContactLookup
	log      *zap.Logger
	now      func() time.Time
}

// NewShareService constructs a ShareService.
func NewShareService(shares ShareRepository, contacts ContactLookup, log *zap.Logger, opts ...ShareOption) *ShareService {
	s := &ShareService{shares: shares, contacts: contacts, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue creates a new grant for a contact the account owns. Previous
// grants for the same contact stay valid.
func (s *ShareService) Issue(ctx context.Context, accountID, contactID string) (*models.ShareCode, error) {
	if _, err := s.contacts.GetContact(ctx, accountID, contactID); err != nil {
		return nil, err
	}

	now := s.now()
	grant := models.ShareGrant{
		ID:        uuid.NewString(),
		ContactID: contactID,
		Code:      uuid.NewString(),
		ExpiresAt: now.Add(ShareTTL),
		CreatedAt: now,
	}
	if err := s.shares.CreateShare(ctx, grant); err != nil {
		return nil, err
	}

	s.log.Info("share issued",
		zap.String("contact_id", contactID), zap.Time("expires_at", grant.ExpiresAt))
	return &models.ShareCode{Code: grant.Code, ExpiresAt: grant.ExpiresAt}, nil
}

// Redeem resolves a code to the decrypted contact. It never reveals the
// owner, the key or the contact id.
func (s *ShareService) Redeem(ctx context.Context, code string) (*models.SharedContact, error) {
	rec, err := s.shares.GetSharedRecord(ctx, code)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrShareNotFound
	}
	if err != nil {
		return nil, err
	}

	if rec.Revoked || !s.now().Before(rec.ExpiresAt) {
		return nil, ErrShareExpired
	}

	data, err := codec.Decrypt(rec.Ciphertext, rec.EncryptionKey)
	if err != nil {
		s.log.Warn("shared contact unreadable", zap.Error(err))
		return nil, ErrShareUnreadable
	}

	return &models.SharedContact{Contact: data, ExpiresAt: rec.ExpiresAt}, nil
}

// Revoke expires a grant immediately. Only the owner of the shared contact may do this.
func (s *ShareService) Revoke(ctx context.Context, accountID, code string) error {
	return s.shares.RevokeShare(ctx, accountID, code)
}

// SweepExpired deletes expired and revoked grants and reports how many were removed.
func (s *ShareService) SweepExpired(ctx context.Context) (int64, error) {
	return s.shares.DeleteExpiredShares(ctx, s.now())
}
