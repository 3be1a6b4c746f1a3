// Package models defines the core data structures for accounts, contacts and share grants.
package models

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrValidation is returned when required contact fields are missing.
	ErrValidation = errors.New("first name and last name are required")
	// ErrNotFound is returned when no record matches a lookup.
	ErrNotFound = errors.New("not found")
)

// Account represents a registered user together with its encryption key.
type Account struct {
	// ID is the unique identifier for the account.
	ID string
	// Username is the login name chosen by the user.
	Username string
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte
	// EncryptionKey is the per-account secret used for every contact of the account.
	// It is generated once at registration and never rotated.
	EncryptionKey string
	// CreatedAt is the registration time.
	CreatedAt time.Time
}

// ContactData is the structured payload that gets encrypted at rest.
// Optional fields are pointers so that an absent value and an empty
// string survive a round-trip as different values.
type ContactData struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Phone     *string `json:"phone,omitempty"`
	Email     *string `json:"email,omitempty"`
	Note      *string `json:"note,omitempty"`
}

// Validate checks that the required name fields are present.
func (c ContactData) Validate() error {
	if strings.TrimSpace(c.FirstName) == "" || strings.TrimSpace(c.LastName) == "" {
		return ErrValidation
	}
	return nil
}

// ContactRecord is the persisted, encrypted form of a contact.
type ContactRecord struct {
	// ID is the unique identifier for the contact.
	ID string
	// AccountID references the owning account.
	AccountID string
	// Ciphertext is the encrypted, serialized ContactData.
	Ciphertext string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Contact is the decrypted view of a contact returned to its owner.
type Contact struct {
	ID string `json:"id"`
	ContactData
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ShareGrant is a persisted capability giving read access to one contact
// until ExpiresAt.
type ShareGrant struct {
	ID        string
	ContactID string
	// Code is the opaque lookup token handed out to the redeemer.
	Code      string
	ExpiresAt time.Time
	CreatedAt time.Time
	// Revoked marks a grant that was expired ahead of time by its owner.
	Revoked bool
}

// SharedRecord is a grant joined with the data needed to decrypt the shared contact.
type SharedRecord struct {
	Ciphertext    string
	EncryptionKey string
	ExpiresAt     time.Time
	Revoked       bool
}

// ShareCode is returned to the owner when a grant is issued.
type ShareCode struct {
	Code      string    `json:"shareCode"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SharedContact is what a redeemer gets back for a valid code.
type SharedContact struct {
	Contact   ContactData `json:"contact"`
	ExpiresAt time.Time   `json:"expiresAt"`
}
