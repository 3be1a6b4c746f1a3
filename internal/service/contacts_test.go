package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/ContactKeeper/internal/codec"
	"github.com/atinyakov/ContactKeeper/internal/models"
)

type mockContactRepo struct {
	ListContactsFunc   func(ctx context.Context, accountID string) ([]models.ContactRecord, error)
	GetContactFunc     func(ctx context.Context, accountID, id string) (*models.ContactRecord, error)
	CreateContactFunc  func(ctx context.Context, rec models.ContactRecord) error
	CreateContactsFunc func(ctx context.Context, recs []models.ContactRecord) error
	UpdateContactFunc  func(ctx context.Context, rec models.ContactRecord) error
	DeleteContactFunc  func(ctx context.Context, accountID, id string) error
}

func (m *mockContactRepo) ListContacts(ctx context.Context, accountID string) ([]models.ContactRecord, error) {
	return m.ListContactsFunc(ctx, accountID)
}
func (m *mockContactRepo) GetContact(ctx context.Context, accountID, id string) (*models.ContactRecord, error) {
	return m.GetContactFunc(ctx, accountID, id)
}
func (m *mockContactRepo) CreateContact(ctx context.Context, rec models.ContactRecord) error {
	return m.CreateContactFunc(ctx, rec)
}
func (m *mockContactRepo) CreateContacts(ctx context.Context, recs []models.ContactRecord) error {
	return m.CreateContactsFunc(ctx, recs)
}
func (m *mockContactRepo) UpdateContact(ctx context.Context, rec models.ContactRecord) error {
	return m.UpdateContactFunc(ctx, rec)
}
func (m *mockContactRepo) DeleteContact(ctx context.Context, accountID, id string) error {
	return m.DeleteContactFunc(ctx, accountID, id)
}

type staticKeys map[string]string

func (k staticKeys) GetEncryptionKey(_ context.Context, accountID string) (string, error) {
	key, ok := k[accountID]
	if !ok {
		return "", models.ErrNotFound
	}
	return key, nil
}

func newKey(t *testing.T) string {
	t.Helper()
	key, err := codec.GenerateKey()
	require.NoError(t, err)
	return key
}

func seal(t *testing.T, data models.ContactData, key string) string {
	t.Helper()
	ct, err := codec.Encrypt(data, key)
	require.NoError(t, err)
	return ct
}

func TestList_SkipsUnreadable(t *testing.T) {
	own := newKey(t)
	foreign := newKey(t)

	records := []models.ContactRecord{
		{ID: "c1", Ciphertext: seal(t, models.ContactData{FirstName: "A", LastName: "One"}, own)},
		{ID: "c2", Ciphertext: seal(t, models.ContactData{FirstName: "B", LastName: "Two"}, foreign)},
		{ID: "c3", Ciphertext: seal(t, models.ContactData{FirstName: "C", LastName: "Three"}, own)},
		{ID: "c4", Ciphertext: "garbage"},
	}
	repo := &mockContactRepo{
		ListContactsFunc: func(context.Context, string) ([]models.ContactRecord, error) { return records, nil },
	}
	svc := NewContactService(repo, staticKeys{"acc": own}, zap.NewNop())

	got, err := svc.List(context.Background(), "acc")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, "A", got[0].FirstName)
	assert.Equal(t, "c3", got[1].ID)
}

func TestList_RepoError(t *testing.T) {
	wantErr := errors.New("db down")
	repo := &mockContactRepo{
		ListContactsFunc: func(context.Context, string) ([]models.ContactRecord, error) { return nil, wantErr },
	}
	svc := NewContactService(repo, staticKeys{"acc": newKey(t)}, zap.NewNop())

	_, err := svc.List(context.Background(), "acc")
	assert.ErrorIs(t, err, wantErr)
}

func TestCreate_EncryptsUnderAccountKey(t *testing.T) {
	key := newKey(t)
	var stored models.ContactRecord
	repo := &mockContactRepo{
		CreateContactFunc: func(_ context.Context, rec models.ContactRecord) error {
			stored = rec
			return nil
		},
	}
	svc := NewContactService(repo, staticKeys{"acc": key}, zap.NewNop())

	phone := "555-0100"
	data := models.ContactData{FirstName: "Ana", LastName: "Lopez", Phone: &phone}
	c, err := svc.Create(context.Background(), "acc", data)
	require.NoError(t, err)

	assert.Equal(t, stored.ID, c.ID)
	assert.Equal(t, "acc", stored.AccountID)
	assert.NotContains(t, stored.Ciphertext, "Ana")

	got, err := codec.Decrypt(stored.Ciphertext, key)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestCreate_Validation(t *testing.T) {
	svc := NewContactService(&mockContactRepo{}, staticKeys{}, zap.NewNop())

	_, err := svc.Create(context.Background(), "acc", models.ContactData{FirstName: "Ana"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestUpdate_NotFound(t *testing.T) {
	repo := &mockContactRepo{
		UpdateContactFunc: func(context.Context, models.ContactRecord) error { return models.ErrNotFound },
	}
	svc := NewContactService(repo, staticKeys{"acc": newKey(t)}, zap.NewNop())

	_, err := svc.Update(context.Background(), "acc", "c1", models.ContactData{FirstName: "A", LastName: "B"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDelete(t *testing.T) {
	var gotAcc, gotID string
	repo := &mockContactRepo{
		DeleteContactFunc: func(_ context.Context, accountID, id string) error {
			gotAcc, gotID = accountID, id
			return nil
		},
	}
	svc := NewContactService(repo, staticKeys{}, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "acc", "c1"))
	assert.Equal(t, "acc", gotAcc)
	assert.Equal(t, "c1", gotID)
}

func TestImport_SkipsInvalid(t *testing.T) {
	key := newKey(t)
	var stored []models.ContactRecord
	repo := &mockContactRepo{
		CreateContactsFunc: func(_ context.Context, recs []models.ContactRecord) error {
			stored = recs
			return nil
		},
	}
	svc := NewContactService(repo, staticKeys{"acc": key}, zap.NewNop())

	n, err := svc.Import(context.Background(), "acc", []models.ContactData{
		{FirstName: "A", LastName: "One"},
		{FirstName: "", LastName: "Nameless"},
		{FirstName: "C", LastName: "Three"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, stored, 2)

	got, err := codec.Decrypt(stored[1].Ciphertext, key)
	require.NoError(t, err)
	assert.Equal(t, "C", got.FirstName)
}

func TestImport_NothingValid(t *testing.T) {
	repo := &mockContactRepo{
		CreateContactsFunc: func(context.Context, []models.ContactRecord) error {
			t.Fatal("CreateContacts should not be called")
			return nil
		},
	}
	svc := NewContactService(repo, staticKeys{"acc": newKey(t)}, zap.NewNop())

	n, err := svc.Import(context.Background(), "acc", []models.ContactData{{LastName: "x"}})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExport(t *testing.T) {
	key := newKey(t)
	records := []models.ContactRecord{
		{ID: "c1", Ciphertext: seal(t, models.ContactData{FirstName: "A", LastName: "One"}, key)},
	}
	repo := &mockContactRepo{
		ListContactsFunc: func(context.Context, string) ([]models.ContactRecord, error) { return records, nil },
	}
	svc := NewContactService(repo, staticKeys{"acc": key}, zap.NewNop())

	out, err := svc.Export(context.Background(), "acc")
	require.NoError(t, err)
	assert.Equal(t, []models.ContactData{{FirstName: "A", LastName: "One"}}, out)
}
