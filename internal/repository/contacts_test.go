package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/atinyakov/ContactKeeper/internal/models"
)

func setupContactMock(t *testing.T) (*ContactRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	return NewContactRepository(db), mock, func() { db.Close() }
}

var contactColumns = []string{"id", "account_id", "ciphertext", "created_at", "updated_at"}

func TestListContacts_Success(t *testing.T) {
	repo, mock, cleanup := setupContactMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM contacts WHERE account_id = $1`)).
		WithArgs("acc").
		WillReturnRows(sqlmock.NewRows(contactColumns).
			AddRow("c1", "acc", "ct1", int64(1), int64(2)).
			AddRow("c2", "acc", "ct2", int64(3), int64(4)))

	recs, err := repo.ListContacts(context.Background(), "acc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != "c1" || recs[1].Ciphertext != "ct2" {
		t.Errorf("unexpected records: %+v", recs)
	}
	if !recs[1].UpdatedAt.Equal(time.UnixMilli(4)) {
		t.Errorf("updated_at = %v", recs[1].UpdatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestListContacts_QueryError(t *testing.T) {
	repo, mock, cleanup := setupContactMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM contacts`)).
		WithArgs("acc").
		WillReturnError(errors.New("boom"))

	if _, err := repo.ListContacts(context.Background(), "acc"); err == nil {
		t.Fatal("expected error")
	}
}

func TestGetContact_NotFound(t *testing.T) {
	repo, mock, cleanup := setupContactMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE account_id = $1 AND id = $2`)).
		WithArgs("acc", "c9").
		WillReturnRows(sqlmock.NewRows(contactColumns))

	_, err := repo.GetContact(context.Background(), "acc", "c9")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetContact_Success(t *testing.T) {
	repo, mock, cleanup := setupContactMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE account_id = $1 AND id = $2`)).
		WithArgs("acc", "c1").
		WillReturnRows(sqlmock.NewRows(contactColumns).AddRow("c1", "acc", "ct", int64(1), int64(1)))

	rec, err := repo.GetContact(context.Background(), "acc", "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Ciphertext != "ct" {
		t.Errorf("ciphertext = %q", rec.Ciphertext)
	}
}

func TestCreateContact(t *testing.T) {
	repo, mock, cleanup := setupContactMock(t)
	defer cleanup()

	rec := models.ContactRecord{ID: "c1", AccountID: "acc", Ciphertext: "ct", CreatedAt: time.UnixMilli(5), UpdatedAt: time.UnixMilli(5)}
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO contacts`)).
		WithArgs("c1", "acc", "ct", int64(5), int64(5)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.CreateContact(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateContacts_Transaction(t *testing.T) {
	repo, mock, cleanup := setupContactMock(t)
	defer cleanup()

	recs := []models.ContactRecord{
		{ID: "c1", AccountID: "acc", Ciphertext: "a"},
		{ID: "c2", AccountID: "acc", Ciphertext: "b"},
	}
	mock.ExpectBegin()
	for _, r := range recs {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO contacts`)).
			WithArgs(r.ID, r.AccountID, r.Ciphertext, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	if err := repo.CreateContacts(context.Background(), recs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateContacts_RollbackOnError(t *testing.T) {
	repo, mock, cleanup := setupContactMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO contacts`)).
		WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	err := repo.CreateContacts(context.Background(), []models.ContactRecord{{ID: "c1", AccountID: "acc"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUpdateContact(t *testing.T) {
	repo, mock, cleanup := setupContactMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE contacts SET ciphertext = $1`)).
		WithArgs("new", sqlmock.AnyArg(), "c1", "acc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateContact(context.Background(), models.ContactRecord{ID: "c1", AccountID: "acc", Ciphertext: "new"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE contacts SET ciphertext = $1`)).
		WithArgs("new", sqlmock.AnyArg(), "c2", "acc").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateContact(context.Background(), models.ContactRecord{ID: "c2", AccountID: "acc", Ciphertext: "new"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteContact(t *testing.T) {
	repo, mock, cleanup := setupContactMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM shares WHERE contact_id IN`)).
		WithArgs("c1", "acc").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM contacts WHERE id = $1 AND account_id = $2`)).
		WithArgs("c1", "acc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.DeleteContact(context.Background(), "acc", "c1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDeleteContact_NotFoundRollsBack(t *testing.T) {
	repo, mock, cleanup := setupContactMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM shares`)).
		WithArgs("c1", "other").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM contacts`)).
		WithArgs("c1", "other").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.DeleteContact(context.Background(), "other", "c1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
