package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/ContactKeeper/internal/auth"
	"github.com/atinyakov/ContactKeeper/internal/models"
)

type mockAccountRepo struct {
	UserExistsFunc           func(ctx context.Context, username string) (bool, error)
	CreateAccountFunc        func(ctx context.Context, acc models.Account) error
	GetAccountByUsernameFunc func(ctx context.Context, username string) (*models.Account, error)
}

func (m *mockAccountRepo) UserExists(ctx context.Context, username string) (bool, error) {
	return m.UserExistsFunc(ctx, username)
}
func (m *mockAccountRepo) CreateAccount(ctx context.Context, acc models.Account) error {
	return m.CreateAccountFunc(ctx, acc)
}
func (m *mockAccountRepo) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	return m.GetAccountByUsernameFunc(ctx, username)
}

var testSecret = []byte("secret")

func TestRegister_Success(t *testing.T) {
	var stored models.Account
	repo := &mockAccountRepo{
		UserExistsFunc: func(context.Context, string) (bool, error) { return false, nil },
		CreateAccountFunc: func(_ context.Context, acc models.Account) error {
			stored = acc
			return nil
		},
	}
	svc := NewAuthService(repo, testSecret, time.Hour)

	sess, err := svc.Register(context.Background(), " carol ", "pw")
	require.NoError(t, err)

	assert.Equal(t, "carol", stored.Username)
	assert.Len(t, stored.EncryptionKey, 64)
	assert.NoError(t, bcrypt.CompareHashAndPassword(stored.PasswordHash, []byte("pw")))

	claims, err := auth.ParseToken(sess.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, claims.UserID)
	assert.Equal(t, stored.ID, sess.UserID)
}

func TestRegister_Taken(t *testing.T) {
	repo := &mockAccountRepo{
		UserExistsFunc: func(context.Context, string) (bool, error) { return true, nil },
	}
	svc := NewAuthService(repo, testSecret, time.Hour)

	_, err := svc.Register(context.Background(), "dave", "pw")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestRegister_InvalidInput(t *testing.T) {
	svc := NewAuthService(&mockAccountRepo{}, testSecret, time.Hour)

	_, err := svc.Register(context.Background(), "", "pw")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Register(context.Background(), "erin", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegister_RepoError(t *testing.T) {
	wantErr := errors.New("insert failed")
	repo := &mockAccountRepo{
		UserExistsFunc:    func(context.Context, string) (bool, error) { return false, nil },
		CreateAccountFunc: func(context.Context, models.Account) error { return wantErr },
	}
	svc := NewAuthService(repo, testSecret, time.Hour)

	_, err := svc.Register(context.Background(), "frank", "pw")
	assert.ErrorIs(t, err, wantErr)
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &mockAccountRepo{
		GetAccountByUsernameFunc: func(_ context.Context, username string) (*models.Account, error) {
			if username != "gina" {
				return nil, models.ErrNotFound
			}
			return &models.Account{ID: "id-g", Username: "gina", PasswordHash: hash}, nil
		},
	}
	svc := NewAuthService(repo, testSecret, time.Hour)

	sess, err := svc.Login(context.Background(), "gina", "right")
	require.NoError(t, err)
	assert.Equal(t, "id-g", sess.UserID)

	_, err = svc.Login(context.Background(), "gina", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "nobody", "right")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
