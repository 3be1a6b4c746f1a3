// Package service provides the business logic for accounts, contacts and
// share grants, delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/ContactKeeper/internal/auth"
	"github.com/atinyakov/ContactKeeper/internal/codec"
	"github.com/atinyakov/ContactKeeper/internal/models"
)

var (
	// ErrUserExists is returned when registering a taken username.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidInput is returned when username or password is empty.
	ErrInvalidInput = errors.New("username and password are required")
)

// AccountRepository defines the persistence operations
// required by the authentication service.
type AccountRepository interface {
	// UserExists returns true if an account with the given username exists.
	UserExists(ctx context.Context, username string) (bool, error)
	// CreateAccount stores a new account.
	CreateAccount(ctx context.Context, acc models.Account) error
	// GetAccountByUsername returns models.ErrNotFound for unknown users.
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)
}

// Session is handed back after a successful registration or login.
type Session struct {
	Token    string `json:"token"`
	UserID   string `json:"-"`
	Username string `json:"-"`
}

// AuthService implements registration and login.
type AuthService struct {
	repo     AccountRepository
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

// NewAuthService constructs an AuthService that signs tokens with secret.
func NewAuthService(repo AccountRepository, secret []byte, tokenTTL time.Duration) *AuthService {
	return &AuthService{repo: repo, secret: secret, tokenTTL: tokenTTL, now: time.Now}
}

// Register creates an account with a freshly generated encryption key and
// returns a session for it. The key is generated exactly once, here.
func (s *AuthService) Register(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	exists, err := s.repo.UserExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	key, err := codec.GenerateKey()
	if err != nil {
		return nil, err
	}

	acc := models.Account{
		ID:            uuid.NewString(),
		Username:      username,
		PasswordHash:  hash,
		EncryptionKey: key,
		CreatedAt:     s.now(),
	}
	if err := s.repo.CreateAccount(ctx, acc); err != nil {
		return nil, err
	}

	return s.issue(acc.ID, acc.Username)
}

// Login checks the password and returns a new session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	acc, err := s.repo.GetAccountByUsername(ctx, username)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(acc.ID, acc.Username)
}

func (s *AuthService) issue(userID, username string) (*Session, error) {
	token, err := auth.GenerateToken(userID, username, s.secret, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, UserID: userID, Username: username}, nil
}
