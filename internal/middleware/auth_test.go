package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/atinyakov/ContactKeeper/internal/auth"
)

// dummyHandler is a placeholder that records if it was called and the context it received.
type dummyHandler struct {
	called bool
	ctx    context.Context
}

func (d *dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.called = true
	d.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

var secret = []byte("middleware-secret")

func TestTokenAuth_NoToken(t *testing.T) {
	dummy := &dummyHandler{}
	h := TokenAuth(secret)(dummy)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/contacts", nil)
	h.ServeHTTP(rec, req)

	if dummy.called {
		t.Error("did not expect next handler to be called without a token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 Unauthorized, got %d", rec.Code)
	}
}

func TestTokenAuth_InvalidToken(t *testing.T) {
	dummy := &dummyHandler{}
	h := TokenAuth(secret)(dummy)

	other, err := auth.GenerateToken("alice-id", "alice", []byte("other"), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	for _, header := range []string{"Bearer garbage", "Basic abc", "Bearer " + other} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/contacts", nil)
		req.Header.Set("Authorization", header)
		h.ServeHTTP(rec, req)

		if dummy.called {
			t.Errorf("next handler called for header %q", header)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestTokenAuth_ValidToken(t *testing.T) {
	token, err := auth.GenerateToken("alice-id", "alice", secret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	dummy := &dummyHandler{}
	h := TokenAuth(secret)(dummy)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/contacts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(rec, req)

	if !dummy.called {
		t.Fatal("expected next handler to be called with a valid token")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 OK, got %d", rec.Code)
	}
	if user := GetUserIDFromContext(dummy.ctx); user != "alice-id" {
		t.Errorf("expected context user 'alice-id', got '%s'", user)
	}
}

func TestGetUserIDFromContext(t *testing.T) {
	empty := GetUserIDFromContext(context.Background())
	if empty != "" {
		t.Errorf("expected empty string for missing user, got '%s'", empty)
	}
	ctx := WithUserID(context.Background(), "bob")
	if val := GetUserIDFromContext(ctx); val != "bob" {
		t.Errorf("expected 'bob', got '%s'", val)
	}
}
