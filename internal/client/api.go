// Package client talks to the contact server API on behalf of the CLI.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/atinyakov/ContactKeeper/internal/models"
)

// ErrNotLoggedIn is returned by calls that need a session token when none is set.
var ErrNotLoggedIn = errors.New("not logged in: run the login command first")

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

// Client is a thin wrapper around the HTTP API.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// AuthResult is the body returned by register and login.
type AuthResult struct {
	Token string `json:"token"`
	User  struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

// NewHTTPClient returns an HTTP client that trusts the CA at caPath in
// place of the system roots. An empty caPath uses the system roots.
func NewHTTPClient(caPath string) (*http.Client, error) {
	if caPath == "" {
		return &http.Client{Timeout: 10 * time.Second}, nil
	}
	caCert, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert: %w", err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to parse CA cert")
	}
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			RootCAs:    caPool,
			MinVersion: tls.VersionTLS12,
		},
	}
	return &http.Client{Transport: transport, Timeout: 10 * time.Second}, nil
}

// Register creates an account and returns its session token.
func (c *Client) Register(ctx context.Context, username, password string) (*AuthResult, error) {
	var res AuthResult
	err := c.do(ctx, http.MethodPost, "/api/register", false,
		map[string]string{"username": username, "password": password}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	var res AuthResult
	err := c.do(ctx, http.MethodPost, "/api/login", false,
		map[string]string{"username": username, "password": password}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ListContacts returns the caller's contacts.
func (c *Client) ListContacts(ctx context.Context) ([]models.Contact, error) {
	var contacts []models.Contact
	if err := c.do(ctx, http.MethodGet, "/api/contacts", true, nil, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// CreateContact stores a new contact.
func (c *Client) CreateContact(ctx context.Context, data models.ContactData) (*models.Contact, error) {
	var contact models.Contact
	if err := c.do(ctx, http.MethodPost, "/api/contacts", true, data, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// UpdateContact replaces the fields of contact id.
func (c *Client) UpdateContact(ctx context.Context, id string, data models.ContactData) (*models.Contact, error) {
	var contact models.Contact
	if err := c.do(ctx, http.MethodPut, "/api/contacts/"+url.PathEscape(id), true, data, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// DeleteContact removes contact id.
func (c *Client) DeleteContact(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/contacts/"+url.PathEscape(id), true, nil, nil)
}

// ShareContact issues a share code for contact id.
func (c *Client) ShareContact(ctx context.Context, id string) (*models.ShareCode, error) {
	var code models.ShareCode
	if err := c.do(ctx, http.MethodPost, "/api/contacts/"+url.PathEscape(id)+"/share", true, nil, &code); err != nil {
		return nil, err
	}
	return &code, nil
}

// RevokeShare invalidates a share code before its expiry.
func (c *Client) RevokeShare(ctx context.Context, code string) error {
	return c.do(ctx, http.MethodDelete, "/api/shares/"+url.PathEscape(code), true, nil, nil)
}

// Redeem fetches the contact behind a share code. No session is needed.
func (c *Client) Redeem(ctx context.Context, code string) (*models.SharedContact, error) {
	var shared models.SharedContact
	if err := c.do(ctx, http.MethodGet, "/api/share/"+url.PathEscape(code), false, nil, &shared); err != nil {
		return nil, err
	}
	return &shared, nil
}

// Export returns every readable contact without server ids.
func (c *Client) Export(ctx context.Context) ([]models.ContactData, error) {
	var contacts []models.ContactData
	if err := c.do(ctx, http.MethodGet, "/api/contacts/export", true, nil, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// Import uploads contacts and returns how many the server accepted.
func (c *Client) Import(ctx context.Context, contacts []models.ContactData) (int, error) {
	var res struct {
		Imported int `json:"imported"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/contacts/import", true,
		map[string][]models.ContactData{"contacts": contacts}, &res); err != nil {
		return 0, err
	}
	return res.Imported, nil
}

func (c *Client) do(ctx context.Context, method, path string, authed bool, in, out any) error {
	if authed && c.Token == "" {
		return ErrNotLoggedIn
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.BaseURL, "/")+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
