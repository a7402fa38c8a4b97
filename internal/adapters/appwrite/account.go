// internal/adapters/appwrite/account.go
package appwrite

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"course_review/internal/domain"
)

// Account implements domain.SessionStore. A successful CreateSession installs
// the issued secret on the shared client, so later account and document calls
// run under that session until DestroySession clears it.
type Account struct {
	c *Client
}

func NewAccount(c *Client) *Account { return &Account{c: c} }

type rawUser struct {
	ID    string `json:"$id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type rawSession struct {
	ID     string `json:"$id"`
	UserID string `json:"userId"`
	Secret string `json:"secret"`
	Expire string `json:"expire"`
}

func (a *Account) CreateAccount(ctx context.Context, email, password, name string) (domain.User, error) {
	body := map[string]any{
		"userId":   "unique()",
		"email":    email,
		"password": password,
		"name":     name,
	}
	var raw rawUser
	if err := a.c.do(ctx, "POST", "/v1/account", body, &raw); err != nil {
		if errors.Is(err, ErrConflict) {
			return domain.User{}, &domain.ValidationError{Field: "email", Reason: "account already exists"}
		}
		return domain.User{}, &domain.StoreError{Op: "create account", Status: statusOf(err), Err: err}
	}
	return domain.User{ID: raw.ID, Name: raw.Name, Email: raw.Email}, nil
}

func (a *Account) CreateSession(ctx context.Context, email, password string) (domain.Session, error) {
	// Drop any lingering session first so the new login starts clean.
	// The original client did the same and ignored failures.
	_ = a.DestroySession(ctx)

	body := map[string]any{"email": email, "password": password}
	var raw rawSession
	if err := a.c.do(ctx, "POST", "/v1/account/sessions/email", body, &raw); err != nil {
		return domain.Session{}, &domain.StoreError{Op: "create session", Status: statusOf(err), Err: err}
	}
	a.c.SetSession(raw.Secret)

	s := domain.Session{ID: raw.ID, UserID: raw.UserID, Secret: raw.Secret}
	if t, err := time.Parse(time.RFC3339Nano, raw.Expire); err == nil {
		s.ExpiresAt = t
	}
	return s, nil
}

func (a *Account) GetCurrentUser(ctx context.Context) (domain.User, error) {
	var raw rawUser
	if err := a.c.do(ctx, "GET", "/v1/account", nil, &raw); err != nil {
		// No session (or an expired one) is a normal state, not a failure.
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthorized) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, &domain.StoreError{Op: "get current user", Status: statusOf(err), Err: err}
	}
	return domain.User{ID: raw.ID, Name: raw.Name, Email: raw.Email}, nil
}

func (a *Account) DestroySession(ctx context.Context) error {
	err := a.c.do(ctx, "DELETE", "/v1/account/sessions/current", nil, nil)
	// Local state is cleared regardless: logout is always locally effective.
	a.c.SetSession("")
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrUnauthorized) {
		return &domain.StoreError{Op: "destroy session", Status: statusOf(err), Err: err}
	}
	return nil
}

func (a *Account) FederatedLoginURL(provider, successURL, failureURL string) (string, error) {
	if provider == "" {
		return "", fmt.Errorf("provider is required")
	}
	vals := url.Values{}
	vals.Set("project", a.c.project)
	vals.Set("success", successURL)
	vals.Set("failure", failureURL)
	return a.c.endpoint + "/v1/account/sessions/oauth2/" + url.PathEscape(provider) + "?" + vals.Encode(), nil
}
