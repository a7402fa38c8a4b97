package domain

import (
	"context"
	"time"
)

// Collections referenced by the core.
const (
	CollectionCourses = "courses"
	CollectionReviews = "reviews"
)

// Document is a raw record from the document store. Fields holds the
// collection-specific payload; mapping to domain types happens in the app layer.
type Document struct {
	ID        string
	CreatedAt time.Time
	Fields    map[string]any
}

// Query is a list predicate understood by every DocumentStore implementation.
// Only equality and order-by-descending are required by the core.
type Query struct {
	Method    string // "equal" | "orderDesc"
	Attribute string
	Value     any // nil for orderDesc
}

func Equal(attribute string, value any) Query {
	return Query{Method: "equal", Attribute: attribute, Value: value}
}

func OrderDesc(attribute string) Query {
	return Query{Method: "orderDesc", Attribute: attribute}
}

// DocumentStore is the persistence contract consumed from the external
// document database (or the self-hosted MySQL fallback).
type DocumentStore interface {
	// CreateDocument inserts a document. Pass id == "" for a store-generated ID.
	CreateDocument(ctx context.Context, collection, id string, fields map[string]any) (Document, error)
	GetDocument(ctx context.Context, collection, id string) (Document, error)
	ListDocuments(ctx context.Context, collection string, queries ...Query) ([]Document, error)
	// UpdateDocument applies a partial update; absent fields keep their value.
	UpdateDocument(ctx context.Context, collection, id string, fields map[string]any) (Document, error)
	DeleteDocument(ctx context.Context, collection, id string) error
}

// SessionStore is the contract consumed from the external auth service.
type SessionStore interface {
	// CreateAccount registers a user. The caller is expected to follow up
	// with CreateSession (registration logs the user straight in).
	CreateAccount(ctx context.Context, email, password, name string) (User, error)
	CreateSession(ctx context.Context, email, password string) (Session, error)
	// GetCurrentUser returns ErrNotFound when there is no live session.
	GetCurrentUser(ctx context.Context) (User, error)
	// DestroySession is best-effort; callers treat failure as non-fatal.
	DestroySession(ctx context.Context) error
	// FederatedLoginURL builds the provider redirect; the handshake itself
	// is the provider's business.
	FederatedLoginURL(provider, successURL, failureURL string) (string, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
