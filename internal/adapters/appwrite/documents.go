// internal/adapters/appwrite/documents.go
package appwrite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"course_review/internal/domain"
)

// Documents implements domain.DocumentStore against one database of the
// managed service. Collection names map 1:1 to remote collection IDs.
type Documents struct {
	c          *Client
	databaseID string
}

func NewDocuments(c *Client, databaseID string) (*Documents, error) {
	if databaseID == "" {
		return nil, fmt.Errorf("database ID is required")
	}
	return &Documents{c: c, databaseID: databaseID}, nil
}

// rawDocument is the wire shape: system attributes are $-prefixed and sit
// next to the user fields.
type rawDocument map[string]any

func (d *Documents) collectionPath(collection string) string {
	return "/v1/databases/" + url.PathEscape(d.databaseID) + "/collections/" + url.PathEscape(collection) + "/documents"
}

func (d *Documents) CreateDocument(ctx context.Context, collection, id string, fields map[string]any) (domain.Document, error) {
	if id == "" {
		id = "unique()" // server-generated ID
	}
	body := map[string]any{"documentId": id, "data": fields}
	var raw rawDocument
	if err := d.c.do(ctx, "POST", d.collectionPath(collection), body, &raw); err != nil {
		return domain.Document{}, mapDocErr("create document", err)
	}
	return toDocument(raw), nil
}

func (d *Documents) GetDocument(ctx context.Context, collection, id string) (domain.Document, error) {
	var raw rawDocument
	if err := d.c.do(ctx, "GET", d.collectionPath(collection)+"/"+url.PathEscape(id), nil, &raw); err != nil {
		return domain.Document{}, mapDocErr("get document", err)
	}
	return toDocument(raw), nil
}

func (d *Documents) ListDocuments(ctx context.Context, collection string, queries ...domain.Query) ([]domain.Document, error) {
	path := d.collectionPath(collection)
	if len(queries) > 0 {
		vals := url.Values{}
		for _, q := range queries {
			enc, err := encodeQuery(q)
			if err != nil {
				return nil, err
			}
			vals.Add("queries[]", enc)
		}
		path += "?" + vals.Encode()
	}
	var out struct {
		Total     int           `json:"total"`
		Documents []rawDocument `json:"documents"`
	}
	if err := d.c.do(ctx, "GET", path, nil, &out); err != nil {
		return nil, mapDocErr("list documents", err)
	}
	docs := make([]domain.Document, 0, len(out.Documents))
	for _, raw := range out.Documents {
		docs = append(docs, toDocument(raw))
	}
	return docs, nil
}

func (d *Documents) UpdateDocument(ctx context.Context, collection, id string, fields map[string]any) (domain.Document, error) {
	body := map[string]any{"data": fields}
	var raw rawDocument
	if err := d.c.do(ctx, "PATCH", d.collectionPath(collection)+"/"+url.PathEscape(id), body, &raw); err != nil {
		return domain.Document{}, mapDocErr("update document", err)
	}
	return toDocument(raw), nil
}

func (d *Documents) DeleteDocument(ctx context.Context, collection, id string) error {
	if err := d.c.do(ctx, "DELETE", d.collectionPath(collection)+"/"+url.PathEscape(id), nil, nil); err != nil {
		return mapDocErr("delete document", err)
	}
	return nil
}

// encodeQuery renders a predicate in the service's JSON query syntax.
func encodeQuery(q domain.Query) (string, error) {
	switch q.Method {
	case "equal":
		b, err := json.Marshal(map[string]any{
			"method":    "equal",
			"attribute": q.Attribute,
			"values":    []any{q.Value},
		})
		return string(b), err
	case "orderDesc":
		b, err := json.Marshal(map[string]any{
			"method":    "orderDesc",
			"attribute": q.Attribute,
		})
		return string(b), err
	default:
		return "", fmt.Errorf("unsupported query method %q", q.Method)
	}
}

// toDocument splits the $-prefixed system attributes from the payload fields.
func toDocument(raw rawDocument) domain.Document {
	doc := domain.Document{Fields: make(map[string]any, len(raw))}
	for k, v := range raw {
		if !strings.HasPrefix(k, "$") {
			doc.Fields[k] = v
			continue
		}
		switch k {
		case "$id":
			if s, ok := v.(string); ok {
				doc.ID = s
			}
		case "$createdAt":
			if s, ok := v.(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					doc.CreatedAt = t
				}
			}
		}
	}
	return doc
}

func mapDocErr(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return domain.ErrNotFound
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrForbidden):
		return &domain.StoreError{Op: op, Status: statusOf(err), Err: err}
	default:
		return &domain.StoreError{Op: op, Err: err}
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return 401
	case errors.Is(err, ErrForbidden):
		return 403
	case errors.Is(err, ErrConflict):
		return 409
	}
	return 0
}
