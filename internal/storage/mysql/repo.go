// Package mysql is the self-hosted alternative to the managed document
// database. It stores every collection in one schemaless `documents` table
// and evaluates the same equality/order predicates the managed API accepts.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"course_review/internal/domain"
)

type Store struct{ db *sql.DB }

func New(db *sql.DB) *Store { return &Store{db: db} }

// attrPattern keeps JSON paths built from query attributes injection-safe.
var attrPattern = regexp.MustCompile(`^\$?[a-zA-Z][a-zA-Z0-9_]*$`)

func (s *Store) CreateDocument(ctx context.Context, collection, id string, fields map[string]any) (domain.Document, error) {
	if id == "" {
		id = uuid.NewString()
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return domain.Document{}, &domain.StoreError{Op: "mysql.CreateDocument", Err: err}
	}
	if _, err := s.db.ExecContext(ctx, insertDocumentSQL, collection, id, string(payload)); err != nil {
		return domain.Document{}, mapExecErr("mysql.CreateDocument", err)
	}
	return s.GetDocument(ctx, collection, id)
}

func (s *Store) GetDocument(ctx context.Context, collection, id string) (domain.Document, error) {
	row := s.db.QueryRowContext(ctx, getDocumentSQL, collection, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Document{}, domain.ErrNotFound
		}
		return domain.Document{}, &domain.StoreError{Op: "mysql.GetDocument", Err: err}
	}
	return doc, nil
}

func (s *Store) ListDocuments(ctx context.Context, collection string, queries ...domain.Query) ([]domain.Document, error) {
	sqlStr, args, err := buildList(collection, queries)
	if err != nil {
		return nil, &domain.StoreError{Op: "mysql.ListDocuments", Err: err}
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, &domain.StoreError{Op: "mysql.ListDocuments", Err: err}
	}
	defer rows.Close()

	var out []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, &domain.StoreError{Op: "mysql.ListDocuments", Err: err}
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "mysql.ListDocuments", Err: err}
	}
	return out, nil
}

func (s *Store) UpdateDocument(ctx context.Context, collection, id string, fields map[string]any) (domain.Document, error) {
	patch, err := json.Marshal(fields)
	if err != nil {
		return domain.Document{}, &domain.StoreError{Op: "mysql.UpdateDocument", Err: err}
	}
	// RowsAffected is 0 both for "missing" and "no change", so the follow-up
	// read is what reports absence.
	if _, err := s.db.ExecContext(ctx, updateDocumentSQL, string(patch), collection, id); err != nil {
		return domain.Document{}, mapExecErr("mysql.UpdateDocument", err)
	}
	return s.GetDocument(ctx, collection, id)
}

func (s *Store) DeleteDocument(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx, deleteDocumentSQL, collection, id)
	if err != nil {
		return &domain.StoreError{Op: "mysql.DeleteDocument", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ---- helpers ----

type rowScanner interface{ Scan(dst ...any) error }

func scanDocument(row rowScanner) (domain.Document, error) {
	var doc domain.Document
	var raw []byte
	if err := row.Scan(&doc.ID, &raw, &doc.CreatedAt); err != nil {
		return domain.Document{}, err
	}
	if err := json.Unmarshal(raw, &doc.Fields); err != nil {
		return domain.Document{}, fmt.Errorf("decode fields of %s: %w", doc.ID, err)
	}
	return doc, nil
}

func buildList(collection string, queries []domain.Query) (string, []any, error) {
	var b strings.Builder
	b.WriteString(listDocumentsPrefix)
	args := []any{collection}
	orderBy := ""

	for _, q := range queries {
		switch q.Method {
		case "equal":
			expr, err := attrExpr(q.Attribute)
			if err != nil {
				return "", nil, err
			}
			b.WriteString(" AND " + expr + " = ?")
			args = append(args, fmt.Sprint(q.Value))
		case "orderDesc":
			expr, err := attrExpr(q.Attribute)
			if err != nil {
				return "", nil, err
			}
			orderBy = " ORDER BY " + expr + " DESC, id DESC"
		default:
			return "", nil, fmt.Errorf("unsupported query method %q", q.Method)
		}
	}
	if orderBy == "" {
		orderBy = " ORDER BY created_at ASC, id ASC"
	}
	b.WriteString(orderBy)
	return b.String(), args, nil
}

// attrExpr maps a query attribute onto a SQL expression. System attributes
// ($id, $createdAt) hit real columns; everything else goes through the JSON
// payload.
func attrExpr(attr string) (string, error) {
	if !attrPattern.MatchString(attr) {
		return "", fmt.Errorf("bad query attribute %q", attr)
	}
	switch attr {
	case "$id":
		return "id", nil
	case "$createdAt":
		return "created_at", nil
	default:
		return "JSON_UNQUOTE(JSON_EXTRACT(fields, '$." + attr + "'))", nil
	}
}

func mapExecErr(op string, err error) error {
	var me *gomysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 && strings.Contains(me.Message, "uniq_review_per_user") {
		return domain.ErrDuplicateReview
	}
	return &domain.StoreError{Op: op, Err: err}
}
