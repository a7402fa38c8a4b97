//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"course_review/internal/domain"
	mysqlstore "course_review/internal/storage/mysql"
)

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/migrations)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=course_review",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "course_review")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func TestStore_MySQL_DocumentLifecycle(t *testing.T) {
	db := startMySQL(t)
	store := mysqlstore.New(db)
	ctx := context.Background()

	// auto-generated ID
	course, err := store.CreateDocument(ctx, domain.CollectionCourses, "", map[string]any{
		"title": "Databases", "instructor": "Prof. J", "description": "relational fundamentals",
		"rating": 0.0, "totalReviews": 0,
	})
	if err != nil {
		t.Fatalf("CreateDocument course: %v", err)
	}
	if course.ID == "" || course.CreatedAt.IsZero() {
		t.Fatalf("course missing system attributes: %+v", course)
	}

	// two reviews from different users, then list by predicate
	for i, user := range []string{"u1", "u2"} {
		_, err := store.CreateDocument(ctx, domain.CollectionReviews, "", map[string]any{
			"courseId": course.ID, "userId": user, "username": "User " + user,
			"stars": 3 + i, "content": "long enough review content here",
		})
		if err != nil {
			t.Fatalf("CreateDocument review %s: %v", user, err)
		}
	}

	docs, err := store.ListDocuments(ctx, domain.CollectionReviews,
		domain.Equal("courseId", course.ID), domain.OrderDesc("$createdAt"))
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d reviews, want 2", len(docs))
	}
	if docs[0].CreatedAt.Before(docs[1].CreatedAt) {
		t.Fatalf("reviews not newest-first: %v then %v", docs[0].CreatedAt, docs[1].CreatedAt)
	}

	// same (course, user) pair again trips the unique key
	_, err = store.CreateDocument(ctx, domain.CollectionReviews, "", map[string]any{
		"courseId": course.ID, "userId": "u1", "username": "User u1",
		"stars": 5, "content": "trying to sneak in a second one",
	})
	if !errors.Is(err, domain.ErrDuplicateReview) {
		t.Fatalf("duplicate err = %v, want ErrDuplicateReview", err)
	}

	// a second course is untouched by the review constraint
	if _, err := store.CreateDocument(ctx, domain.CollectionCourses, "", map[string]any{
		"title": "Networks", "instructor": "Prof. K", "description": "packets",
		"rating": 0.0, "totalReviews": 0,
	}); err != nil {
		t.Fatalf("second course blocked: %v", err)
	}

	// partial update leaves unnamed fields alone
	updated, err := store.UpdateDocument(ctx, domain.CollectionCourses, course.ID, map[string]any{
		"rating": 3.5, "totalReviews": 2,
	})
	if err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}
	if updated.Fields["title"] != "Databases" {
		t.Fatalf("title lost on partial update: %v", updated.Fields["title"])
	}
	if got, _ := updated.Fields["rating"].(float64); got != 3.5 {
		t.Fatalf("rating = %v, want 3.5", updated.Fields["rating"])
	}

	// equality on a JSON attribute
	mine, err := store.ListDocuments(ctx, domain.CollectionReviews,
		domain.Equal("courseId", course.ID), domain.Equal("userId", "u2"))
	if err != nil {
		t.Fatalf("ListDocuments by user: %v", err)
	}
	if len(mine) != 1 || mine[0].Fields["userId"] != "u2" {
		t.Fatalf("unexpected result: %+v", mine)
	}

	// delete, then verify absence on both read paths
	if err := store.DeleteDocument(ctx, domain.CollectionReviews, mine[0].ID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if err := store.DeleteDocument(ctx, domain.CollectionReviews, mine[0].ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
	if _, err := store.GetDocument(ctx, domain.CollectionReviews, mine[0].ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetDocument after delete err = %v, want ErrNotFound", err)
	}
}
