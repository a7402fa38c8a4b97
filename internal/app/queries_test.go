package app_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"course_review/internal/app"
	"course_review/internal/domain"
)

// memCache round-trips values through JSON, like the real redis adapter.
type memCache struct {
	store map[string][]byte
}

func (c *memCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, _ := json.Marshal(v)
	c.store[key] = b
	return nil
}

func (c *memCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

func TestGetCourse_CacheMissThenHit(t *testing.T) {
	store := newFakeStore()
	_, _ = store.CreateDocument(context.Background(), domain.CollectionCourses, "c1", map[string]any{
		"title": "Databases", "instructor": "Prof. M", "rating": 4.5, "totalReviews": 2,
	})
	cache := &memCache{}
	q := app.NewCourseQueryService(store, cache, 10*time.Minute)

	// Miss (first time, populates cache)
	c, err := q.GetCourse(context.Background(), "c1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if c.Title != "Databases" || c.AverageRating != 4.5 || c.TotalReviews != 2 {
		t.Fatalf("unexpected course: %+v", c)
	}

	// Mutate store to ensure second read indeed comes from cache
	_, _ = store.UpdateDocument(context.Background(), domain.CollectionCourses, "c1", map[string]any{"title": "SHOULD NOT SEE THIS"})

	c2, err := q.GetCourse(context.Background(), "c1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if c2.Title != "Databases" {
		t.Fatalf("expected cached title, got %s", c2.Title)
	}
}

func TestGetCourse_NotFound(t *testing.T) {
	q := app.NewCourseQueryService(newFakeStore(), &memCache{}, time.Minute)
	_, err := q.GetCourse(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected not-found")
	}
}

func TestListCourseReviews_Cache(t *testing.T) {
	store := newFakeStore()
	_, _ = store.CreateDocument(context.Background(), domain.CollectionReviews, "", map[string]any{
		"courseId": "c1", "userId": "u1", "username": "Ana", "stars": 5, "content": "great course overall, truly",
	})
	cache := &memCache{}
	q := app.NewCourseQueryService(store, cache, 10*time.Minute)

	out, err := q.ListCourseReviews(context.Background(), "c1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out) != 1 || out[0].Username != "Ana" || out[0].Stars != 5 {
		t.Fatalf("unexpected reviews: %+v", out)
	}

	// Add a review behind the cache's back -> still served from cache
	_, _ = store.CreateDocument(context.Background(), domain.CollectionReviews, "", map[string]any{
		"courseId": "c1", "userId": "u2", "username": "Bob", "stars": 1, "content": "changed my mind about this",
	})
	out2, _ := q.ListCourseReviews(context.Background(), "c1")
	if len(out2) != 1 {
		t.Fatalf("expected cached single review, got %d", len(out2))
	}
}

func TestListCourses_MapsAliases(t *testing.T) {
	store := newFakeStore()
	// an old-style document using divergent field names
	_, _ = store.CreateDocument(context.Background(), domain.CollectionCourses, "old", map[string]any{
		"name": "Legacy Course", "teacher": "Dr. Old", "average_rating": 3.5, "reviewCount": 7,
	})
	q := app.NewCourseQueryService(store, &memCache{}, time.Minute)

	out, err := q.ListCourses(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("len = %d", len(out))
	}
	c := out[0]
	if c.Title != "Legacy Course" || c.Instructor != "Dr. Old" || c.AverageRating != 3.5 || c.TotalReviews != 7 {
		t.Fatalf("alias mapping broken: %+v", c)
	}
}
