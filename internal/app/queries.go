package app

import (
	"context"
	"encoding/json"
	"time"

	"course_review/internal/domain"
)

// CourseQueryService is the read side: course catalog, course detail, and
// review lists, served from cache when possible. Writes go through
// RatingService, which invalidates these keys after every recompute.
type CourseQueryService struct {
	store    domain.DocumentStore
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewCourseQueryService(store domain.DocumentStore, cache domain.Cache, ttl time.Duration) *CourseQueryService {
	return &CourseQueryService{store: store, cache: cache, cacheTTL: ttl}
}

func (s *CourseQueryService) GetCourse(ctx context.Context, id string) (domain.Course, error) {
	key := "course:" + id
	var c domain.Course
	if ok, _ := s.cache.Get(ctx, key, &c); ok {
		return c, nil
	}
	doc, err := s.store.GetDocument(ctx, domain.CollectionCourses, id)
	if err != nil {
		return domain.Course{}, err
	}
	c = mapCourse(doc)
	_ = s.cache.Set(ctx, key, c, int(s.cacheTTL.Seconds()))
	return c, nil
}

func (s *CourseQueryService) ListCourses(ctx context.Context) ([]domain.Course, error) {
	key := "courses:list"
	var out []domain.Course
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	docs, err := s.store.ListDocuments(ctx, domain.CollectionCourses, domain.OrderDesc("$createdAt"))
	if err != nil {
		return nil, err
	}
	out = make([]domain.Course, 0, len(docs))
	for _, d := range docs {
		out = append(out, mapCourse(d))
	}
	s.cacheList(ctx, key, out)
	return copyCourses(out), nil
}

func (s *CourseQueryService) ListCourseReviews(ctx context.Context, courseID string) ([]domain.Review, error) {
	key := "reviews:" + courseID
	var out []domain.Review
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	docs, err := s.store.ListDocuments(ctx, domain.CollectionReviews,
		domain.Equal("courseId", courseID),
		domain.OrderDesc("$createdAt"),
	)
	if err != nil {
		return nil, err
	}
	out = mapReviews(docs)
	s.cacheList(ctx, key, out)
	return out, nil
}

// cacheList stores a slice with a size guard so one oversized payload cannot
// crowd out the rest of the cache.
func (s *CourseQueryService) cacheList(ctx context.Context, key string, v any) {
	if b, _ := json.Marshal(v); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds()))
	}
}

// copy to avoid aliasing the cached backing array
func copyCourses(in []domain.Course) []domain.Course {
	out := make([]domain.Course, len(in))
	copy(out, in)
	return out
}
