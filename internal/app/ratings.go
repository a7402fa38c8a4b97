package app

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"course_review/internal/adapters/observability"
	"course_review/internal/domain"
)

// RatingService keeps a course's denormalized summary (rating, totalReviews)
// consistent with its review set, and enforces one review per user per course.
//
// The summary is always recomputed from scratch from the full review set,
// never adjusted incrementally: a failed write can leave the summary stale for
// one cycle, but the next recompute heals it from the source of truth.
type RatingService struct {
	store domain.DocumentStore
	cache domain.Cache
}

func NewRatingService(store domain.DocumentStore, cache domain.Cache) *RatingService {
	return &RatingService{store: store, cache: cache}
}

func validStars(stars int) error {
	if stars < 1 || stars > 5 {
		return &domain.ValidationError{Field: "stars", Reason: fmt.Sprintf("must be between 1 and 5, got %d", stars)}
	}
	return nil
}

// SubmitRating inserts a review and recomputes the course summary.
//
// The duplicate check is an equality query followed by an insert; between the
// two a concurrent submission can slip in. True at-most-one enforcement needs
// a uniqueness constraint at the store (the MySQL store carries one; the
// managed backend does not).
func (s *RatingService) SubmitRating(ctx context.Context, courseID, userID, username string, stars int, content string) (domain.Review, error) {
	if err := validStars(stars); err != nil {
		return domain.Review{}, err
	}
	if courseID == "" {
		return domain.Review{}, &domain.ValidationError{Field: "courseId", Reason: "required"}
	}
	if userID == "" {
		return domain.Review{}, &domain.ValidationError{Field: "userId", Reason: "required"}
	}

	existing, err := s.store.ListDocuments(ctx, domain.CollectionReviews,
		domain.Equal("courseId", courseID),
		domain.Equal("userId", userID),
	)
	if err != nil {
		return domain.Review{}, err
	}
	if len(existing) > 0 {
		return domain.Review{}, domain.ErrDuplicateReview
	}

	doc, err := s.store.CreateDocument(ctx, domain.CollectionReviews, "", map[string]any{
		"courseId": courseID,
		"userId":   userID,
		"username": username,
		"stars":    stars,
		"content":  content,
	})
	if err != nil {
		// the store-level unique index (when present) closes the race above
		if errors.Is(err, domain.ErrDuplicateReview) {
			return domain.Review{}, domain.ErrDuplicateReview
		}
		return domain.Review{}, err
	}

	if _, err := s.RecomputeCourseSummary(ctx, courseID); err != nil {
		// review is in; summary heals on the next recompute
		log.Warn().Str("courseId", courseID).Err(err).Msg("summary recompute after submit failed")
	}
	return mapReview(doc), nil
}

// UpdateRating applies a partial update (stars and/or content) and recomputes
// the owning course's summary. Ownership is the caller's problem: whoever
// invokes this must already have verified the review belongs to the acting user.
func (s *RatingService) UpdateRating(ctx context.Context, reviewID string, patch domain.ReviewPatch) (domain.Review, error) {
	if patch.Empty() {
		return domain.Review{}, &domain.ValidationError{Field: "patch", Reason: "no fields to update"}
	}
	fields := map[string]any{}
	if patch.Stars != nil {
		if err := validStars(*patch.Stars); err != nil {
			return domain.Review{}, err
		}
		fields["stars"] = *patch.Stars
	}
	if patch.Content != nil {
		fields["content"] = *patch.Content
	}

	doc, err := s.store.UpdateDocument(ctx, domain.CollectionReviews, reviewID, fields)
	if err != nil {
		return domain.Review{}, err
	}
	rev := mapReview(doc)

	if rev.CourseID != "" {
		if _, err := s.RecomputeCourseSummary(ctx, rev.CourseID); err != nil {
			log.Warn().Str("courseId", rev.CourseID).Err(err).Msg("summary recompute after update failed")
		}
	}
	return rev, nil
}

// DeleteRating removes a review and recomputes the owning course's summary.
// Deleting a review that is already gone reports false without an error.
func (s *RatingService) DeleteRating(ctx context.Context, reviewID string) (bool, error) {
	doc, err := s.store.GetDocument(ctx, domain.CollectionReviews, reviewID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	courseID := lookupStr(doc.Fields, reviewAliases["courseId"])

	if err := s.store.DeleteDocument(ctx, domain.CollectionReviews, reviewID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if courseID != "" {
		if _, err := s.RecomputeCourseSummary(ctx, courseID); err != nil {
			log.Warn().Str("courseId", courseID).Err(err).Msg("summary recompute after delete failed")
		}
	}
	return true, nil
}

// RecomputeCourseSummary lists every review for the course and persists the
// freshly computed average (one decimal) and count onto the course document.
// Pure function of the current review set; calling it twice changes nothing.
func (s *RatingService) RecomputeCourseSummary(ctx context.Context, courseID string) (domain.CourseSummary, error) {
	summary, err := s.recompute(ctx, courseID)
	observability.ObserveRecompute(err)
	return summary, err
}

func (s *RatingService) recompute(ctx context.Context, courseID string) (domain.CourseSummary, error) {
	docs, err := s.store.ListDocuments(ctx, domain.CollectionReviews,
		domain.Equal("courseId", courseID),
		domain.OrderDesc("$createdAt"),
	)
	if err != nil {
		return domain.CourseSummary{}, err
	}

	var sum int
	for _, d := range docs {
		sum += lookupInt(d.Fields, reviewAliases["stars"])
	}
	summary := domain.CourseSummary{TotalReviews: len(docs)}
	if len(docs) > 0 {
		summary.AverageRating = round1(float64(sum) / float64(len(docs)))
	}

	if _, err := s.store.UpdateDocument(ctx, domain.CollectionCourses, courseID, map[string]any{
		"rating":       summary.AverageRating,
		"totalReviews": summary.TotalReviews,
	}); err != nil {
		return domain.CourseSummary{}, err
	}

	s.invalidateCourse(ctx, courseID)
	return summary, nil
}

// GetCourseRatings returns the course's reviews, newest first.
func (s *RatingService) GetCourseRatings(ctx context.Context, courseID string) ([]domain.Review, error) {
	docs, err := s.store.ListDocuments(ctx, domain.CollectionReviews,
		domain.Equal("courseId", courseID),
		domain.OrderDesc("$createdAt"),
	)
	if err != nil {
		return nil, err
	}
	return mapReviews(docs), nil
}

// GetRating fetches one review by ID.
func (s *RatingService) GetRating(ctx context.Context, reviewID string) (domain.Review, error) {
	doc, err := s.store.GetDocument(ctx, domain.CollectionReviews, reviewID)
	if err != nil {
		return domain.Review{}, err
	}
	return mapReview(doc), nil
}

// GetUserCourseRating returns the user's review for the course, or
// domain.ErrNotFound when they have not reviewed it. Absence is normal.
func (s *RatingService) GetUserCourseRating(ctx context.Context, courseID, userID string) (domain.Review, error) {
	docs, err := s.store.ListDocuments(ctx, domain.CollectionReviews,
		domain.Equal("courseId", courseID),
		domain.Equal("userId", userID),
	)
	if err != nil {
		return domain.Review{}, err
	}
	if len(docs) == 0 {
		return domain.Review{}, domain.ErrNotFound
	}
	return mapReview(docs[0]), nil
}

func (s *RatingService) invalidateCourse(ctx context.Context, courseID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, "course:"+courseID)
	_ = s.cache.Del(ctx, "courses:list")
	_ = s.cache.Del(ctx, "reviews:"+courseID)
}

// round1 rounds to one decimal, matching what the course cards display.
func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
