package app

import (
	"math"

	"course_review/internal/domain"
)

/********** alias registries (single source of truth) **********/

// The managed backend grew its schema organically; older documents use
// different attribute names for the same thing. Lookups try aliases in order.

var reviewAliases = map[string][]string{
	"content":  {"content", "reviewText", "text", "review"},
	"stars":    {"stars", "rating", "score"},
	"userId":   {"userId", "user_id"},
	"username": {"username", "userName", "name"},
	"courseId": {"courseId", "course_id"},
}

var courseAliases = map[string][]string{
	"title":        {"title", "name"},
	"instructor":   {"instructor", "teacher", "author"},
	"description":  {"description", "summary"},
	"rating":       {"rating", "averageRating", "average_rating"},
	"totalReviews": {"totalReviews", "total_reviews", "reviewCount"},
}

/********** tiny helpers **********/

// lookupStr returns the first non-empty string among the aliases, or "".
func lookupStr(fields map[string]any, aliases []string) string {
	for _, k := range aliases {
		if s, ok := fields[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// lookupFloat returns the first numeric value among the aliases.
// JSON decoding hands back float64; ints appear when fields were set locally.
func lookupFloat(fields map[string]any, aliases []string) (float64, bool) {
	for _, k := range aliases {
		switch v := fields[k].(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		}
	}
	return 0, false
}

func lookupInt(fields map[string]any, aliases []string) int {
	f, ok := lookupFloat(fields, aliases)
	if !ok {
		return 0
	}
	return int(math.Round(f))
}

/********** document -> domain **********/

func mapReview(doc domain.Document) domain.Review {
	return domain.Review{
		ID:        doc.ID,
		CourseID:  lookupStr(doc.Fields, reviewAliases["courseId"]),
		UserID:    lookupStr(doc.Fields, reviewAliases["userId"]),
		Username:  lookupStr(doc.Fields, reviewAliases["username"]),
		Stars:     lookupInt(doc.Fields, reviewAliases["stars"]),
		Content:   lookupStr(doc.Fields, reviewAliases["content"]),
		CreatedAt: doc.CreatedAt,
	}
}

func mapReviews(docs []domain.Document) []domain.Review {
	out := make([]domain.Review, 0, len(docs))
	for _, d := range docs {
		out = append(out, mapReview(d))
	}
	return out
}

func mapCourse(doc domain.Document) domain.Course {
	rating, _ := lookupFloat(doc.Fields, courseAliases["rating"])
	return domain.Course{
		ID:            doc.ID,
		Title:         lookupStr(doc.Fields, courseAliases["title"]),
		Instructor:    lookupStr(doc.Fields, courseAliases["instructor"]),
		Description:   lookupStr(doc.Fields, courseAliases["description"]),
		AverageRating: rating,
		TotalReviews:  lookupInt(doc.Fields, courseAliases["totalReviews"]),
		CreatedAt:     doc.CreatedAt,
	}
}
