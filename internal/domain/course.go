package domain

import "time"

type Course struct {
	ID            string
	Title         string
	Instructor    string
	Description   string
	AverageRating float64 // denormalized, 0–5, one decimal
	TotalReviews  int
	CreatedAt     time.Time
}

// CourseSummary is the derived pair materialized onto the course document.
// It is written only by the rating service's recompute step.
type CourseSummary struct {
	AverageRating float64
	TotalReviews  int
}

type User struct {
	ID    string
	Name  string
	Email string
}

type Session struct {
	ID        string
	UserID    string
	Secret    string
	ExpiresAt time.Time
}
