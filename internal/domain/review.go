package domain

import "time"

type Review struct {
	ID        string
	CourseID  string
	UserID    string
	Username  string
	Stars     int // 1–5
	Content   string
	CreatedAt time.Time // assigned by the store, immutable
}

// ReviewPatch is a partial update: nil fields are left untouched.
type ReviewPatch struct {
	Stars   *int
	Content *string
}

func (p ReviewPatch) Empty() bool { return p.Stars == nil && p.Content == nil }
