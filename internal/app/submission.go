package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"course_review/internal/domain"
)

// AuthReader is the slice of the auth-state projection the workflow needs.
type AuthReader interface {
	// CurrentUser reports the acting user; ok is false while the projection
	// is unknown or anonymous.
	CurrentUser() (domain.User, bool)
}

// Submission phases. An attempt walks Idle → Validating → Submitting and ends
// in Succeeded or Failed; there is no automatic retry.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseSubmitting
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// FailureKind separates what the user can fix inline (validation), what needs
// the update path instead (duplicate), and what is out of their hands (store).
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureValidation
	FailureDuplicate
	FailureStore
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureValidation:
		return "validation"
	case FailureDuplicate:
		return "duplicate"
	case FailureStore:
		return "store"
	}
	return "unknown"
}

type Outcome struct {
	Phase   Phase
	Failure FailureKind
	Message string // human-readable reason when Failed
	Review  domain.Review
	// NavigateAway tells the caller to leave the form after success.
	NavigateAway bool
}

// DefaultMinContentLen is the reference review-length policy.
const DefaultMinContentLen = 20

// SubmissionWorkflow validates a review attempt and hands it to the rating
// service. Each call to Submit is one independent attempt.
type SubmissionWorkflow struct {
	ratings    *RatingService
	auth       AuthReader
	minContent int
}

func NewSubmissionWorkflow(ratings *RatingService, auth AuthReader, minContent int) *SubmissionWorkflow {
	if minContent <= 0 {
		minContent = DefaultMinContentLen
	}
	return &SubmissionWorkflow{ratings: ratings, auth: auth, minContent: minContent}
}

// Submit runs one attempt. Stars arrive as a float straight from the form
// payload; the unset sentinel is 0 and fractional values are rejected here,
// before the engine sees them.
func (w *SubmissionWorkflow) Submit(ctx context.Context, courseID string, stars float64, content string) Outcome {
	// Validating
	if stars == 0 {
		return failed(FailureValidation, "rating is required")
	}
	if stars != math.Trunc(stars) {
		return failed(FailureValidation, "rating must be a whole number of stars")
	}
	if len(strings.TrimSpace(content)) < w.minContent {
		return failed(FailureValidation, fmt.Sprintf("review must be at least %d characters", w.minContent))
	}
	user, ok := w.auth.CurrentUser()
	if !ok {
		return failed(FailureValidation, "log in to submit a review")
	}

	// Submitting
	review, err := w.ratings.SubmitRating(ctx, courseID, user.ID, user.Name, int(stars), content)
	if err != nil {
		return classify(err)
	}

	return Outcome{Phase: PhaseSucceeded, Review: review, NavigateAway: true}
}

func failed(kind FailureKind, msg string) Outcome {
	return Outcome{Phase: PhaseFailed, Failure: kind, Message: msg}
}

func classify(err error) Outcome {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return failed(FailureValidation, verr.Error())
	case errors.Is(err, domain.ErrDuplicateReview):
		return failed(FailureDuplicate, "you already reviewed this course, edit your existing review instead")
	default:
		// network vs. permission failure only matters in the logs
		log.Error().Err(err).Msg("review submission store failure")
		return failed(FailureStore, "could not submit your review, try again later")
	}
}
