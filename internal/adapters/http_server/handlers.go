// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"course_review/internal/app"
	"course_review/internal/authstate"
	"course_review/internal/domain"
)

type Handlers struct {
	Q    *app.CourseQueryService
	R    *app.RatingService
	W    *app.SubmissionWorkflow
	Auth *authstate.Projection

	// where the OAuth provider sends the browser afterwards
	OAuthSuccessURL string
	OAuthFailureURL string
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Get("/v1/courses", h.listCourses)
	s.mux.Get("/v1/courses/{id}", h.getCourse)
	s.mux.Get("/v1/courses/{id}/reviews", h.listCourseReviews)

	s.mux.Post("/v1/account", h.register)
	s.mux.Post("/v1/session", h.login)
	s.mux.Get("/v1/session", h.session)
	s.mux.Delete("/v1/session", h.logout)
	s.mux.Post("/v1/session/resume", h.resumeSession)
	s.mux.Get("/v1/session/oauth/{provider}", h.oauthRedirect)

	s.mux.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.Auth))
		r.Post("/v1/courses/{id}/reviews", h.submitReview)
		r.Get("/v1/courses/{id}/reviews/mine", h.myReview)
		r.Patch("/v1/reviews/{id}", h.updateReview)
		r.Delete("/v1/reviews/{id}", h.deleteReview)
	})
}

/********** wire DTOs **********/

type courseResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Instructor   string    `json:"instructor"`
	Description  string    `json:"description"`
	Rating       float64   `json:"rating"`
	TotalReviews int       `json:"totalReviews"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toCourseResponse(c domain.Course) courseResponse {
	return courseResponse{
		ID: c.ID, Title: c.Title, Instructor: c.Instructor, Description: c.Description,
		Rating: c.AverageRating, TotalReviews: c.TotalReviews, CreatedAt: c.CreatedAt,
	}
}

type reviewResponse struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"courseId"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Stars     int       `json:"stars"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func toReviewResponse(rev domain.Review) reviewResponse {
	return reviewResponse{
		ID: rev.ID, CourseID: rev.CourseID, UserID: rev.UserID, Username: rev.Username,
		Stars: rev.Stars, Content: rev.Content, CreatedAt: rev.CreatedAt,
	}
}

func toReviewResponses(revs []domain.Review) []reviewResponse {
	out := make([]reviewResponse, 0, len(revs))
	for _, r := range revs {
		out = append(out, toReviewResponse(r))
	}
	return out
}

/********** shared writers **********/

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// writeError maps the domain error taxonomy onto HTTP. Backend failures stay
// generic for the client; the real cause goes to the log only.
func writeError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	var serr *domain.StoreError
	switch {
	case errors.As(err, &verr):
		writeProblem(w, http.StatusBadRequest, "Invalid Input", verr.Error())
	case errors.Is(err, domain.ErrDuplicateReview):
		writeProblem(w, http.StatusConflict, "Already Reviewed", "you already reviewed this course, edit your existing review instead")
	case errors.Is(err, domain.ErrUnauthenticated):
		writeProblem(w, http.StatusUnauthorized, "Login Required", "log in to use this endpoint")
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "")
	case errors.As(err, &serr):
		log.Error().Err(err).Int("upstream_status", serr.Status).Msg("store failure")
		writeProblem(w, http.StatusBadGateway, "Backend Unavailable", "the operation could not be completed, try again later")
	default:
		log.Error().Err(err).Msg("unhandled error")
		writeProblem(w, http.StatusBadGateway, "Backend Unavailable", "the operation could not be completed, try again later")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeCachedJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

/********** course reads **********/

func (h *Handlers) listCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.Q.ListCourses(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]courseResponse, 0, len(courses))
	for _, c := range courses {
		out = append(out, toCourseResponse(c))
	}
	writeCachedJSON(w, r, out)
}

func (h *Handlers) getCourse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	course, err := h.Q.GetCourse(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "course not found")
			return
		}
		writeError(w, err)
		return
	}
	writeCachedJSON(w, r, toCourseResponse(course))
}

func (h *Handlers) listCourseReviews(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	reviews, err := h.Q.ListCourseReviews(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCachedJSON(w, r, toReviewResponses(reviews))
}

/********** review writes **********/

type submitReviewRequest struct {
	Stars   float64 `json:"stars"` // 0 = not selected
	Content string  `json:"content"`
}

func (h *Handlers) submitReview(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "id")
	var req submitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Input", "body must be JSON with stars and content")
		return
	}

	out := h.W.Submit(r.Context(), courseID, req.Stars, req.Content)
	switch out.Failure {
	case app.FailureNone:
		writeJSON(w, http.StatusCreated, toReviewResponse(out.Review))
	case app.FailureValidation:
		writeProblem(w, http.StatusBadRequest, "Invalid Input", out.Message)
	case app.FailureDuplicate:
		writeProblem(w, http.StatusConflict, "Already Reviewed", out.Message)
	default:
		writeProblem(w, http.StatusBadGateway, "Backend Unavailable", out.Message)
	}
}

func (h *Handlers) myReview(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "id")
	user, ok := h.Auth.CurrentUser()
	if !ok {
		writeError(w, domain.ErrUnauthenticated)
		return
	}
	rev, err := h.R.GetUserCourseRating(r.Context(), courseID, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// normal state, rendered as an explicit empty slot
			writeProblem(w, http.StatusNotFound, "No Review Yet", "you have not reviewed this course")
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewResponse(rev))
}

type updateReviewRequest struct {
	Stars   *float64 `json:"stars"`
	Content *string  `json:"content"`
}

// owned loads the review and verifies the acting user wrote it. The rating
// service itself does not re-check ownership, so the boundary has to.
func (h *Handlers) owned(w http.ResponseWriter, r *http.Request, reviewID string) (domain.Review, bool) {
	user, ok := h.Auth.CurrentUser()
	if !ok {
		writeError(w, domain.ErrUnauthenticated)
		return domain.Review{}, false
	}
	rev, err := h.R.GetRating(r.Context(), reviewID)
	if err != nil {
		writeError(w, err)
		return domain.Review{}, false
	}
	if rev.UserID != user.ID {
		writeProblem(w, http.StatusForbidden, "Not Your Review", "only the author can change a review")
		return domain.Review{}, false
	}
	return rev, true
}

func (h *Handlers) updateReview(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "id")
	var req updateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Input", "body must be JSON")
		return
	}
	if _, ok := h.owned(w, r, reviewID); !ok {
		return
	}

	var patch domain.ReviewPatch
	if req.Stars != nil {
		if *req.Stars != math.Trunc(*req.Stars) {
			writeProblem(w, http.StatusBadRequest, "Invalid Input", "stars must be a whole number")
			return
		}
		s := int(*req.Stars)
		patch.Stars = &s
	}
	patch.Content = req.Content

	rev, err := h.R.UpdateRating(r.Context(), reviewID, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewResponse(rev))
}

func (h *Handlers) deleteReview(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "id")

	user, ok := h.Auth.CurrentUser()
	if !ok {
		writeError(w, domain.ErrUnauthenticated)
		return
	}
	rev, err := h.R.GetRating(r.Context(), reviewID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			w.WriteHeader(http.StatusNoContent) // already gone
			return
		}
		writeError(w, err)
		return
	}
	if rev.UserID != user.ID {
		writeProblem(w, http.StatusForbidden, "Not Your Review", "only the author can delete a review")
		return
	}

	if _, err := h.R.DeleteRating(r.Context(), reviewID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
