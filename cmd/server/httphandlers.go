package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/ChadIImus/Devoops/internal/middleware"
	"github.com/ChadIImus/Devoops/internal/timeline"
	"github.com/golang-jwt/jwt/v5"
)

// --- HTTP Handlers ---

// writeJSON writes v as a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeServiceError maps the core error taxonomy to HTTP statuses.
func writeServiceError(w http.ResponseWriter, module string, err error) {
	switch {
	case errors.Is(err, timeline.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, timeline.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, timeline.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		logg.Error(module, "Internal error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// registerHandler handles POST /users.
// Expects JSON body: {"username": "...", "email": "...", "display_name": "..."}
// Returns the allocated user id and a bearer token.
func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	type req struct {
		Username    string `json:"username"`
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
	}
	var body req

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		logg.Error("http/users", "Invalid request body", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if len(body.Username) > 50 {
		logg.Info("http/users", "Invalid username length")
		http.Error(w, "username must be 1-50 characters", http.StatusBadRequest)
		return
	}

	userID, err := s.svc.Register(body.Username, body.Email, body.DisplayName)
	if err != nil {
		writeServiceError(w, "http/users", err)
		return
	}

	secret := []byte(os.Getenv("JWT_SECRET"))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour * 24).Unix(),
	})
	tokenStr, err := token.SignedString(secret)
	if err != nil {
		http.Error(w, "failed to generate token", http.StatusInternalServerError)
		return
	}

	logg.Info("http/users", "User registered (username anonymized)")

	writeJSON(w, http.StatusCreated, map[string]any{
		"user_id": userID,
		"token":   tokenStr,
	})
}

// followHandler handles POST /follow.
// Expects JSON body: {"username": "<target>"}; the follower comes from the token.
func (s *Server) followHandler(w http.ResponseWriter, r *http.Request) {
	s.handleFollowChange(w, r, "http/follow", s.svc.Follow)
}

// unfollowHandler handles POST /unfollow. Removing an edge that does not
// exist still returns 200.
func (s *Server) unfollowHandler(w http.ResponseWriter, r *http.Request) {
	s.handleFollowChange(w, r, "http/unfollow", s.svc.Unfollow)
}

func (s *Server) handleFollowChange(w http.ResponseWriter, r *http.Request, module string, op func(int64, string) error) {
	type req struct {
		Username string `json:"username"`
	}
	var body req

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		logg.Error(module, "Invalid request body", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		logg.Info(module, "Unauthorized follow change attempt")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := op(userID, body.Username); err != nil {
		writeServiceError(w, module, err)
		return
	}

	logg.Info(module, "Follow graph updated (user IDs anonymized)")
	w.WriteHeader(http.StatusOK)
}

// createPostHandler handles POST /posts.
// Expects JSON body: {"text": "post content"}
// Returns JSON response with the created post.
func (s *Server) createPostHandler(w http.ResponseWriter, r *http.Request) {
	type req struct {
		Text string `json:"text"`
	}
	var body req

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		logg.Error("http/posts", "Invalid request body", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		logg.Info("http/posts", "Unauthorized post creation attempt")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if len(body.Text) > 1000 {
		logg.Info("http/posts", "Post text too long")
		http.Error(w, "post text must be 1-1000 characters", http.StatusBadRequest)
		return
	}

	post, err := s.svc.CreatePost(userID, body.Text)
	if err != nil {
		writeServiceError(w, "http/posts", err)
		return
	}

	logg.Info("http/posts", "Post created (post content anonymized)")

	writeJSON(w, http.StatusCreated, post)
}

// publicTimelineHandler handles GET /timeline/public.
func (s *Server) publicTimelineHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := s.svc.PublicTimeline()
	if err != nil {
		writeServiceError(w, "http/timeline", err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// personalTimelineHandler handles GET /timeline for the authenticated user.
func (s *Server) personalTimelineHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	posts, err := s.svc.PersonalTimeline(userID)
	if err != nil {
		writeServiceError(w, "http/timeline", err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// userTimelineHandler handles GET /timeline/{username}. The viewer id is
// taken from the bearer token when present and only affects the
// is-following flag; anonymous requests get following=false.
func (s *Server) userTimelineHandler(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	viewerID, _ := middleware.UserIDFromContext(r.Context())

	page, err := s.svc.UserTimeline(username, viewerID)
	if err != nil {
		writeServiceError(w, "http/timeline", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// getLatestHandler handles GET /latest.
func (s *Server) getLatestHandler(w http.ResponseWriter, r *http.Request) {
	value, err := s.svc.Latest()
	if err != nil {
		writeServiceError(w, "http/latest", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"latest": value})
}

// recordLatestHandler handles POST /latest.
// Expects JSON body: {"id": 2, "value": 1102}
func (s *Server) recordLatestHandler(w http.ResponseWriter, r *http.Request) {
	type req struct {
		ID    int64 `json:"id"`
		Value int64 `json:"value"`
	}
	var body req

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		logg.Error("http/latest", "Invalid request body", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := s.svc.RecordLatest(body.ID, body.Value); err != nil {
		writeServiceError(w, "http/latest", err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
