// Package api serves the session and feed operations as a JSON API.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"gathering/pkg/gathering"
	"gathering/pkg/model"
	"gathering/pkg/services"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentFunc wraps a handler function with per-route instrumentation.
// weaver.InstrumentHandlerFunc is one.
type InstrumentFunc func(label string, fn func(http.ResponseWriter, *http.Request)) http.Handler

type handler struct {
	gathering  services.Gathering
	logger     *slog.Logger
	instrument InstrumentFunc
}

func NewHandler(g services.Gathering, logger *slog.Logger, instrument InstrumentFunc) http.Handler {
	h := &handler{gathering: g, logger: logger, instrument: instrument}
	mux := http.NewServeMux()
	mux.Handle("/api/health", h.route("health", h.healthHandler, http.MethodGet))
	mux.Handle("/api/signup", h.route("signup", h.signupHandler, http.MethodPost))
	mux.Handle("/api/login", h.route("login", h.loginHandler, http.MethodPost))
	mux.Handle("/api/logout", h.route("logout", h.logoutHandler, http.MethodPost))
	mux.Handle("/api/session", h.route("session", h.sessionHandler, http.MethodGet))
	mux.Handle("/api/profile", h.route("profile", h.profileHandler, http.MethodGet, http.MethodPut))
	mux.Handle("/api/users/", h.route("user", h.userHandler, http.MethodGet))
	mux.Handle("/api/posts", h.route("posts", h.postsHandler, http.MethodGet, http.MethodPost))
	mux.Handle("/api/posts/", h.route("post", h.postHandler, http.MethodGet, http.MethodPost, http.MethodDelete))
	mux.Handle("/api/stats", h.route("stats", h.statsHandler, http.MethodGet))
	return mux
}

func (h *handler) route(label string, fn func(http.ResponseWriter, *http.Request), methods ...string) http.Handler {
	allowed := map[string]struct{}{}
	for _, method := range methods {
		allowed[method] = struct{}{}
	}
	wrapped := func(w http.ResponseWriter, r *http.Request) {
		if _, ok := allowed[r.Method]; len(allowed) > 0 && !ok {
			h.writeMessage(w, http.StatusMethodNotAllowed, fmt.Sprintf("method %q not allowed", r.Method))
			return
		}
		trace.SpanFromContext(r.Context()).AddEvent("handling http request",
			trace.WithAttributes(
				attribute.String("route", label),
				attribute.String("method", r.Method),
			))
		fn(w, r)
	}
	return h.instrument(label, wrapped)
}

func (h *handler) healthHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (h *handler) signupHandler(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.gathering.Signup(r.Context(), req.Name, req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, newUserView(user))
}

func (h *handler) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.gathering.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newUserView(user))
}

func (h *handler) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.gathering.Logout(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) sessionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok, err := h.gathering.CurrentUser(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !ok {
		h.writeMessage(w, http.StatusNotFound, "no active session")
		return
	}
	h.writeJSON(w, http.StatusOK, newUserView(user))
}

func (h *handler) profileHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method == http.MethodPut {
		var req profileRequest
		if !h.decode(w, r, &req) {
			return
		}
		user, err := h.gathering.EditProfile(ctx, req.Name, req.Bio)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, newUserView(user))
		return
	}

	user, ok := h.sessionUser(w, r)
	if !ok {
		return
	}
	h.writeProfile(w, r, user.ID)
}

func (h *handler) userHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/api/users/"), 10, 64)
	if err != nil {
		h.writeMessage(w, http.StatusNotFound, "user not found")
		return
	}
	h.writeProfile(w, r, id)
}

func (h *handler) writeProfile(w http.ResponseWriter, r *http.Request, userID int64) {
	profile, ok, err := h.gathering.Profile(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !ok {
		h.writeMessage(w, http.StatusNotFound, "user not found")
		return
	}
	h.writeJSON(w, http.StatusOK, newProfileView(profile))
}

func (h *handler) postsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method == http.MethodPost {
		var req postRequest
		if !h.decode(w, r, &req) {
			return
		}
		post, err := h.gathering.CreatePost(ctx, req.Content, req.Image, req.Link)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusCreated, post)
		return
	}

	posts, err := h.gathering.Feed(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, posts)
}

// postHandler serves /api/posts/{id}, /api/posts/{id}/like and
// /api/posts/{id}/comments.
func (h *handler) postHandler(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/posts/"), "/")
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || len(parts) > 2 {
		h.writeMessage(w, http.StatusNotFound, "post not found")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.getPost(w, r, id)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.deletePost(w, r, id)
	case len(parts) == 2 && parts[1] == "like" && r.Method == http.MethodPost:
		h.toggleLike(w, r, id)
	case len(parts) == 2 && parts[1] == "comments" && r.Method == http.MethodPost:
		h.addComment(w, r, id)
	case len(parts) == 2 && parts[1] != "like" && parts[1] != "comments":
		h.writeMessage(w, http.StatusNotFound, "not found")
	default:
		h.writeMessage(w, http.StatusMethodNotAllowed, fmt.Sprintf("method %q not allowed", r.Method))
	}
}

func (h *handler) getPost(w http.ResponseWriter, r *http.Request, id int64) {
	post, ok, err := h.gathering.Post(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !ok {
		h.writeMessage(w, http.StatusNotFound, "post not found")
		return
	}
	h.writeJSON(w, http.StatusOK, post)
}

// deletePost only lets the author remove a post.
func (h *handler) deletePost(w http.ResponseWriter, r *http.Request, id int64) {
	ctx := r.Context()
	user, ok := h.sessionUser(w, r)
	if !ok {
		return
	}
	post, found, err := h.gathering.Post(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !found {
		h.writeMessage(w, http.StatusNotFound, "post not found")
		return
	}
	if post.AuthorID != user.ID {
		h.writeMessage(w, http.StatusForbidden, "only the author can delete a post")
		return
	}
	if _, err := h.gathering.DeletePost(ctx, id, user.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) toggleLike(w http.ResponseWriter, r *http.Request, id int64) {
	user, ok := h.sessionUser(w, r)
	if !ok {
		return
	}
	post, found, err := h.gathering.ToggleLike(r.Context(), id, user.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !found {
		h.writeMessage(w, http.StatusNotFound, "post not found")
		return
	}
	h.writeJSON(w, http.StatusOK, post)
}

func (h *handler) addComment(w http.ResponseWriter, r *http.Request, id int64) {
	var req commentRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, ok := h.sessionUser(w, r)
	if !ok {
		return
	}
	comment, found, err := h.gathering.AddComment(r.Context(), id, user.ID, user.Name, user.Avatar, req.Text)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !found {
		h.writeMessage(w, http.StatusNotFound, "post not found")
		return
	}
	h.writeJSON(w, http.StatusCreated, comment)
}

func (h *handler) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.gathering.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// sessionUser writes 401 and reports false when nobody is logged in.
func (h *handler) sessionUser(w http.ResponseWriter, r *http.Request) (model.User, bool) {
	user, ok, err := h.gathering.CurrentUser(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return model.User{}, false
	}
	if !ok {
		h.writeError(w, r, gathering.ErrUnauthenticated)
		return model.User{}, false
	}
	return user, true
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, gathering.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, gathering.ErrDuplicateEmail):
		status = http.StatusConflict
	case errors.Is(err, gathering.ErrInvalidCredentials), errors.Is(err, gathering.ErrUnauthenticated):
		status = http.StatusUnauthorized
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("error handling request", "path", r.URL.Path, "msg", err.Error())
	} else {
		h.logger.Debug("rejected request", "path", r.URL.Path, "status", status, "msg", err.Error())
	}
	h.writeMessage(w, status, err.Error())
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid json body: "+err.Error())
		return false
	}
	return true
}

func (h *handler) writeMessage(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("error writing response", "status", status, "msg", err.Error())
	}
}
