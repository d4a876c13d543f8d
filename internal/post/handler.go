package post

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"skillnest/internal/apperr"
	myMiddleware "skillnest/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/posts", func(r chi.Router) {
		r.Post("/", h.CreatePost)
		r.Get("/visible", h.VisiblePosts)
		r.Get("/{postId}", h.GetPost)
		r.Put("/{postId}", h.UpdatePost)
		r.Delete("/{postId}", h.DeletePost)
		r.Post("/{postId}/like", h.Like)
		r.Post("/{postId}/unlike", h.Unlike)
		r.Post("/{postId}/comments", h.AddComment)
		r.Get("/{postId}/comments", h.ListComments)
		r.Post("/{postId}/comments/repair", h.RepairComments)
	})
	r.Get("/api/users/{userId}/posts", h.ListUserPosts)
	r.Put("/api/comments/{commentId}", h.EditComment)
	r.Delete("/api/comments/{commentId}", h.DeleteComment)
}

func actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := myMiddleware.UserID(r.Context())
	if !ok {
		apperr.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
	}
	return id, ok
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	me, ok := actor(w, r)
	if !ok {
		return
	}
	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteError(w, apperr.Validation("malformed body: %v", err))
		return
	}
	p, err := h.service.CreatePost(r.Context(), me, &req)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	me, ok := actor(w, r)
	if !ok {
		return
	}
	p, err := h.service.GetPost(r.Context(), me, chi.URLParam(r, "postId"))
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) ListUserPosts(w http.ResponseWriter, r *http.Request) {
	me, ok := actor(w, r)
	if !ok {
		return
	}
	posts, err := h.service.ListUserPosts(r.Context(), me, chi.URLParam(r, "userId"))
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, posts)
}

func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	me, ok := actor(w, r)
	if !ok {
		return
	}
	var req UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteError(w, apperr.Validation("malformed body: %v", err))
		return
	}
	p, err := h.service.UpdatePost(r.Context(), me, chi.URLParam(r, "postId"), &req)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, p)
}

// VisiblePosts serves ?visibility=public|private&userId=..., defaulting to
// the caller's own public posts.
func (h *Handler) VisiblePosts(w http.ResponseWriter, r *http.Request) {
	me, ok := actor(w, r)
	if !ok {
		return
	}
	owner := r.URL.Query().Get("userId")
	if owner == "" {
		owner = me
	}
	vis := Visibility(strings.ToLower(r.URL.Query().Get("visibility")))
	if vis == "" {
		vis = Public
	}
	posts, err := h.service.VisiblePosts(r.Context(), me, owner, vis)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, posts)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	me, ok := actor(w, r)
	if !ok {
		return
	}
	if err := h.service.DeletePost(r.Context(), me, chi.URLParam(r, "postId")); err != nil {
		apperr.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	me, ok := actor(w, r)
	if !ok {
		return
	}
	p, err := h.service.Like(r.Context(), chi.URLParam(r, "postId"), me)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) Unlike(w http.ResponseWriter, r *http.Request) {
	me, ok := actor(w, r)
	if !ok {
		return
	}
	p, err := h.service.Unlike(r.Context(), chi.URLParam(r, "postId"), me)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	me, ok := actor(w, r)
	if !ok {
		return
	}
	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteError(w, apperr.Validation("malformed body: %v", err))
		return
	}
	c, err := h.service.AddComment(r.Context(), chi.URLParam(r, "postId"), me, req.Content)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	me, ok := actor(w, r)
	if !ok {
		return
	}
	comments, err := h.service.ListComments(r.Context(), me, chi.URLParam(r, "postId"))
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, comments)
}

func (h *Handler) RepairComments(w http.ResponseWriter, r *http.Request) {
	me, ok := actor(w, r)
	if !ok {
		return
	}
	p, err := h.service.RepairCommentRefs(r.Context(), me, chi.URLParam(r, "postId"))
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) EditComment(w http.ResponseWriter, r *http.Request) {
	me, ok := actor(w, r)
	if !ok {
		return
	}
	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteError(w, apperr.Validation("malformed body: %v", err))
		return
	}
	c, err := h.service.EditComment(r.Context(), me, chi.URLParam(r, "commentId"), req.Content)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	me, ok := actor(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteComment(r.Context(), me, chi.URLParam(r, "commentId")); err != nil {
		apperr.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
