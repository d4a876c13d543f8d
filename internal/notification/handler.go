package notification

import (
	"net/http"
	"strconv"

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
	r.Route("/api/notifications", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/seen-all", h.MarkAllSeen)
		r.Post("/{id}/seen", h.MarkSeen)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := myMiddleware.UserID(r.Context())
	if !ok {
		apperr.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	unseen, _ := strconv.ParseBool(q.Get("unseen"))

	p, err := h.service.ListPage(r.Context(), actor, page, size, unseen)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) MarkSeen(w http.ResponseWriter, r *http.Request) {
	actor, ok := myMiddleware.UserID(r.Context())
	if !ok {
		apperr.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	if err := h.service.MarkSeenAndRemoveAs(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		apperr.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MarkAllSeen(w http.ResponseWriter, r *http.Request) {
	actor, ok := myMiddleware.UserID(r.Context())
	if !ok {
		apperr.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	if err := h.service.MarkAllSeenAndRemove(r.Context(), actor); err != nil {
		apperr.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
