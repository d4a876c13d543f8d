package search

import (
	"encoding/json"
	"net/http"

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
	r.Route("/api/search", func(r chi.Router) {
		r.Get("/members", h.SearchMembers)
		r.Put("/members", h.UpsertMember)
		r.Get("/filters", h.FilterOptions)
	})
}

// first returns the first non-empty query value among names.
func first(r *http.Request, names ...string) string {
	q := r.URL.Query()
	for _, n := range names {
		if v := q.Get(n); v != "" {
			return v
		}
	}
	return ""
}

func (h *Handler) SearchMembers(w http.ResponseWriter, r *http.Request) {
	f := Filters{
		Country:      first(r, "country"),
		Institution:  first(r, "institution"),
		FieldOfStudy: first(r, "fieldOfStudy"),
		Skill:        first(r, "skill", "skills"),
		Internship:   first(r, "internship"),
	}
	members, err := h.service.Search(r.Context(), first(r, "q", "query"), f)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, members)
}

func (h *Handler) FilterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.FilterOptions(r.Context())
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, opts)
}

// UpsertMember writes the caller's own projection.
func (h *Handler) UpsertMember(w http.ResponseWriter, r *http.Request) {
	me, ok := myMiddleware.UserID(r.Context())
	if !ok {
		apperr.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		return
	}
	var m Member
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		apperr.WriteError(w, apperr.Validation("malformed body: %v", err))
		return
	}
	if m.ID != "" && m.ID != me {
		apperr.WriteError(w, apperr.Forbidden("cannot edit another member's profile"))
		return
	}
	m.ID = me

	saved, err := h.service.Upsert(r.Context(), &m)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, saved)
}
