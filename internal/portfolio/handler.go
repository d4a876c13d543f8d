package portfolio

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
	r.Get("/api/users/{userId}/showcases", h.ListShowcases)
	r.Post("/api/users/{userId}/showcases", h.CreateShowcase)
	r.Put("/api/users/{userId}/showcases/{showcaseId}", h.UpdateShowcase)
	r.Delete("/api/users/{userId}/showcases/{showcaseId}", h.DeleteShowcase)

	r.Get("/api/users/{userId}/documents", h.ListDocuments)
	r.Post("/api/users/{userId}/documents", h.CreateDocument)
	r.Put("/api/users/{userId}/documents/{documentId}", h.UpdateDocument)
	r.Delete("/api/users/{userId}/documents/{documentId}", h.DeleteDocument)
}

func decode[T any](w http.ResponseWriter, r *http.Request) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteError(w, apperr.Validation("malformed body: %v", err))
		return nil, false
	}
	return &req, true
}

func (h *Handler) ListShowcases(w http.ResponseWriter, r *http.Request) {
	me, _ := myMiddleware.UserID(r.Context())
	list, err := h.service.ListShowcases(r.Context(), me, chi.URLParam(r, "userId"))
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateShowcase(w http.ResponseWriter, r *http.Request) {
	me, _ := myMiddleware.UserID(r.Context())
	req, ok := decode[ShowcaseRequest](w, r)
	if !ok {
		return
	}
	sc, err := h.service.CreateShowcase(r.Context(), me, chi.URLParam(r, "userId"), req)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusCreated, sc)
}

func (h *Handler) UpdateShowcase(w http.ResponseWriter, r *http.Request) {
	me, _ := myMiddleware.UserID(r.Context())
	req, ok := decode[ShowcaseRequest](w, r)
	if !ok {
		return
	}
	sc, err := h.service.UpdateShowcase(r.Context(), me, chi.URLParam(r, "userId"), chi.URLParam(r, "showcaseId"), req)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, sc)
}

func (h *Handler) DeleteShowcase(w http.ResponseWriter, r *http.Request) {
	me, _ := myMiddleware.UserID(r.Context())
	err := h.service.DeleteShowcase(r.Context(), me, chi.URLParam(r, "userId"), chi.URLParam(r, "showcaseId"))
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	me, _ := myMiddleware.UserID(r.Context())
	list, err := h.service.ListDocuments(r.Context(), me, chi.URLParam(r, "userId"))
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	me, _ := myMiddleware.UserID(r.Context())
	req, ok := decode[DocumentRequest](w, r)
	if !ok {
		return
	}
	d, err := h.service.CreateDocument(r.Context(), me, chi.URLParam(r, "userId"), req)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	me, _ := myMiddleware.UserID(r.Context())
	req, ok := decode[DocumentRequest](w, r)
	if !ok {
		return
	}
	d, err := h.service.UpdateDocument(r.Context(), me, chi.URLParam(r, "userId"), chi.URLParam(r, "documentId"), req)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	me, _ := myMiddleware.UserID(r.Context())
	err := h.service.DeleteDocument(r.Context(), me, chi.URLParam(r, "userId"), chi.URLParam(r, "documentId"))
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
