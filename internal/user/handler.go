package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"skillnest/internal/apperr"
	myMiddleware "skillnest/internal/middleware"
)

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

// PublicRoutes need no token.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/users/search", h.SearchUsers)
	r.Get("/api/users/{userId}", h.GetUser)
	r.Put("/api/users/{userId}", h.UpdateProfile)
	r.Get("/api/users/{userId}/skills", h.GetSkills)
	r.Put("/api/users/{userId}/skills", h.SetSkills)
	r.Get("/api/users/{userId}/counts", h.FollowCounts)
	r.Post("/api/users/{userId}/follow", h.Follow)
	r.Delete("/api/users/{userId}/follow", h.Unfollow)
	r.Get("/api/users/{userId}/followers", h.Followers)
	r.Get("/api/users/{userId}/following", h.Following)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteError(w, apperr.Validation("malformed body: %v", err))
		return
	}

	u, err := h.Service.Register(r.Context(), &req)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteError(w, apperr.Validation("malformed body: %v", err))
		return
	}

	res, err := h.Service.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			apperr.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.SearchUsers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.GetByID(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, _ := myMiddleware.UserID(r.Context())
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteError(w, apperr.Validation("malformed body: %v", err))
		return
	}
	u, err := h.Service.UpdateProfile(r.Context(), actor, chi.URLParam(r, "userId"), &req)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) GetSkills(w http.ResponseWriter, r *http.Request) {
	skills, err := h.Service.GetSkills(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, SkillsRequest{Skills: skills})
}

func (h *Handler) SetSkills(w http.ResponseWriter, r *http.Request) {
	actor, _ := myMiddleware.UserID(r.Context())
	var req SkillsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteError(w, apperr.Validation("malformed body: %v", err))
		return
	}
	skills, err := h.Service.SetSkills(r.Context(), actor, chi.URLParam(r, "userId"), req.Skills)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, SkillsRequest{Skills: skills})
}

func (h *Handler) FollowCounts(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.FollowCounts(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	actor, _ := myMiddleware.UserID(r.Context())
	if err := h.Service.Follow(r.Context(), actor, chi.URLParam(r, "userId")); err != nil {
		apperr.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	actor, _ := myMiddleware.UserID(r.Context())
	if err := h.Service.Unfollow(r.Context(), actor, chi.URLParam(r, "userId")); err != nil {
		apperr.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Followers(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Service.Followers(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, ids)
}

func (h *Handler) Following(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Service.Following(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	apperr.WriteJSON(w, http.StatusOK, ids)
}
