// Package handler serves the family auth endpoints and permission middleware.
package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/smartinventory/smartinventory-backend/internal/auth/service"
	"github.com/smartinventory/smartinventory-backend/pkg/httputil"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
	"github.com/smartinventory/smartinventory-backend/pkg/permissions"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	service *service.AuthService
	logger  *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc *service.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		service: svc,
		logger:  log,
	}
}

// Register mounts the auth and family routes. Login and refresh are public.
func (h *AuthHandler) Register(r chi.Router, m *Middleware) {
	r.Post("/api/auth/login", h.Login)
	r.Post("/api/auth/refresh", h.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(m.RequireAuth)
		r.Get("/api/auth/me", h.Me)
		r.Get("/api/auth/activities", h.OwnActivities)
		r.Get("/api/family/members", h.Members)
		r.With(m.RequirePermission(permissions.FamilyManage)).Get("/api/family/activities", h.FamilyActivities)
		r.With(m.RequirePermission(permissions.FamilyManage)).Post("/api/auth/register", h.RegisterMember)
	})
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	response, err := h.service.Login(r.Context(), &req)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Raw(w, http.StatusOK, response)
}

// Refresh handles token refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	tokens, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, tokens)
}

// Me returns the current user's information
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Me(r.Context())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, user)
}

// RegisterMember handles POST /api/auth/register
func (h *AuthHandler) RegisterMember(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	user, err := h.service.Register(r.Context(), &req)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.Created(w, user)
}

// Members handles GET /api/family/members
func (h *AuthHandler) Members(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.Members(r.Context())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, members, &httputil.Meta{Count: len(members)})
}

// FamilyActivities handles GET /api/family/activities
func (h *AuthHandler) FamilyActivities(w http.ResponseWriter, r *http.Request) {
	acts, err := h.service.FamilyActivities(r.Context(), limit(r))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, acts, &httputil.Meta{Count: len(acts)})
}

// OwnActivities handles GET /api/auth/activities
func (h *AuthHandler) OwnActivities(w http.ResponseWriter, r *http.Request) {
	acts, err := h.service.OwnActivities(r.Context(), limit(r))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, acts, &httputil.Meta{Count: len(acts)})
}

func limit(r *http.Request) int {
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return n
}
