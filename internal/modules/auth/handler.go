package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/turbotech/turboparts-backend/internal/modules/user"
	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

type Handler struct {
	service Service
	users   user.Service
	log     logrus.FieldLogger
}

func NewHandler(service Service, users user.Service, log logrus.FieldLogger) *Handler {
	return &Handler{service: service, users: users, log: log.WithField("module", "auth")}
}

// RegisterRoutes mounts the public login and session endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/v1/auth/login", h.login)
	r.Get("/api/v1/auth/session", h.session)
}

// RegisterAdminRoutes mounts endpoints that need Middleware in front of them.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/me", h.me)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.log.WithField("email", user.NormalizeEmail(req.Email)).Info("login rejected")
		httpx.RespondError(w, h.log, err)
		return
	}

	httpx.JSON(w, http.StatusOK, token)
}

// session answers whether the caller holds a valid token. It never fails with 401.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	authenticated := false
	if raw, ok := bearer(r); ok {
		_, err := h.service.Verify(raw)
		authenticated = err == nil
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"authenticated": authenticated})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	id, ok := UserID(r.Context())
	if !ok {
		httpx.RespondError(w, h.log, httpx.ErrUnauthorized)
		return
	}
	u, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}
