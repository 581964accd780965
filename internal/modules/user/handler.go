package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

type Handler struct {
	service Service
	log     logrus.FieldLogger
}

func NewHandler(service Service, log logrus.FieldLogger) *Handler {
	return &Handler{service: service, log: log.WithField("module", "user")}
}

// RegisterRoutes mounts admin account management under an authenticated router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/users", h.registerAdmin)
	r.Get("/users/{id}", h.getUser)
}

func (h *Handler) registerAdmin(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}

	u, err := h.service.RegisterAdmin(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, u)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}

	u, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}

	httpx.JSON(w, http.StatusOK, u)
}
