package contact

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

type Handler struct {
	service Service
	log     logrus.FieldLogger
}

func NewHandler(service Service, log logrus.FieldLogger) *Handler {
	return &Handler{service: service, log: log.WithField("module", "contact")}
}

// RegisterRoutes mounts the public contact form. The caller applies rate limiting.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/v1/contact", h.submit)
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/messages", func(r chi.Router) {
		r.Get("/", h.list)               // GET    /messages?unread=true
		r.Post("/{id}/read", h.markRead) // POST   /messages/{id}/read
		r.Delete("/{id}", h.delete)      // DELETE /messages/{id}
	})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	m, err := h.service.Submit(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	unread, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	msgs, err := h.service.List(r.Context(), unread)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	if msgs == nil {
		msgs = []*Message{}
	}
	httpx.JSON(w, http.StatusOK, msgs)
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	if err := h.service.MarkRead(r.Context(), id); err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
