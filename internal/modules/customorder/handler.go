package customorder

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

// Handler exposes custom order HTTP endpoints.
type Handler struct {
	service Service
	log     logrus.FieldLogger
}

func NewHandler(service Service, log logrus.FieldLogger) *Handler {
	return &Handler{service: service, log: log.WithField("module", "customorder")}
}

// RegisterRoutes mounts the storefront submit endpoint. The caller applies rate limiting.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/v1/custom-orders", h.submit) // POST /api/v1/custom-orders
}

// RegisterAdminRoutes mounts order management under an authenticated router.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/custom-orders", func(r chi.Router) {
		r.Get("/", h.list)                      // GET    /custom-orders?status=PENDING
		r.Get("/{id}", h.get)                   // GET    /custom-orders/{id}
		r.Patch("/{id}/status", h.updateStatus) // PATCH  /custom-orders/{id}/status
		r.Delete("/{id}", h.delete)             // DELETE /custom-orders/{id}
	})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	o, err := h.service.Submit(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, o)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.List(r.Context(), Status(r.URL.Query().Get("status")))
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	if orders == nil {
		orders = []*CustomOrder{}
	}
	httpx.JSON(w, http.StatusOK, orders)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	o, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	o, err := h.service.UpdateStatus(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
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
