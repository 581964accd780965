package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

type Handler struct {
	service Service
	log     logrus.FieldLogger
}

func NewHandler(service Service, log logrus.FieldLogger) *Handler {
	return &Handler{service: service, log: log.WithField("module", "cart")}
}

// RegisterRoutes mounts the storefront cart. The caller applies rate limiting.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/carts", func(r chi.Router) {
		r.Post("/", h.create)                                   // POST   /api/v1/carts
		r.Get("/{cart_id}", h.get)                              // GET    /api/v1/carts/{cart_id}
		r.Delete("/{cart_id}", h.clear)                         // DELETE /api/v1/carts/{cart_id}
		r.Post("/{cart_id}/items", h.add)                       // POST   /api/v1/carts/{cart_id}/items
		r.Put("/{cart_id}/items/{product_id}", h.setQuantity)   // PUT    /api/v1/carts/{cart_id}/items/{product_id}
		r.Delete("/{cart_id}/items/{product_id}", h.removeItem) // DELETE /api/v1/carts/{cart_id}/items/{product_id}
	})
}

// create hands out a fresh cart id. Nothing is stored until the first item is added.
func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), uuid.New())
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	cartID, err := httpx.URLParamUUID(r, "cart_id")
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	c, err := h.service.Get(r.Context(), cartID)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	cartID, err := httpx.URLParamUUID(r, "cart_id")
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	var req AddRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	c, err := h.service.Add(r.Context(), cartID, req)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	cartID, productID, err := lineParams(r)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	var req QuantityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	c, err := h.service.SetQuantity(r.Context(), cartID, productID, req)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	cartID, productID, err := lineParams(r)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	c, err := h.service.Remove(r.Context(), cartID, productID)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	cartID, err := httpx.URLParamUUID(r, "cart_id")
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	if err := h.service.Clear(r.Context(), cartID); err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func lineParams(r *http.Request) (cartID, productID uuid.UUID, err error) {
	if cartID, err = httpx.URLParamUUID(r, "cart_id"); err != nil {
		return
	}
	productID, err = httpx.URLParamUUID(r, "product_id")
	return
}
