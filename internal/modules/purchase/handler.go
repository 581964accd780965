package purchase

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/turbotech/turboparts-backend/internal/modules/ledger"
	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

// Handler exposes purchase HTTP endpoints.
type Handler struct {
	service Service
	log     logrus.FieldLogger
}

func NewHandler(service Service, log logrus.FieldLogger) *Handler {
	return &Handler{service: service, log: log.WithField("module", "purchase")}
}

// RegisterRoutes mounts the purchase endpoints under an authenticated admin router.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/purchases", func(r chi.Router) {
		r.Get("/", h.listPurchases) // ?supplier_id=&from=&to=
		r.Post("/", h.createPurchase)
		r.Get("/{id}", h.getPurchase)
		r.Put("/{id}", h.updatePurchase)
		r.Delete("/{id}", h.deletePurchase)
	})
}

func parseFilter(r *http.Request) (ListFilter, error) {
	var f ListFilter
	id, err := httpx.QueryUUID(r, "supplier_id")
	if err != nil {
		return f, err
	}
	f.SupplierID = id
	for key, dst := range map[string]*time.Time{"from": &f.From, "to": &f.To} {
		v := r.URL.Query().Get(key)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, httpx.FieldError(key, "must be an RFC 3339 timestamp")
		}
		*dst = t
	}
	return f, nil
}

func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	purchases, err := h.service.ListPurchases(r.Context(), f)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	if purchases == nil {
		purchases = []ledger.Purchase{}
	}
	httpx.JSON(w, http.StatusOK, purchases)
}

func (h *Handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	p, err := h.service.CreatePurchase(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) getPurchase(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	p, err := h.service.GetPurchase(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) updatePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	var req Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	p, err := h.service.UpdatePurchase(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) deletePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	if err := h.service.DeletePurchase(r.Context(), id); err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
