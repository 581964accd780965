package sale

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/turbotech/turboparts-backend/internal/modules/ledger"
	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

// Handler exposes sale HTTP endpoints.
type Handler struct {
	service Service
	log     logrus.FieldLogger
}

func NewHandler(service Service, log logrus.FieldLogger) *Handler {
	return &Handler{service: service, log: log.WithField("module", "sale")}
}

// RegisterRoutes mounts the sale endpoints under an authenticated admin router.
// A sale the stock cannot cover is answered with 409 and one message per short item.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/sales", func(r chi.Router) {
		r.Get("/", h.listSales) // ?customer_id=&payment_method=&from=&to=
		r.Post("/", h.createSale)
		r.Get("/{id}", h.getSale)
		r.Put("/{id}", h.updateSale)
		r.Delete("/{id}", h.deleteSale)
	})
}

func parseFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	var f ListFilter
	id, err := httpx.QueryUUID(r, "customer_id")
	if err != nil {
		return f, err
	}
	f.CustomerID = id
	if m := q.Get("payment_method"); m != "" {
		f.PaymentMethod = ledger.PaymentMethod(strings.ToUpper(m))
		if !f.PaymentMethod.Valid() {
			return f, httpx.FieldError("payment_method", "is not a known payment method")
		}
	}
	if f.From, err = queryTime(r, "from"); err != nil {
		return f, err
	}
	if f.To, err = queryTime(r, "to"); err != nil {
		return f, err
	}
	return f, nil
}

func queryTime(r *http.Request, key string) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, httpx.FieldError(key, "must be an RFC 3339 timestamp")
	}
	return t, nil
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	sales, err := h.service.ListSales(r.Context(), f)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	if sales == nil {
		sales = []ledger.Sale{}
	}
	httpx.JSON(w, http.StatusOK, sales)
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	sale, err := h.service.CreateSale(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	sale, err := h.service.GetSale(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) updateSale(w http.ResponseWriter, r *http.Request) {
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
	sale, err := h.service.UpdateSale(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	if err := h.service.DeleteSale(r.Context(), id); err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
