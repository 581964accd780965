package inventory

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/turbotech/turboparts-backend/internal/modules/ledger"
	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

// Handler exposes inventory HTTP endpoints.
type Handler struct {
	service Service
	log     logrus.FieldLogger
}

func NewHandler(service Service, log logrus.FieldLogger) *Handler {
	return &Handler{service: service, log: log.WithField("module", "inventory")}
}

// RegisterRoutes mounts the inventory endpoints under an authenticated admin router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/inventory", func(r chi.Router) {
		// Reconciled stock
		r.Get("/", h.overview)
		r.Get("/available", h.available)
		r.Get("/low-stock", h.lowStock)
		r.Get("/out-of-stock", h.outOfStock)
		r.Get("/check", h.check)
		r.Get("/search", h.search)

		// Profit
		r.Get("/profit", h.profitReport)
		r.Get("/profit/items/{item_id}", h.profitForItem)
		r.Get("/profit/by-name", h.profitForName)

		// Persisted stock records
		r.Get("/stock-records", h.stockRecords)
		r.Get("/stock-records/{item_id}", h.stockRecord)
		r.Post("/stock-records/rebuild", h.rebuild)
	})
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.service.Overview(r.Context())
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	if ov.Items == nil {
		ov.Items = []ledger.StockLevel{}
	}
	httpx.JSON(w, http.StatusOK, ov)
}

func (h *Handler) available(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Available(r.Context())
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	if items == nil {
		items = []ledger.AvailableItem{}
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.LowStock(r.Context(), httpx.QueryInt(r, "threshold", 0))
	h.levels(w, items, err)
}

func (h *Handler) outOfStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.OutOfStock(r.Context())
	h.levels(w, items, err)
}

func (h *Handler) levels(w http.ResponseWriter, items []ledger.StockLevel, err error) {
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	if items == nil {
		items = []ledger.StockLevel{}
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	item := strings.TrimSpace(r.URL.Query().Get("item"))
	if item == "" {
		httpx.RespondError(w, h.log, httpx.FieldError("item", "is required"))
		return
	}
	qty := httpx.QueryInt(r, "qty", 1)
	if qty <= 0 {
		httpx.RespondError(w, h.log, httpx.FieldError("qty", "must be at least 1"))
		return
	}
	res, err := h.service.CheckStock(r.Context(), item, qty)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	hits, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, hits)
}

func (h *Handler) profitReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.ProfitReport(r.Context())
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	if report == nil {
		report = []ledger.ProfitAnalysis{}
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) profitForItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamUUID(r, "item_id")
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	a, err := h.service.ProfitForItem(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) profitForName(w http.ResponseWriter, r *http.Request) {
	item := strings.TrimSpace(r.URL.Query().Get("item"))
	if item == "" {
		httpx.RespondError(w, h.log, httpx.FieldError("item", "is required"))
		return
	}
	a, err := h.service.ProfitForName(r.Context(), item)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) stockRecords(w http.ResponseWriter, r *http.Request) {
	recs, err := h.service.StockRecords(r.Context())
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	if recs == nil {
		recs = []ledger.StockRecord{}
	}
	httpx.JSON(w, http.StatusOK, recs)
}

func (h *Handler) stockRecord(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamUUID(r, "item_id")
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	rec, err := h.service.StockRecord(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) rebuild(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.RebuildStockRecords(r.Context())
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"records": n})
}
