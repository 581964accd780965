package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

// Handler exposes catalog HTTP endpoints.
type Handler struct {
	service Service
	log     logrus.FieldLogger
}

func NewHandler(service Service, log logrus.FieldLogger) *Handler {
	return &Handler{service: service, log: log.WithField("module", "catalog")}
}

// RegisterRoutes mounts the storefront endpoints. Only active products are visible.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/products", h.listActive)
		r.Get("/products/search", h.searchProducts)
		r.Get("/products/suggest", h.suggest)
		r.Get("/products/slug/{slug}", h.getBySlug)
		r.Get("/categories", h.categories)
	})
}

// RegisterAdminRoutes mounts product management under an already authenticated router.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listAll)
		r.Post("/", h.createProduct)
		r.Get("/{id}", h.getProduct)
		r.Put("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
	})
}

func filterFrom(r *http.Request, activeOnly bool) ListFilter {
	q := r.URL.Query()
	return ListFilter{
		Category:   q.Get("category"),
		Featured:   q.Get("featured") == "true",
		ActiveOnly: activeOnly,
	}
}

func (h *Handler) listActive(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, filterFrom(r, true))
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, filterFrom(r, r.URL.Query().Get("active") == "true"))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, filter ListFilter) {
	var (
		products []*Product
		err      error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		products, err = h.service.SearchProducts(r.Context(), q, filter)
	} else {
		products, err = h.service.ListProducts(r.Context(), filter)
	}
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	if products == nil {
		products = []*Product{}
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.SearchProducts(r.Context(), r.URL.Query().Get("q"), filterFrom(r, true))
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	if products == nil {
		products = []*Product{}
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Suggest(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string][]string{"suggestions": out})
}

func (h *Handler) getBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProductBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.service.Categories(r.Context())
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	if cats == nil {
		cats = []string{}
	}
	httpx.JSON(w, http.StatusOK, cats)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	p, err := h.service.CreateProduct(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	var req ProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		httpx.RespondError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
