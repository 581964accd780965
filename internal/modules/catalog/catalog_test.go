package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
	"github.com/turbotech/turboparts-backend/internal/platform/logger"
)

type memoryRepo struct {
	products map[uuid.UUID]*Product
	order    []uuid.UUID
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[uuid.UUID]*Product)}
}

func (r *memoryRepo) Create(_ context.Context, p *Product) error {
	for _, existing := range r.products {
		if existing.Slug == p.Slug {
			return fmt.Errorf("catalog: create product: %w", httpx.ErrDuplicate)
		}
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.products[p.ID] = &cp
	r.order = append(r.order, p.ID)
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memoryRepo) GetBySlug(_ context.Context, slug string) (*Product, error) {
	for _, p := range r.products {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (r *memoryRepo) GetMany(_ context.Context, ids []uuid.UUID) ([]*Product, error) {
	var out []*Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memoryRepo) List(_ context.Context, f ListFilter) ([]*Product, error) {
	var out []*Product
	for _, id := range r.order {
		p, ok := r.products[id]
		if !ok {
			continue
		}
		if f.Category != "" && !strings.EqualFold(f.Category, p.Category) {
			continue
		}
		if (f.Featured && !p.Featured) || (f.ActiveOnly && !p.IsActive) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memoryRepo) Categories(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, p := range r.products {
		if p.IsActive && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *memoryRepo) Update(_ context.Context, p *Product) error {
	if _, ok := r.products[p.ID]; !ok {
		return httpx.ErrNotFound
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.products[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func boolPtr(b bool) *bool { return &b }

func seed(t *testing.T, svc Service) map[string]*Product {
	t.Helper()
	reqs := []ProductRequest{
		{Name: "GT3576 Turbo", Category: "Turbochargers", CompatibleVehicles: []string{"Toyota Hilux"}, Price: decimal.NewFromInt(85000), DiscountPercent: decimal.NewFromInt(10), Featured: true},
		{Name: "Turbo Core CHRA", Category: "Cores", CompatibleVehicles: []string{"Toyota Land Cruiser"}, Price: decimal.NewFromInt(42000)},
		{Name: "Oil Filter", Category: "Filters", Price: decimal.NewFromInt(1200)},
		{Name: "Retired Actuator", Category: "Actuators", Price: decimal.NewFromInt(9000), IsActive: boolPtr(false)},
	}
	out := make(map[string]*Product)
	for _, req := range reqs {
		p, err := svc.CreateProduct(context.Background(), req)
		require.NoError(t, err)
		out[p.Name] = p
	}
	return out
}

func TestCreateProductDerivesSlugAndDiscount(t *testing.T) {
	svc := NewService(newMemoryRepo())
	products := seed(t, svc)

	gt := products["GT3576 Turbo"]
	require.Equal(t, "gt3576-turbo", gt.Slug)
	require.True(t, gt.DiscountedPrice.Equal(decimal.NewFromInt(76500)))
	require.True(t, gt.IsActive)
	require.True(t, gt.InStock)
	require.Equal(t, []string{}, gt.Images)

	_, err := svc.CreateProduct(context.Background(), ProductRequest{Name: "GT3576 Turbo", Category: "Turbochargers"})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, ProductRequest{Category: "Cores"})
	var verr *httpx.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "name")

	_, err = svc.CreateProduct(ctx, ProductRequest{Name: "X", Category: "Cores", Price: decimal.NewFromInt(-1)})
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "price")

	_, err = svc.CreateProduct(ctx, ProductRequest{Name: "X", Category: "Cores", DiscountPercent: decimal.NewFromInt(101)})
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "discount_percent")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "gt3576-turbo-hilux", Slugify("GT3576 Turbo (Hilux)"))
	require.Equal(t, "chra-k03", Slugify("  CHRA -- K03! "))
}

func TestSearchAndSuggestOnlyActive(t *testing.T) {
	svc := NewService(newMemoryRepo())
	seed(t, svc)
	ctx := context.Background()

	got, err := svc.SearchProducts(ctx, "toyota", ListFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "GT3576 Turbo", got[0].Name)

	// 76500 is the discounted price of the GT3576.
	byPrice, err := svc.SearchProducts(ctx, "80000", ListFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, byPrice, 1)
	require.Equal(t, "GT3576 Turbo", byPrice[0].Name)

	retired, err := svc.SearchProducts(ctx, "actuator", ListFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Empty(t, retired)

	sugg, err := svc.Suggest(ctx, "tur")
	require.NoError(t, err)
	require.Equal(t, []string{"Turbochargers", "Turbo Core CHRA"}, sugg)

	empty, err := svc.Suggest(ctx, " ")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestUpdateAndDelete(t *testing.T) {
	svc := NewService(newMemoryRepo())
	products := seed(t, svc)
	ctx := context.Background()
	id := products["Oil Filter"].ID

	updated, err := svc.UpdateProduct(ctx, id, ProductRequest{Name: "Oil Filter XL", Category: "Filters", Price: decimal.NewFromInt(1500), InStock: boolPtr(false)})
	require.NoError(t, err)
	require.Equal(t, "oil-filter-xl", updated.Slug)
	require.False(t, updated.InStock)

	_, err = svc.UpdateProduct(ctx, uuid.New(), ProductRequest{Name: "Ghost", Category: "Filters"})
	require.ErrorIs(t, err, httpx.ErrNotFound)

	require.NoError(t, svc.DeleteProduct(ctx, id))
	_, err = svc.GetProduct(ctx, id)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestGetProductBySlugHidesInactive(t *testing.T) {
	svc := NewService(newMemoryRepo())
	seed(t, svc)
	_, err := svc.GetProductBySlug(context.Background(), "retired-actuator")
	require.ErrorIs(t, err, httpx.ErrNotFound)

	p, err := svc.GetProductBySlug(context.Background(), "oil-filter")
	require.NoError(t, err)
	require.Equal(t, "Oil Filter", p.Name)
}

func newTestRouter(svc Service) *chi.Mux {
	h := NewHandler(svc, logger.Discard())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	r.Route("/admin", h.RegisterAdminRoutes)
	return r
}

func TestHandlerStorefrontRoutes(t *testing.T) {
	svc := NewService(newMemoryRepo())
	seed(t, svc)
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products?featured=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, "GT3576 Turbo", list[0].Name)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/suggest?q=oil", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"suggestions":["Oil Filter"]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/categories", nil))
	require.JSONEq(t, `["Cores","Filters","Turbochargers"]`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/slug/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerAdminCreateAndValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	router := newTestRouter(svc)

	body := `{"name":"Wastegate Actuator","category":"Actuators","price":"9000","discount_percent":5}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/products/", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var p Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	require.Equal(t, "wastegate-actuator", p.Slug)
	require.True(t, p.DiscountedPrice.Equal(decimal.NewFromInt(8550)))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/products/", strings.NewReader(`{"category":"x"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Equal(t, "is required", problem.Fields["name"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/products/", strings.NewReader(`{"nme":"typo"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/admin/products/not-a-uuid", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
