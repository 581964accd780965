package purchase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/turbotech/turboparts-backend/internal/modules/ledger"
	"github.com/turbotech/turboparts-backend/internal/modules/supplier"
	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
	"github.com/turbotech/turboparts-backend/internal/platform/logger"
	"github.com/turbotech/turboparts-backend/internal/platform/metrics"
)

type memoryRepo struct {
	rows map[uuid.UUID]ledger.Purchase
}

func newMemoryRepo() *memoryRepo { return &memoryRepo{rows: make(map[uuid.UUID]ledger.Purchase)} }

func (m *memoryRepo) CreatePurchase(_ context.Context, p *ledger.Purchase) error {
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.rows[p.ID] = *p
	return nil
}

func (m *memoryRepo) GetPurchase(_ context.Context, id uuid.UUID) (*ledger.Purchase, error) {
	p, ok := m.rows[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return &p, nil
}

func (m *memoryRepo) ListPurchases(_ context.Context, f ListFilter) ([]ledger.Purchase, error) {
	var out []ledger.Purchase
	for _, p := range m.rows {
		if matches(f, &p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// matches mirrors the WHERE clause the postgres repository builds from f.
func matches(f ListFilter, p *ledger.Purchase) bool {
	if f.SupplierID != nil && (p.SupplierID == nil || *p.SupplierID != *f.SupplierID) {
		return false
	}
	if !f.From.IsZero() && p.PurchaseDate.Before(f.From) {
		return false
	}
	return f.To.IsZero() || p.PurchaseDate.Before(f.To)
}

func (m *memoryRepo) ListAllPurchases(ctx context.Context) ([]ledger.Purchase, error) {
	return m.ListPurchases(ctx, ListFilter{})
}

func (m *memoryRepo) ReplacePurchase(_ context.Context, p *ledger.Purchase) error {
	if _, ok := m.rows[p.ID]; !ok {
		return httpx.ErrNotFound
	}
	m.rows[p.ID] = *p
	return nil
}

func (m *memoryRepo) DeletePurchase(_ context.Context, id uuid.UUID) error {
	if _, ok := m.rows[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type supplierDirectory map[uuid.UUID]*supplier.Supplier

func (d supplierDirectory) GetSupplier(_ context.Context, id uuid.UUID) (*supplier.Supplier, error) {
	s, ok := d[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return s, nil
}

var karachiID = uuid.MustParse("3d3c1c58-5a51-4c3e-8b0f-1b2b6c0d9e11")

func newTestService(repo Repository) Service {
	dir := supplierDirectory{karachiID: {ID: karachiID, Name: "Karachi Turbo House", Phone: "+92 300 1234567"}}
	return NewService(repo, dir, metrics.New(), logger.Discard())
}

func turboLines() []ItemRequest {
	return []ItemRequest{
		{ItemName: "  Test Turbo ", Quantity: 10, CostPerUnit: decimal.NewFromInt(5000)},
		{ItemName: "Oil Filter", Quantity: 4, CostPerUnit: decimal.RequireFromString("912.50")},
	}
}

func TestCreatePurchaseComputesTotalsAndSupplierSnapshot(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	id := karachiID
	p, err := svc.CreatePurchase(context.Background(), Request{SupplierID: &id, SupplierName: "ignored", Items: turboLines()})
	require.NoError(t, err)

	require.Equal(t, "Karachi Turbo House", p.SupplierName)
	require.Equal(t, "+92 300 1234567", p.SupplierPhone)
	require.Equal(t, "Test Turbo", p.Items[0].ItemName)
	require.True(t, p.Items[0].TotalCost.Equal(decimal.NewFromInt(50000)))
	require.True(t, p.Items[1].TotalCost.Equal(decimal.NewFromInt(3650)))
	require.True(t, p.TotalAmount.Equal(decimal.NewFromInt(53650)))
	require.False(t, p.PurchaseDate.IsZero())
}

func TestCreatePurchaseValidation(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.CreatePurchase(ctx, Request{SupplierName: "Walk-in supplier"})
	var verr *httpx.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "items")

	_, err = svc.CreatePurchase(ctx, Request{SupplierName: "X", Items: []ItemRequest{{ItemName: "Core", Quantity: 0}}})
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "items[0].quantity")

	_, err = svc.CreatePurchase(ctx, Request{SupplierName: "X", Items: []ItemRequest{{ItemName: "Core", Quantity: 1, CostPerUnit: decimal.NewFromInt(-5)}}})
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "items[0].cost_per_unit")

	_, err = svc.CreatePurchase(ctx, Request{Items: turboLines()})
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "supplier_name")

	unknown := uuid.New()
	_, err = svc.CreatePurchase(ctx, Request{SupplierID: &unknown, Items: turboLines()})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdatePurchaseReplacesLines(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	p, err := svc.CreatePurchase(ctx, Request{SupplierName: "Lahore Spares", Items: turboLines()})
	require.NoError(t, err)

	updated, err := svc.UpdatePurchase(ctx, p.ID, Request{SupplierName: "Lahore Spares", Items: []ItemRequest{
		{ItemName: "Test Turbo", Quantity: 2, CostPerUnit: decimal.NewFromInt(4800)},
	}})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	require.True(t, updated.TotalAmount.Equal(decimal.NewFromInt(9600)))
	require.Len(t, repo.rows, 1)

	_, err = svc.UpdatePurchase(ctx, uuid.New(), Request{SupplierName: "X", Items: turboLines()})
	require.ErrorIs(t, err, httpx.ErrNotFound)

	require.NoError(t, svc.DeletePurchase(ctx, p.ID))
	require.ErrorIs(t, svc.DeletePurchase(ctx, p.ID), httpx.ErrNotFound)
}

func TestUpdatePurchaseKeepsDateWhenOmitted(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()

	receivedAt := time.Date(2024, 4, 20, 9, 0, 0, 0, time.UTC)
	p, err := svc.CreatePurchase(ctx, Request{SupplierName: "Lahore Spares", PurchaseDate: &receivedAt, Items: turboLines()})
	require.NoError(t, err)

	updated, err := svc.UpdatePurchase(ctx, p.ID, Request{SupplierName: "Lahore Spares", Notes: "invoice 771", Items: turboLines()})
	require.NoError(t, err)
	require.Equal(t, receivedAt, updated.PurchaseDate)
	require.Equal(t, "invoice 771", updated.Notes)
}

func newTestRouter(svc Service) *chi.Mux {
	r := chi.NewRouter()
	NewHandler(svc, logger.Discard()).RegisterRoutes(r)
	return r
}

func TestHandlerCreateAndList(t *testing.T) {
	router := newTestRouter(newTestService(newMemoryRepo()))

	body := `{"supplier_name":"Lahore Spares","purchase_date":"2024-06-01T10:00:00Z",
		"items":[{"item_name":"GT3576 Turbo","quantity":3,"cost_per_unit":"40000"}]}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/purchases/", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var p ledger.Purchase
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	require.True(t, p.TotalAmount.Equal(decimal.NewFromInt(120000)))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/purchases/?from=2024-06-01T00:00:00Z&to=2024-06-02T00:00:00Z", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []ledger.Purchase
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/purchases/?from=yesterday", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/purchases/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
