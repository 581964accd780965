package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/turbotech/turboparts-backend/internal/modules/ledger"
	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
	"github.com/turbotech/turboparts-backend/internal/platform/logger"
)

type fakeHistory struct {
	purchases   []ledger.Purchase
	sales       []ledger.Sale
	purchaseErr error
	saleErr     error
}

func (f *fakeHistory) ListAllPurchases(context.Context) ([]ledger.Purchase, error) {
	return f.purchases, f.purchaseErr
}

func (f *fakeHistory) ListAllSales(context.Context) ([]ledger.Sale, error) {
	return f.sales, f.saleErr
}

type memoryStock struct {
	records map[uuid.UUID]ledger.StockRecord
}

func (m *memoryStock) ListStockRecords(context.Context) ([]ledger.StockRecord, error) {
	out := make([]ledger.StockRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	return out, nil
}

func (m *memoryStock) GetStockRecord(_ context.Context, id uuid.UUID) (*ledger.StockRecord, error) {
	r, ok := m.records[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return &r, nil
}

func (m *memoryStock) ReplaceAllStockRecords(_ context.Context, records []ledger.StockRecord) error {
	m.records = make(map[uuid.UUID]ledger.StockRecord, len(records))
	for _, r := range records {
		m.records[r.ItemID] = r
	}
	return nil
}

var (
	day0    = time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	turboID = uuid.MustParse("8b0a7c0e-4f0a-4c11-9a43-2f1d1f6f2a01")
)

func history() *fakeHistory {
	turbo := ledger.NewPurchaseItem("Test Turbo", 10, decimal.NewFromInt(5000))
	turbo.ItemID = &turboID
	p1 := ledger.Purchase{ID: uuid.New(), SupplierName: "Lahore Spares", PurchaseDate: day0,
		Items: []ledger.PurchaseItem{turbo, ledger.NewPurchaseItem("Oil Filter", 4, decimal.NewFromInt(900))}}
	p1.Recalculate()
	turbo2 := ledger.NewPurchaseItem("test turbo", 5, decimal.NewFromInt(4800))
	turbo2.ItemID = &turboID
	p2 := ledger.Purchase{ID: uuid.New(), SupplierName: "Lahore Spares", PurchaseDate: day0.Add(time.Hour),
		Items: []ledger.PurchaseItem{turbo2, ledger.NewPurchaseItem("Brake Pad", 2, decimal.NewFromInt(1500))}}
	p2.Recalculate()

	sold := ledger.NewSaleItem("Test Turbo", 3, decimal.NewFromInt(7000))
	sold.ItemID = &turboID
	s1 := ledger.Sale{ID: uuid.New(), CustomerName: "Walk-in", SaleDate: day0.Add(2 * time.Hour), PaymentMethod: ledger.PaymentCash,
		Items: []ledger.SaleItem{sold, ledger.NewSaleItem("Brake Pad", 2, decimal.NewFromInt(2500))}}
	s1.Recalculate()
	sold2 := ledger.NewSaleItem("TEST TURBO", 2, decimal.NewFromInt(7500))
	sold2.ItemID = &turboID
	s2 := ledger.Sale{ID: uuid.New(), CustomerName: "Ahmed", SaleDate: day0.Add(3 * time.Hour), PaymentMethod: ledger.PaymentCard,
		Items: []ledger.SaleItem{sold2}}
	s2.Recalculate()

	return &fakeHistory{purchases: []ledger.Purchase{p1, p2}, sales: []ledger.Sale{s1, s2}}
}

func newTestService(h *fakeHistory, stock *memoryStock) Service {
	if stock == nil {
		stock = &memoryStock{}
	}
	return NewService(h, h, stock, ServiceConfig{Markup: decimal.RequireFromString("0.30"), Currency: "PKR"}, logger.Discard())
}

func TestSnapshotFailsWhenEitherSourceFails(t *testing.T) {
	h := history()
	h.saleErr = errors.New("connection reset")
	_, err := newTestService(h, nil).Snapshot(context.Background())
	require.ErrorContains(t, err, "load sales")

	h = history()
	h.purchaseErr = errors.New("connection reset")
	_, err = newTestService(h, nil).Overview(context.Background())
	require.ErrorContains(t, err, "load purchases")
}

func TestOverviewAndDerivedLists(t *testing.T) {
	svc := newTestService(history(), nil)
	ctx := context.Background()

	ov, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, ov.ItemCount)
	require.Equal(t, "PKR", ov.Currency)
	require.Empty(t, ov.Oversold)

	low, err := svc.LowStock(ctx, 0)
	require.NoError(t, err)
	require.Len(t, low, 1)
	require.Equal(t, "Oil Filter", low[0].ItemName)

	out, err := svc.OutOfStock(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "Brake Pad", out[0].ItemName)

	avail, err := svc.Available(ctx)
	require.NoError(t, err)
	require.Len(t, avail, 2)
}

func TestAvailableHonoursZeroMarkup(t *testing.T) {
	h := history()
	svc := NewService(h, h, &memoryStock{}, ServiceConfig{Markup: decimal.Zero, Currency: "PKR"}, logger.Discard())

	avail, err := svc.Available(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, avail)
	for _, a := range avail {
		require.True(t, a.SuggestedSalePrice.Equal(a.AverageCostPrice.Round(0)), a.ItemName)
	}
}

func TestCheckStockAndSearch(t *testing.T) {
	svc := newTestService(history(), nil)
	ctx := context.Background()

	res, err := svc.CheckStock(ctx, "test turbo", 10)
	require.NoError(t, err)
	require.True(t, res.Available)
	require.Equal(t, 10, res.CurrentStock)

	res, err = svc.CheckStock(ctx, "Test Turbo", 11)
	require.NoError(t, err)
	require.False(t, res.Available)
	require.Equal(t, "Insufficient stock: requested 11, available 10 (short by 1)", res.Message)

	hits, err := svc.Search(ctx, "terbo")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "Test Turbo", hits[0].Name)
	require.Equal(t, 10, hits[0].Stock.AvailableStock)
}

func TestProfitQueries(t *testing.T) {
	svc := newTestService(history(), nil)
	ctx := context.Background()

	byID, err := svc.ProfitForItem(ctx, turboID)
	require.NoError(t, err)
	byName, err := svc.ProfitForName(ctx, "Test Turbo")
	require.NoError(t, err)
	require.Equal(t, "Test Turbo", byID.ItemName)
	require.Equal(t, byID.TotalSold, byName.TotalSold)
	require.True(t, byID.TotalProfit.Equal(byName.TotalProfit))
	require.True(t, byID.TotalSaleRevenue.Equal(decimal.NewFromInt(36000)))
	require.InDelta(t, 11333.33, byID.TotalProfit.InexactFloat64(), 0.05)

	report, err := svc.ProfitReport(ctx)
	require.NoError(t, err)
	require.Len(t, report, 3)
}

func TestRebuildStockRecords(t *testing.T) {
	stock := &memoryStock{}
	svc := newTestService(history(), stock)
	ctx := context.Background()

	n, err := svc.RebuildStockRecords(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	rec, err := svc.StockRecord(ctx, turboID)
	require.NoError(t, err)
	require.Equal(t, 15, rec.TotalPurchased)
	require.Equal(t, 5, rec.TotalSold)
	require.Equal(t, 10, rec.CurrentStock)

	_, err = svc.StockRecord(ctx, uuid.New())
	require.ErrorIs(t, err, httpx.ErrNotFound)

	require.NoError(t, svc.LowStockScan(ctx))
}

func TestSnapshotWithoutSale(t *testing.T) {
	h := history()
	snap := &Snapshot{Purchases: h.purchases, Sales: h.sales}
	require.Equal(t, 10, snap.Inventory().Stock("test turbo"))
	require.Equal(t, 12, snap.WithoutSale(h.sales[1].ID).Inventory().Stock("test turbo"))
	require.Len(t, snap.Sales, 2)
}

func newTestRouter(svc Service) *chi.Mux {
	r := chi.NewRouter()
	NewHandler(svc, logger.Discard()).RegisterRoutes(r)
	return r
}

func TestHandlerCheckAndValidation(t *testing.T) {
	router := newTestRouter(newTestService(history(), nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inventory/check?item=Brake%20Pad&qty=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var res ledger.StockCheck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.False(t, res.Available)
	require.Equal(t, 0, res.CurrentStock)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inventory/check?qty=1", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inventory/check?item=x&qty=0", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inventory/profit/items/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerOverviewAndRebuild(t *testing.T) {
	router := newTestRouter(newTestService(history(), &memoryStock{}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inventory/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var ov Overview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ov))
	require.Equal(t, 3, ov.ItemCount)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/inventory/stock-records/rebuild", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"records":1}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inventory/search?q=", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var hits []SearchHit
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hits))
	require.Len(t, hits, 3)
}
