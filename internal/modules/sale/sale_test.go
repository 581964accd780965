package sale

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbotech/turboparts-backend/internal/modules/customer"
	"github.com/turbotech/turboparts-backend/internal/modules/inventory"
	"github.com/turbotech/turboparts-backend/internal/modules/ledger"
	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
	"github.com/turbotech/turboparts-backend/internal/platform/jobs"
	"github.com/turbotech/turboparts-backend/internal/platform/lock"
	"github.com/turbotech/turboparts-backend/internal/platform/logger"
	"github.com/turbotech/turboparts-backend/internal/platform/metrics"
)

// memoryStore holds both sides of the ledger so it can serve the stock snapshot too.
type memoryStore struct {
	mu        sync.Mutex
	purchases []ledger.Purchase
	sales     map[uuid.UUID]ledger.Sale
}

func newMemoryStore(stock map[string]int) *memoryStore {
	st := &memoryStore{sales: make(map[uuid.UUID]ledger.Sale)}
	for name, qty := range stock {
		p := ledger.Purchase{ID: uuid.New(), SupplierName: "Lahore Spares", PurchaseDate: time.Now(),
			Items: []ledger.PurchaseItem{ledger.NewPurchaseItem(name, qty, decimal.NewFromInt(1000))}}
		p.Recalculate()
		st.purchases = append(st.purchases, p)
	}
	return st
}

func (m *memoryStore) Snapshot(context.Context) (*inventory.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := &inventory.Snapshot{Purchases: append([]ledger.Purchase(nil), m.purchases...)}
	for _, s := range m.sales {
		snap.Sales = append(snap.Sales, s)
	}
	return snap, nil
}

func (m *memoryStore) CreateSale(_ context.Context, s *ledger.Sale) error {
	// Widen the window between the gate and the write so unserialised callers would collide.
	time.Sleep(2 * time.Millisecond)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales[s.ID] = *s
	return nil
}

func (m *memoryStore) GetSale(_ context.Context, id uuid.UUID) (*ledger.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sales[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return &s, nil
}

func (m *memoryStore) ListSales(_ context.Context, f ListFilter) ([]ledger.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ledger.Sale
	for _, s := range m.sales {
		if matches(f, &s) {
			out = append(out, s)
		}
	}
	return out, nil
}

// matches mirrors the WHERE clause the postgres repository builds from f.
func matches(f ListFilter, s *ledger.Sale) bool {
	if f.CustomerID != nil && (s.CustomerID == nil || *s.CustomerID != *f.CustomerID) {
		return false
	}
	if f.PaymentMethod != "" && s.PaymentMethod != f.PaymentMethod {
		return false
	}
	if !f.From.IsZero() && s.SaleDate.Before(f.From) {
		return false
	}
	return f.To.IsZero() || s.SaleDate.Before(f.To)
}

func (m *memoryStore) ListAllSales(ctx context.Context) ([]ledger.Sale, error) {
	return m.ListSales(ctx, ListFilter{})
}

func (m *memoryStore) ReplaceSale(_ context.Context, s *ledger.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sales[s.ID]; !ok {
		return httpx.ErrNotFound
	}
	m.sales[s.ID] = *s
	return nil
}

func (m *memoryStore) DeleteSale(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sales[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.sales, id)
	return nil
}

type customerDirectory map[uuid.UUID]*customer.Customer

func (d customerDirectory) Get(_ context.Context, id uuid.UUID) (*customer.Customer, error) {
	c, ok := d[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return c, nil
}

type recordingQueue struct {
	mu       sync.Mutex
	payloads []jobs.LowStockScanPayload
	err      error
}

func (q *recordingQueue) EnqueueLowStockScan(_ context.Context, p jobs.LowStockScanPayload) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.payloads = append(q.payloads, p)
	return q.err
}

var ahmedID = uuid.MustParse("0f5c2f8e-9a5b-4f6e-a1d4-7f1e0a3b2c44")

func newTestService(store *memoryStore, locker lock.Locker, queue jobs.Enqueuer) Service {
	return NewService(Deps{
		Repo:      store,
		Customers: customerDirectory{ahmedID: {ID: ahmedID, Name: "Ahmed Raza", Phone: "+92 321 5550001", City: "Lahore"}},
		Snapshots: store,
		Locker:    locker,
		Jobs:      queue,
		Metrics:   metrics.New(),
		Log:       logger.Discard(),
	})
}

func walkIn(lines ...ItemRequest) Request {
	return Request{CustomerName: "Walk-in", PaymentMethod: ledger.PaymentCash, Items: lines}
}

func line(name string, qty int, price int64) ItemRequest {
	return ItemRequest{ItemName: name, Quantity: qty, PricePerUnit: decimal.NewFromInt(price)}
}

func TestCreateSaleWithinStock(t *testing.T) {
	store := newMemoryStore(map[string]int{"Test Turbo": 15})
	queue := &recordingQueue{}
	svc := newTestService(store, nil, queue)

	s, err := svc.CreateSale(context.Background(), walkIn(line("test turbo", 5, 7000)))
	require.NoError(t, err)
	require.True(t, s.TotalAmount.Equal(decimal.NewFromInt(35000)))
	require.Len(t, store.sales, 1)
	require.Len(t, queue.payloads, 1)
	require.Equal(t, []string{"test turbo"}, queue.payloads[0].ItemNames)
}

func TestCreateSaleRejectedOnInsufficientStock(t *testing.T) {
	store := newMemoryStore(map[string]int{"Test Turbo": 10, "Oil Filter": 2})
	svc := newTestService(store, nil, nil)

	_, err := svc.CreateSale(context.Background(), walkIn(
		line("Test Turbo", 4, 7000),
		line("Oil Filter", 2, 1500),
		line("OIL FILTER", 1, 1500),
		line("Wastegate", 1, 3000),
	))
	require.ErrorIs(t, err, httpx.ErrConflict)
	var short *InsufficientStockError
	require.True(t, errors.As(err, &short))
	require.Equal(t, []string{
		"Oil Filter: Insufficient stock: requested 3, available 2 (short by 1)",
		"Wastegate: Item not found in inventory",
	}, short.Messages())
	require.Empty(t, store.sales)
}

func TestCreateSaleResolvesCustomer(t *testing.T) {
	store := newMemoryStore(map[string]int{"Turbo Core CHRA": 3})
	svc := newTestService(store, nil, nil)
	id := ahmedID

	s, err := svc.CreateSale(context.Background(), Request{CustomerID: &id, PaymentMethod: ledger.PaymentBankTransfer,
		Items: []ItemRequest{line("Turbo Core CHRA", 1, 42000)}})
	require.NoError(t, err)
	require.Equal(t, "Ahmed Raza", s.CustomerName)
	require.Equal(t, "Lahore", s.CustomerCity)

	missing := uuid.New()
	_, err = svc.CreateSale(context.Background(), Request{CustomerID: &missing, PaymentMethod: ledger.PaymentCash,
		Items: []ItemRequest{line("Turbo Core CHRA", 1, 42000)}})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateSaleValidation(t *testing.T) {
	svc := newTestService(newMemoryStore(nil), nil, nil)
	ctx := context.Background()
	var verr *httpx.ValidationError

	_, err := svc.CreateSale(ctx, Request{CustomerName: "Walk-in", PaymentMethod: "BARTER", Items: []ItemRequest{line("x", 1, 1)}})
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "payment_method")

	_, err = svc.CreateSale(ctx, walkIn(line("x", 1, -1)))
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "items[0].price_per_unit")

	_, err = svc.CreateSale(ctx, Request{PaymentMethod: ledger.PaymentCash, Items: []ItemRequest{line("x", 1, 1)}})
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "customer_name")
}

func TestUpdateSaleDoesNotCountItself(t *testing.T) {
	store := newMemoryStore(map[string]int{"Test Turbo": 10})
	svc := newTestService(store, nil, nil)
	ctx := context.Background()

	s, err := svc.CreateSale(ctx, walkIn(line("Test Turbo", 8, 7000)))
	require.NoError(t, err)

	// 10 in stock: replacing the 8 with 10 fits, but 11 does not.
	updated, err := svc.UpdateSale(ctx, s.ID, walkIn(line("Test Turbo", 10, 7000)))
	require.NoError(t, err)
	require.Equal(t, 10, updated.Items[0].Quantity)

	_, err = svc.UpdateSale(ctx, s.ID, walkIn(line("Test Turbo", 11, 7000)))
	require.ErrorIs(t, err, httpx.ErrConflict)

	require.NoError(t, svc.DeleteSale(ctx, s.ID))
	_, err = svc.GetSale(ctx, s.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestUpdateSaleKeepsDateWhenOmitted(t *testing.T) {
	store := newMemoryStore(map[string]int{"Test Turbo": 10})
	svc := newTestService(store, nil, nil)
	ctx := context.Background()

	soldAt := time.Date(2024, 5, 3, 10, 30, 0, 0, time.UTC)
	req := walkIn(line("Test Turbo", 2, 7000))
	req.SaleDate = &soldAt
	s, err := svc.CreateSale(ctx, req)
	require.NoError(t, err)

	req = walkIn(line("Test Turbo", 2, 7000))
	req.Notes = "paid in full"
	updated, err := svc.UpdateSale(ctx, s.ID, req)
	require.NoError(t, err)
	require.Equal(t, soldAt, updated.SaleDate)
	require.Equal(t, "paid in full", updated.Notes)

	movedTo := soldAt.Add(48 * time.Hour)
	req.SaleDate = &movedTo
	updated, err = svc.UpdateSale(ctx, s.ID, req)
	require.NoError(t, err)
	require.Equal(t, movedTo, updated.SaleDate)
}

func TestEnqueueFailureDoesNotFailSale(t *testing.T) {
	store := newMemoryStore(map[string]int{"Test Turbo": 1})
	svc := newTestService(store, nil, &recordingQueue{err: errors.New("redis down")})
	_, err := svc.CreateSale(context.Background(), walkIn(line("Test Turbo", 1, 7000)))
	require.NoError(t, err)
}

func TestConcurrentSalesAreSerialisedByItemLock(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	locker := lock.NewRedisLocker(rdb, "stock", 5*time.Second, nil).WithRetry(5*time.Millisecond, 400)

	store := newMemoryStore(map[string]int{"Test Turbo": 10})
	svc := newTestService(store, locker, nil)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, deny int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateSale(context.Background(), walkIn(line("Test Turbo", 3, 7000)))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else {
				assert.ErrorIs(t, err, httpx.ErrConflict)
				deny++
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 3, ok)
	require.Equal(t, 5, deny)
	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, snap.Inventory().Stock("Test Turbo"))
	require.Empty(t, snap.Inventory().Oversold())
}

func newTestRouter(svc Service) *chi.Mux {
	r := chi.NewRouter()
	NewHandler(svc, logger.Discard()).RegisterRoutes(r)
	return r
}

func TestHandlerRejectsShortSaleWith409(t *testing.T) {
	router := newTestRouter(newTestService(newMemoryStore(map[string]int{"Test Turbo": 2}), nil, nil))

	body := `{"customer_name":"Walk-in","payment_method":"CASH","items":[{"item_name":"Test Turbo","quantity":3,"price_per_unit":"7000"}]}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sales/", strings.NewReader(body)))
	require.Equal(t, http.StatusConflict, rec.Code)
	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Equal(t, []string{"Test Turbo: Insufficient stock: requested 3, available 2 (short by 1)"}, problem.Messages)

	body = strings.Replace(body, `"quantity":3`, `"quantity":2`, 1)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sales/", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales/?payment_method=cash", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []ledger.Sale
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales/?payment_method=barter", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
