package customorder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
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
	rows map[uuid.UUID]CustomOrder
}

func newMemoryRepo() *memoryRepo { return &memoryRepo{rows: make(map[uuid.UUID]CustomOrder)} }

func (m *memoryRepo) Create(_ context.Context, o *CustomOrder) error {
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	m.rows[o.ID] = *o
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*CustomOrder, error) {
	o, ok := m.rows[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return &o, nil
}

func (m *memoryRepo) List(_ context.Context, status Status) ([]*CustomOrder, error) {
	var out []*CustomOrder
	for _, o := range m.rows {
		if status == "" || o.Status == status {
			o := o
			out = append(out, &o)
		}
	}
	return out, nil
}

func (m *memoryRepo) UpdateStatus(_ context.Context, id uuid.UUID, status Status, notes string) error {
	o, ok := m.rows[id]
	if !ok {
		return httpx.ErrNotFound
	}
	o.Status = status
	o.AdminNotes = notes
	m.rows[id] = o
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.rows[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func newTestService(repo Repository) *service {
	svc := NewService(repo, logger.Discard()).(*service)
	svc.now = func() time.Time { return time.Date(2024, 7, 9, 15, 4, 0, 0, time.UTC) }
	return svc
}

func validRequest() SubmitRequest {
	return SubmitRequest{
		CustomerName:    "Bilal Khan",
		Phone:           "+92 333 1112222",
		City:            "Karachi",
		VehicleMake:     "Toyota",
		VehicleModel:    "Hilux Vigo",
		VehicleYear:     2012,
		PartDescription: "CT16 turbo for 2KD engine",
	}
}

func TestSubmitAssignsNumberAndDefaults(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	o, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^CO-20240709-[0-9A-F]{4}$`), o.Number)
	require.Equal(t, StatusPending, o.Status)
	require.Equal(t, 1, o.Quantity)
	require.Nil(t, o.Budget)
}

func TestSubmitValidation(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()
	var verr *httpx.ValidationError

	req := validRequest()
	req.PartDescription = ""
	_, err := svc.Submit(ctx, req)
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "part_description")

	req = validRequest()
	req.Email = "not-an-email"
	_, err = svc.Submit(ctx, req)
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "email")

	req = validRequest()
	neg := decimal.NewFromInt(-1)
	req.Budget = &neg
	_, err = svc.Submit(ctx, req)
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "budget")
}

func TestStatusMachine(t *testing.T) {
	require.True(t, CanTransition(StatusPending, StatusReviewing))
	require.True(t, CanTransition(StatusQuoted, StatusConfirmed))
	require.True(t, CanTransition(StatusConfirmed, StatusCancelled))
	require.False(t, CanTransition(StatusPending, StatusQuoted))
	require.False(t, CanTransition(StatusCompleted, StatusCancelled))
	require.False(t, CanTransition(StatusCancelled, StatusPending))

	svc := newTestService(newMemoryRepo())
	ctx := context.Background()
	o, err := svc.Submit(ctx, validRequest())
	require.NoError(t, err)

	for _, next := range []Status{StatusReviewing, StatusQuoted, StatusConfirmed, StatusCompleted} {
		o, err = svc.UpdateStatus(ctx, o.ID, UpdateStatusRequest{Status: next, AdminNotes: "ok"})
		require.NoError(t, err)
		require.Equal(t, next, o.Status)
	}

	_, err = svc.UpdateStatus(ctx, o.ID, UpdateStatusRequest{Status: StatusCancelled})
	require.ErrorIs(t, err, httpx.ErrConflict)

	_, err = svc.UpdateStatus(ctx, o.ID, UpdateStatusRequest{Status: "SHIPPED"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.UpdateStatus(ctx, uuid.New(), UpdateStatusRequest{Status: StatusReviewing})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestListByStatus(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()
	a, err := svc.Submit(ctx, validRequest())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, validRequest())
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, a.ID, UpdateStatusRequest{Status: "reviewing"})
	require.NoError(t, err)

	pending, err := svc.List(ctx, "pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = svc.List(ctx, "lost")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestHandlerSubmitAndTransition(t *testing.T) {
	h := NewHandler(newTestService(newMemoryRepo()), logger.Discard())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	r.Route("/admin", h.RegisterAdminRoutes)

	body := `{"customer_name":"Bilal Khan","phone":"0333","part_description":"K03 CHRA","budget":"25000"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/custom-orders", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var o CustomOrder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))
	require.True(t, o.Budget.Equal(decimal.NewFromInt(25000)))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/admin/custom-orders/"+o.ID.String()+"/status",
		strings.NewReader(`{"status":"QUOTED"}`)))
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/admin/custom-orders/"+o.ID.String()+"/status",
		strings.NewReader(`{"status":"REVIEWING","admin_notes":"checking supplier"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/admin/custom-orders/"+o.ID.String(), nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}
