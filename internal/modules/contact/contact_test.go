package contact

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
	"github.com/turbotech/turboparts-backend/internal/platform/logger"
)

type memoryRepo struct {
	rows  map[uuid.UUID]*Message
	clock time.Time
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[uuid.UUID]*Message), clock: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (m *memoryRepo) Create(_ context.Context, msg *Message) error {
	m.clock = m.clock.Add(time.Minute)
	msg.CreatedAt = m.clock
	cp := *msg
	m.rows[msg.ID] = &cp
	return nil
}

func (m *memoryRepo) List(_ context.Context, unreadOnly bool) ([]*Message, error) {
	var out []*Message
	for _, msg := range m.rows {
		if unreadOnly && msg.Read {
			continue
		}
		cp := *msg
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryRepo) MarkRead(_ context.Context, id uuid.UUID) error {
	msg, ok := m.rows[id]
	if !ok {
		return httpx.ErrNotFound
	}
	msg.Read = true
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.rows[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func TestSubmitAndUnreadFilter(t *testing.T) {
	svc := NewService(newMemoryRepo(), logger.Discard())
	ctx := context.Background()

	first, err := svc.Submit(ctx, Request{Name: " Ayesha ", Email: "Ayesha@Example.com", Body: "Do you ship to Quetta?"})
	require.NoError(t, err)
	require.Equal(t, "Ayesha", first.Name)
	require.Equal(t, "ayesha@example.com", first.Email)

	second, err := svc.Submit(ctx, Request{Name: "Omar", Email: "omar@example.com", Body: "Price for GT2056?"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(ctx, first.ID))

	unread, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	require.Equal(t, second.ID, unread[0].ID)

	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, second.ID, all[0].ID)

	require.ErrorIs(t, svc.MarkRead(ctx, uuid.New()), httpx.ErrNotFound)
}

func TestSubmitValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), logger.Discard())

	_, err := svc.Submit(context.Background(), Request{Name: "Omar", Email: "nope", Body: "  "})
	var verr *httpx.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "email")
	require.Contains(t, verr.Fields, "message")
}

func TestHandlerRoutes(t *testing.T) {
	h := NewHandler(NewService(newMemoryRepo(), logger.Discard()), logger.Discard())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	r.Route("/admin", h.RegisterAdminRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/contact",
		strings.NewReader(`{"name":"Sana","email":"sana@example.com","message":"Need a turbo for a Prado"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var m Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/messages/"+m.ID.String()+"/read", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/messages?unread=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/admin/messages/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
