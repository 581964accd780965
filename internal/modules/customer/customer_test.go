package customer

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

type memoryRepo struct {
	rows  map[uuid.UUID]Customer
	order []uuid.UUID
}

func newMemoryRepo() *memoryRepo { return &memoryRepo{rows: make(map[uuid.UUID]Customer)} }

func (m *memoryRepo) Create(_ context.Context, c *Customer) error {
	m.rows[c.ID] = *c
	m.order = append(m.order, c.ID)
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id uuid.UUID) (*Customer, error) {
	c, ok := m.rows[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return &c, nil
}

func (m *memoryRepo) List(_ context.Context, q string) ([]*Customer, error) {
	var out []*Customer
	for _, id := range m.order {
		c, ok := m.rows[id]
		if ok && (q == "" || c.City == q || c.Phone == q || c.Name == q) {
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memoryRepo) Update(_ context.Context, c *Customer) error {
	if _, ok := m.rows[c.ID]; !ok {
		return httpx.ErrNotFound
	}
	m.rows[c.ID] = *c
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.rows[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func TestCustomerCRUD(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	c, err := svc.Create(ctx, Request{Name: "Ahmed Khan", Phone: " 0321-5550000 ", City: "Lahore"})
	require.NoError(t, err)
	require.Equal(t, "0321-5550000", c.Phone)

	list, err := svc.List(ctx, " Lahore ")
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = svc.Update(ctx, c.ID, Request{Name: "Ahmed Khan", Phone: "0321-5550001", City: "Islamabad"})
	require.NoError(t, err)
	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "Islamabad", got.City)

	require.NoError(t, svc.Delete(ctx, c.ID))
	_, err = svc.Get(ctx, c.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCustomerRequiresPhone(t *testing.T) {
	_, err := NewService(newMemoryRepo()).Create(context.Background(), Request{Name: "No Phone"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}
