package contact

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/turbotech/turboparts-backend/internal/platform/database"
	"github.com/turbotech/turboparts-backend/internal/platform/httpx"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, m *Message) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO contact_messages (id, name, email, phone, subject, body)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING read, created_at`,
		m.ID, m.Name, m.Email, m.Phone, m.Subject, m.Body).Scan(&m.Read, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("contact: create: %w", database.MapError(err))
	}
	return nil
}

func (r *postgresRepo) List(ctx context.Context, unreadOnly bool) ([]*Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, phone, subject, body, read, created_at
		FROM contact_messages
		WHERE NOT $1 OR read = FALSE
		ORDER BY created_at DESC`, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("contact: list: %w", err)
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		m := &Message{}
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Subject, &m.Body, &m.Read, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("contact: scan: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *postgresRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, "mark read", `UPDATE contact_messages SET read = TRUE WHERE id=$1`, id)
}

func (r *postgresRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, "delete", `DELETE FROM contact_messages WHERE id=$1`, id)
}

func (r *postgresRepo) exec(ctx context.Context, op, query string, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("contact: %s %s: %w", op, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("contact: %s %s: %w", op, id, httpx.ErrNotFound)
	}
	return nil
}
