package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/notes-app/backend/internal/domain"
)

type LoginEventStore struct {
	db *sql.DB
}

func NewLoginEventStore(db *sql.DB) *LoginEventStore {
	return &LoginEventStore{db: db}
}

func (s *LoginEventStore) Create(ctx context.Context, event *domain.LoginEvent) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = time.Now().UTC()

	_, err := conn(ctx, s.db).ExecContext(ctx,
		`INSERT INTO login_events (id, user_id, ip_address, user_agent, created_at) VALUES (?, ?, ?, ?, ?)`,
		event.ID, event.UserID, event.IPAddress, event.UserAgent, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert login event: %w", err)
	}
	return nil
}

func (s *LoginEventStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.LoginEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := conn(ctx, s.db).QueryContext(ctx,
		`SELECT id, user_id, ip_address, user_agent, created_at FROM login_events
		WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list login events: %w", err)
	}
	defer rows.Close()

	events := []*domain.LoginEvent{}
	for rows.Next() {
		var e domain.LoginEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan login event: %w", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		events = append(events, &e)
	}
	return events, rows.Err()
}
