package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/notes-app/backend/internal/domain"
)

type LoginEventRepository struct {
	db *pgxpool.Pool
}

func NewLoginEventRepository(db *pgxpool.Pool) *LoginEventRepository {
	return &LoginEventRepository{db: db}
}

func (r *LoginEventRepository) Create(ctx context.Context, event *domain.LoginEvent) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO login_events (id, user_id, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := conn(ctx, r.db).Exec(ctx, query,
		event.ID, event.UserID, event.IPAddress, event.UserAgent, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert login event: %w", err)
	}
	return nil
}

func (r *LoginEventRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.LoginEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT id, user_id, ip_address, user_agent, created_at
		FROM login_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := conn(ctx, r.db).Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list login events: %w", err)
	}
	defer rows.Close()

	events := []*domain.LoginEvent{}
	for rows.Next() {
		e := &domain.LoginEvent{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan login event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
