package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LoginEvent records one successful login.
type LoginEvent struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	CreatedAt time.Time `json:"createdAt"`
}

type LoginEventRepository interface {
	Create(ctx context.Context, event *LoginEvent) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*LoginEvent, error)
}
