package sharetokens

import (
	"context"
	"time"
)

type Repository interface {
	// Create devuelve ErrTokenConflict si el valor de Token ya existe.
	Create(ctx context.Context, t ShareToken) error
	GetByID(ctx context.Context, id string) (ShareToken, error)
	// GetActiveByToken ignora tokens revocados (ErrNotFound).
	GetActiveByToken(ctx context.Context, token string) (ShareToken, error)
	// ListByPet ordena por created_at DESC.
	ListByPet(ctx context.Context, petID string) ([]ShareToken, error)
	Deactivate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	// RecordAccess incrementa accessed_count de forma atómica en el store.
	RecordAccess(ctx context.Context, id string, at time.Time) error
}
