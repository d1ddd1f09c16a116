package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"pet-health-tracker/internal/domain/sharetokens"
)

type shareTokenRepo struct {
	mu      sync.RWMutex
	byID    map[string]sharetokens.ShareToken
	byValue map[string]string // token -> id
}

func NewShareTokenRepo() sharetokens.Repository {
	return &shareTokenRepo{
		byID:    make(map[string]sharetokens.ShareToken),
		byValue: make(map[string]string),
	}
}

func (r *shareTokenRepo) Create(ctx context.Context, t sharetokens.ShareToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.ID == "" {
		return errors.New("share token id required")
	}
	if _, exists := r.byID[t.ID]; exists {
		return errors.New("share token already exists")
	}
	if _, exists := r.byValue[t.Token]; exists {
		return sharetokens.ErrTokenConflict
	}
	r.byID[t.ID] = t
	r.byValue[t.Token] = t.ID
	return nil
}

func (r *shareTokenRepo) GetByID(ctx context.Context, id string) (sharetokens.ShareToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return sharetokens.ShareToken{}, sharetokens.ErrNotFound
	}
	return t, nil
}

func (r *shareTokenRepo) GetActiveByToken(ctx context.Context, token string) (sharetokens.ShareToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byValue[token]
	if !ok {
		return sharetokens.ShareToken{}, sharetokens.ErrNotFound
	}
	t := r.byID[id]
	if !t.IsActive {
		return sharetokens.ShareToken{}, sharetokens.ErrNotFound
	}
	return t, nil
}

func (r *shareTokenRepo) ListByPet(ctx context.Context, petID string) ([]sharetokens.ShareToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]sharetokens.ShareToken, 0)
	for _, t := range r.byID {
		if t.PetID == petID {
			out = append(out, t)
		}
	}
	// Más nuevo primero; a igual created_at, id desc (mismo orden que postgres).
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *shareTokenRepo) Deactivate(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok {
		return sharetokens.ErrNotFound
	}
	t.IsActive = false
	r.byID[id] = t
	return nil
}

func (r *shareTokenRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok {
		return sharetokens.ErrNotFound
	}
	delete(r.byValue, t.Token)
	delete(r.byID, id)
	return nil
}

func (r *shareTokenRepo) RecordAccess(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok {
		return sharetokens.ErrNotFound
	}
	t.AccessedCount++
	t.LastAccessedAt = &at
	r.byID[id] = t
	return nil
}
