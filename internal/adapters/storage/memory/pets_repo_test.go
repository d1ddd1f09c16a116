package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pet-health-tracker/internal/domain/pets"
)

func TestPetRepo_ListByOwner(t *testing.T) {
	repo := NewPetRepo()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, pets.Pet{ID: "p2", OwnerUserID: "o1", Name: "B", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, pets.Pet{ID: "p1", OwnerUserID: "o1", Name: "A", CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, pets.Pet{ID: "p3", OwnerUserID: "o2", Name: "C", CreatedAt: base}))

	got, err := repo.ListByOwner(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "p1", got[0].ID)
	require.Equal(t, "p2", got[1].ID)

	require.Error(t, repo.Create(ctx, pets.Pet{ID: "p1", OwnerUserID: "o1"}), "duplicate id")
}

func TestPetRepo_UpdateKeepsOwner(t *testing.T) {
	repo := NewPetRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, pets.Pet{ID: "p1", OwnerUserID: "o1", Name: "A"}))
	require.NoError(t, repo.Update(ctx, pets.Pet{ID: "p1", OwnerUserID: "intruder", Name: "B"}))

	p, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "o1", p.OwnerUserID)
	require.Equal(t, "B", p.Name)

	require.ErrorIs(t, repo.Update(ctx, pets.Pet{ID: "missing"}), pets.ErrNotFound)
}

func TestPetRepo_CanceledContext(t *testing.T) {
	repo := NewPetRepo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetByID(ctx, "p1")
	require.True(t, errors.Is(err, context.Canceled))
}
