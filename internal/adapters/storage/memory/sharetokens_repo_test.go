package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pet-health-tracker/internal/domain/sharetokens"
)

func TestShareTokenRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewShareTokenRepo()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	older := sharetokens.ShareToken{ID: "t1", PetID: "p1", Token: "aaa", PermissionLevel: sharetokens.PermissionBasic, IsActive: true, CreatedAt: base}
	newer := sharetokens.ShareToken{ID: "t2", PetID: "p1", Token: "bbb", PermissionLevel: sharetokens.PermissionAdvanced, IsActive: true, CreatedAt: base.Add(time.Minute)}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	dup := sharetokens.ShareToken{ID: "t3", PetID: "p2", Token: "aaa"}
	require.ErrorIs(t, repo.Create(ctx, dup), sharetokens.ErrTokenConflict)

	items, err := repo.ListByPet(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "t2", items[0].ID)

	at := base.Add(time.Hour)
	require.NoError(t, repo.RecordAccess(ctx, "t1", at))
	require.NoError(t, repo.RecordAccess(ctx, "t1", at))
	got, err := repo.GetActiveByToken(ctx, "aaa")
	require.NoError(t, err)
	require.EqualValues(t, 2, got.AccessedCount)
	require.True(t, at.Equal(*got.LastAccessedAt))

	require.NoError(t, repo.Deactivate(ctx, "t1"))
	_, err = repo.GetActiveByToken(ctx, "aaa")
	require.ErrorIs(t, err, sharetokens.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "t1"))
	_, err = repo.GetByID(ctx, "t1")
	require.ErrorIs(t, err, sharetokens.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, "t1"), sharetokens.ErrNotFound)

	// El valor liberado se puede volver a usar.
	require.NoError(t, repo.Create(ctx, dup))
}

func TestShareTokenRepo_ListByPetTieBreak(t *testing.T) {
	ctx := context.Background()
	repo := NewShareTokenRepo()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"t-b", "t-d", "t-a", "t-c"} {
		tok := sharetokens.ShareToken{ID: id, PetID: "p1", Token: fmt.Sprintf("tok-%d", i), PermissionLevel: sharetokens.PermissionBasic, IsActive: true, CreatedAt: at}
		require.NoError(t, repo.Create(ctx, tok))
	}

	for i := 0; i < 5; i++ {
		items, err := repo.ListByPet(ctx, "p1")
		require.NoError(t, err)
		ids := make([]string, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.ID)
		}
		require.Equal(t, []string{"t-d", "t-c", "t-b", "t-a"}, ids)
	}
}
