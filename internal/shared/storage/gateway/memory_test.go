package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCreateFind(t *testing.T) {
	ctx := context.Background()
	gw := NewMemory[note]()

	id, err := gw.Create(ctx, &note{Title: "first"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	got, err := gw.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = gw.Find(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCreateRejectsExplicitID(t *testing.T) {
	gw := NewMemory[note]()
	_, err := gw.Create(context.Background(), &note{ID: 9, Title: "x"})
	assert.ErrorIs(t, err, ErrExplicitID)
}

func TestMemoryFindAllByFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	gw := NewMemory[note]()
	owner, other := uuid.New(), uuid.New()
	for _, title := range []string{"b", "c", "a"} {
		_, err := gw.Create(ctx, &note{OwnerID: owner, Title: title})
		require.NoError(t, err)
	}
	_, err := gw.Create(ctx, &note{OwnerID: other, Title: "z"})
	require.NoError(t, err)

	rows, err := gw.FindAllBy(ctx, Query{Filters: []Filter{Eq("owner_id", owner)}})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{rows[0].ID, rows[1].ID, rows[2].ID})

	rows, err = gw.FindAllBy(ctx, Query{
		Filters: []Filter{Eq("owner_id", owner)},
		OrderBy: "title",
		Desc:    true,
		Limit:   2,
		Offset:  1,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0].Title)
	assert.Equal(t, "a", rows[1].Title)
}

func TestMemoryUpdateStampsAndMissesQuietly(t *testing.T) {
	ctx := context.Background()
	gw := NewMemory[note]()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	gw.now = func() time.Time { return clock }

	id, err := gw.Create(ctx, &note{Title: "old"})
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	n, err := gw.Update(ctx, id, Values{"title": "new", "done": true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := gw.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Title)
	assert.True(t, got.Done)
	assert.Equal(t, clock, got.UpdatedAt)
	assert.True(t, got.CreatedAt.Before(got.UpdatedAt))

	n, err = gw.Update(ctx, 99, Values{"title": "ghost"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryUpsertKeepsOneRowPerConflictKey(t *testing.T) {
	ctx := context.Background()
	gw := NewMemory[note]()
	owner := uuid.New()

	id1, err := gw.Upsert(ctx, &note{OwnerID: owner, Title: "v1"}, "owner_id")
	require.NoError(t, err)
	id2, err := gw.Upsert(ctx, &note{OwnerID: owner, Title: "v2", Done: true}, "owner_id")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	rows, err := gw.FindAllBy(ctx, Query{Filters: []Filter{Eq("owner_id", owner)}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "v2", rows[0].Title)
	assert.True(t, rows[0].Done)
}

func TestMemoryDeletes(t *testing.T) {
	ctx := context.Background()
	gw := NewMemory[note]()
	owner := uuid.New()
	for i := 0; i < 3; i++ {
		_, err := gw.Create(ctx, &note{OwnerID: owner, Title: "t"})
		require.NoError(t, err)
	}

	n, err := gw.DeleteAllBy(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "no filters must delete nothing")

	_, ok, err := gw.DeleteBy(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "no filters must delete nothing")
	rows, err := gw.FindAllBy(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	id, ok, err := gw.DeleteBy(ctx, Eq("owner_id", owner))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)

	_, ok, err = gw.DeleteBy(ctx, Eq("title", "missing"))
	require.NoError(t, err)
	assert.False(t, ok)

	n, err = gw.DeleteAllBy(ctx, Eq("owner_id", owner))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestMemoryReplaceIsTotal(t *testing.T) {
	ctx := context.Background()
	gw := NewMemory[note]()
	owner := uuid.New()
	scope := []Filter{Eq("owner_id", owner)}

	_, err := gw.Replace(ctx, scope, []*note{{OwnerID: owner, Title: "a"}, {OwnerID: owner, Title: "b"}})
	require.NoError(t, err)
	ids, err := gw.Replace(ctx, scope, []*note{{OwnerID: owner, Title: "c"}})
	require.NoError(t, err)
	require.Len(t, ids, 1)

	rows, err := gw.FindAllBy(ctx, Query{Filters: scope})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "c", rows[0].Title)

	_, err = gw.Replace(ctx, nil, nil)
	assert.Error(t, err)
}
