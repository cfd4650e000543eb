package history

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raushankrgupta/fitly-tryon/docstore"
	"github.com/raushankrgupta/fitly-tryon/errs"
	"github.com/raushankrgupta/fitly-tryon/models"
)

func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func TestAddListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory(docstore.WithClock(steppingClock(time.Unix(1000, 0))))
	repo := NewRepository(store)

	first, err := repo.Add(ctx, "u1", models.HistoryRecord{LocalURI: "file:///a.png", GarmentURL: "https://x/g.jpg"})
	require.NoError(t, err)
	second, err := repo.Add(ctx, "u1", models.HistoryRecord{LocalURI: "file:///b.png", HasGarmentB64: true})
	require.NoError(t, err)
	_, err = repo.Add(ctx, "u2", models.HistoryRecord{LocalURI: "file:///other.png"})
	require.NoError(t, err)

	list, err := repo.List(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)
	assert.Equal(t, first, list[1].ID)
	assert.True(t, list[0].HasGarmentB64)
	assert.Empty(t, list[0].ImageURL)
	assert.Equal(t, "file:///b.png", list[0].DisplayURI())
	assert.Equal(t, "https://x/g.jpg", list[1].GarmentURL)
	assert.False(t, list[0].CreatedAt.IsZero())
}

func TestSetImageURL(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(docstore.NewMemory())

	id, err := repo.Add(ctx, "u1", models.HistoryRecord{LocalURI: "file:///a.png"})
	require.NoError(t, err)
	require.NoError(t, repo.SetImageURL(ctx, "u1", id, "https://cdn/a.png"))

	list, err := repo.List(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/a.png", list[0].DisplayURI())

	err = repo.SetImageURL(ctx, "u1", "missing", "https://cdn/b.png")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(docstore.NewMemory())
	var ids []string
	for i := 0; i < 3; i++ {
		id, err := repo.Add(ctx, "u1", models.HistoryRecord{LocalURI: "file:///x.png"})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	_, err := repo.Add(ctx, "u2", models.HistoryRecord{LocalURI: "file:///y.png"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "u1", ids[0]))
	n, err := repo.Clear(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := repo.List(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, list)
	list, err = repo.List(ctx, "u2", 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestWatch(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(docstore.NewMemory())

	var mu sync.Mutex
	var latest []models.HistoryRecord
	stop := repo.Watch(ctx, "u1", 10, func(recs []models.HistoryRecord) {
		mu.Lock()
		defer mu.Unlock()
		latest = recs
	}, func(err error) { t.Errorf("unexpected watch error: %v", err) })
	defer stop()

	_, err := repo.Add(ctx, "u1", models.HistoryRecord{LocalURI: "file:///a.png"})
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(latest) == 1
	}, time.Second, 5*time.Millisecond)
}
