package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raushankrgupta/fitly-tryon/docstore"
	"github.com/raushankrgupta/fitly-tryon/errs"
)

func seed(t *testing.T, store docstore.Store, id string, created time.Time) {
	t.Helper()
	require.NoError(t, store.Set(context.Background(), docstore.Join(Collection, id), docstore.Fields{
		"title":       "Item " + id,
		"imageUrl":    "https://cdn/" + id + ".jpg",
		"deleteToken": "tok-" + id,
		"width":       int64(640),
		"createdAt":   created,
	}, false))
}

func TestListNewestFirstWithoutTokens(t *testing.T) {
	store := docstore.NewMemory()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seed(t, store, "c1", base)
	seed(t, store, "c2", base.Add(time.Hour))
	seed(t, store, "c3", base.Add(2*time.Hour))

	items, err := NewReader(store).List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "c3", items[0].ID)
	assert.Equal(t, "c2", items[1].ID)
	assert.Equal(t, 640, items[0].Width)
	for _, item := range items {
		assert.Empty(t, item.DeleteToken)
	}
}

func TestGet(t *testing.T) {
	store := docstore.NewMemory()
	seed(t, store, "c1", time.Now())
	r := NewReader(store)

	item, err := r.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/c1.jpg", item.ImageURL)
	assert.Empty(t, item.DeleteToken)

	_, err = r.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}
