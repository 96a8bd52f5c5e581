package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendit/internal/models"
)

// memorySearchCache is a map-backed stand-in for the redis cache.
type memorySearchCache struct {
	mu      sync.Mutex
	entries map[string][]*models.Item
	hits    int
}

func newMemorySearchCache() *memorySearchCache {
	return &memorySearchCache{entries: make(map[string][]*models.Item)}
}

func (c *memorySearchCache) GetSearch(_ context.Context, key string) ([]*models.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return items, ok
}

func (c *memorySearchCache) SetSearch(_ context.Context, key string, items []*models.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = items
}

func (c *memorySearchCache) InvalidateSearch(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]*models.Item)
}

func TestAddItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("unknown owner", func(t *testing.T) {
		_, err := f.items.AddItem(ctx, 9999, "saw", "", true, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown request", func(t *testing.T) {
		missing := int64(9999)
		_, err := f.items.AddItem(ctx, f.owner.ID, "saw", "", true, &missing)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("answering a request", func(t *testing.T) {
		request, err := f.requests.AddRequest(ctx, f.booker.ID, "need a saw")
		require.NoError(t, err)
		item, err := f.items.AddItem(ctx, f.owner.ID, "saw", "", true, &request.ID)
		require.NoError(t, err)
		require.NotNil(t, item.RequestID)
		assert.Equal(t, request.ID, *item.RequestID)
	})
}

func TestUpdateItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("partial update keeps other fields", func(t *testing.T) {
		name := "impact drill"
		updated, err := f.items.UpdateItem(ctx, f.owner.ID, f.item.ID, &name, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "impact drill", updated.Name)
		assert.Equal(t, f.item.Description, updated.Description)
		assert.True(t, updated.Available)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		name := "mine now"
		_, err := f.items.UpdateItem(ctx, f.booker.ID, f.item.ID, &name, nil, nil)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown item", func(t *testing.T) {
		name := "ghost"
		_, err := f.items.UpdateItem(ctx, f.owner.ID, 9999, &name, nil, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestGetItemProjection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hour := time.Hour

	last := f.book(t, testNow.Add(-2*hour), testNow.Add(-hour))
	next := f.book(t, testNow.Add(hour), testNow.Add(2*hour))
	_, err := f.bookings.DecideBooking(ctx, f.owner.ID, last.ID, true)
	require.NoError(t, err)
	_, err = f.bookings.DecideBooking(ctx, f.owner.ID, next.ID, true)
	require.NoError(t, err)

	t.Run("owner sees projection", func(t *testing.T) {
		view, err := f.items.GetItem(ctx, f.item.ID, f.owner.ID)
		require.NoError(t, err)
		require.NotNil(t, view.LastBooking)
		require.NotNil(t, view.NextBooking)
		assert.Equal(t, last.ID, view.LastBooking.ID)
		assert.Equal(t, next.ID, view.NextBooking.ID)
	})

	t.Run("non-owner does not", func(t *testing.T) {
		view, err := f.items.GetItem(ctx, f.item.ID, f.booker.ID)
		require.NoError(t, err)
		assert.Nil(t, view.LastBooking)
		assert.Nil(t, view.NextBooking)
	})

	t.Run("listing carries projection", func(t *testing.T) {
		views, err := f.items.ListItemsByOwner(ctx, f.owner.ID, 0, 20)
		require.NoError(t, err)
		require.Len(t, views, 1)
		require.NotNil(t, views[0].LastBooking)
		assert.Equal(t, last.ID, views[0].LastBooking.ID)
	})

	t.Run("unknown viewer", func(t *testing.T) {
		_, err := f.items.GetItem(ctx, f.item.ID, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSearchItemsCaching(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cache := newMemorySearchCache()
	f.items.cache = cache

	t.Run("empty text short-circuits", func(t *testing.T) {
		items, err := f.items.SearchItems(ctx, "", 0, 20)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("repeat query hits the cache", func(t *testing.T) {
		first, err := f.items.SearchItems(ctx, "drill", 0, 20)
		require.NoError(t, err)
		require.Len(t, first, 1)
		assert.Equal(t, 0, cache.hits)

		second, err := f.items.SearchItems(ctx, "drill", 0, 20)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, cache.hits)
	})

	t.Run("item changes invalidate", func(t *testing.T) {
		off := false
		_, err := f.items.UpdateItem(ctx, f.owner.ID, f.item.ID, nil, nil, &off)
		require.NoError(t, err)

		items, err := f.items.SearchItems(ctx, "drill", 0, 20)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestAddComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("no finished booking", func(t *testing.T) {
		_, err := f.items.AddComment(ctx, f.booker.ID, f.item.ID, "never used it")
		assert.ErrorIs(t, err, ErrBadRequest)
	})

	t.Run("ongoing booking does not qualify", func(t *testing.T) {
		f.book(t, testNow.Add(-time.Hour), testNow.Add(time.Hour))
		_, err := f.items.AddComment(ctx, f.booker.ID, f.item.ID, "still using it")
		assert.ErrorIs(t, err, ErrBadRequest)
	})

	t.Run("finished booking qualifies", func(t *testing.T) {
		f.book(t, testNow.Add(-3*time.Hour), testNow.Add(-2*time.Hour))
		comment, err := f.items.AddComment(ctx, f.booker.ID, f.item.ID, "worked great")
		require.NoError(t, err)
		assert.Equal(t, "booker", comment.AuthorName)

		view, err := f.items.GetItem(ctx, f.item.ID, f.booker.ID)
		require.NoError(t, err)
		require.Len(t, view.Comments, 1)
		assert.Equal(t, "worked great", view.Comments[0].Text)
	})

	t.Run("unknown author", func(t *testing.T) {
		_, err := f.items.AddComment(ctx, 9999, f.item.ID, "hello")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown item", func(t *testing.T) {
		_, err := f.items.AddComment(ctx, f.booker.ID, 9999, "hello")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
