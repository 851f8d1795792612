package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openboard/board-backend/internal/board"
)

func TestNewMongoStoreDefaults(t *testing.T) {
	s := NewMongoStore(MongoConfig{URI: "mongodb://127.0.0.1:27017"}, nil)
	assert.Equal(t, "board", s.cfg.Database)
	assert.Equal(t, 5*time.Second, s.cfg.ConnectTimeout)

	s = NewMongoStore(MongoConfig{URI: "mongodb://127.0.0.1:27017", Database: "custom", ConnectTimeout: time.Second}, nil)
	assert.Equal(t, "custom", s.cfg.Database)
	assert.Equal(t, time.Second, s.cfg.ConnectTimeout)
}

func unreachableMongo(t *testing.T) *MongoStore {
	t.Helper()
	// A reserved TEST-NET address: nothing listens there, so the dial fails
	// within the short timeout instead of hanging.
	return NewMongoStore(MongoConfig{
		URI:            "mongodb://192.0.2.1:27017",
		ConnectTimeout: 200 * time.Millisecond,
	}, nil)
}

func TestMongoStoreUnreachableIsUnavailable(t *testing.T) {
	s := unreachableMongo(t)
	defer s.Close(context.Background())
	ctx := context.Background()

	_, err := s.Find(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, board.ErrUnavailable)

	_, err = s.Create(ctx, board.PostDraft{Title: "t", Author: "a", Content: "c"})
	require.Error(t, err)
	assert.ErrorIs(t, err, board.ErrUnavailable)

	err = s.Ping(ctx)
	assert.ErrorIs(t, err, board.ErrUnavailable)
}

func TestMongoStoreValidatesBeforeConnecting(t *testing.T) {
	s := unreachableMongo(t)
	ctx := context.Background()

	// Invalid input is rejected without ever dialing the database.
	_, err := s.Create(ctx, board.PostDraft{Title: "", Author: "a", Content: "c"})
	assert.True(t, board.IsValidation(err))

	empty := ""
	_, err = s.FindByIDAndUpdate(ctx, "64b0c5f2a1d3e4f5a6b7c8d9", board.PostPatch{Title: &empty})
	assert.True(t, board.IsValidation(err))
}

func TestMongoStoreUnreachableBeforeIDInspection(t *testing.T) {
	s := unreachableMongo(t)
	ctx := context.Background()

	// Ids minted by the in-memory fallback ("1", "2", ...) are not valid
	// ObjectIDs, but while the store is unreachable that must not matter:
	// the answer is unavailable, so the coordinator can serve the id from
	// the fallback. Only a reachable store gets to say not-found.
	_, err := s.FindByID(ctx, "1")
	assert.ErrorIs(t, err, board.ErrUnavailable)

	title := "t"
	_, err = s.FindByIDAndUpdate(ctx, "not-hex", board.PostPatch{Title: &title})
	assert.ErrorIs(t, err, board.ErrUnavailable)

	_, err = s.FindByIDAndDelete(ctx, "zzzz")
	assert.ErrorIs(t, err, board.ErrUnavailable)
}

func TestDegradedModePostsReachableByID(t *testing.T) {
	durable := unreachableMongo(t)
	defer durable.Close(context.Background())
	c := NewCoordinator(durable, NewMemoryStore(), nil, nil)
	ctx := context.Background()

	created, err := c.CreatePost(ctx, board.PostDraft{Title: "t", Author: "a", Content: "c", OwnerID: "u1"})
	require.NoError(t, err)
	require.True(t, created.UsedFallback)
	id := created.Value.ID

	// Every id-based operation on a post created in degraded mode keeps
	// working while the durable store stays down.
	got, err := c.GetPost(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.UsedFallback)
	assert.Equal(t, "t", got.Value.Title)

	content := "edited"
	updated, err := c.UpdatePost(ctx, id, board.PostPatch{Content: &content})
	require.NoError(t, err)
	assert.True(t, updated.UsedFallback)
	assert.Equal(t, "edited", updated.Value.Content)

	deleted, err := c.DeletePost(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted.UsedFallback)

	_, err = c.GetPost(ctx, id)
	assert.ErrorIs(t, err, board.ErrNotFound)
}

func TestMongoStoreConcurrentConnectSharesOutcome(t *testing.T) {
	s := unreachableMongo(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Find(ctx)
		}(i)
	}
	wg.Wait()

	// Every concurrent caller observes the shared attempt's failure, and
	// nothing is cached: the store stays retryable.
	for i, err := range errs {
		require.Error(t, err, "caller %d", i)
		assert.ErrorIs(t, err, board.ErrUnavailable, "caller %d", i)
	}
	_, err := s.Find(ctx)
	assert.ErrorIs(t, err, board.ErrUnavailable)
}

func TestMongoStoreCloseWithoutConnection(t *testing.T) {
	s := NewMongoStore(MongoConfig{URI: "mongodb://127.0.0.1:27017"}, nil)
	assert.NoError(t, s.Close(context.Background()))
}
