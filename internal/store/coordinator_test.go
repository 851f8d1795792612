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

// unreachableStore fails every call with a connectivity-class error, the way
// a store with a dead database connection would.
type unreachableStore struct {
	mu    sync.Mutex
	calls int
}

func (s *unreachableStore) fail(op string) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return &board.UnavailableError{Op: op, Err: context.DeadlineExceeded}
}

func (s *unreachableStore) Create(ctx context.Context, draft board.PostDraft) (*board.Post, error) {
	return nil, s.fail("create")
}

func (s *unreachableStore) Find(ctx context.Context) ([]board.Post, error) {
	return nil, s.fail("find")
}

func (s *unreachableStore) FindByID(ctx context.Context, id string) (*board.Post, error) {
	return nil, s.fail("findById")
}

func (s *unreachableStore) FindByIDAndUpdate(ctx context.Context, id string, patch board.PostPatch) (*board.Post, error) {
	return nil, s.fail("findByIdAndUpdate")
}

func (s *unreachableStore) FindByIDAndDelete(ctx context.Context, id string) (*board.Post, error) {
	return nil, s.fail("findByIdAndDelete")
}

func (s *unreachableStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fallbackCounter struct {
	mu  sync.Mutex
	ops []string
}

func (f *fallbackCounter) RecordFallback(ctx context.Context, op string) {
	f.mu.Lock()
	f.ops = append(f.ops, op)
	f.mu.Unlock()
}

func draft() board.PostDraft {
	return board.PostDraft{Title: "hello", Author: "ann", Content: "first post", OwnerID: "u1"}
}

func TestCoordinatorServesFromDurableWhenHealthy(t *testing.T) {
	durable := NewMemoryStore()
	fallback := NewMemoryStore()
	c := NewCoordinator(durable, fallback, nil, nil)
	ctx := context.Background()

	created, err := c.CreatePost(ctx, draft())
	require.NoError(t, err)
	assert.False(t, created.UsedFallback)
	assert.Empty(t, created.Advisory)

	listed, err := c.ListPosts(ctx)
	require.NoError(t, err)
	assert.False(t, listed.UsedFallback)
	require.Len(t, listed.Value, 1)

	// Nothing leaked into the fallback.
	assert.Equal(t, 0, fallback.Len())
}

func TestCoordinatorFallsBackWhenDurableUnreachable(t *testing.T) {
	durable := &unreachableStore{}
	seeded := time.Now().UTC().Add(-time.Hour)
	fallback := NewMemoryStore(board.Post{
		ID: "1", Title: "seed", Author: "system", Content: "c",
		CreatedAt: seeded, UpdatedAt: seeded,
	})
	rec := &fallbackCounter{}
	c := NewCoordinator(durable, fallback, nil, rec)
	ctx := context.Background()

	created, err := c.CreatePost(ctx, draft())
	require.NoError(t, err)
	assert.True(t, created.UsedFallback)
	assert.Equal(t, AdvisoryDegraded, created.Advisory)
	require.NotNil(t, created.Value)
	assert.Equal(t, "2", created.Value.ID)

	// The new post lands ahead of the seed record.
	listed, err := c.ListPosts(ctx)
	require.NoError(t, err)
	assert.True(t, listed.UsedFallback)
	require.Len(t, listed.Value, 2)
	assert.Equal(t, created.Value.ID, listed.Value[0].ID)

	got, err := c.GetPost(ctx, created.Value.ID)
	require.NoError(t, err)
	assert.True(t, got.UsedFallback)

	content := "edited"
	updated, err := c.UpdatePost(ctx, created.Value.ID, board.PostPatch{Content: &content})
	require.NoError(t, err)
	assert.True(t, updated.UsedFallback)
	assert.Equal(t, "edited", updated.Value.Content)

	deleted, err := c.DeletePost(ctx, created.Value.ID)
	require.NoError(t, err)
	assert.True(t, deleted.UsedFallback)

	assert.Equal(t, []string{"create", "find", "findById", "findByIdAndUpdate", "findByIdAndDelete"}, rec.ops)
}

func TestCoordinatorRetriesDurableEveryCall(t *testing.T) {
	durable := &unreachableStore{}
	c := NewCoordinator(durable, NewMemoryStore(), nil, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.ListPosts(ctx)
		require.NoError(t, err)
	}

	// The durable path is probed on every call, never written off.
	assert.Equal(t, 3, durable.callCount())
}

func TestCoordinatorValidationSkipsBothStores(t *testing.T) {
	durable := &unreachableStore{}
	fallback := NewMemoryStore()
	c := NewCoordinator(durable, fallback, nil, nil)
	ctx := context.Background()

	_, err := c.CreatePost(ctx, board.PostDraft{Title: "", Author: "a", Content: "c"})
	require.Error(t, err)
	assert.True(t, board.IsValidation(err))
	assert.Equal(t, 0, durable.callCount())
	assert.Equal(t, 0, fallback.Len())

	empty := "   "
	_, err = c.UpdatePost(ctx, "1", board.PostPatch{Title: &empty})
	require.Error(t, err)
	assert.True(t, board.IsValidation(err))
	assert.Equal(t, 0, durable.callCount())
}

func TestCoordinatorNotFoundDoesNotFallBack(t *testing.T) {
	durable := NewMemoryStore()
	fallback := NewMemoryStore()
	rec := &fallbackCounter{}
	c := NewCoordinator(durable, fallback, nil, rec)
	ctx := context.Background()

	// Seed the fallback with a record the durable store lacks. A not-found
	// answer from a reachable durable store is authoritative.
	_, err := fallback.Create(ctx, draft())
	require.NoError(t, err)

	_, err = c.GetPost(ctx, "1")
	assert.ErrorIs(t, err, board.ErrNotFound)
	assert.Empty(t, rec.ops)
}

func TestCoordinatorFallbackErrorPropagates(t *testing.T) {
	c := NewCoordinator(&unreachableStore{}, NewMemoryStore(), nil, nil)

	// The fallback's answer is final; its errors are never swallowed.
	_, err := c.GetPost(context.Background(), "404")
	assert.ErrorIs(t, err, board.ErrNotFound)
}

func TestCoordinatorDurableReady(t *testing.T) {
	// A durable store without a Ping hook is assumed ready.
	c := NewCoordinator(NewMemoryStore(), NewMemoryStore(), nil, nil)
	assert.True(t, c.DurableReady(context.Background()))
}
