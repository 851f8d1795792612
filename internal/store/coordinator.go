package store

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/openboard/board-backend/internal/board"
)

// AdvisoryDegraded is shown to end users whenever a request was served by
// the in-memory fallback instead of the durable store.
const AdvisoryDegraded = "The database is unreachable; operating on temporary in-memory storage. Data will be lost on restart."

// Result tags a store result with the backend that produced it. Advisory is
// set only when the fallback served the call.
type Result[T any] struct {
	Value        T
	UsedFallback bool
	Advisory     string
}

// FallbackRecorder is the metrics hook the coordinator needs.
type FallbackRecorder interface {
	RecordFallback(ctx context.Context, op string)
}

// Coordinator presents one CRUD contract over the durable store and the
// in-memory fallback. Every call attempts the durable path first; on a
// connectivity-class failure it retries the same operation against the
// fallback and tags the result as degraded. The decision is made per call,
// never cached, so the service heals itself the moment the durable store is
// reachable again.
//
// Validation failures and not-found results are never retried against the
// fallback; they propagate as-is.
type Coordinator struct {
	durable  board.Store
	fallback board.Store
	logger   *zap.SugaredLogger
	metrics  FallbackRecorder
}

func NewCoordinator(durable, fallback board.Store, logger *zap.SugaredLogger, metrics FallbackRecorder) *Coordinator {
	return &Coordinator{
		durable:  durable,
		fallback: fallback,
		logger:   logger,
		metrics:  metrics,
	}
}

// CreatePost validates the draft, then stores it. Validation happens before
// either backend is touched so an invalid draft never reaches the
// schema-less fallback.
func (c *Coordinator) CreatePost(ctx context.Context, draft board.PostDraft) (Result[*board.Post], error) {
	if err := draft.Validate(); err != nil {
		return Result[*board.Post]{}, err
	}
	return dispatch(ctx, c, "create", func(ctx context.Context, s board.Store) (*board.Post, error) {
		return s.Create(ctx, draft)
	})
}

// ListPosts returns all posts, newest first, from whichever backend is
// reachable.
func (c *Coordinator) ListPosts(ctx context.Context) (Result[[]board.Post], error) {
	return dispatch(ctx, c, "find", func(ctx context.Context, s board.Store) ([]board.Post, error) {
		return s.Find(ctx)
	})
}

func (c *Coordinator) GetPost(ctx context.Context, id string) (Result[*board.Post], error) {
	return dispatch(ctx, c, "findById", func(ctx context.Context, s board.Store) (*board.Post, error) {
		return s.FindByID(ctx, id)
	})
}

func (c *Coordinator) UpdatePost(ctx context.Context, id string, patch board.PostPatch) (Result[*board.Post], error) {
	if err := patch.Validate(); err != nil {
		return Result[*board.Post]{}, err
	}
	return dispatch(ctx, c, "findByIdAndUpdate", func(ctx context.Context, s board.Store) (*board.Post, error) {
		return s.FindByIDAndUpdate(ctx, id, patch)
	})
}

func (c *Coordinator) DeletePost(ctx context.Context, id string) (Result[*board.Post], error) {
	return dispatch(ctx, c, "findByIdAndDelete", func(ctx context.Context, s board.Store) (*board.Post, error) {
		return s.FindByIDAndDelete(ctx, id)
	})
}

// DurableReady probes the durable store. A false return means requests are
// being served in degraded mode.
func (c *Coordinator) DurableReady(ctx context.Context) bool {
	p, ok := c.durable.(board.Pinger)
	if !ok {
		return true
	}
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.Ping(probeCtx) == nil
}

// dispatch runs one logical operation: durable first, fallback only on a
// connectivity-class failure. A fallback failure is a hard error since the
// fallback has no external dependency to blame.
func dispatch[T any](ctx context.Context, c *Coordinator, op string, fn func(context.Context, board.Store) (T, error)) (Result[T], error) {
	value, err := fn(ctx, c.durable)
	if err == nil {
		return Result[T]{Value: value}, nil
	}
	if !errors.Is(err, board.ErrUnavailable) {
		return Result[T]{}, err
	}

	if c.logger != nil {
		c.logger.Warnw("Durable store unreachable, retrying on in-memory fallback",
			"op", op,
			"error", err,
		)
	}
	if c.metrics != nil {
		c.metrics.RecordFallback(ctx, op)
	}

	value, err = fn(ctx, c.fallback)
	if err != nil {
		return Result[T]{}, err
	}
	return Result[T]{Value: value, UsedFallback: true, Advisory: AdvisoryDegraded}, nil
}
