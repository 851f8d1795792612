package store

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/openboard/board-backend/internal/board"
)

// MemoryStore is the in-process fallback backend. It lives for the process
// lifetime, holds no external durability, and trusts callers to validate
// before writing (it has no schema). Ids are an incrementing counter rendered
// as a string; a deleted id is never reused.
type MemoryStore struct {
	mu     sync.RWMutex
	posts  []board.Post // insertion order, not kept sorted
	nextID int64
}

// NewMemoryStore creates an independent fallback store seeded with the given
// posts. Seeds without an id get one from the counter; seeds without
// timestamps are stamped with the current time.
func NewMemoryStore(seed ...board.Post) *MemoryStore {
	s := &MemoryStore{nextID: 1}
	now := time.Now().UTC()
	for _, p := range seed {
		if p.ID == "" {
			p.ID = s.claimID()
		} else if n, err := strconv.ParseInt(p.ID, 10, 64); err == nil && n >= s.nextID {
			s.nextID = n + 1
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = p.CreatedAt
		}
		s.posts = append(s.posts, p)
	}
	return s
}

// DefaultSeed returns the single sample post the fallback store starts with,
// mirroring what users see the first time the durable store is unreachable.
func DefaultSeed() []board.Post {
	now := time.Now().UTC()
	return []board.Post{{
		Title:     "Sample post",
		Author:    "System",
		Content:   "This sample post is shown while the database is unreachable.",
		OwnerID:   "system",
		CreatedAt: now,
		UpdatedAt: now,
	}}
}

func (s *MemoryStore) claimID() string {
	id := strconv.FormatInt(s.nextID, 10)
	s.nextID++
	return id
}

func (s *MemoryStore) Create(ctx context.Context, draft board.PostDraft) (*board.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	post := board.Post{
		ID:        s.claimID(),
		Title:     draft.Title,
		Author:    draft.Author,
		Content:   draft.Content,
		OwnerID:   draft.OwnerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.posts = append(s.posts, post)

	out := post
	return &out, nil
}

// Find returns copies of all posts, newest first. The sort is recomputed on
// every call so insertion order never leaks through.
func (s *MemoryStore) Find(ctx context.Context) ([]board.Post, error) {
	s.mu.RLock()
	out := make([]board.Post, len(s.posts))
	copy(out, s.posts)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*board.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.posts {
		if p.ID == id {
			out := p
			return &out, nil
		}
	}
	return nil, board.ErrNotFound
}

// FindByIDAndUpdate merges the set fields of the patch onto the stored post
// and refreshes UpdatedAt. It never creates a record for a missing id.
func (s *MemoryStore) FindByIDAndUpdate(ctx context.Context, id string, patch board.PostPatch) (*board.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.posts {
		if p.ID != id {
			continue
		}
		updated := patch.Apply(p)
		now := time.Now().UTC()
		if !now.After(updated.UpdatedAt) {
			// Coarse clocks can return the same instant twice; keep
			// updatedAt strictly increasing.
			now = updated.UpdatedAt.Add(time.Nanosecond)
		}
		updated.UpdatedAt = now
		s.posts[i] = updated

		out := updated
		return &out, nil
	}
	return nil, board.ErrNotFound
}

func (s *MemoryStore) FindByIDAndDelete(ctx context.Context, id string) (*board.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.posts {
		if p.ID != id {
			continue
		}
		out := p
		s.posts = append(s.posts[:i], s.posts[i+1:]...)
		return &out, nil
	}
	return nil, board.ErrNotFound
}

// Len reports the current number of posts (used by tests and diagnostics).
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}

var _ board.Store = (*MemoryStore)(nil)
