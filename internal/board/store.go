package board

import "context"

// Store is the operation set both backends implement. The durable adapter
// and the in-memory fallback are interchangeable behind it; the coordinator
// picks one per call.
//
// Find returns posts sorted by CreatedAt descending. That ordering is part
// of the contract, not an implementation detail.
type Store interface {
	Create(ctx context.Context, draft PostDraft) (*Post, error)
	Find(ctx context.Context) ([]Post, error)
	FindByID(ctx context.Context, id string) (*Post, error)
	FindByIDAndUpdate(ctx context.Context, id string, patch PostPatch) (*Post, error)
	FindByIDAndDelete(ctx context.Context, id string) (*Post, error)
}

// Pinger is implemented by stores that can report reachability. The memory
// store has nothing to probe and does not implement it.
type Pinger interface {
	Ping(ctx context.Context) error
}
