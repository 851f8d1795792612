package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/openboard/board-backend/internal/board"
)

const postsCollection = "posts"

// MongoConfig configures the durable store adapter.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// MongoStore is the durable backend. The client is established lazily on
// first use and cached for the life of the process; a failed attempt is
// discarded so the next call retries cleanly. Concurrent first-time callers
// share a single in-flight attempt and observe its one outcome.
type MongoStore struct {
	cfg    MongoConfig
	logger *zap.SugaredLogger

	mu     sync.Mutex
	client *mongo.Client

	connect singleflight.Group
}

func NewMongoStore(cfg MongoConfig, logger *zap.SugaredLogger) *MongoStore {
	if cfg.Database == "" {
		cfg.Database = "board"
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	return &MongoStore{cfg: cfg, logger: logger}
}

// postDoc is the wire shape of a post in the durable store. The ObjectID is
// translated to its hex form at the package boundary.
type postDoc struct {
	ID        bson.ObjectID `bson:"_id"`
	Title     string        `bson:"title"`
	Author    string        `bson:"author"`
	Content   string        `bson:"content"`
	OwnerID   string        `bson:"userId,omitempty"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

func (d postDoc) toPost() board.Post {
	return board.Post{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Author:    d.Author,
		Content:   d.Content,
		OwnerID:   d.OwnerID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// collection returns the posts collection, establishing the cached client
// connection if needed.
func (s *MongoStore) collection(ctx context.Context) (*mongo.Collection, error) {
	client, err := s.connectOnce(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(s.cfg.Database).Collection(postsCollection), nil
}

func (s *MongoStore) connectOnce(ctx context.Context) (*mongo.Client, error) {
	s.mu.Lock()
	cached := s.client
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	// singleflight collapses concurrent attempts into one dial; every waiter
	// observes the same success or failure. Nothing is cached on failure.
	v, err, _ := s.connect.Do("connect", func() (any, error) {
		s.mu.Lock()
		if s.client != nil {
			c := s.client
			s.mu.Unlock()
			return c, nil
		}
		s.mu.Unlock()

		opts := options.Client().
			ApplyURI(s.cfg.URI).
			SetConnectTimeout(s.cfg.ConnectTimeout).
			SetServerSelectionTimeout(s.cfg.ConnectTimeout)

		client, err := mongo.Connect(opts)
		if err != nil {
			return nil, &board.UnavailableError{Op: "connect", Err: err}
		}

		pingCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ConnectTimeout)
		defer cancel()
		if err := client.Ping(pingCtx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, &board.UnavailableError{Op: "connect", Err: err}
		}

		s.mu.Lock()
		s.client = client
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.Infow("Connected to MongoDB", "database", s.cfg.Database)
		}
		return client, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*mongo.Client), nil
}

// Ping reports whether the durable store is currently reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	client, err := s.connectOnce(ctx)
	if err != nil {
		return err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return &board.UnavailableError{Op: "ping", Err: err}
	}
	return nil
}

// Close disconnects the cached client, if any.
func (s *MongoStore) Close(ctx context.Context) error {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

// Create validates the draft against the schema constraints and inserts it
// with server-assigned id and fresh timestamps.
func (s *MongoStore) Create(ctx context.Context, draft board.PostDraft) (*board.Post, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	coll, err := s.collection(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := postDoc{
		ID:        bson.NewObjectID(),
		Title:     draft.Title,
		Author:    draft.Author,
		Content:   draft.Content,
		OwnerID:   draft.OwnerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return nil, &board.UnavailableError{Op: "create", Err: err}
	}

	post := doc.toPost()
	return &post, nil
}

// Find returns all posts sorted by createdAt descending. The sort is part of
// the store contract.
func (s *MongoStore) Find(ctx context.Context) ([]board.Post, error) {
	coll, err := s.collection(ctx)
	if err != nil {
		return nil, err
	}

	cursor, err := coll.Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, &board.UnavailableError{Op: "find", Err: err}
	}
	defer cursor.Close(ctx)

	var docs []postDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, &board.UnavailableError{Op: "find", Err: err}
	}

	posts := make([]board.Post, 0, len(docs))
	for _, d := range docs {
		posts = append(posts, d.toPost())
	}
	return posts, nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*board.Post, error) {
	// Connectivity is checked before the id is inspected: an unreachable
	// store must report unavailable, not not-found, or ids minted elsewhere
	// become unreachable in degraded mode.
	coll, err := s.collection(ctx)
	if err != nil {
		return nil, err
	}
	oid, ok := parseObjectID(id)
	if !ok {
		// An id that is not a valid ObjectID cannot exist in this store.
		return nil, board.ErrNotFound
	}

	var doc postDoc
	if err := coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapFindErr("findById", err)
	}
	post := doc.toPost()
	return &post, nil
}

// FindByIDAndUpdate validates the supplied fields, merges them onto the
// stored document, refreshes updatedAt, and returns the updated document.
func (s *MongoStore) FindByIDAndUpdate(ctx context.Context, id string, patch board.PostPatch) (*board.Post, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	coll, err := s.collection(ctx)
	if err != nil {
		return nil, err
	}
	oid, ok := parseObjectID(id)
	if !ok {
		return nil, board.ErrNotFound
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Author != nil {
		set["author"] = *patch.Author
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}

	var doc postDoc
	err = coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, mapFindErr("findByIdAndUpdate", err)
	}
	post := doc.toPost()
	return &post, nil
}

func (s *MongoStore) FindByIDAndDelete(ctx context.Context, id string) (*board.Post, error) {
	coll, err := s.collection(ctx)
	if err != nil {
		return nil, err
	}
	oid, ok := parseObjectID(id)
	if !ok {
		return nil, board.ErrNotFound
	}

	var doc postDoc
	if err := coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapFindErr("findByIdAndDelete", err)
	}
	post := doc.toPost()
	return &post, nil
}

func parseObjectID(id string) (bson.ObjectID, bool) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, false
	}
	return oid, true
}

// mapFindErr distinguishes the normal no-document result from connectivity
// faults. Anything that is not a missing document means the connection is
// unusable for this operation.
func mapFindErr(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return board.ErrNotFound
	}
	return &board.UnavailableError{Op: op, Err: err}
}

var _ board.Store = (*MongoStore)(nil)
var _ board.Pinger = (*MongoStore)(nil)
