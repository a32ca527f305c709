package feed

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"realty-backoffice/utils"
)

// Query describes how a source orders its snapshots. Soft-deleted documents
// are not filtered here; the stores partition them into their trash views.
type Query struct {
	OrderBy string
	Desc    bool
}

// PrimaryQuery is the main feed shape: every document, newest first.
func PrimaryQuery() Query {
	return Query{OrderBy: "createdAt", Desc: true}
}

// Connect dials the document store, retrying the initial ping with back-off.
func Connect(uri string, logger *utils.Logger) (*mongo.Client, error) {
	var client *mongo.Client
	retry := &utils.RetryConfig{MaxAttempts: 3, BaseDelay: 2 * time.Second, Logger: logger}

	err := retry.Do("mongo connect", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			return err
		}
		if err := c.Ping(ctx, nil); err != nil {
			_ = c.Disconnect(ctx)
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}
	return client, nil
}

// MongoSource watches one collection through a change stream and re-queries
// the full ordered snapshot on every event. The change stream only tells us
// which documents moved; consumers always receive the whole collection.
type MongoSource[T any] struct {
	coll   *mongo.Collection
	query  Query
	logger *utils.Logger
}

func NewMongoSource[T any](coll *mongo.Collection, query Query, logger *utils.Logger) *MongoSource[T] {
	return &MongoSource[T]{coll: coll, query: query, logger: logger}
}

func (s *MongoSource[T]) Subscribe(fn func(Snapshot[T])) (Unsubscribe, error) {
	ctx, cancel := context.WithCancel(context.Background())

	rows, err := s.fetch(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("feed: initial snapshot of %s: %w", s.coll.Name(), err)
	}
	fn(Snapshot[T]{Rows: rows})

	stream, err := s.coll.Watch(ctx, mongo.Pipeline{},
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("feed: watch %s: %w", s.coll.Name(), err)
	}

	go s.pump(ctx, stream, fn)

	return func() { cancel() }, nil
}

func (s *MongoSource[T]) fetch(ctx context.Context) ([]T, error) {
	order := 1
	if s.query.Desc {
		order = -1
	}
	opts := options.Find()
	if s.query.OrderBy != "" {
		opts.SetSort(bson.D{{Key: s.query.OrderBy, Value: order}})
	}

	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []T
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

type streamEvent struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID any `bson:"_id"`
	} `bson:"documentKey"`
}

func (s *MongoSource[T]) pump(ctx context.Context, stream *mongo.ChangeStream, fn func(Snapshot[T])) {
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		var ev streamEvent
		if err := stream.Decode(&ev); err != nil {
			s.logger.Warn("[feed] %s: undecodable change event: %v", s.coll.Name(), err)
			continue
		}

		rows, err := s.fetch(ctx)
		if err != nil {
			// Keep serving the last-good snapshot; the next event re-queries.
			s.logger.Error("[feed] %s: snapshot re-query failed: %v", s.coll.Name(), err)
			continue
		}

		fn(Snapshot[T]{
			Rows:    rows,
			Changes: []Change{{Kind: changeKind(ev.OperationType), ID: fmt.Sprintf("%v", ev.DocumentKey.ID)}},
		})
	}

	// No automatic retry here; the driver reconnects the transport on its
	// own while Next blocks. A terminal stream error only gets logged.
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		s.logger.Error("[feed] %s: change stream closed: %v", s.coll.Name(), err)
	}
}

func changeKind(op string) ChangeKind {
	switch op {
	case "insert":
		return ChangeAdded
	case "delete":
		return ChangeRemoved
	default:
		return ChangeModified
	}
}
