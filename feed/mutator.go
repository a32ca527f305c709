package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"realty-backoffice/utils"
)

// Mutator is the outbound document mutation surface for one collection.
// Writes do not touch the in-memory stores directly: the authoritative state
// change becomes visible only once it round-trips back through the change
// feed. Callers needing instant feedback mark the store dirty and reconcile
// on the next feed tick.
type Mutator struct {
	coll   *mongo.Collection
	logger *utils.Logger
}

func NewMutator(coll *mongo.Collection, logger *utils.Logger) *Mutator {
	return &Mutator{coll: coll, logger: logger}
}

// Create inserts a new document with a fresh ULID id and returns the id.
func (m *Mutator) Create(ctx context.Context, fields bson.M) (string, error) {
	id := ulid.Make().String()
	now := time.Now().UnixMilli()

	doc := bson.M{"_id": id, "createdAt": now, "updatedAt": now}
	for k, v := range fields {
		doc[k] = v
	}

	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("feed: create in %s: %w", m.coll.Name(), err)
	}
	return id, nil
}

// Update applies a partial field update to one document.
func (m *Mutator) Update(ctx context.Context, id string, fields bson.M) error {
	set := bson.M{"updatedAt": time.Now().UnixMilli()}
	for k, v := range fields {
		set[k] = v
	}

	res, err := m.coll.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("feed: update %s/%s: %w", m.coll.Name(), id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("feed: update %s/%s: no such document", m.coll.Name(), id)
	}
	return nil
}

// SoftDelete marks a document deleted. The row stays in the collection and
// shows up in trash views until hard-deleted.
func (m *Mutator) SoftDelete(ctx context.Context, id string) error {
	return m.Update(ctx, id, bson.M{"deletedAt": time.Now().UnixMilli()})
}

// HardDelete removes the document for good.
func (m *Mutator) HardDelete(ctx context.Context, id string) error {
	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("feed: delete %s/%s: %w", m.coll.Name(), id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("feed: delete %s/%s: no such document", m.coll.Name(), id)
	}
	return nil
}
