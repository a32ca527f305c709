// Package feed delivers whole-collection snapshots from the remote document
// store whenever any document in the collection changes.
package feed

import (
	"slices"
	"sync"
)

// ChangeKind classifies what happened to one document in a snapshot delivery.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// Change is one per-document change notice accompanying a snapshot.
type Change struct {
	Kind ChangeKind
	ID   string
}

// Snapshot is a full ordered snapshot of a collection plus the changes that
// triggered it. Changes may be empty when the source cannot attribute the
// delivery to specific documents (initial load, cold reconnect).
type Snapshot[T any] struct {
	Rows    []T
	Changes []Change
}

// Unsubscribe closes one subscription.
type Unsubscribe func()

// Source is a realtime subscription to one remote collection.
type Source[T any] interface {
	// Subscribe registers fn and starts delivery. fn is called with the
	// current snapshot immediately (when one is available) and again on
	// every subsequent change. Delivery is sequential per subscription.
	Subscribe(fn func(Snapshot[T])) (Unsubscribe, error)
}

// MemorySource is a Source fed by hand. It backs tests and the offline demo
// mode, and is the reference for delivery semantics: synchronous fan-out,
// in registration order, run to completion.
type MemorySource[T any] struct {
	mu       sync.Mutex
	handlers []*func(Snapshot[T])
	last     *Snapshot[T]
}

func NewMemorySource[T any]() *MemorySource[T] {
	return &MemorySource[T]{}
}

func (m *MemorySource[T]) Subscribe(fn func(Snapshot[T])) (Unsubscribe, error) {
	h := &fn

	m.mu.Lock()
	m.handlers = append(slices.Clone(m.handlers), h)
	last := m.last
	m.mu.Unlock()

	if last != nil {
		fn(*last)
	}

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if i := slices.Index(m.handlers, h); i >= 0 {
			m.handlers = slices.Delete(slices.Clone(m.handlers), i, i+1)
		}
	}, nil
}

// Push delivers a snapshot to all current subscribers.
func (m *MemorySource[T]) Push(snap Snapshot[T]) {
	m.mu.Lock()
	m.last = &snap
	handlers := m.handlers
	m.mu.Unlock()

	for _, h := range handlers {
		(*h)(snap)
	}
}
