// Package store holds the in-memory reactive mirrors of the remote
// collections. One store per collection, constructed once per session and
// passed by reference; consumers read snapshots and subscribe, they never
// mutate rows directly.
package store

import (
	"encoding/json"
	"slices"
	"sort"
	"sync"

	"realty-backoffice/feed"
	"realty-backoffice/storage"
	"realty-backoffice/utils"
)

// Row is what a store can hold: anything with an id and a soft-delete marker.
type Row interface {
	RowID() string
	RowDeletedAt() int64
}

// Listener is notified after every applied snapshot. It takes no payload;
// listeners pull the state they need through GetAll and Version.
type Listener func()

// ReactiveStore mirrors one remote collection. GetAll serves live rows,
// Trash serves soft-deleted ones, Version bumps monotonically on every
// applied snapshot and never resets while the process lives.
type ReactiveStore[T Row] struct {
	name     string
	cacheKey string

	mu      sync.Mutex
	rows    []T // everything, as received
	live    []T // deletedAt == 0
	trash   []T // deletedAt > 0, deletedAt desc
	version uint64
	closed  bool

	listeners []*Listener

	dirty  *utils.IDSet
	queue  *WriteQueue
	kv     storage.KV
	logger *utils.Logger
	unsub  feed.Unsubscribe
}

// New builds the store, hydrates it synchronously from the durable cache so
// a warm start never paints empty, and subscribes to the change feed. A feed
// that cannot be opened is logged, not raised: the store then serves the
// cached snapshot for the rest of the session.
func New[T Row](name string, src feed.Source[T], queue *WriteQueue, kv storage.KV, logger *utils.Logger) *ReactiveStore[T] {
	s := &ReactiveStore[T]{
		name:     name,
		cacheKey: "store:" + name,
		dirty:    utils.NewIDSet(),
		queue:    queue,
		kv:       kv,
		logger:   logger,
	}

	s.hydrate()

	unsub, err := src.Subscribe(s.apply)
	if err != nil {
		logger.Error("[store] %s: change feed unavailable, serving cache only: %v", name, err)
	} else {
		s.unsub = unsub
	}
	return s
}

func (s *ReactiveStore[T]) hydrate() {
	data, ok := s.kv.Load(s.cacheKey)
	if !ok {
		return
	}

	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		// Corrupt cache entries are discarded, not fatal.
		s.logger.Warn("[store] %s: unreadable cache snapshot: %v", s.name, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	s.live, s.trash = partition(rows)
}

// apply installs a feed snapshot: replace the row array, bump the version,
// record the dirty ids, queue the cache write, then fan out to listeners.
// Runs to completion before the next snapshot is applied.
func (s *ReactiveStore[T]) apply(snap feed.Snapshot[T]) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	s.rows = snap.Rows
	s.live, s.trash = partition(snap.Rows)
	s.version++

	if len(snap.Changes) > 0 {
		for _, c := range snap.Changes {
			s.dirty.Add(c.ID)
		}
	} else {
		// Unattributed delivery: every row may have changed.
		for _, r := range snap.Rows {
			s.dirty.Add(r.RowID())
		}
	}

	if data, err := json.Marshal(snap.Rows); err == nil {
		s.queue.Enqueue(s.cacheKey, data)
	} else {
		s.logger.Warn("[store] %s: snapshot not cacheable: %v", s.name, err)
	}

	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners)
}

func partition[T Row](rows []T) (live, trash []T) {
	for _, r := range rows {
		if r.RowDeletedAt() > 0 {
			trash = append(trash, r)
		} else {
			live = append(live, r)
		}
	}
	sort.SliceStable(trash, func(i, j int) bool {
		return trash[i].RowDeletedAt() > trash[j].RowDeletedAt()
	})
	return live, trash
}

// notify invokes each listener isolated from the others: one panicking
// listener must not starve the rest.
func notify(listeners []*Listener) {
	for _, l := range listeners {
		func() {
			defer func() {
				_ = recover()
			}()
			(*l)()
		}()
	}
}

// GetAll returns the live rows (soft-deleted rows excluded). The returned
// slice is the caller's to keep; it is never mutated by the store.
func (s *ReactiveStore[T]) GetAll() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.live)
}

// Trash returns the soft-deleted rows, most recently deleted first.
func (s *ReactiveStore[T]) Trash() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.trash)
}

// Version returns the monotonic snapshot counter.
func (s *ReactiveStore[T]) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// DrainDirty returns the ids touched since the last drain and clears them.
func (s *ReactiveStore[T]) DrainDirty() []string {
	return s.dirty.Drain()
}

// MarkDirty records ids changed by an optimistic local write whose
// server-side round trip has not landed yet.
func (s *ReactiveStore[T]) MarkDirty(ids ...string) {
	s.dirty.Add(ids...)
}

// Subscribe registers a listener and returns its unsubscribe handle.
// Delivery is synchronous, in registration order.
func (s *ReactiveStore[T]) Subscribe(fn Listener) feed.Unsubscribe {
	l := &fn

	s.mu.Lock()
	s.listeners = append(slices.Clone(s.listeners), l)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if i := slices.Index(s.listeners, l); i >= 0 {
			s.listeners = slices.Delete(slices.Clone(s.listeners), i, i+1)
		}
	}
}

// Close tears the store down at session end: the feed subscription stops,
// the arrays are cleared and re-emitted empty so no consumer keeps showing
// another account's rows, and further snapshots are ignored.
func (s *ReactiveStore[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.rows = nil
	s.live = nil
	s.trash = nil
	s.version++
	listeners := s.listeners
	s.listeners = nil
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	notify(listeners)
}
