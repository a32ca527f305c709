package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"testing"

	"realty-backoffice/feed"
	"realty-backoffice/models"
	"realty-backoffice/storage"
	"realty-backoffice/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLogger() }

// fixture builds a store over a hand-fed source with an unscheduled write
// queue, so tests control exactly when cache flushes happen.
func fixture(t *testing.T) (*ReactiveStore[models.Listing], *feed.MemorySource[models.Listing], *WriteQueue, *storage.MemoryKV) {
	t.Helper()
	logger := newTestLogger()
	kv := storage.NewMemoryKV()
	queue := NewWriteQueue(kv, 0, logger)
	src := feed.NewMemorySource[models.Listing]()
	s := New[models.Listing]("listings", src, queue, kv, logger)
	return s, src, queue, kv
}

func listing(id string, deletedAt int64) models.Listing {
	return models.Listing{ID: id, Title: "t-" + id, DeletedAt: deletedAt}
}

func TestVersionBumpsOnEverySnapshot(t *testing.T) {
	s, src, _, _ := fixture(t)

	if got := s.Version(); got != 0 {
		t.Fatalf("fresh store version = %d; want 0", got)
	}

	src.Push(feed.Snapshot[models.Listing]{Rows: []models.Listing{listing("L1", 0)}})
	src.Push(feed.Snapshot[models.Listing]{Rows: []models.Listing{listing("L1", 0), listing("L2", 0)}})

	if got := s.Version(); got != 2 {
		t.Errorf("version = %d; want 2", got)
	}
	if got := len(s.GetAll()); got != 2 {
		t.Errorf("GetAll = %d rows; want 2", got)
	}
}

func TestSoftDeletedRowsGoToTrash(t *testing.T) {
	s, src, _, _ := fixture(t)

	src.Push(feed.Snapshot[models.Listing]{Rows: []models.Listing{
		listing("L1", 0),
		listing("L2", 100),
		listing("L3", 300),
		listing("L4", 200),
	}})

	live := s.GetAll()
	if len(live) != 1 || live[0].ID != "L1" {
		t.Errorf("GetAll = %v; want only L1", live)
	}

	trash := s.Trash()
	wantOrder := []string{"L3", "L4", "L2"} // deletedAt desc
	if len(trash) != 3 {
		t.Fatalf("Trash = %d rows; want 3", len(trash))
	}
	for i, id := range wantOrder {
		if trash[i].ID != id {
			t.Errorf("trash[%d] = %s; want %s", i, trash[i].ID, id)
		}
	}
}

// An empty snapshot after holding rows must bump the version, serve an
// empty slice, and eventually persist the empty array.
func TestEmptySnapshotTransition(t *testing.T) {
	s, src, queue, kv := fixture(t)

	rows := make([]models.Listing, 500)
	for i := range rows {
		rows[i] = listing(fmt.Sprintf("L%03d", i), 0)
	}
	src.Push(feed.Snapshot[models.Listing]{Rows: rows})

	v := s.Version()
	src.Push(feed.Snapshot[models.Listing]{Rows: nil})

	if got := s.Version(); got != v+1 {
		t.Errorf("version = %d; want %d", got, v+1)
	}
	if got := s.GetAll(); len(got) != 0 {
		t.Errorf("GetAll after empty snapshot = %d rows; want 0", len(got))
	}

	queue.Flush()
	data, ok := kv.Load("store:listings")
	if !ok {
		t.Fatal("no cache entry after flush")
	}
	var cached []models.Listing
	if err := json.Unmarshal(data, &cached); err != nil {
		t.Fatalf("cache entry unreadable: %v", err)
	}
	if len(cached) != 0 {
		t.Errorf("cached %d rows; want empty array", len(cached))
	}
}

// Rapid snapshots coalesce into a single pending cache write.
func TestCacheWritesAreCoalesced(t *testing.T) {
	_, src, queue, kv := fixture(t)

	for i := 0; i < 20; i++ {
		src.Push(feed.Snapshot[models.Listing]{Rows: []models.Listing{listing(fmt.Sprintf("L%d", i), 0)}})
	}

	if got := queue.Pending(); got != 1 {
		t.Errorf("pending writes = %d; want 1 (coalesced)", got)
	}

	queue.Flush()
	data, _ := kv.Load("store:listings")
	var cached []models.Listing
	_ = json.Unmarshal(data, &cached)
	if len(cached) != 1 || cached[0].ID != "L19" {
		t.Errorf("cache holds %v; want just the final snapshot", cached)
	}
}

func TestColdStartHydratesFromCache(t *testing.T) {
	logger := newTestLogger()
	kv := storage.NewMemoryKV()
	queue := NewWriteQueue(kv, 0, logger)

	warm, _ := json.Marshal([]models.Listing{listing("L1", 0), listing("L2", 50)})
	_ = kv.Store("store:listings", warm)

	src := feed.NewMemorySource[models.Listing]()
	s := New[models.Listing]("listings", src, queue, kv, logger)

	// Before any feed delivery the warm cache is already visible.
	if got := s.GetAll(); len(got) != 1 || got[0].ID != "L1" {
		t.Errorf("hydrated GetAll = %v; want [L1]", got)
	}
	if got := s.Trash(); len(got) != 1 || got[0].ID != "L2" {
		t.Errorf("hydrated Trash = %v; want [L2]", got)
	}
	if got := s.Version(); got != 0 {
		t.Errorf("hydration must not bump the version; got %d", got)
	}
}

func TestCorruptCacheIsIgnored(t *testing.T) {
	logger := newTestLogger()
	kv := storage.NewMemoryKV()
	_ = kv.Store("store:listings", []byte("{not json"))

	s := New[models.Listing]("listings", feed.NewMemorySource[models.Listing](), NewWriteQueue(kv, 0, logger), kv, logger)
	if got := len(s.GetAll()); got != 0 {
		t.Errorf("corrupt cache produced %d rows", got)
	}
}

func TestDirtySetDrain(t *testing.T) {
	s, src, _, _ := fixture(t)

	src.Push(feed.Snapshot[models.Listing]{
		Rows:    []models.Listing{listing("L1", 0), listing("L2", 0)},
		Changes: []feed.Change{{Kind: feed.ChangeAdded, ID: "L2"}},
	})

	got := s.DrainDirty()
	if len(got) != 1 || got[0] != "L2" {
		t.Errorf("DrainDirty = %v; want [L2]", got)
	}
	if got := s.DrainDirty(); len(got) != 0 {
		t.Errorf("second drain = %v; want empty", got)
	}

	// Unattributed snapshots dirty every row.
	src.Push(feed.Snapshot[models.Listing]{Rows: []models.Listing{listing("L1", 0), listing("L2", 0)}})
	got = s.DrainDirty()
	sort.Strings(got)
	if len(got) != 2 || got[0] != "L1" || got[1] != "L2" {
		t.Errorf("DrainDirty = %v; want [L1 L2]", got)
	}

	s.MarkDirty("L9")
	if got := s.DrainDirty(); len(got) != 1 || got[0] != "L9" {
		t.Errorf("MarkDirty drain = %v; want [L9]", got)
	}
}

func TestListenersNotifiedAndIsolated(t *testing.T) {
	s, src, _, _ := fixture(t)

	var calls []string
	s.Subscribe(func() { calls = append(calls, "a") })
	s.Subscribe(func() { panic("listener bug") })
	s.Subscribe(func() { calls = append(calls, "c") })

	src.Push(feed.Snapshot[models.Listing]{Rows: []models.Listing{listing("L1", 0)}})

	if len(calls) != 2 || calls[0] != "a" || calls[1] != "c" {
		t.Errorf("calls = %v; a panicking listener must not starve the rest", calls)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s, src, _, _ := fixture(t)

	n := 0
	unsub := s.Subscribe(func() { n++ })

	src.Push(feed.Snapshot[models.Listing]{Rows: nil})
	unsub()
	src.Push(feed.Snapshot[models.Listing]{Rows: nil})

	if n != 1 {
		t.Errorf("listener ran %d times; want 1", n)
	}
}

func TestCloseClearsAndEmitsEmpty(t *testing.T) {
	s, src, _, _ := fixture(t)

	src.Push(feed.Snapshot[models.Listing]{Rows: []models.Listing{listing("L1", 0)}})

	sawEmpty := false
	s.Subscribe(func() {
		if len(s.GetAll()) == 0 {
			sawEmpty = true
		}
	})

	v := s.Version()
	s.Close()

	if !sawEmpty {
		t.Error("teardown did not emit the cleared state")
	}
	if got := s.Version(); got != v+1 {
		t.Errorf("version = %d; want %d", got, v+1)
	}

	// Further snapshots are ignored after teardown.
	src.Push(feed.Snapshot[models.Listing]{Rows: []models.Listing{listing("L2", 0)}})
	if got := len(s.GetAll()); got != 0 {
		t.Errorf("closed store accepted a snapshot: %d rows", got)
	}

	s.Close() // idempotent
}
