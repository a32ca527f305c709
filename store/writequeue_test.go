package store

import (
	"testing"
	"time"

	"realty-backoffice/storage"
)

func TestWriteQueueCoalescesPerKey(t *testing.T) {
	kv := storage.NewMemoryKV()
	q := NewWriteQueue(kv, 0, newTestLogger())

	q.Enqueue("store:a", []byte("one"))
	q.Enqueue("store:a", []byte("two"))
	q.Enqueue("store:b", []byte("three"))

	if got := q.Pending(); got != 2 {
		t.Errorf("Pending = %d; want 2", got)
	}

	q.Flush()

	if got := q.Pending(); got != 0 {
		t.Errorf("Pending after flush = %d; want 0", got)
	}
	if v, _ := kv.Load("store:a"); string(v) != "two" {
		t.Errorf("store:a = %q; want the latest payload", v)
	}
	if v, _ := kv.Load("store:b"); string(v) != "three" {
		t.Errorf("store:b = %q", v)
	}
}

func TestWriteQueueCloseFlushes(t *testing.T) {
	kv := storage.NewMemoryKV()
	q := NewWriteQueue(kv, 0, newTestLogger())

	q.Enqueue("store:a", []byte("payload"))
	q.Close()

	if v, ok := kv.Load("store:a"); !ok || string(v) != "payload" {
		t.Errorf("Close did not flush: %q, %v", v, ok)
	}
}

func TestWriteQueueSchedulerFlushes(t *testing.T) {
	kv := storage.NewMemoryKV()
	q := NewWriteQueue(kv, 5*time.Millisecond, newTestLogger())
	defer q.Close()

	q.Enqueue("store:a", []byte("payload"))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok := kv.Load("store:a"); ok {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Error("scheduler never flushed the pending write")
}
