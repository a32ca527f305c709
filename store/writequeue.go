package store

import (
	"sync"
	"time"

	"realty-backoffice/storage"
	"realty-backoffice/utils"
)

// WriteQueue coalesces snapshot cache writes. Each store enqueues the full
// serialized row array under its cache key; only the latest payload per key
// survives until the next flush, so a burst of N feed events costs one write.
// Flushing happens on a scheduler tick and on Close, and can be forced from
// tests via Flush.
type WriteQueue struct {
	mu      sync.Mutex
	pending map[string][]byte

	kv     storage.KV
	logger *utils.Logger

	stop chan struct{}
	done chan struct{}
}

// NewWriteQueue starts the flush scheduler. interval <= 0 disables the
// scheduler; writes then only reach the cache on explicit Flush or Close.
func NewWriteQueue(kv storage.KV, interval time.Duration, logger *utils.Logger) *WriteQueue {
	q := &WriteQueue{
		pending: make(map[string][]byte),
		kv:      kv,
		logger:  logger,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	if interval > 0 {
		go q.run(interval)
	} else {
		close(q.done)
	}
	return q
}

func (q *WriteQueue) run(interval time.Duration) {
	defer close(q.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			q.Flush()
		case <-q.stop:
			return
		}
	}
}

// Enqueue records the payload for key, replacing any pending payload.
func (q *WriteQueue) Enqueue(key string, payload []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[key] = payload
}

// Pending returns how many keys await a flush.
func (q *WriteQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Flush writes every pending payload to the cache. Write failures are
// logged and dropped; the cache is best-effort.
func (q *WriteQueue) Flush() {
	q.mu.Lock()
	batch := q.pending
	q.pending = make(map[string][]byte)
	q.mu.Unlock()

	for key, payload := range batch {
		if err := q.kv.Store(key, payload); err != nil {
			q.logger.Warn("[cache] write %q failed: %v", key, err)
		}
	}
}

// Close stops the scheduler and flushes whatever is still pending.
func (q *WriteQueue) Close() {
	select {
	case <-q.stop:
	default:
		close(q.stop)
	}
	<-q.done
	q.Flush()
}
