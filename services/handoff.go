package services

import (
	"encoding/json"
	"time"

	"realty-backoffice/storage"
	"realty-backoffice/utils"
)

// handoffEntry is the persisted shape shared by both hand-off stores.
type handoffEntry struct {
	IDs       []string `json:"ids"`
	UpdatedAt int64    `json:"updatedAt"`
}

// MatchBuffer hands a freshly computed match set from one screen to the
// next exactly once: Store writes it, Consume reads it and deletes it.
type MatchBuffer struct {
	kv     storage.KV
	logger *utils.Logger
}

func NewMatchBuffer(kv storage.KV, logger *utils.Logger) *MatchBuffer {
	return &MatchBuffer{kv: kv, logger: logger}
}

func bufferKey(buyerID string) string { return "matchbuffer:" + buyerID }

// Store saves the id list for the buyer, deduplicated in order. Persistence
// failures are logged, not raised: a lost hand-off degrades to the fallback
// display, never to an error.
func (m *MatchBuffer) Store(buyerID string, ids []string) {
	entry := handoffEntry{IDs: dedupe(ids), UpdatedAt: time.Now().UnixMilli()}
	data, err := json.Marshal(entry)
	if err != nil {
		m.logger.Warn("[handoff] buffer for %s not serializable: %v", buyerID, err)
		return
	}
	if err := m.kv.Store(bufferKey(buyerID), data); err != nil {
		m.logger.Warn("[handoff] buffer write for %s failed: %v", buyerID, err)
	}
}

// Consume returns the buffered ids and deletes the entry. A second call for
// the same buyer returns nil.
func (m *MatchBuffer) Consume(buyerID string) []string {
	data, ok := m.kv.Load(bufferKey(buyerID))
	if !ok {
		return nil
	}
	if err := m.kv.Delete(bufferKey(buyerID)); err != nil {
		m.logger.Warn("[handoff] buffer delete for %s failed: %v", buyerID, err)
	}

	var entry handoffEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		m.logger.Warn("[handoff] corrupt buffer for %s: %v", buyerID, err)
		return nil
	}
	return entry.IDs
}

// SelectionMemory is the durable "last known matches for this buyer" map,
// used as a fallback display while no live computation is available.
// Entries persist across sessions until explicitly cleared.
type SelectionMemory struct {
	kv     storage.KV
	logger *utils.Logger
}

func NewSelectionMemory(kv storage.KV, logger *utils.Logger) *SelectionMemory {
	return &SelectionMemory{kv: kv, logger: logger}
}

func memoryKey(buyerID string) string { return "selection:" + buyerID }

// Remember overwrites the buyer's remembered id list.
func (s *SelectionMemory) Remember(buyerID string, ids []string) {
	entry := handoffEntry{IDs: dedupe(ids), UpdatedAt: time.Now().UnixMilli()}
	data, err := json.Marshal(entry)
	if err != nil {
		s.logger.Warn("[handoff] selection for %s not serializable: %v", buyerID, err)
		return
	}
	if err := s.kv.Store(memoryKey(buyerID), data); err != nil {
		s.logger.Warn("[handoff] selection write for %s failed: %v", buyerID, err)
	}
}

// Recall returns the remembered ids and when they were written.
func (s *SelectionMemory) Recall(buyerID string) ([]string, int64, bool) {
	data, ok := s.kv.Load(memoryKey(buyerID))
	if !ok {
		return nil, 0, false
	}

	var entry handoffEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		s.logger.Warn("[handoff] corrupt selection for %s: %v", buyerID, err)
		return nil, 0, false
	}
	return entry.IDs, entry.UpdatedAt, true
}

// Clear forgets the buyer's remembered matches.
func (s *SelectionMemory) Clear(buyerID string) {
	if err := s.kv.Delete(memoryKey(buyerID)); err != nil {
		s.logger.Warn("[handoff] selection clear for %s failed: %v", buyerID, err)
	}
}

// dedupe keeps the first occurrence of each id, preserving order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
