package services

import (
	"reflect"
	"testing"

	"realty-backoffice/storage"
	"realty-backoffice/utils"
)

func TestMatchBufferConsumeOnce(t *testing.T) {
	buf := NewMatchBuffer(storage.NewMemoryKV(), utils.NewLogger())

	buf.Store("buyer1", []string{"L1", "L2"})

	got := buf.Consume("buyer1")
	if !reflect.DeepEqual(got, []string{"L1", "L2"}) {
		t.Errorf("first consume = %v; want [L1 L2]", got)
	}

	if again := buf.Consume("buyer1"); again != nil {
		t.Errorf("second consume = %v; want nil", again)
	}
}

func TestMatchBufferDeduplicatesPreservingOrder(t *testing.T) {
	buf := NewMatchBuffer(storage.NewMemoryKV(), utils.NewLogger())

	buf.Store("buyer1", []string{"L2", "L1", "L2", "L3", "L1"})

	got := buf.Consume("buyer1")
	if !reflect.DeepEqual(got, []string{"L2", "L1", "L3"}) {
		t.Errorf("got %v; want [L2 L1 L3]", got)
	}
}

func TestMatchBufferIsPerBuyer(t *testing.T) {
	buf := NewMatchBuffer(storage.NewMemoryKV(), utils.NewLogger())

	buf.Store("buyer1", []string{"L1"})
	buf.Store("buyer2", []string{"L2"})

	if got := buf.Consume("buyer2"); !reflect.DeepEqual(got, []string{"L2"}) {
		t.Errorf("buyer2 = %v", got)
	}
	if got := buf.Consume("buyer1"); !reflect.DeepEqual(got, []string{"L1"}) {
		t.Errorf("buyer1 = %v", got)
	}
}

func TestSelectionMemoryRememberRecallClear(t *testing.T) {
	mem := NewSelectionMemory(storage.NewMemoryKV(), utils.NewLogger())

	if _, _, ok := mem.Recall("buyer1"); ok {
		t.Error("recall before remember should report nothing")
	}

	mem.Remember("buyer1", []string{"L1", "L2"})
	mem.Remember("buyer1", []string{"L3"}) // overwrite

	ids, updatedAt, ok := mem.Recall("buyer1")
	if !ok || !reflect.DeepEqual(ids, []string{"L3"}) {
		t.Errorf("recall = %v, %v; want [L3]", ids, ok)
	}
	if updatedAt == 0 {
		t.Error("recall lost the write timestamp")
	}

	// Recall does not consume.
	if _, _, ok := mem.Recall("buyer1"); !ok {
		t.Error("recall must be repeatable")
	}

	mem.Clear("buyer1")
	if _, _, ok := mem.Recall("buyer1"); ok {
		t.Error("recall after clear should report nothing")
	}
}
