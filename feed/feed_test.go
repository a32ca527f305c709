package feed

import (
	"testing"
)

func TestMemorySourceDeliversLastSnapshotOnSubscribe(t *testing.T) {
	src := NewMemorySource[string]()
	src.Push(Snapshot[string]{Rows: []string{"a", "b"}})

	var got []string
	_, err := src.Subscribe(func(s Snapshot[string]) { got = s.Rows })
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if len(got) != 2 {
		t.Errorf("late subscriber got %v; want the current snapshot", got)
	}
}

func TestMemorySourceFanOutOrderAndUnsubscribe(t *testing.T) {
	src := NewMemorySource[int]()

	var order []string
	unsubA, _ := src.Subscribe(func(Snapshot[int]) { order = append(order, "a") })
	_, _ = src.Subscribe(func(Snapshot[int]) { order = append(order, "b") })

	src.Push(Snapshot[int]{})
	unsubA()
	src.Push(Snapshot[int]{})

	want := []string{"a", "b", "b"}
	if len(order) != len(want) {
		t.Fatalf("order = %v; want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order = %v; want %v", order, want)
			break
		}
	}
}

func TestMemorySourceUnsubscribeIsIdempotent(t *testing.T) {
	src := NewMemorySource[int]()

	n := 0
	unsub, _ := src.Subscribe(func(Snapshot[int]) { n++ })
	unsub()
	unsub()

	src.Push(Snapshot[int]{})
	if n != 0 {
		t.Errorf("listener ran %d times after unsubscribe", n)
	}
}

func TestChangeKindMapping(t *testing.T) {
	tests := []struct {
		op   string
		want ChangeKind
	}{
		{"insert", ChangeAdded},
		{"delete", ChangeRemoved},
		{"update", ChangeModified},
		{"replace", ChangeModified},
	}
	for _, tt := range tests {
		if got := changeKind(tt.op); got != tt.want {
			t.Errorf("changeKind(%q) = %v; want %v", tt.op, got, tt.want)
		}
	}
}
