package history

import (
	"reflect"
	"testing"

	"github.com/goccy/go-json"
	"github.com/javanhut/arbor/internal/tree"
)

func itemIDs(items []tree.Item) []tree.ID {
	out := make([]tree.ID, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func baseStore() *tree.Store {
	return tree.New([]tree.Item{
		{ID: "1", Parent: tree.Root, Label: "root"},
		{ID: "2", Parent: "1", Label: "child"},
	})
}

func TestSnapshotCanonicalEncoding(t *testing.T) {
	snap := NewSnapshot([]tree.Item{
		{ID: "1", Parent: tree.Root, Label: "root"},
		{
			ID:     "2",
			Parent: "1",
			Label:  "child",
			Extra: map[string]json.RawMessage{
				"color": json.RawMessage(`"red"`),
				"meta":  json.RawMessage(`{"n":1}`),
			},
		},
	})

	canonical := snap.CanonicalBytes()
	if len(canonical) == 0 {
		t.Fatal("Canonical encoding should not be empty")
	}

	parsed, err := ParseSnapshot(canonical)
	if err != nil {
		t.Fatalf("Failed to parse canonical bytes: %v", err)
	}
	if !reflect.DeepEqual(parsed.Items(), snap.Items()) {
		t.Errorf("parsed items = %+v, want %+v", parsed.Items(), snap.Items())
	}
	if parsed.Hash() != snap.Hash() {
		t.Error("parsed snapshot should hash identically")
	}
}

func TestParseSnapshotRejectsBadInput(t *testing.T) {
	good := NewSnapshot([]tree.Item{{ID: "1", Label: "x"}}).CanonicalBytes()

	tests := []struct {
		name string
		data []byte
	}{
		{"Empty", nil},
		{"WrongVersion", []byte{2, 0}},
		{"Truncated", good[:len(good)-1]},
		{"Trailing", append(append([]byte(nil), good...), 0)},
		{"HugeCount", []byte{1, 0xff, 0xff, 0x03}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSnapshot(tt.data); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestSnapshotHash(t *testing.T) {
	a := NewSnapshot(baseStore().GetAll())
	b := NewSnapshot(baseStore().GetAll())
	if a.Hash() != b.Hash() {
		t.Error("Identical snapshots should have same hash")
	}

	s := baseStore()
	s.UpdateItem(tree.Item{ID: "2", Parent: "1", Label: "renamed"})
	c := NewSnapshot(s.GetAll())
	if a.Hash() == c.Hash() {
		t.Error("Different snapshots should have different hashes")
	}
}

func TestSnapshotIsIsolatedFromStore(t *testing.T) {
	items := []tree.Item{{ID: "1", Label: "x", Extra: map[string]json.RawMessage{"k": json.RawMessage(`1`)}}}
	snap := NewSnapshot(items)

	items[0].Label = "changed"
	items[0].Extra["k"][0] = '2'

	got := snap.Items()
	if got[0].Label != "x" || string(got[0].Extra["k"]) != "1" {
		t.Errorf("snapshot observed a later mutation: %+v", got[0])
	}

	got[0].Label = "again"
	if snap.Items()[0].Label != "x" {
		t.Error("Items() must return copies")
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	s := baseStore()
	m := NewManager(0)
	m.Init(s)
	s0 := s.GetAll()

	if err := s.AddItem(tree.Item{ID: "3", Parent: "2", Label: "grandchild"}); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	m.PushNewState(s)
	s1 := s.GetAll()

	if !m.Undo(s) {
		t.Fatal("Undo should report a change")
	}
	if !reflect.DeepEqual(s.GetAll(), s0) {
		t.Errorf("after undo got %v, want %v", itemIDs(s.GetAll()), itemIDs(s0))
	}
	if err := s.Verify(); err != nil {
		t.Errorf("Verify after undo failed: %v", err)
	}

	if !m.Redo(s) {
		t.Fatal("Redo should report a change")
	}
	if !reflect.DeepEqual(s.GetAll(), s1) {
		t.Errorf("after redo got %v, want %v", itemIDs(s.GetAll()), itemIDs(s1))
	}
}

func TestUndoRestoresRemovedSubtree(t *testing.T) {
	s := baseStore()
	m := NewManager(0)
	m.Init(s)

	s.RemoveItem("1")
	m.PushNewState(s)
	if s.Len() != 0 {
		t.Fatalf("Len() after remove = %d, want 0", s.Len())
	}

	m.Undo(s)
	child, ok := s.GetItem("2")
	if !ok || child.Parent != "1" {
		t.Fatalf("undo should restore child with its parent link, got %+v (found=%v)", child, ok)
	}
	if got := itemIDs(s.GetAllChildren("1")); !reflect.DeepEqual(got, []tree.ID{"2"}) {
		t.Errorf("GetAllChildren(1) = %v, want [2]", got)
	}
}

func TestNewEditClearsRedo(t *testing.T) {
	s := baseStore()
	m := NewManager(0)
	m.Init(s)

	_ = s.AddItem(tree.Item{ID: "3", Parent: "1", Label: "a"})
	m.PushNewState(s)
	m.Undo(s)
	if !m.CanRedo() {
		t.Fatal("redo should be available after undo")
	}

	_ = s.AddItem(tree.Item{ID: "4", Parent: "1", Label: "b"})
	m.PushNewState(s)

	if m.CanRedo() {
		t.Error("a new edit should clear the redo history")
	}
	before := s.GetAll()
	if m.Redo(s) {
		t.Error("Redo should be a no-op")
	}
	if !reflect.DeepEqual(s.GetAll(), before) {
		t.Error("no-op redo changed the store")
	}
	if s.Has("3") {
		t.Error("undone item reappeared")
	}
}

func TestEmptyUndoRedoAreNoops(t *testing.T) {
	s := baseStore()
	m := NewManager(0)
	m.Init(s)
	present, _ := m.Present()
	before := s.GetAll()

	if m.Undo(s) {
		t.Error("Undo with empty past should report false")
	}
	if m.Redo(s) {
		t.Error("Redo with empty future should report false")
	}

	after, _ := m.Present()
	if after.Hash() != present.Hash() {
		t.Error("present changed")
	}
	if !reflect.DeepEqual(s.GetAll(), before) {
		t.Error("store changed")
	}
}

func TestUninitializedManager(t *testing.T) {
	s := baseStore()
	m := NewManager(0)

	if _, ok := m.Present(); ok {
		t.Error("Present should be absent before Init")
	}
	m.PushNewState(s)
	if undo, _ := m.Depth(); undo != 0 {
		t.Errorf("first push without a present should not grow the past, depth=%d", undo)
	}
	if _, ok := m.Present(); !ok {
		t.Error("Present should be set after PushNewState")
	}
}

func TestMultiStepHistoryOrder(t *testing.T) {
	s := tree.New(nil)
	m := NewManager(0)
	m.Init(s)

	labels := []string{"a", "b", "c"}
	for i, label := range labels {
		_ = s.AddItem(tree.Item{ID: tree.ID(label), Label: label})
		m.PushNewState(s)
		if s.Len() != i+1 {
			t.Fatalf("Len() = %d, want %d", s.Len(), i+1)
		}
	}

	for want := 2; want >= 0; want-- {
		m.Undo(s)
		if s.Len() != want {
			t.Fatalf("after undo Len() = %d, want %d", s.Len(), want)
		}
	}
	if undo, redo := m.Depth(); undo != 0 || redo != 3 {
		t.Fatalf("Depth() = %d,%d want 0,3", undo, redo)
	}

	for want := 1; want <= 3; want++ {
		m.Redo(s)
		if s.Len() != want {
			t.Fatalf("after redo Len() = %d, want %d", s.Len(), want)
		}
	}
}

func TestRestoreKeepsDuplicateLabels(t *testing.T) {
	s := baseStore()
	m := NewManager(0)
	m.Init(s)

	// UpdateItem does not check labels, so a snapshot may hold duplicates.
	s.UpdateItem(tree.Item{ID: "2", Parent: "1", Label: "root"})
	m.PushNewState(s)
	m.Undo(s)
	m.Redo(s)

	if s.Len() != 2 {
		t.Errorf("restore dropped an item with a duplicate label, Len() = %d", s.Len())
	}
}

func TestLimitDropsOldestStates(t *testing.T) {
	s := tree.New(nil)
	m := NewManager(2)
	m.Init(s)

	for _, label := range []string{"a", "b", "c", "d"} {
		_ = s.AddItem(tree.Item{ID: tree.ID(label), Label: label})
		m.PushNewState(s)
	}

	if undo, _ := m.Depth(); undo != 2 {
		t.Fatalf("undo depth = %d, want 2", undo)
	}
	m.Undo(s)
	m.Undo(s)
	if m.Undo(s) {
		t.Error("undo beyond the limit should be a no-op")
	}
	if got := itemIDs(s.GetAll()); !reflect.DeepEqual(got, []tree.ID{"a", "b"}) {
		t.Errorf("oldest reachable state = %v, want [a b]", got)
	}
}

func TestStateResume(t *testing.T) {
	s := baseStore()
	m := NewManager(0)
	m.Init(s)
	_ = s.AddItem(tree.Item{ID: "3", Parent: "1", Label: "x"})
	m.PushNewState(s)
	_ = s.AddItem(tree.Item{ID: "4", Parent: "1", Label: "y"})
	m.PushNewState(s)
	m.Undo(s)

	resumed := Resume(m.State(), 0)
	undo, redo := resumed.Depth()
	if undo != 1 || redo != 1 {
		t.Fatalf("resumed Depth() = %d,%d want 1,1", undo, redo)
	}

	live := tree.New(nil)
	present, _ := resumed.Present()
	live.Replace(present.Items())

	resumed.Redo(live)
	if !live.Has("4") {
		t.Error("redo on resumed manager should restore item 4")
	}
	resumed.Undo(live)
	resumed.Undo(live)
	if live.Len() != 2 {
		t.Errorf("Len() after undoing to the start = %d, want 2", live.Len())
	}
}
