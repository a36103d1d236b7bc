package tree

import (
	"errors"
	"reflect"
	"testing"

	"github.com/goccy/go-json"
)

func ids(items []Item) []ID {
	out := make([]ID, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func sampleStore() *Store {
	//      1
	//    /   \
	//   2     3
	//  / \     \
	// 4   5     6
	//     |
	//     7
	return New([]Item{
		{ID: "1", Parent: Root, Label: "root"},
		{ID: "2", Parent: "1", Label: "a"},
		{ID: "3", Parent: "1", Label: "b"},
		{ID: "4", Parent: "2", Label: "a1"},
		{ID: "5", Parent: "2", Label: "a2"},
		{ID: "6", Parent: "3", Label: "b1"},
		{ID: "7", Parent: "5", Label: "a2x"},
	})
}

func TestNewBuildsIndexes(t *testing.T) {
	s := sampleStore()

	if s.Len() != 7 {
		t.Fatalf("Len() = %d, want 7", s.Len())
	}
	if err := s.Verify(); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	want := []ID{"1", "2", "3", "4", "5", "6", "7"}
	if got := ids(s.GetAll()); !reflect.DeepEqual(got, want) {
		t.Errorf("GetAll() = %v, want %v", got, want)
	}
}

func TestGetItem(t *testing.T) {
	s := sampleStore()

	item, ok := s.GetItem("5")
	if !ok {
		t.Fatal("GetItem(5) should find the item")
	}
	if item.Label != "a2" || item.Parent != "2" {
		t.Errorf("GetItem(5) = %+v", item)
	}

	if _, ok := s.GetItem("missing"); ok {
		t.Error("GetItem on unknown id should report absent")
	}
}

func TestGetChildren(t *testing.T) {
	s := sampleStore()

	tests := []struct {
		name string
		id   ID
		want []ID
	}{
		{"Root", "1", []ID{"2", "3"}},
		{"Inner", "2", []ID{"4", "5"}},
		{"Leaf", "4", []ID{}},
		{"Unknown", "nope", []ID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(s.GetChildren(tt.id)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GetChildren(%s) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestGetAllChildren(t *testing.T) {
	s := sampleStore()

	tests := []struct {
		name string
		id   ID
		want []ID
	}{
		{"WholeTree", "1", []ID{"2", "4", "5", "7", "3", "6"}},
		{"Subtree", "2", []ID{"4", "5", "7"}},
		{"Leaf", "7", []ID{}},
		{"Unknown", "nope", []ID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(s.GetAllChildren(tt.id)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GetAllChildren(%s) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestGetAllParents(t *testing.T) {
	s := sampleStore()

	tests := []struct {
		name string
		id   ID
		want []ID
	}{
		{"Deep", "7", []ID{"7", "5", "2", "1"}},
		{"Root", "1", []ID{"1"}},
		{"Unknown", "nope", []ID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(s.GetAllParents(tt.id)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GetAllParents(%s) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestGetAllParentsStopsAtDanglingParent(t *testing.T) {
	s := New([]Item{
		{ID: "a", Parent: "ghost", Label: "a"},
		{ID: "b", Parent: "a", Label: "b"},
	})

	if got := ids(s.GetAllParents("b")); !reflect.DeepEqual(got, []ID{"b", "a"}) {
		t.Errorf("GetAllParents(b) = %v, want [b a]", got)
	}
	if got := ids(s.GetAllChildren("ghost")); !reflect.DeepEqual(got, []ID{"a", "b"}) {
		t.Errorf("GetAllChildren(ghost) = %v, want [a b]", got)
	}
	if err := s.Verify(); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

func TestTraversalTerminatesOnCycle(t *testing.T) {
	s := New([]Item{
		{ID: "a", Parent: "c", Label: "a"},
		{ID: "b", Parent: "a", Label: "b"},
		{ID: "c", Parent: "b", Label: "c"},
	})

	if got := ids(s.GetAllChildren("a")); !reflect.DeepEqual(got, []ID{"b", "c"}) {
		t.Errorf("GetAllChildren(a) = %v, want [b c]", got)
	}
	if got := ids(s.GetAllParents("a")); !reflect.DeepEqual(got, []ID{"a", "c", "b"}) {
		t.Errorf("GetAllParents(a) = %v, want [a c b]", got)
	}
}

func TestAddItem(t *testing.T) {
	s := sampleStore()

	if err := s.AddItem(Item{ID: "8", Parent: "6", Label: "b1x"}); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if got := ids(s.GetChildren("6")); !reflect.DeepEqual(got, []ID{"8"}) {
		t.Errorf("GetChildren(6) = %v, want [8]", got)
	}

	// Parent not stored yet: the link is still recorded.
	if err := s.AddItem(Item{ID: "9", Parent: "later", Label: "early"}); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if got := ids(s.GetChildren("later")); !reflect.DeepEqual(got, []ID{"9"}) {
		t.Errorf("GetChildren(later) = %v, want [9]", got)
	}
	if err := s.Verify(); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

func TestAddItemDuplicateLabel(t *testing.T) {
	s := sampleStore()
	before := s.GetAll()

	err := s.AddItem(Item{ID: "99", Parent: "4", Label: "b1"})
	if err == nil {
		t.Fatal("AddItem should reject a duplicate label")
	}
	if !errors.Is(err, ErrDuplicateLabel) {
		t.Errorf("error should match ErrDuplicateLabel, got %v", err)
	}
	var dup *DuplicateLabelError
	if !errors.As(err, &dup) {
		t.Fatalf("error should be a *DuplicateLabelError, got %T", err)
	}
	if dup.Label != "b1" || dup.Existing != "6" {
		t.Errorf("DuplicateLabelError = %+v", dup)
	}

	if !reflect.DeepEqual(s.GetAll(), before) {
		t.Error("store changed after a rejected add")
	}
	if len(s.GetChildren("4")) != 0 {
		t.Error("rejected item was linked under its parent")
	}
}

func TestLabelHolder(t *testing.T) {
	s := sampleStore()
	if id, ok := s.LabelHolder("a2"); !ok || id != "5" {
		t.Errorf("LabelHolder(a2) = %q, %v, want 5, true", id, ok)
	}
	if id, ok := s.LabelHolder("nope"); ok || id != Root {
		t.Errorf("LabelHolder(nope) = %q, %v, want Root, false", id, ok)
	}

	s.UpdateItem(Item{ID: "5", Parent: "2", Label: "renamed"})
	if _, ok := s.LabelHolder("a2"); ok {
		t.Error("old label should be free after a rename")
	}
	if id, ok := s.LabelHolder("renamed"); !ok || id != "5" {
		t.Errorf("LabelHolder(renamed) = %q, %v, want 5, true", id, ok)
	}

	s.RemoveItem("2")
	if _, ok := s.LabelHolder("renamed"); ok {
		t.Error("label of a removed item should be free")
	}
}

func TestLabelHolderPrefersOldest(t *testing.T) {
	s := New([]Item{
		{ID: "z", Label: "same"},
		{ID: "a", Label: "same"},
	})
	s.UpdateItem(Item{ID: "z", Parent: "a", Label: "same"})
	if id, ok := s.LabelHolder("same"); !ok || id != "z" {
		t.Errorf("LabelHolder(same) = %q, %v, want z, true", id, ok)
	}
}

func TestResolve(t *testing.T) {
	s := New([]Item{
		{ID: IntID(1), Label: "int one"},
		{ID: "1", Label: "string one"},
		{ID: IntID(2), Label: "int two"},
		{ID: "x", Label: "letter"},
	})
	tests := []struct {
		text string
		want ID
		ok   bool
	}{
		{"1", "1", true},
		{"2", IntID(2), true},
		{"x", "x", true},
		{"3", Root, false},
		{"", Root, false},
		{"\x001", Root, false},
	}
	for _, tt := range tests {
		got, ok := s.Resolve(tt.text)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Resolve(%q) = %q, %v, want %q, %v", tt.text, got, ok, tt.want, tt.ok)
		}
	}

	s.RemoveItem("1")
	if got, ok := s.Resolve("1"); !ok || got != IntID(1) {
		t.Errorf("Resolve(1) after removing the string id = %q, %v, want the integer id", got, ok)
	}
}

func TestAddItemEmptyID(t *testing.T) {
	s := New(nil)
	if err := s.AddItem(Item{Label: "x"}); !errors.Is(err, ErrEmptyID) {
		t.Errorf("AddItem with empty id = %v, want ErrEmptyID", err)
	}
	if s.Len() != 0 {
		t.Error("store should stay empty")
	}
}

func TestRemoveItemCascades(t *testing.T) {
	s := sampleStore()

	s.RemoveItem("2")

	for _, id := range []ID{"2", "4", "5", "7"} {
		if s.Has(id) {
			t.Errorf("item %s should have been removed", id)
		}
	}
	if got := ids(s.GetChildren("1")); !reflect.DeepEqual(got, []ID{"3"}) {
		t.Errorf("GetChildren(1) = %v, want [3]", got)
	}
	if err := s.Verify(); err != nil {
		t.Errorf("Verify failed: %v", err)
	}

	// The removed labels are free again.
	if err := s.AddItem(Item{ID: "10", Parent: "1", Label: "a"}); err != nil {
		t.Errorf("label of a removed item should be reusable: %v", err)
	}
}

func TestRemoveItemUnknownIsNoop(t *testing.T) {
	s := sampleStore()
	before := s.GetAll()

	s.RemoveItem("nope")

	if !reflect.DeepEqual(s.GetAll(), before) {
		t.Error("removing an unknown id changed the store")
	}
}

func TestRemoveRootScenario(t *testing.T) {
	s := New([]Item{
		{ID: "1", Parent: Root, Label: "root"},
		{ID: "2", Parent: "1", Label: "child"},
	})

	if got := ids(s.GetAllChildren("1")); !reflect.DeepEqual(got, []ID{"2"}) {
		t.Errorf("GetAllChildren(1) = %v, want [2]", got)
	}

	s.RemoveItem("1")
	if got := s.GetAll(); len(got) != 0 {
		t.Errorf("GetAll() after removing root = %v, want empty", ids(got))
	}
}

func TestUpdateItemReparents(t *testing.T) {
	s := sampleStore()

	s.UpdateItem(Item{ID: "5", Parent: "3", Label: "moved"})

	if got := ids(s.GetChildren("2")); !reflect.DeepEqual(got, []ID{"4"}) {
		t.Errorf("GetChildren(2) = %v, want [4]", got)
	}
	if got := ids(s.GetChildren("3")); !reflect.DeepEqual(got, []ID{"5", "6"}) {
		t.Errorf("GetChildren(3) = %v, want [5 6]", got)
	}
	// Descendants follow implicitly through their own parent link.
	if got := ids(s.GetAllParents("7")); !reflect.DeepEqual(got, []ID{"7", "5", "3", "1"}) {
		t.Errorf("GetAllParents(7) = %v", got)
	}
	item, _ := s.GetItem("5")
	if item.Label != "moved" {
		t.Errorf("label = %q, want moved", item.Label)
	}
	if err := s.Verify(); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

func TestUpdateItemToRoot(t *testing.T) {
	s := sampleStore()

	s.UpdateItem(Item{ID: "2", Parent: Root, Label: "a"})

	if got := ids(s.GetChildren("1")); !reflect.DeepEqual(got, []ID{"3"}) {
		t.Errorf("GetChildren(1) = %v, want [3]", got)
	}
	if got := ids(s.GetAllParents("4")); !reflect.DeepEqual(got, []ID{"4", "2"}) {
		t.Errorf("GetAllParents(4) = %v, want [4 2]", got)
	}
	if err := s.Verify(); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

func TestUpdateItemUnknownIsNoop(t *testing.T) {
	s := sampleStore()
	before := s.GetAll()

	s.UpdateItem(Item{ID: "nope", Parent: "1", Label: "x"})

	if !reflect.DeepEqual(s.GetAll(), before) {
		t.Error("updating an unknown id changed the store")
	}
}

func TestUpdateItemKeepsInsertionOrder(t *testing.T) {
	s := sampleStore()
	s.UpdateItem(Item{ID: "1", Parent: Root, Label: "renamed"})

	if got := s.GetAll()[0]; got.ID != "1" || got.Label != "renamed" {
		t.Errorf("first item = %+v, want renamed 1", got)
	}
}

func TestClear(t *testing.T) {
	s := sampleStore()
	s.Clear()

	if s.Len() != 0 || len(s.GetAll()) != 0 {
		t.Error("Clear should empty the store")
	}
	if len(s.GetChildren("1")) != 0 {
		t.Error("Clear should empty the children index")
	}
	if err := s.AddItem(Item{ID: "1", Label: "root"}); err != nil {
		t.Errorf("labels should be free after Clear: %v", err)
	}
}

func TestReplaceBypassesLabelCheck(t *testing.T) {
	s := sampleStore()
	s.Replace([]Item{
		{ID: "x", Label: "same"},
		{ID: "y", Parent: "x", Label: "same"},
	})

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if got := ids(s.GetAll()); !reflect.DeepEqual(got, []ID{"x", "y"}) {
		t.Errorf("GetAll() = %v, want [x y]", got)
	}
	if err := s.Verify(); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

func TestReturnedItemsDoNotAliasStore(t *testing.T) {
	s := New([]Item{{ID: "1", Label: "root", Extra: map[string]json.RawMessage{"n": json.RawMessage("1")}}})

	item, _ := s.GetItem("1")
	item.Extra["n"][0] = '2'
	item.Extra["added"] = []byte("true")

	again, _ := s.GetItem("1")
	if string(again.Extra["n"]) != "1" {
		t.Errorf("payload changed through a returned copy: %s", again.Extra["n"])
	}
	if _, ok := again.Extra["added"]; ok {
		t.Error("payload key added through a returned copy")
	}
}

func TestZeroValueStore(t *testing.T) {
	var s Store
	if len(s.GetAll()) != 0 {
		t.Error("zero store should be empty")
	}
	if err := s.AddItem(Item{ID: "1", Label: "root"}); err != nil {
		t.Fatalf("AddItem on zero store failed: %v", err)
	}
	if !s.Has("1") {
		t.Error("item should be stored")
	}
}
