package diff

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/javanhut/arbor/internal/tree"
)

func item(id, parent, label string, extra map[string]string) tree.Item {
	it := tree.Item{ID: tree.ID(id), Parent: tree.ID(parent), Label: label}
	if extra != nil {
		it.Extra = make(map[string]json.RawMessage, len(extra))
		for k, v := range extra {
			it.Extra[k] = json.RawMessage(v)
		}
	}
	return it
}

func TestItems(t *testing.T) {
	before := []tree.Item{
		item("1", "", "root", nil),
		item("2", "1", "child", map[string]string{"n": "1", "keep": `{"a": 1}`}),
		item("3", "1", "gone", nil),
		item("4", "1", "same", map[string]string{"x": `"y"`}),
	}
	after := []tree.Item{
		item("1", "", "root", nil),
		item("2", "4", "kid", map[string]string{"n": "2", "keep": `{"a":1}`, "extra": "true"}),
		item("4", "1", "same", map[string]string{"x": `"y"`}),
		item("5", "4", "new", nil),
	}

	changes := Items(before, after)
	if len(changes) != 3 {
		t.Fatalf("Expected 3 changes, got %d: %+v", len(changes), changes)
	}

	mod := changes[0]
	if mod.Type != Modified || mod.ID != "2" {
		t.Fatalf("changes[0] = %v %s, want modified 2", mod.Type, mod.ID)
	}
	if !mod.Fields.Parent || !mod.Fields.Label {
		t.Errorf("Expected parent and label changes, got %+v", mod.Fields)
	}
	// "keep" differs only in whitespace.
	if got := mod.Fields.Payload; len(got) != 2 || got[0] != "extra" || got[1] != "n" {
		t.Errorf("Payload changes = %v, want [extra n]", got)
	}

	if changes[1].Type != Removed || changes[1].ID != "3" || changes[1].New != nil {
		t.Errorf("changes[1] = %+v, want removed 3", changes[1])
	}
	if changes[2].Type != Added || changes[2].ID != "5" || changes[2].Old != nil {
		t.Errorf("changes[2] = %+v, want added 5", changes[2])
	}

	stats := Summarize(changes)
	if stats != (Stats{Added: 1, Modified: 1, Removed: 1}) {
		t.Errorf("Summarize() = %+v", stats)
	}
}

func TestItemsIdentical(t *testing.T) {
	items := []tree.Item{item("1", "", "a", map[string]string{"k": "[1,2]"})}
	if changes := Items(items, items); len(changes) != 0 {
		t.Errorf("Expected no changes, got %+v", changes)
	}
	if changes := Items(nil, nil); len(changes) != 0 {
		t.Errorf("Expected no changes for empty sets, got %+v", changes)
	}
}

func TestChangeTypeString(t *testing.T) {
	tests := map[ChangeType]string{Added: "added", Modified: "modified", Removed: "removed", 0: "unknown"}
	for c, want := range tests {
		if c.String() != want {
			t.Errorf("ChangeType(%d).String() = %q, want %q", c, c.String(), want)
		}
	}
}
