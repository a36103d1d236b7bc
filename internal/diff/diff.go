// Package diff compares two item sets, typically two history snapshots.
//
// This package provides:
// - Item level changes: added, modified and removed items
// - Per field detail for modified items (parent, label, payload keys)
// - Summary statistics over a change list
package diff

import (
	"bytes"
	"sort"

	"github.com/goccy/go-json"
	"github.com/javanhut/arbor/internal/tree"
)

// ChangeType represents the type of change in a diff.
type ChangeType uint8

const (
	Added ChangeType = iota + 1
	Modified
	Removed
)

func (c ChangeType) String() string {
	switch c {
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Fields lists what differs between the two versions of a modified item.
type Fields struct {
	Parent  bool
	Label   bool
	Payload []string // changed, added or removed payload keys, sorted
}

// Change represents a change to a single item.
type Change struct {
	Type   ChangeType
	ID     tree.ID
	Old    *tree.Item // nil for Added
	New    *tree.Item // nil for Removed
	Fields Fields     // set for Modified
}

// Stats counts changes by type.
type Stats struct {
	Added    int
	Modified int
	Removed  int
}

// Items computes the changes that turn before into after. Removed and
// modified items come first in before's order, then added items in after's
// order.
func Items(before, after []tree.Item) []Change {
	afterByID := make(map[tree.ID]*tree.Item, len(after))
	for i := range after {
		afterByID[after[i].ID] = &after[i]
	}
	seen := make(map[tree.ID]bool, len(before))

	var changes []Change
	for i := range before {
		o := &before[i]
		seen[o.ID] = true

		n, ok := afterByID[o.ID]
		if !ok {
			changes = append(changes, Change{Type: Removed, ID: o.ID, Old: o})
			continue
		}
		fields := compare(o, n)
		if fields.Parent || fields.Label || len(fields.Payload) > 0 {
			changes = append(changes, Change{Type: Modified, ID: o.ID, Old: o, New: n, Fields: fields})
		}
	}
	for i := range after {
		if !seen[after[i].ID] {
			changes = append(changes, Change{Type: Added, ID: after[i].ID, New: &after[i]})
		}
	}
	return changes
}

// Summarize counts changes by type.
func Summarize(changes []Change) Stats {
	var s Stats
	for _, c := range changes {
		switch c.Type {
		case Added:
			s.Added++
		case Modified:
			s.Modified++
		case Removed:
			s.Removed++
		}
	}
	return s
}

func compare(o, n *tree.Item) Fields {
	f := Fields{
		Parent: o.Parent != n.Parent,
		Label:  o.Label != n.Label,
	}
	keys := make(map[string]bool, len(o.Extra)+len(n.Extra))
	for k := range o.Extra {
		keys[k] = true
	}
	for k := range n.Extra {
		keys[k] = true
	}
	for k := range keys {
		ov, inOld := o.Extra[k]
		nv, inNew := n.Extra[k]
		if inOld != inNew || !sameJSON(ov, nv) {
			f.Payload = append(f.Payload, k)
		}
	}
	sort.Strings(f.Payload)
	return f
}

// sameJSON compares two values ignoring insignificant whitespace.
func sameJSON(a, b json.RawMessage) bool {
	if bytes.Equal(a, b) {
		return true
	}
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return false
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}
