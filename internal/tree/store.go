package tree

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ErrEmptyID is returned by AddItem for an item whose id equals Root.
var ErrEmptyID = errors.New("item id cannot be empty")

type entry struct {
	item Item
	seq  uint64 // insertion order, kept across updates
}

// Store holds items indexed by id together with the derived children index.
// It is not safe for concurrent use.
type Store struct {
	items    map[ID]*entry
	children map[ID]map[ID]struct{} // parent id -> child ids
	labels   map[string]map[ID]struct{}
	nextSeq  uint64
}

// New builds a store from a flat item list. Labels are not checked.
func New(items []Item) *Store {
	s := &Store{}
	s.Replace(items)
	return s
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	return len(s.items)
}

// GetAll returns every item in insertion order.
func (s *Store) GetAll() []Item {
	entries := make([]*entry, 0, len(s.items))
	for _, e := range s.items {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].seq < entries[b].seq })

	out := make([]Item, len(entries))
	for i, e := range entries {
		out[i] = e.item.Clone()
	}
	return out
}

// GetItem returns the item with the given id.
func (s *Store) GetItem(id ID) (Item, bool) {
	e, ok := s.items[id]
	if !ok {
		return Item{}, false
	}
	return e.item.Clone(), true
}

// Has reports whether id is stored.
func (s *Store) Has(id ID) bool {
	_, ok := s.items[id]
	return ok
}

// Resolve maps an id as typed on a command line to a stored id. A string id
// wins; otherwise decimal text matches the integer id of the same value.
func (s *Store) Resolve(text string) (ID, bool) {
	if id := ID(text); id != Root && !id.IsInt() && s.Has(id) {
		return id, true
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil && s.Has(IntID(n)) {
		return IntID(n), true
	}
	return Root, false
}

// GetChildren returns the direct children of id.
func (s *Store) GetChildren(id ID) []Item {
	ids := s.childIDs(id)
	out := make([]Item, 0, len(ids))
	for _, c := range ids {
		out = append(out, s.items[c].item.Clone())
	}
	return out
}

// GetAllChildren returns every descendant of id, depth first.
// The walk keeps a visited set, so a corrupted cyclic parent graph still
// terminates and id itself is never reported.
func (s *Store) GetAllChildren(id ID) []Item {
	ids := s.descendantIDs(id)
	out := make([]Item, len(ids))
	for i, d := range ids {
		out[i] = s.items[d].item.Clone()
	}
	return out
}

// GetAllParents returns the chain from id up to its root, id first.
// The walk stops at a Root parent or at a parent id that is not stored.
func (s *Store) GetAllParents(id ID) []Item {
	var path []Item
	visited := make(map[ID]bool)

	cur, ok := s.items[id]
	for ok {
		if visited[cur.item.ID] {
			break
		}
		visited[cur.item.ID] = true
		path = append(path, cur.item.Clone())
		if cur.item.IsRoot() {
			break
		}
		cur, ok = s.items[cur.item.Parent]
	}
	return path
}

// AddItem inserts item. If any stored item already has the same label the
// store is left untouched and a *DuplicateLabelError is returned.
func (s *Store) AddItem(item Item) error {
	if item.ID == Root {
		return ErrEmptyID
	}
	if holder, taken := s.LabelHolder(item.Label); taken {
		return &DuplicateLabelError{Label: item.Label, Existing: holder}
	}
	s.insert(item.Clone())
	return nil
}

// LabelHolder returns the oldest item carrying label.
func (s *Store) LabelHolder(label string) (ID, bool) {
	holders := s.labels[label]
	if len(holders) == 0 {
		return Root, false
	}
	return s.oldest(holders), true
}

// RemoveItem removes id and all of its descendants. Unknown ids are ignored.
func (s *Store) RemoveItem(id ID) {
	if _, ok := s.items[id]; !ok {
		return
	}
	for _, d := range s.descendantIDs(id) {
		s.drop(d)
	}
	s.drop(id)
}

// UpdateItem replaces the stored record for item.ID, moving it under a new
// parent when Parent changed. Descendants keep pointing at item.ID.
// Unknown ids are ignored.
func (s *Store) UpdateItem(item Item) {
	if _, ok := s.items[item.ID]; !ok {
		return
	}
	s.insert(item.Clone())
}

// Clear empties every index.
func (s *Store) Clear() {
	s.items = make(map[ID]*entry)
	s.children = make(map[ID]map[ID]struct{})
	s.labels = make(map[string]map[ID]struct{})
	s.nextSeq = 0
}

// Replace clears the store and inserts items in order without checking
// labels. Restoring a snapshot goes through here.
func (s *Store) Replace(items []Item) {
	s.Clear()
	for _, item := range items {
		if item.ID == Root {
			continue
		}
		s.insert(item.Clone())
	}
}

// Verify checks that the children and label indexes agree with the stored
// records.
func (s *Store) Verify() error {
	for id, e := range s.items {
		if id != e.item.ID {
			return fmt.Errorf("item stored under %q has id %q", id, e.item.ID)
		}
		if !e.item.IsRoot() {
			if _, ok := s.children[e.item.Parent][id]; !ok {
				return fmt.Errorf("item %q missing from children of %q", id, e.item.Parent)
			}
		}
		if _, ok := s.labels[e.item.Label][id]; !ok {
			return fmt.Errorf("item %q missing from label index %q", id, e.item.Label)
		}
	}

	for parent, kids := range s.children {
		for c := range kids {
			e, ok := s.items[c]
			if !ok {
				return fmt.Errorf("children of %q reference unknown item %q", parent, c)
			}
			if e.item.Parent != parent {
				return fmt.Errorf("children of %q list %q whose parent is %q", parent, c, e.item.Parent)
			}
		}
	}

	for label, holders := range s.labels {
		for id := range holders {
			e, ok := s.items[id]
			if !ok || e.item.Label != label {
				return fmt.Errorf("label index %q lists stale item %q", label, id)
			}
		}
	}
	return nil
}

// insert stores item, replacing any record with the same id.
func (s *Store) insert(item Item) {
	if s.items == nil {
		s.Clear()
	}
	if old, ok := s.items[item.ID]; ok {
		s.relink(item.ID, old.item.Parent, item.Parent)
		s.unlabel(old.item.Label, item.ID)
		old.item = item
	} else {
		s.items[item.ID] = &entry{item: item, seq: s.nextSeq}
		s.nextSeq++
		s.link(item.ID, item.Parent)
	}
	s.label(item.Label, item.ID)
}

// drop deletes a single record and its own index entries.
func (s *Store) drop(id ID) {
	e, ok := s.items[id]
	if !ok {
		return
	}
	s.unlink(id, e.item.Parent)
	s.unlabel(e.item.Label, id)
	delete(s.children, id)
	delete(s.items, id)
}

// relink is the only place a parent link changes for an existing item.
func (s *Store) relink(id, from, to ID) {
	if from == to {
		return
	}
	s.unlink(id, from)
	s.link(id, to)
}

func (s *Store) link(id, parent ID) {
	if parent == Root {
		return
	}
	kids, ok := s.children[parent]
	if !ok {
		kids = make(map[ID]struct{})
		s.children[parent] = kids
	}
	kids[id] = struct{}{}
}

func (s *Store) unlink(id, parent ID) {
	if parent == Root {
		return
	}
	kids, ok := s.children[parent]
	if !ok {
		return
	}
	delete(kids, id)
	if len(kids) == 0 {
		delete(s.children, parent)
	}
}

func (s *Store) label(label string, id ID) {
	holders, ok := s.labels[label]
	if !ok {
		holders = make(map[ID]struct{})
		s.labels[label] = holders
	}
	holders[id] = struct{}{}
}

func (s *Store) unlabel(label string, id ID) {
	holders, ok := s.labels[label]
	if !ok {
		return
	}
	delete(holders, id)
	if len(holders) == 0 {
		delete(s.labels, label)
	}
}

// childIDs returns the stored children of id in insertion order.
func (s *Store) childIDs(id ID) []ID {
	kids := s.children[id]
	if len(kids) == 0 {
		return nil
	}
	ids := make([]ID, 0, len(kids))
	for c := range kids {
		if _, ok := s.items[c]; ok {
			ids = append(ids, c)
		}
	}
	sort.Slice(ids, func(a, b int) bool { return s.items[ids[a]].seq < s.items[ids[b]].seq })
	return ids
}

func (s *Store) descendantIDs(id ID) []ID {
	var out []ID
	visited := map[ID]bool{id: true}

	stack := reversed(s.childIDs(id))
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		out = append(out, cur)
		stack = append(stack, reversed(s.childIDs(cur))...)
	}
	return out
}

func (s *Store) oldest(ids map[ID]struct{}) ID {
	var best ID
	first := true
	for id := range ids {
		if first || s.items[id].seq < s.items[best].seq {
			best = id
			first = false
		}
	}
	return best
}

func reversed(ids []ID) []ID {
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids
}
