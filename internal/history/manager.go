// Package history implements linear undo/redo over full-tree snapshots.
//
// A Manager keeps three sequences: past (newest last), a single present and
// future (most recently undone first). Callers push a new state after every
// committed edit; the manager never decides on its own that an edit happened.
//
// Undo and redo restore the tree wholesale: the live store is cleared and
// refilled from fresh copies of the stored snapshot, so the archive can never
// alias live state.
package history

import "github.com/javanhut/arbor/internal/tree"

// Tree is the part of a store the manager needs. *tree.Store satisfies it.
type Tree interface {
	GetAll() []tree.Item
	Replace(items []tree.Item)
}

// State is an exported copy of a manager's sequences, used for persistence.
type State struct {
	Past    []Snapshot // oldest first
	Present *Snapshot
	Future  []Snapshot // most recently undone first
}

// Manager tracks undo/redo history for one editing session.
// It is not safe for concurrent use.
type Manager struct {
	past    []Snapshot
	present *Snapshot
	future  []Snapshot
	limit   int // maximum len(past); 0 means unbounded
}

// NewManager creates an empty manager. A positive limit caps how many past
// states are kept; the oldest are dropped first.
func NewManager(limit int) *Manager {
	if limit < 0 {
		limit = 0
	}
	return &Manager{limit: limit}
}

// Resume rebuilds a manager from a previously exported state.
func Resume(state State, limit int) *Manager {
	m := NewManager(limit)
	m.past = append([]Snapshot(nil), state.Past...)
	m.future = append([]Snapshot(nil), state.Future...)
	if state.Present != nil {
		p := *state.Present
		m.present = &p
	}
	m.trim()
	return m
}

// Init discards all history and records the tree's current contents as the
// present state.
func (m *Manager) Init(t Tree) {
	m.past = nil
	m.future = nil
	snap := NewSnapshot(t.GetAll())
	m.present = &snap
}

// PushNewState moves the present state into the past, records the tree's
// current contents as the new present and drops any redo history.
func (m *Manager) PushNewState(t Tree) {
	if m.present != nil {
		m.past = append(m.past, *m.present)
	}
	snap := NewSnapshot(t.GetAll())
	m.present = &snap
	m.future = nil
	m.trim()
}

// Undo steps back one state and restores it into t.
// It reports false, and touches nothing, when there is nothing to undo.
func (m *Manager) Undo(t Tree) bool {
	if len(m.past) == 0 {
		return false
	}
	if m.present != nil {
		m.future = append([]Snapshot{*m.present}, m.future...)
	}
	prev := m.past[len(m.past)-1]
	m.past = m.past[:len(m.past)-1]
	m.present = &prev
	restore(t, prev)
	return true
}

// Redo re-applies the most recently undone state into t.
// It reports false, and touches nothing, when there is nothing to redo.
func (m *Manager) Redo(t Tree) bool {
	if len(m.future) == 0 {
		return false
	}
	if m.present != nil {
		m.past = append(m.past, *m.present)
	}
	next := m.future[0]
	m.future = m.future[1:]
	m.present = &next
	m.trim()
	restore(t, next)
	return true
}

// CanUndo reports whether Undo would do anything.
func (m *Manager) CanUndo() bool { return len(m.past) > 0 }

// CanRedo reports whether Redo would do anything.
func (m *Manager) CanRedo() bool { return len(m.future) > 0 }

// Present returns the present snapshot, if the manager was initialized.
func (m *Manager) Present() (Snapshot, bool) {
	if m.present == nil {
		return Snapshot{}, false
	}
	return *m.present, true
}

// Depth returns how many states can be undone and redone.
func (m *Manager) Depth() (undo, redo int) {
	return len(m.past), len(m.future)
}

// State exports the manager's sequences. Snapshots are immutable, so the
// returned state shares them.
func (m *Manager) State() State {
	st := State{
		Past:   append([]Snapshot(nil), m.past...),
		Future: append([]Snapshot(nil), m.future...),
	}
	if m.present != nil {
		p := *m.present
		st.Present = &p
	}
	return st
}

func (m *Manager) trim() {
	if m.limit > 0 && len(m.past) > m.limit {
		excess := len(m.past) - m.limit
		m.past = append([]Snapshot(nil), m.past[excess:]...)
	}
}

// restore clears t and refills it from fresh copies of snap, in recorded
// order. Labels are trusted and not re-checked.
func restore(t Tree, snap Snapshot) {
	t.Replace(snap.Items())
}
