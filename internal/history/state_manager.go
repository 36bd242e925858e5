// Package history keeps bounded undo/redo stacks of layer snapshots.
package history

import "drawr/internal/domain"

// DefaultCapacity is the maximum undo depth.
const DefaultCapacity = 100

// StateManager tracks the current snapshot plus undo and redo stacks.
// Snapshots are deep copied in and out, so callers never share slices with it.
type StateManager struct {
	capacity int
	current  domain.Snapshot
	undo     []domain.Snapshot
	redo     []domain.Snapshot
}

// New returns a manager whose current snapshot is empty. A capacity below one
// means DefaultCapacity.
func New(capacity int) *StateManager {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &StateManager{capacity: capacity, current: domain.Snapshot{}}
}

// Save records s as current. The previous current snapshot goes onto the undo
// stack, evicting the oldest entry when full, and the redo stack is dropped.
func (m *StateManager) Save(s domain.Snapshot) {
	if len(m.undo) >= m.capacity {
		m.undo = append(m.undo[:0], m.undo[1:]...)
	}
	m.undo = append(m.undo, m.current)
	m.current = s.Clone()
	m.redo = nil
}

// Undo steps back one snapshot and returns it. ok is false when there is
// nothing to undo.
func (m *StateManager) Undo() (domain.Snapshot, bool) {
	if len(m.undo) == 0 {
		return nil, false
	}
	prev := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, m.current)
	m.current = prev
	return prev.Clone(), true
}

// Redo re-applies the last undone snapshot and returns it. ok is false when
// there is nothing to redo.
func (m *StateManager) Redo() (domain.Snapshot, bool) {
	if len(m.redo) == 0 {
		return nil, false
	}
	next := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, m.current)
	m.current = next
	return next.Clone(), true
}

func (m *StateManager) CanUndo() bool { return len(m.undo) > 0 }
func (m *StateManager) CanRedo() bool { return len(m.redo) > 0 }

// Current returns a copy of the current snapshot.
func (m *StateManager) Current() domain.Snapshot { return m.current.Clone() }

// Len returns the undo depth.
func (m *StateManager) Len() int { return len(m.undo) }

// Reset drops both stacks and makes s current without recording history.
func (m *StateManager) Reset(s domain.Snapshot) {
	m.current = s.Clone()
	m.undo = nil
	m.redo = nil
}
