// Package selection turns pointer interactions on a day grid into a set of
// slots awaiting a single category assignment.
package selection

import (
	"errors"
	"fmt"

	"daily-timegrid/internal/timegrid"
)

// State of the selection machine.
type State int

const (
	Idle State = iota
	SingleArmed
	RangeDragging
	PendingCommit
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SingleArmed:
		return "single-armed"
	case RangeDragging:
		return "range-dragging"
	case PendingCommit:
		return "pending-commit"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrInvalidSlot = errors.New("slot index out of range")
	ErrNotPending  = errors.New("no selection awaiting a category")
	ErrEmptyGrid   = errors.New("grid is not loaded")
)

// Action tells the caller what an event asks of it beyond the state change.
type Action int

const (
	ActionNone Action = iota
	// ActionChooseCategory: the selection is frozen, show the category chooser.
	ActionChooseCategory
	// ActionConfirmDelete: an occupied slot was touched, ask before clearing it.
	ActionConfirmDelete
)

// Outcome is the result of feeding one event to the machine.
type Outcome struct {
	From   State
	To     State
	Action Action
	// Index is the touched slot for ActionConfirmDelete.
	Index int
}

// Selection is a frozen set of slot starts of one date.
type Selection struct {
	Date  string
	Times []timegrid.SlotTime
}

// Machine is the selection state machine over one loaded day. It is not
// safe for concurrent use; callers serialise events.
type Machine struct {
	date     string
	slots    []timegrid.Slot
	state    State
	press    int
	anchor   int
	selected []int
}

// New returns an idle machine over the given day snapshot.
func New(date string, slots []timegrid.Slot) *Machine {
	m := &Machine{}
	m.Reload(date, slots)
	return m
}

func (m *Machine) State() State { return m.state }

func (m *Machine) Date() string { return m.date }

// Selected returns the slot starts currently selected, in grid order.
func (m *Machine) Selected() []timegrid.SlotTime {
	out := make([]timegrid.SlotTime, 0, len(m.selected))
	for _, idx := range m.selected {
		out = append(out, m.slots[idx].Time)
	}
	return out
}

// Press starts an interaction on a slot. An empty slot arms a single
// selection; an occupied slot asks for delete confirmation and leaves the
// machine idle.
func (m *Machine) Press(index int) (Outcome, error) {
	if err := m.check(index); err != nil {
		return Outcome{}, err
	}
	from := m.state
	if m.slots[index].Occupied() {
		m.reset()
		return Outcome{From: from, To: m.state, Action: ActionConfirmDelete, Index: index}, nil
	}
	m.reset()
	m.state = SingleArmed
	m.press = index
	return Outcome{From: from, To: m.state}, nil
}

// DwellElapsed turns a sustained press into a range drag anchored at the
// pressed slot.
func (m *Machine) DwellElapsed() Outcome {
	from := m.state
	if m.state != SingleArmed {
		return Outcome{From: from, To: from}
	}
	m.state = RangeDragging
	m.anchor = m.press
	m.selected = []int{m.anchor}
	return Outcome{From: from, To: m.state}
}

// Move recomputes a range drag as the empty slots from the anchor to index.
// The range only extends forward; an index before the anchor collapses the
// selection to the anchor alone.
func (m *Machine) Move(index int) Outcome {
	from := m.state
	if m.state != RangeDragging {
		return Outcome{From: from, To: from}
	}
	index = clamp(index, 0, len(m.slots)-1)
	if index < m.anchor {
		index = m.anchor
	}
	selected := make([]int, 0, index-m.anchor+1)
	for i := m.anchor; i <= index; i++ {
		if !m.slots[i].Occupied() {
			selected = append(selected, i)
		}
	}
	m.selected = selected
	return Outcome{From: from, To: m.state}
}

// Release ends the pointer interaction.
func (m *Machine) Release() Outcome {
	from := m.state
	switch m.state {
	case SingleArmed:
		m.state = PendingCommit
		m.selected = []int{m.press}
		return Outcome{From: from, To: m.state, Action: ActionChooseCategory}
	case RangeDragging:
		if len(m.selected) == 0 {
			m.reset()
			return Outcome{From: from, To: m.state}
		}
		m.state = PendingCommit
		return Outcome{From: from, To: m.state, Action: ActionChooseCategory}
	default:
		return Outcome{From: from, To: from}
	}
}

// Tap is a quick press and release without dwell.
func (m *Machine) Tap(index int) (Outcome, error) {
	from := m.state
	out, err := m.Press(index)
	if err != nil || out.Action == ActionConfirmDelete {
		return out, err
	}
	out = m.Release()
	out.From = from
	return out, nil
}

// Commit consumes the pending selection. The machine is idle afterwards
// whatever the caller does with the result.
func (m *Machine) Commit() (Selection, error) {
	if m.state != PendingCommit {
		return Selection{}, ErrNotPending
	}
	sel := Selection{Date: m.date, Times: m.Selected()}
	m.reset()
	return sel, nil
}

// Cancel discards any selection.
func (m *Machine) Cancel() Outcome {
	from := m.state
	m.reset()
	return Outcome{From: from, To: m.state}
}

// Reload replaces the day snapshot. Any in-flight selection refers to the
// old snapshot and is dropped.
func (m *Machine) Reload(date string, slots []timegrid.Slot) Outcome {
	from := m.state
	m.date = date
	m.slots = slots
	m.reset()
	return Outcome{From: from, To: m.state}
}

func (m *Machine) reset() {
	m.state = Idle
	m.press = 0
	m.anchor = 0
	m.selected = nil
}

func (m *Machine) check(index int) error {
	if len(m.slots) == 0 {
		return ErrEmptyGrid
	}
	if index < 0 || index >= len(m.slots) {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, index)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
