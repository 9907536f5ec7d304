package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-timegrid/internal/model"
	"daily-timegrid/internal/timegrid"
)

const day = "2024-03-05"

func gridWith(occupied ...int) []timegrid.Slot {
	work := &model.Category{ID: 1, Name: "Work", Color: "#3B82F6"}
	slots := timegrid.ResolveSlots(day, nil, nil)
	for _, idx := range occupied {
		slots[idx].Category = work
	}
	return slots
}

func indexes(times []timegrid.SlotTime) []int {
	out := make([]int, 0, len(times))
	for _, t := range times {
		out = append(out, t.Index())
	}
	return out
}

func TestTapEmptySlotOpensChooser(t *testing.T) {
	m := New(day, gridWith())

	out, err := m.Tap(12)
	require.NoError(t, err)
	assert.Equal(t, Idle, out.From)
	assert.Equal(t, PendingCommit, out.To)
	assert.Equal(t, ActionChooseCategory, out.Action)
	assert.Equal(t, []int{12}, indexes(m.Selected()))

	sel, err := m.Commit()
	require.NoError(t, err)
	assert.Equal(t, day, sel.Date)
	assert.Equal(t, "03:00", sel.Times[0].String())
	assert.Equal(t, Idle, m.State())
	assert.Empty(t, m.Selected())
}

func TestTapOccupiedSlotAsksForDelete(t *testing.T) {
	m := New(day, gridWith(20))

	out, err := m.Tap(20)
	require.NoError(t, err)
	assert.Equal(t, ActionConfirmDelete, out.Action)
	assert.Equal(t, 20, out.Index)
	assert.Equal(t, Idle, m.State())
	assert.Empty(t, m.Selected())
}

func TestPressAndReleaseWithoutDwell(t *testing.T) {
	m := New(day, gridWith())

	out, err := m.Press(5)
	require.NoError(t, err)
	assert.Equal(t, SingleArmed, out.To)

	// Moves before the dwell threshold do not start a drag.
	m.Move(9)
	assert.Equal(t, SingleArmed, m.State())

	out = m.Release()
	assert.Equal(t, PendingCommit, out.To)
	assert.Equal(t, []int{5}, indexes(m.Selected()))
}

func TestRangeDragForward(t *testing.T) {
	m := New(day, gridWith())

	_, err := m.Press(10)
	require.NoError(t, err)
	out := m.DwellElapsed()
	assert.Equal(t, RangeDragging, out.To)
	assert.Equal(t, []int{10}, indexes(m.Selected()))

	assert.Equal(t, 10, m.anchor)

	m.Move(14)
	assert.Equal(t, []int{10, 11, 12, 13, 14}, indexes(m.Selected()))

	// Shrinking back toward the anchor recomputes the run.
	m.Move(11)
	assert.Equal(t, []int{10, 11}, indexes(m.Selected()))

	out = m.Release()
	assert.Equal(t, PendingCommit, out.To)
	assert.Equal(t, ActionChooseCategory, out.Action)
}

func TestRangeDragNeverExtendsBeforeAnchor(t *testing.T) {
	m := New(day, gridWith())

	_, err := m.Press(10)
	require.NoError(t, err)
	m.DwellElapsed()
	m.Move(5)

	assert.Equal(t, []int{10}, indexes(m.Selected()))
	assert.NotContains(t, indexes(m.Selected()), 5)
}

func TestRangeDragSkipsOccupiedSlots(t *testing.T) {
	m := New(day, gridWith(12, 13))

	_, err := m.Press(10)
	require.NoError(t, err)
	m.DwellElapsed()
	m.Move(15)

	assert.Equal(t, []int{10, 11, 14, 15}, indexes(m.Selected()))
}

func TestRangeDragClampsToGrid(t *testing.T) {
	m := New(day, gridWith())

	_, err := m.Press(94)
	require.NoError(t, err)
	m.DwellElapsed()
	m.Move(500)

	assert.Equal(t, []int{94, 95}, indexes(m.Selected()))
}

func TestReleaseEmptyDragReturnsIdle(t *testing.T) {
	m := New(day, gridWith())

	_, err := m.Press(3)
	require.NoError(t, err)
	m.DwellElapsed()
	m.selected = nil

	out := m.Release()
	assert.Equal(t, Idle, out.To)
	assert.Equal(t, ActionNone, out.Action)
}

func TestCancelDiscardsSelection(t *testing.T) {
	m := New(day, gridWith())

	_, err := m.Tap(7)
	require.NoError(t, err)
	out := m.Cancel()
	assert.Equal(t, PendingCommit, out.From)
	assert.Equal(t, Idle, out.To)
	assert.Empty(t, m.Selected())

	_, err = m.Commit()
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestReloadDuringDragClearsSelection(t *testing.T) {
	m := New(day, gridWith())

	_, err := m.Press(10)
	require.NoError(t, err)
	m.DwellElapsed()
	m.Move(20)
	require.Len(t, m.Selected(), 11)

	out := m.Reload(day, gridWith(15))
	assert.Equal(t, RangeDragging, out.From)
	assert.Equal(t, Idle, out.To)
	assert.Empty(t, m.Selected())

	// The gesture continuing after the reload does not resurrect the range.
	m.Move(25)
	assert.Equal(t, ActionNone, m.Release().Action)
	assert.Empty(t, m.Selected())
}

func TestReloadDuringPendingCommitClearsSelection(t *testing.T) {
	m := New(day, gridWith())

	_, err := m.Tap(4)
	require.NoError(t, err)
	m.Reload("2024-03-06", gridWith())

	assert.Equal(t, Idle, m.State())
	assert.Equal(t, "2024-03-06", m.Date())
	_, err = m.Commit()
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestPressValidatesIndex(t *testing.T) {
	m := New(day, gridWith())

	_, err := m.Press(-1)
	assert.ErrorIs(t, err, ErrInvalidSlot)
	_, err = m.Tap(timegrid.SlotsPerDay)
	assert.ErrorIs(t, err, ErrInvalidSlot)

	empty := New(day, nil)
	_, err = empty.Press(0)
	assert.ErrorIs(t, err, ErrEmptyGrid)
}

func TestDwellOutsideSingleArmedIsIgnored(t *testing.T) {
	m := New(day, gridWith())

	out := m.DwellElapsed()
	assert.Equal(t, Idle, out.To)
	assert.Equal(t, "idle", m.State().String())
}
