package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"daily-timegrid/internal/model"
	"daily-timegrid/internal/selection"
	"daily-timegrid/internal/timegrid"
)

// DayStore is the storage surface a grid session needs.
type DayStore interface {
	LoadDay(ctx context.Context, date string) ([]timegrid.Slot, []model.Category, error)
	AssignSlots(ctx context.Context, date string, times []timegrid.SlotTime, categoryID uint) error
	ClearSlot(ctx context.Context, date string, start timegrid.SlotTime) error
}

// GridView is a snapshot of a session for rendering.
type GridView struct {
	Date       string
	Slots      []timegrid.Slot
	Categories []model.Category
	State      selection.State
	Selected   map[int]bool
	Current    timegrid.SlotTime
	IsToday    bool
	Loaded     bool
}

// GridSession owns one day on screen: the loaded slots, the selection
// machine and its dwell timer. Events are serialised by the session.
type GridSession struct {
	store      DayStore
	dwellAfter time.Duration
	now        func() time.Time

	mu         sync.Mutex
	date       string
	slots      []timegrid.Slot
	categories []model.Category
	machine    *selection.Machine
	dwell      selection.Dwell
	loadGen    uint64
	pressGen   uint64
	loaded     bool
	current    timegrid.SlotTime
	onChange   func()
}

func NewGridSession(store DayStore, date string, dwellAfter time.Duration, now func() time.Time) *GridSession {
	if now == nil {
		now = time.Now
	}
	return &GridSession{
		store:      store,
		dwellAfter: dwellAfter,
		now:        now,
		date:       date,
		machine:    selection.New(date, nil),
		current:    timegrid.CurrentSlot(now()),
	}
}

// OnChange registers a callback run when the session changes outside of a
// direct call, such as the dwell timer turning a press into a drag.
func (s *GridSession) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// SetDate switches the session to another day. The caller loads it afterwards.
func (s *GridSession) SetDate(date string) error {
	if err := checkDate(date); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dwell.Cancel()
	s.loadGen++
	s.date = date
	s.slots = nil
	s.loaded = false
	s.machine.Reload(date, nil)
	return nil
}

// Load reads the current day. When a newer load started meanwhile the result
// is discarded and applied is false. Any in-flight selection is dropped as
// soon as the load starts, so nothing selected against the old snapshot can
// be committed, even if the load fails.
func (s *GridSession) Load(ctx context.Context) (applied bool, err error) {
	s.mu.Lock()
	s.loadGen++
	gen, date := s.loadGen, s.date
	s.dwell.Cancel()
	s.pressGen++
	s.machine.Reload(date, s.slots)
	s.mu.Unlock()

	slots, categories, err := s.store.LoadDay(ctx, date)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.loadGen || date != s.date {
		log.Printf("[info] discard stale load of %s", date)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.dwell.Cancel()
	s.slots = slots
	s.categories = categories
	s.loaded = true
	s.machine.Reload(date, slots)
	return true, nil
}

// Press starts a press on a slot and arms the dwell timer for empty slots.
func (s *GridSession) Press(index int) (selection.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dwell.Cancel()
	out, err := s.machine.Press(index)
	if err != nil {
		return out, err
	}
	if out.To == selection.SingleArmed {
		s.pressGen++
		gen := s.pressGen
		s.dwell.Arm(s.dwellAfter, func() { s.dwellElapsed(gen) })
	}
	return out, nil
}

func (s *GridSession) dwellElapsed(gen uint64) {
	s.mu.Lock()
	if gen != s.pressGen {
		s.mu.Unlock()
		return
	}
	out := s.machine.DwellElapsed()
	notify := s.onChange
	s.mu.Unlock()

	if out.From != out.To && notify != nil {
		notify()
	}
}

// Hold presses a slot and starts a range drag at once, for front ends that
// signal a long press explicitly.
func (s *GridSession) Hold(index int) (selection.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dwell.Cancel()
	s.pressGen++
	out, err := s.machine.Press(index)
	if err != nil || out.To != selection.SingleArmed {
		return out, err
	}
	drag := s.machine.DwellElapsed()
	drag.From = out.From
	return drag, nil
}

func (s *GridSession) Move(index int) selection.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Move(index)
}

func (s *GridSession) Release() selection.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dwell.Cancel()
	s.pressGen++
	return s.machine.Release()
}

func (s *GridSession) Tap(index int) (selection.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dwell.Cancel()
	s.pressGen++
	return s.machine.Tap(index)
}

func (s *GridSession) Cancel() selection.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dwell.Cancel()
	s.pressGen++
	return s.machine.Cancel()
}

// Choose assigns the pending selection to a category and reloads the day.
// The selection is consumed even when the write fails.
func (s *GridSession) Choose(ctx context.Context, categoryID uint) error {
	s.mu.Lock()
	sel, err := s.machine.Commit()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := s.store.AssignSlots(ctx, sel.Date, sel.Times, categoryID); err != nil {
		return err
	}
	log.Printf("[info] assigned %d slots of %s to category %d", len(sel.Times), sel.Date, categoryID)

	_, err = s.Load(ctx)
	return err
}

// ConfirmDelete clears an occupied slot and reloads the day.
func (s *GridSession) ConfirmDelete(ctx context.Context, index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.slots) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", selection.ErrInvalidSlot, index)
	}
	date, start := s.date, s.slots[index].Time
	s.mu.Unlock()

	if err := s.store.ClearSlot(ctx, date, start); err != nil {
		return err
	}
	_, err := s.Load(ctx)
	return err
}

// RefreshClock moves the current-time marker and reports whether it changed.
func (s *GridSession) RefreshClock() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := timegrid.CurrentSlot(s.now())
	if current == s.current {
		return false
	}
	s.current = current
	return true
}

// Close cancels pending timers. The session must not be used afterwards.
func (s *GridSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dwell.Cancel()
	s.pressGen++
	s.onChange = nil
	s.machine.Cancel()
}

// View returns a snapshot of the session.
func (s *GridSession) View() GridView {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots := make([]timegrid.Slot, len(s.slots))
	copy(slots, s.slots)
	selected := make(map[int]bool)
	for _, t := range s.machine.Selected() {
		selected[t.Index()] = true
	}
	return GridView{
		Date:       s.date,
		Slots:      slots,
		Categories: append([]model.Category(nil), s.categories...),
		State:      s.machine.State(),
		Selected:   selected,
		Current:    s.current,
		IsToday:    s.date == timegrid.FormatDate(s.now()),
		Loaded:     s.loaded,
	}
}
