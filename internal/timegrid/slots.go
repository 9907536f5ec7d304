// Package timegrid describes the fixed quarter-hour structure of a day
// and joins persisted time logs onto it.
package timegrid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"daily-timegrid/internal/model"
)

const (
	// SlotMinutes is the length of one slot.
	SlotMinutes = 15
	// SlotsPerDay is 24 hours * 4 slots per hour.
	SlotsPerDay = 24 * 60 / SlotMinutes
)

var (
	ErrMalformedTime = errors.New("malformed slot time")
	ErrOffBoundary   = errors.New("slot time is not on a 15 minute boundary")
)

// SlotTime is a slot start expressed in minutes since midnight.
type SlotTime int

// String renders the time as HH:MM. The end of the last slot renders as 24:00.
func (t SlotTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// End returns the end of the slot that starts at t.
func (t SlotTime) End() SlotTime {
	return t + SlotMinutes
}

// Index returns the position of t within GenerateSlots.
func (t SlotTime) Index() int {
	return int(t) / SlotMinutes
}

// Valid reports whether t is one of the slot starts of a day.
func (t SlotTime) Valid() bool {
	return t >= 0 && int(t) < SlotsPerDay*SlotMinutes && int(t)%SlotMinutes == 0
}

// SlotAt returns the slot start for an index into the day.
func SlotAt(index int) (SlotTime, bool) {
	if index < 0 || index >= SlotsPerDay {
		return 0, false
	}
	return SlotTime(index * SlotMinutes), true
}

// GenerateSlots returns all slot starts of a day in increasing order.
func GenerateSlots() []SlotTime {
	slots := make([]SlotTime, 0, SlotsPerDay)
	for minute := 0; minute < SlotsPerDay*SlotMinutes; minute += SlotMinutes {
		slots = append(slots, SlotTime(minute))
	}
	return slots
}

// ParseSlotTime parses an HH:MM slot start.
func ParseSlotTime(raw string) (SlotTime, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: invalid hour in %q", ErrMalformedTime, raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: invalid minute in %q", ErrMalformedTime, raw)
	}
	if minute%SlotMinutes != 0 {
		return 0, fmt.Errorf("%w: %q", ErrOffBoundary, raw)
	}
	return SlotTime(hour*60 + minute), nil
}

// CurrentSlot returns the slot containing the wall-clock time of now.
func CurrentSlot(now time.Time) SlotTime {
	minutes := now.Hour()*60 + now.Minute()
	return SlotTime(minutes - minutes%SlotMinutes)
}

// FormatDisplay renders a slot start in 12-hour form, e.g. "9:15 AM".
func FormatDisplay(t SlotTime) string {
	hours, minutes := int(t)/60, int(t)%60
	period := "AM"
	if hours >= 12 {
		period = "PM"
	}
	display := hours
	switch {
	case hours == 0:
		display = 12
	case hours > 12:
		display = hours - 12
	}
	return fmt.Sprintf("%d:%02d %s", display, minutes, period)
}

// Slot is one quarter hour of a day joined with its logged category, if any.
type Slot struct {
	Time     SlotTime
	Category *model.Category
}

// Occupied reports whether a category is logged for the slot.
func (s Slot) Occupied() bool {
	return s.Category != nil
}

// ResolveSlots joins logs of date onto the generated slots. Logs for other
// dates, logs with unknown start times and references to missing categories
// leave the slot empty.
func ResolveSlots(date string, logs []model.TimeLog, categories []model.Category) []Slot {
	byID := make(map[uint]*model.Category, len(categories))
	for i := range categories {
		byID[categories[i].ID] = &categories[i]
	}

	byStart := make(map[string]model.TimeLog, len(logs))
	for _, l := range logs {
		if l.Date != date {
			continue
		}
		byStart[l.StartTime] = l
	}

	generated := GenerateSlots()
	slots := make([]Slot, len(generated))
	for i, t := range generated {
		slots[i] = Slot{Time: t}
		l, ok := byStart[t.String()]
		if !ok || l.CategoryID == nil {
			continue
		}
		if cat, ok := byID[*l.CategoryID]; ok {
			slots[i].Category = cat
		}
	}
	return slots
}
