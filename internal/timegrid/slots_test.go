package timegrid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-timegrid/internal/model"
)

func uintPtr(v uint) *uint { return &v }

func TestGenerateSlots(t *testing.T) {
	slots := GenerateSlots()
	require.Len(t, slots, SlotsPerDay)
	assert.Equal(t, "00:00", slots[0].String())
	assert.Equal(t, "23:45", slots[len(slots)-1].String())
	for i := 1; i < len(slots); i++ {
		assert.Equal(t, SlotMinutes, int(slots[i]-slots[i-1]))
		assert.Equal(t, i, slots[i].Index())
	}
	assert.Equal(t, slots, GenerateSlots())
}

func TestSlotTimeEnd(t *testing.T) {
	cases := map[string]string{
		"00:00": "00:15",
		"09:30": "09:45",
		"09:45": "10:00",
		"23:45": "24:00",
	}
	for start, end := range cases {
		st, err := ParseSlotTime(start)
		require.NoError(t, err)
		assert.Equal(t, end, st.End().String(), start)
	}
}

func TestParseSlotTime(t *testing.T) {
	st, err := ParseSlotTime("9:15")
	require.NoError(t, err)
	assert.Equal(t, "09:15", st.String())

	for _, raw := range []string{"", "24:00", "12:60", "ab:cd", "12", "12:5", "-1:00"} {
		_, err := ParseSlotTime(raw)
		assert.ErrorIs(t, err, ErrMalformedTime, raw)
	}

	_, err = ParseSlotTime("10:10")
	assert.ErrorIs(t, err, ErrOffBoundary)
}

func TestSlotAt(t *testing.T) {
	st, ok := SlotAt(37)
	require.True(t, ok)
	assert.Equal(t, "09:15", st.String())

	_, ok = SlotAt(SlotsPerDay)
	assert.False(t, ok)
	_, ok = SlotAt(-1)
	assert.False(t, ok)
}

func TestCurrentSlot(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 52, 10, 0, time.Local)
	assert.Equal(t, "14:45", CurrentSlot(now).String())
}

func TestFormatDisplay(t *testing.T) {
	assert.Equal(t, "12:00 AM", FormatDisplay(0))
	assert.Equal(t, "9:15 AM", FormatDisplay(9*60+15))
	assert.Equal(t, "12:30 PM", FormatDisplay(12*60+30))
	assert.Equal(t, "11:45 PM", FormatDisplay(23*60+45))
}

func TestResolveSlots(t *testing.T) {
	categories := []model.Category{
		{ID: 1, Name: "Work", Color: "#3B82F6"},
		{ID: 2, Name: "Sleep", Color: "#6366F1"},
	}
	logs := []model.TimeLog{
		{Date: "2024-03-05", StartTime: "00:00", EndTime: "00:15", CategoryID: uintPtr(2)},
		{Date: "2024-03-05", StartTime: "09:00", EndTime: "09:15", CategoryID: uintPtr(1)},
		{Date: "2024-03-05", StartTime: "09:15", EndTime: "09:30", CategoryID: uintPtr(99)},
		{Date: "2024-03-05", StartTime: "09:30", EndTime: "09:45"},
		{Date: "2024-03-06", StartTime: "10:00", EndTime: "10:15", CategoryID: uintPtr(1)},
	}

	slots := ResolveSlots("2024-03-05", logs, categories)
	require.Len(t, slots, SlotsPerDay)
	for i, st := range GenerateSlots() {
		assert.Equal(t, st, slots[i].Time)
	}

	assert.Equal(t, "Sleep", slots[0].Category.Name)
	assert.Equal(t, "Work", slots[36].Category.Name)
	assert.False(t, slots[37].Occupied(), "unknown category resolves to empty")
	assert.False(t, slots[38].Occupied(), "null category resolves to empty")
	assert.False(t, slots[40].Occupied(), "other dates are ignored")
}

func TestResolveSlotsEmpty(t *testing.T) {
	slots := ResolveSlots("2024-03-05", nil, nil)
	require.Len(t, slots, SlotsPerDay)
	for _, s := range slots {
		assert.False(t, s.Occupied())
	}
}
