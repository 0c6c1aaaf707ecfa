package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimesOverlap(t *testing.T) {
	cases := []struct {
		name         string
		start1, end1 string
		start2, end2 string
		expected     bool
	}{
		{name: "touching endpoints", start1: "09:00", end1: "11:00", start2: "11:00", end2: "13:00", expected: false},
		{name: "partial overlap", start1: "09:00", end1: "11:00", start2: "10:00", end2: "12:00", expected: true},
		{name: "contained", start1: "09:00", end1: "13:00", start2: "10:00", end2: "11:00", expected: true},
		{name: "identical", start1: "14:00", end1: "16:00", start2: "14:00", end2: "16:00", expected: true},
		{name: "disjoint", start1: "09:00", end1: "11:00", start2: "14:00", end2: "16:00", expected: false},
		{name: "database time format", start1: "09:00:00", end1: "11:00:00", start2: "10:30", end2: "11:30", expected: true},
		{name: "unparseable", start1: "nine", end1: "11:00", start2: "10:00", end2: "12:00", expected: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, TimesOverlap(tc.start1, tc.end1, tc.start2, tc.end2))
			assert.Equal(t, tc.expected, TimesOverlap(tc.start2, tc.end2, tc.start1, tc.end1))
		})
	}
}

func TestDefaultGridCatalog(t *testing.T) {
	grid := DefaultGrid()

	assert.Equal(t, []Day{Monday, Tuesday, Wednesday, Thursday, Friday}, grid.Days())
	slots := grid.Slots()
	require.Len(t, slots, 4)
	assert.Equal(t, TimeSlot{Start: "09:00", End: "11:00"}, slots[0])
	assert.Equal(t, TimeSlot{Start: "16:00", End: "18:00"}, slots[3])

	for i := range slots {
		for j := range slots {
			if i != j {
				assert.False(t, slots[i].Overlaps(slots[j]), "slots %d and %d overlap", i, j)
			}
		}
	}
	// lunch break between the second and third block
	assert.Equal(t, "13:00", slots[1].End)
	assert.Equal(t, "14:00", slots[2].Start)
}

func TestGridAccessorsReturnCopies(t *testing.T) {
	grid := DefaultGrid()
	days := grid.Days()
	days[0] = Friday
	slots := grid.Slots()
	slots[0].Start = "08:00"

	assert.Equal(t, Monday, grid.Days()[0])
	assert.Equal(t, "09:00", grid.Slots()[0].Start)
}

func TestNewGridCopiesInputs(t *testing.T) {
	days := []Day{Wednesday}
	slots := []TimeSlot{{Start: "08:00", End: "09:30"}}

	grid, err := NewGrid(days, slots)
	require.NoError(t, err)
	days[0] = Monday
	slots[0].Start = "07:00"

	assert.Equal(t, []Day{Wednesday}, grid.Days())
	assert.Equal(t, "08:00", grid.Slots()[0].Start)
}

func TestNewGridRejectsUnsafeCatalogs(t *testing.T) {
	weekdays := []Day{Monday, Tuesday}
	cases := []struct {
		name  string
		days  []Day
		slots []TimeSlot
	}{
		{name: "no days", days: nil, slots: []TimeSlot{{Start: "09:00", End: "11:00"}}},
		{name: "no slots", days: weekdays, slots: nil},
		{name: "unknown day", days: []Day{Day(6)}, slots: []TimeSlot{{Start: "09:00", End: "11:00"}}},
		{name: "duplicate day", days: []Day{Monday, Monday}, slots: []TimeSlot{{Start: "09:00", End: "11:00"}}},
		{name: "malformed clock", days: weekdays, slots: []TimeSlot{{Start: "9h", End: "11:00"}}},
		{name: "past midnight", days: weekdays, slots: []TimeSlot{{Start: "23:00", End: "24:30"}}},
		{name: "empty slot", days: weekdays, slots: []TimeSlot{{Start: "11:00", End: "11:00"}}},
		{name: "reversed slot", days: weekdays, slots: []TimeSlot{{Start: "13:00", End: "11:00"}}},
		{name: "overlapping slots", days: weekdays, slots: []TimeSlot{{Start: "09:00", End: "11:00"}, {Start: "10:30", End: "12:00"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewGrid(tc.days, tc.slots)
			assert.ErrorIs(t, err, ErrInvalidGrid)
		})
	}
}

func TestNewGridAcceptsTouchingSlots(t *testing.T) {
	grid, err := NewGrid([]Day{Monday}, []TimeSlot{{Start: "08:00", End: "10:00"}, {Start: "10:00", End: "24:00"}})
	require.NoError(t, err)
	assert.Len(t, grid.Slots(), 2)
}

func TestDayString(t *testing.T) {
	assert.Equal(t, "MONDAY", Monday.String())
	assert.Equal(t, "FRIDAY", Friday.String())
	assert.Equal(t, "UNKNOWN", Day(7).String())
}
