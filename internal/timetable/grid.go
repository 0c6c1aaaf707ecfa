package timetable

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidGrid is returned by NewGrid for catalogs the scheduler cannot use safely.
var ErrInvalidGrid = errors.New("timetable: invalid grid")

// Day is a teaching day ordinal, Monday = 1 through Friday = 5.
type Day int

// Teaching days.
const (
	Monday Day = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
)

var dayNames = map[Day]string{
	Monday:    "MONDAY",
	Tuesday:   "TUESDAY",
	Wednesday: "WEDNESDAY",
	Thursday:  "THURSDAY",
	Friday:    "FRIDAY",
}

// String returns the upper-case day name used in persisted rows and exports.
func (d Day) String() string {
	if name, ok := dayNames[d]; ok {
		return name
	}
	return "UNKNOWN"
}

// TimeSlot is a fixed teaching block expressed as zero-padded 24h "HH:MM" clock values.
type TimeSlot struct {
	Start string `json:"start_time"`
	End   string `json:"end_time"`
}

// Overlaps reports whether two slots share any time.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	return TimesOverlap(s.Start, s.End, other.Start, other.End)
}

// Grid is the immutable catalog of placement candidates. Days and slots are
// iterated in declaration order.
type Grid struct {
	days  []Day
	slots []TimeSlot
}

// DefaultGrid returns the campus week: Monday to Friday, four two-hour blocks
// with the 13:00-14:00 lunch break left empty.
func DefaultGrid() Grid {
	return Grid{
		days: []Day{Monday, Tuesday, Wednesday, Thursday, Friday},
		slots: []TimeSlot{
			{Start: "09:00", End: "11:00"},
			{Start: "11:00", End: "13:00"},
			{Start: "14:00", End: "16:00"},
			{Start: "16:00", End: "18:00"},
		},
	}
}

// NewGrid builds a custom catalog. The inputs are copied. Days must be distinct
// teaching days; slots must parse, end after they start and never overlap each other.
func NewGrid(days []Day, slots []TimeSlot) (Grid, error) {
	if len(days) == 0 || len(slots) == 0 {
		return Grid{}, fmt.Errorf("%w: at least one day and one slot required", ErrInvalidGrid)
	}
	seen := make(map[Day]struct{}, len(days))
	for _, d := range days {
		if _, ok := dayNames[d]; !ok {
			return Grid{}, fmt.Errorf("%w: unknown day %d", ErrInvalidGrid, int(d))
		}
		if _, dup := seen[d]; dup {
			return Grid{}, fmt.Errorf("%w: duplicate day %s", ErrInvalidGrid, d)
		}
		seen[d] = struct{}{}
	}
	for i, slot := range slots {
		start, okStart := clockMinutes(slot.Start)
		end, okEnd := clockMinutes(slot.End)
		if !okStart || !okEnd {
			return Grid{}, fmt.Errorf("%w: slot %q-%q is not HH:MM", ErrInvalidGrid, slot.Start, slot.End)
		}
		if start >= end {
			return Grid{}, fmt.Errorf("%w: slot %s-%s ends before it starts", ErrInvalidGrid, slot.Start, slot.End)
		}
		for _, prev := range slots[:i] {
			if slot.Overlaps(prev) {
				return Grid{}, fmt.Errorf("%w: slot %s-%s overlaps %s-%s", ErrInvalidGrid, slot.Start, slot.End, prev.Start, prev.End)
			}
		}
	}

	g := Grid{days: make([]Day, len(days)), slots: make([]TimeSlot, len(slots))}
	copy(g.days, days)
	copy(g.slots, slots)
	return g, nil
}

// Days returns a copy of the ordered days.
func (g Grid) Days() []Day {
	out := make([]Day, len(g.days))
	copy(out, g.days)
	return out
}

// Slots returns a copy of the ordered time slots.
func (g Grid) Slots() []TimeSlot {
	out := make([]TimeSlot, len(g.slots))
	copy(out, g.slots)
	return out
}

// TimesOverlap applies the half-open interval rule [s1,e1) x [s2,e2):
// the ranges intersect iff s1 < e2 and s2 < e1. Touching endpoints do not overlap.
// Unparseable values never overlap.
func TimesOverlap(start1, end1, start2, end2 string) bool {
	s1, ok1 := clockMinutes(start1)
	e1, ok2 := clockMinutes(end1)
	s2, ok3 := clockMinutes(start2)
	e2, ok4 := clockMinutes(end2)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return false
	}
	return s1 < e2 && s2 < e1
}

func clockMinutes(raw string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 3)
	if len(parts) < 2 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 24 {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 || (hours == 24 && minutes != 0) {
		return 0, false
	}
	return hours*60 + minutes, true
}
