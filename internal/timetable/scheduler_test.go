package timetable

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSchedulerPlacesSingleSectionAtFirstCandidate(t *testing.T) {
	scheduler := NewScheduler(DefaultGrid(), newEnrollmentStub(nil))

	result, err := scheduler.Generate(context.Background(),
		[]Section{{ID: "s1", RequiredCapacity: 30, InstructorID: "I1", CourseCode: "CS101", CourseName: "Intro"}},
		[]Classroom{{ID: "r1", Capacity: 50}},
	)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 0, result.Conflicts)
	assert.Equal(t, 1, result.TotalSections)
	assert.Equal(t, 1, result.ScheduledSections)
	require.Len(t, result.Schedule, 1)
	assert.Equal(t, Assignment{
		SectionID:    "s1",
		Day:          Monday,
		StartTime:    "09:00",
		EndTime:      "11:00",
		ClassroomID:  "r1",
		CourseCode:   "CS101",
		CourseName:   "Intro",
		InstructorID: "I1",
	}, result.Schedule[0])
}

func TestSchedulerPlacesTwoSectionsWithoutCollision(t *testing.T) {
	scheduler := NewScheduler(DefaultGrid(), newEnrollmentStub(nil))

	result, err := scheduler.Generate(context.Background(),
		[]Section{
			{ID: "s1", RequiredCapacity: 20, InstructorID: "I1"},
			{ID: "s2", RequiredCapacity: 25, InstructorID: "I2"},
		},
		[]Classroom{{ID: "r1", Capacity: 40}, {ID: "r2", Capacity: 40}},
	)
	require.NoError(t, err)

	assert.Equal(t, 2, result.ScheduledSections)
	assert.Equal(t, 0, result.Conflicts)
	a, b := result.Schedule[0], result.Schedule[1]
	if a.Day == b.Day && a.Slot().Overlaps(b.Slot()) {
		assert.NotEqual(t, a.ClassroomID, b.ClassroomID)
		assert.NotEqual(t, a.InstructorID, b.InstructorID)
	}
	assertScheduleInvariants(t, result.Schedule)
}

func TestSchedulerReportsUnplaceableSection(t *testing.T) {
	var reported []Unplaced
	scheduler := NewScheduler(DefaultGrid(), newEnrollmentStub(nil), WithDiagnostic(func(ctx context.Context, u Unplaced) {
		reported = append(reported, u)
	}))

	result, err := scheduler.Generate(context.Background(),
		[]Section{{ID: "big", RequiredCapacity: 100, InstructorID: "I1", CourseCode: "HALL"}},
		[]Classroom{{ID: "r1", Capacity: 30}},
	)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 0, result.ScheduledSections)
	assert.Equal(t, 1, result.TotalSections)
	assert.Empty(t, result.Schedule)
	assert.Equal(t, []string{"big"}, result.Unscheduled)
	assert.Equal(t, []Unplaced{{SectionID: "big", CourseCode: "HALL"}}, reported)
}

func TestSchedulerSkipsCandidatesWithStudentOverlap(t *testing.T) {
	enrollments := newEnrollmentStub(map[string][]string{
		"s1": {"st-1", "st-2"},
		"s2": {"st-2", "st-3"},
	})
	scheduler := NewScheduler(DefaultGrid(), enrollments)

	result, err := scheduler.Generate(context.Background(),
		[]Section{
			{ID: "s1", RequiredCapacity: 20, InstructorID: "I1"},
			{ID: "s2", RequiredCapacity: 20, InstructorID: "I2"},
		},
		[]Classroom{{ID: "r1", Capacity: 40}, {ID: "r2", Capacity: 40}},
	)
	require.NoError(t, err)
	require.Len(t, result.Schedule, 2)

	first, second := result.Schedule[0], result.Schedule[1]
	assert.Equal(t, "s1", first.SectionID)
	assert.Equal(t, Monday, first.Day)
	assert.Equal(t, "09:00", first.StartTime)

	// r2 was free at Monday 09:00 but shares st-2 with s1
	assert.Equal(t, "s2", second.SectionID)
	assert.Equal(t, Monday, second.Day)
	assert.Equal(t, "11:00", second.StartTime)
	assert.Equal(t, "r1", second.ClassroomID)
	assert.False(t, second.Relaxed)
}

func TestSchedulerFallsBackToRelaxedCapacity(t *testing.T) {
	scheduler := NewScheduler(DefaultGrid(), newEnrollmentStub(nil))

	result, err := scheduler.Generate(context.Background(),
		[]Section{{ID: "s1", RequiredCapacity: 100, InstructorID: "I1"}},
		[]Classroom{{ID: "r95", Capacity: 95}},
	)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Conflicts)
	assert.Equal(t, 1, result.ScheduledSections)
	require.Len(t, result.Schedule, 1)
	assert.True(t, result.Schedule[0].Relaxed)
	assert.Equal(t, "r95", result.Schedule[0].ClassroomID)
}

func TestSchedulerRelaxedModeIgnoresStudentOverlap(t *testing.T) {
	enrollments := newEnrollmentStub(map[string][]string{
		"s1": {"st-1"},
		"s2": {"st-1"},
	})
	// a single slot leaves s2 nowhere to go in hard mode
	grid := Grid{days: []Day{Monday}, slots: []TimeSlot{{Start: "09:00", End: "11:00"}}}
	scheduler := NewScheduler(grid, enrollments)

	result, err := scheduler.Generate(context.Background(),
		[]Section{
			{ID: "s1", RequiredCapacity: 10, InstructorID: "I1"},
			{ID: "s2", RequiredCapacity: 10, InstructorID: "I2"},
		},
		[]Classroom{{ID: "r1", Capacity: 20}, {ID: "r2", Capacity: 20}},
	)
	require.NoError(t, err)

	require.Len(t, result.Schedule, 2)
	assert.Equal(t, 1, result.Conflicts)
	assert.True(t, result.Schedule[1].Relaxed)
	assert.Equal(t, "r2", result.Schedule[1].ClassroomID)
	assertScheduleInvariants(t, result.Schedule)
}

func TestSchedulerPropagatesEnrollmentFailure(t *testing.T) {
	boom := errors.New("enrollment service unavailable")
	enrollments := newEnrollmentStub(nil)
	enrollments.errs["s1"] = boom
	scheduler := NewScheduler(DefaultGrid(), enrollments)

	_, err := scheduler.Generate(context.Background(),
		[]Section{{ID: "s1", RequiredCapacity: 10, InstructorID: "I1"}},
		[]Classroom{{ID: "r1", Capacity: 20}},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestSchedulerEmptyInputs(t *testing.T) {
	scheduler := NewScheduler(DefaultGrid(), nil)

	result, err := scheduler.Generate(context.Background(), nil, []Classroom{{ID: "r1", Capacity: 10}})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotNil(t, result.Schedule)
	assert.Empty(t, result.Schedule)

	result, err = scheduler.Generate(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)

	_, err = scheduler.Generate(context.Background(), []Section{{ID: "s1", RequiredCapacity: 1}}, nil)
	assert.ErrorIs(t, err, ErrNoClassrooms)
}

func TestSchedulerIsDeterministic(t *testing.T) {
	sections, rooms, students := generatedWorkload()
	scheduler := NewScheduler(DefaultGrid(), newEnrollmentStub(students), WithLogger(zap.NewNop()))

	first, err := scheduler.Generate(context.Background(), sections, rooms)
	require.NoError(t, err)
	second, err := scheduler.Generate(context.Background(), sections, rooms)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSchedulerInvariantsUnderLoad(t *testing.T) {
	sections, rooms, students := generatedWorkload()
	scheduler := NewScheduler(DefaultGrid(), newEnrollmentStub(students))

	result, err := scheduler.Generate(context.Background(), sections, rooms)
	require.NoError(t, err)

	assert.Equal(t, len(sections), result.TotalSections)
	assert.Equal(t, len(result.Schedule), result.ScheduledSections)
	assert.Equal(t, result.TotalSections, result.ScheduledSections+len(result.Unscheduled))
	assertScheduleInvariants(t, result.Schedule)

	required := make(map[string]int, len(sections))
	for _, s := range sections {
		required[s.ID] = s.RequiredCapacity
	}
	capacity := make(map[string]int, len(rooms))
	for _, r := range rooms {
		capacity[r.ID] = r.Capacity
	}
	relaxed := 0
	for _, a := range result.Schedule {
		if a.Relaxed {
			relaxed++
			assert.GreaterOrEqual(t, float64(capacity[a.ClassroomID]), float64(required[a.SectionID])*0.9)
			continue
		}
		assert.GreaterOrEqual(t, capacity[a.ClassroomID], required[a.SectionID])
	}
	assert.Equal(t, relaxed, result.Conflicts)

	// hard placements never share students with an overlapping assignment
	for i, a := range result.Schedule {
		if a.Relaxed {
			continue
		}
		for j, b := range result.Schedule {
			if i == j || a.Day != b.Day || !a.Slot().Overlaps(b.Slot()) || j > i {
				continue
			}
			assert.False(t, sharesStudent(students[a.SectionID], students[b.SectionID]),
				"%s and %s share students at %s %s", a.SectionID, b.SectionID, a.Day, a.StartTime)
		}
	}
}

func TestSchedulerRunsDoNotShareState(t *testing.T) {
	scheduler := NewScheduler(DefaultGrid(), nil)
	rooms := []Classroom{{ID: "r1", Capacity: 10}}
	sections := []Section{{ID: "s1", RequiredCapacity: 5, InstructorID: "I1"}}

	first, err := scheduler.Generate(context.Background(), sections, rooms)
	require.NoError(t, err)
	second, err := scheduler.Generate(context.Background(), sections, rooms)
	require.NoError(t, err)

	assert.Equal(t, "09:00", first.Schedule[0].StartTime)
	assert.Equal(t, "09:00", second.Schedule[0].StartTime, "previous run must not occupy the slot")
}

func assertScheduleInvariants(t *testing.T, schedule []Assignment) {
	t.Helper()
	for i := 0; i < len(schedule); i++ {
		for j := i + 1; j < len(schedule); j++ {
			a, b := schedule[i], schedule[j]
			if a.Day != b.Day || !a.Slot().Overlaps(b.Slot()) {
				continue
			}
			assert.NotEqual(t, a.InstructorID, b.InstructorID, "instructor double booked: %s and %s", a.SectionID, b.SectionID)
			assert.NotEqual(t, a.ClassroomID, b.ClassroomID, "classroom double booked: %s and %s", a.SectionID, b.SectionID)
		}
	}
}

func sharesStudent(a, b []string) bool {
	seen := make(map[string]struct{}, len(a))
	for _, id := range a {
		seen[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := seen[id]; ok {
			return true
		}
	}
	return false
}

// generatedWorkload builds a fixed, contended term: more sections than the
// large rooms can absorb, shared instructors and overlapping cohorts.
func generatedWorkload() ([]Section, []Classroom, map[string][]string) {
	rooms := []Classroom{
		{ID: "hall", Capacity: 150},
		{ID: "lab-a", Capacity: 45},
		{ID: "lab-b", Capacity: 40},
		{ID: "room-1", Capacity: 30},
		{ID: "room-2", Capacity: 30},
	}
	var sections []Section
	students := make(map[string][]string)
	capacities := []int{140, 44, 30, 25, 160, 38, 50, 20, 135, 29}
	for i := 0; i < 30; i++ {
		id := fmt.Sprintf("sec-%02d", i)
		sections = append(sections, Section{
			ID:               id,
			RequiredCapacity: capacities[i%len(capacities)],
			InstructorID:     fmt.Sprintf("inst-%d", i%6),
			CourseCode:       fmt.Sprintf("C%03d", i),
		})
		cohort := i % 4
		students[id] = []string{fmt.Sprintf("cohort-%d-a", cohort), fmt.Sprintf("solo-%d", i)}
	}
	return sections, rooms, students
}
