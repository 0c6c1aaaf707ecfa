package timetable

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type enrollmentStub struct {
	students map[string][]string
	errs     map[string]error
	calls    map[string]int
}

func newEnrollmentStub(students map[string][]string) *enrollmentStub {
	return &enrollmentStub{students: students, errs: map[string]error{}, calls: map[string]int{}}
}

func (s *enrollmentStub) StudentIDs(ctx context.Context, sectionID string) ([]string, error) {
	s.calls[sectionID]++
	if err := s.errs[sectionID]; err != nil {
		return nil, err
	}
	return s.students[sectionID], nil
}

func TestConflictIndexInstructorAndClassroomBusy(t *testing.T) {
	index := newConflictIndex(nil, 1)
	index.record(Assignment{SectionID: "s1", Day: Monday, StartTime: "09:00", EndTime: "11:00", ClassroomID: "r1", InstructorID: "i1"})

	morning := TimeSlot{Start: "09:00", End: "11:00"}
	next := TimeSlot{Start: "11:00", End: "13:00"}

	assert.True(t, index.isInstructorBusy("i1", Monday, morning))
	assert.False(t, index.isInstructorBusy("i1", Monday, next), "touching slots must not conflict")
	assert.False(t, index.isInstructorBusy("i1", Tuesday, morning))
	assert.False(t, index.isInstructorBusy("i2", Monday, morning))

	assert.True(t, index.isClassroomBusy("r1", Monday, morning))
	assert.False(t, index.isClassroomBusy("r1", Monday, next))
	assert.False(t, index.isClassroomBusy("r2", Monday, morning))
}

func TestConflictIndexStudentConflict(t *testing.T) {
	enrollments := newEnrollmentStub(map[string][]string{
		"s1": {"st-1", "st-2"},
		"s2": {"st-2"},
		"s3": {"st-9"},
	})
	index := newConflictIndex(enrollments, 2)
	index.record(Assignment{SectionID: "s1", Day: Monday, StartTime: "09:00", EndTime: "11:00"})
	ctx := context.Background()
	morning := TimeSlot{Start: "09:00", End: "11:00"}

	conflict, err := index.hasStudentConflict(ctx, Section{ID: "s2"}, Monday, morning)
	require.NoError(t, err)
	assert.True(t, conflict)

	conflict, err = index.hasStudentConflict(ctx, Section{ID: "s2"}, Monday, TimeSlot{Start: "11:00", End: "13:00"})
	require.NoError(t, err)
	assert.False(t, conflict)

	conflict, err = index.hasStudentConflict(ctx, Section{ID: "s3"}, Monday, morning)
	require.NoError(t, err)
	assert.False(t, conflict)

	assert.Equal(t, 1, enrollments.calls["s1"], "placed section students are memoized within a run")
}

func TestConflictIndexStudentConflictSkipsEmptySections(t *testing.T) {
	enrollments := newEnrollmentStub(map[string][]string{"s1": {"st-1"}})
	index := newConflictIndex(enrollments, 1)
	index.record(Assignment{SectionID: "s1", Day: Monday, StartTime: "09:00", EndTime: "11:00"})

	conflict, err := index.hasStudentConflict(context.Background(), Section{ID: "empty"}, Monday, TimeSlot{Start: "09:00", End: "11:00"})
	require.NoError(t, err)
	assert.False(t, conflict)
	assert.Zero(t, enrollments.calls["s1"], "no placed-section lookups when the candidate has no students")
}

func TestConflictIndexStudentConflictPropagatesErrors(t *testing.T) {
	boom := errors.New("enrollment store down")
	enrollments := newEnrollmentStub(map[string][]string{"s2": {"st-1"}})
	enrollments.errs["s1"] = boom
	index := newConflictIndex(enrollments, 1)
	index.record(Assignment{SectionID: "s1", Day: Monday, StartTime: "09:00", EndTime: "11:00"})

	_, err := index.hasStudentConflict(context.Background(), Section{ID: "s2"}, Monday, TimeSlot{Start: "10:00", End: "12:00"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestCanPlaceHardChecksCapacity(t *testing.T) {
	index := newConflictIndex(nil, 0)
	section := Section{ID: "s1", RequiredCapacity: 40, InstructorID: "i1"}
	slot := TimeSlot{Start: "09:00", End: "11:00"}

	ok, err := canPlace(context.Background(), index, hardMode, section, Classroom{ID: "small", Capacity: 39}, Monday, slot)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = canPlace(context.Background(), index, hardMode, section, Classroom{ID: "exact", Capacity: 40}, Monday, slot)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = canPlace(context.Background(), index, relaxedMode, section, Classroom{ID: "small", Capacity: 39}, Monday, slot)
	require.NoError(t, err)
	assert.True(t, ok, "relaxed mode leaves capacity to candidate selection")
}

func TestRelaxedFitUsesNinetyPercent(t *testing.T) {
	section := Section{RequiredCapacity: 100}
	assert.True(t, fitsRelaxed(Classroom{Capacity: 90}, section))
	assert.False(t, fitsRelaxed(Classroom{Capacity: 89}, section))
	assert.False(t, fitsHard(Classroom{Capacity: 99}, section))
}
