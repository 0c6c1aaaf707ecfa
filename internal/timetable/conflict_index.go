package timetable

import (
	"context"
	"fmt"
)

type studentSet map[string]struct{}

// conflictIndex answers "is this resource busy" against the assignments
// accepted so far in a single run. It is never shared between runs.
type conflictIndex struct {
	assignments []Assignment
	enrollments EnrollmentSource
	students    map[string]studentSet
}

func newConflictIndex(enrollments EnrollmentSource, capacity int) *conflictIndex {
	return &conflictIndex{
		assignments: make([]Assignment, 0, capacity),
		enrollments: enrollments,
		students:    make(map[string]studentSet),
	}
}

func (c *conflictIndex) record(a Assignment) {
	c.assignments = append(c.assignments, a)
}

func (c *conflictIndex) isInstructorBusy(instructorID string, day Day, slot TimeSlot) bool {
	for _, a := range c.assignments {
		if a.InstructorID == instructorID && a.Day == day && slot.Overlaps(a.Slot()) {
			return true
		}
	}
	return false
}

func (c *conflictIndex) isClassroomBusy(classroomID string, day Day, slot TimeSlot) bool {
	for _, a := range c.assignments {
		if a.ClassroomID == classroomID && a.Day == day && slot.Overlaps(a.Slot()) {
			return true
		}
	}
	return false
}

// hasStudentConflict returns true on the first overlapping assignment that
// shares at least one enrolled student with the candidate section.
func (c *conflictIndex) hasStudentConflict(ctx context.Context, section Section, day Day, slot TimeSlot) (bool, error) {
	if c.enrollments == nil {
		return false, nil
	}
	candidate, err := c.studentsOf(ctx, section.ID)
	if err != nil {
		return false, err
	}
	if len(candidate) == 0 {
		return false, nil
	}
	for _, a := range c.assignments {
		if a.Day != day || !slot.Overlaps(a.Slot()) {
			continue
		}
		placed, err := c.studentsOf(ctx, a.SectionID)
		if err != nil {
			return false, err
		}
		if intersects(candidate, placed) {
			return true, nil
		}
	}
	return false, nil
}

// studentsOf memoizes enrollment lookups for the lifetime of the run.
func (c *conflictIndex) studentsOf(ctx context.Context, sectionID string) (studentSet, error) {
	if set, ok := c.students[sectionID]; ok {
		return set, nil
	}
	ids, err := c.enrollments.StudentIDs(ctx, sectionID)
	if err != nil {
		return nil, fmt.Errorf("load enrolled students for section %s: %w", sectionID, err)
	}
	set := make(studentSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	c.students[sectionID] = set
	return set, nil
}

func intersects(a, b studentSet) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for id := range a {
		if _, ok := b[id]; ok {
			return true
		}
	}
	return false
}
