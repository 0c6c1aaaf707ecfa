package timetable

import (
	"context"
	"fmt"
)

// ScheduleWriter is the persistence boundary for accepted assignments.
type ScheduleWriter interface {
	ClearAssignments(ctx context.Context, sectionIDs []string) error
	SaveAssignments(ctx context.Context, assignments []Assignment) error
}

// Persist replaces any stored rows for sectionIDs with assignments, so a rerun
// never accumulates duplicates. Callers wanting atomicity bind w to a transaction.
func Persist(ctx context.Context, w ScheduleWriter, sectionIDs []string, assignments []Assignment) error {
	if err := w.ClearAssignments(ctx, sectionIDs); err != nil {
		return fmt.Errorf("clear previous assignments: %w", err)
	}
	if len(assignments) == 0 {
		return nil
	}
	if err := w.SaveAssignments(ctx, assignments); err != nil {
		return fmt.Errorf("save assignments: %w", err)
	}
	return nil
}
