package timetable

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrNoClassrooms is returned when sections need placing but no rooms were supplied.
var ErrNoClassrooms = errors.New("timetable: no classrooms available for placement")

// Scheduler assigns sections to (day, slot, classroom) triples with a greedy
// first-fit search and a single relaxed fallback per section. Earlier
// placements are never revisited, so a feasible timetable can still leave
// sections unscheduled.
//
// A Scheduler only carries configuration; every Generate call works on its
// own run state and calls may run concurrently.
type Scheduler struct {
	grid        Grid
	enrollments EnrollmentSource
	diagnostic  DiagnosticFunc
	logger      *zap.Logger
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithDiagnostic replaces the default unplaced-section sink, which logs a warning.
func WithDiagnostic(fn DiagnosticFunc) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.diagnostic = fn
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScheduler wires a scheduler over grid. enrollments may be nil, in which
// case no student overlap checks are made.
func NewScheduler(grid Grid, enrollments EnrollmentSource, opts ...Option) *Scheduler {
	s := &Scheduler{
		grid:        grid,
		enrollments: enrollments,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.diagnostic == nil {
		s.diagnostic = s.logUnplaced
	}
	return s
}

// schedulingRun is the per-call arena: conflict bookkeeping and counters.
type schedulingRun struct {
	index       *conflictIndex
	classrooms  []Classroom
	conflicts   int
	unscheduled []string
}

// Generate places sections into classrooms. Sections that cannot be placed
// are reported to the diagnostic sink and left out of the schedule; only
// enrollment lookup failures and a missing room list abort the run.
func (s *Scheduler) Generate(ctx context.Context, sections []Section, classrooms []Classroom) (Result, error) {
	if len(sections) == 0 {
		return Result{Success: true, Schedule: []Assignment{}}, nil
	}
	if len(classrooms) == 0 {
		return Result{}, ErrNoClassrooms
	}

	run := &schedulingRun{
		index:      newConflictIndex(s.enrollments, len(sections)),
		classrooms: classrooms,
	}

	for _, section := range OrderSections(sections, classrooms) {
		assignment, placed, err := s.place(ctx, run, section, hardMode)
		if err != nil {
			return Result{}, err
		}
		if !placed {
			assignment, placed, err = s.place(ctx, run, section, relaxedMode)
			if err != nil {
				return Result{}, err
			}
			if placed {
				run.conflicts++
			}
		}
		if !placed {
			run.unscheduled = append(run.unscheduled, section.ID)
			s.diagnostic(ctx, Unplaced{SectionID: section.ID, CourseCode: section.CourseCode})
			continue
		}
		run.index.record(assignment)
	}

	schedule := run.index.assignments
	s.logger.Debug("timetable generated",
		zap.Int("total_sections", len(sections)),
		zap.Int("scheduled_sections", len(schedule)),
		zap.Int("relaxed", run.conflicts),
	)
	return Result{
		Success:           true,
		Schedule:          schedule,
		Conflicts:         run.conflicts,
		TotalSections:     len(sections),
		ScheduledSections: len(schedule),
		Unscheduled:       run.unscheduled,
	}, nil
}

// place walks day, then slot, then room and returns the first triple that
// satisfies mode.
func (s *Scheduler) place(ctx context.Context, run *schedulingRun, section Section, mode checkMode) (Assignment, bool, error) {
	fits := fitsHard
	if mode == relaxedMode {
		fits = fitsRelaxed
	}
	rooms := candidateRooms(run.classrooms, section, fits)
	if len(rooms) == 0 {
		return Assignment{}, false, nil
	}
	for _, day := range s.grid.days {
		for _, slot := range s.grid.slots {
			for _, room := range rooms {
				ok, err := canPlace(ctx, run.index, mode, section, room, day, slot)
				if err != nil {
					return Assignment{}, false, err
				}
				if !ok {
					continue
				}
				return Assignment{
					SectionID:    section.ID,
					Day:          day,
					StartTime:    slot.Start,
					EndTime:      slot.End,
					ClassroomID:  room.ID,
					CourseCode:   section.CourseCode,
					CourseName:   section.CourseName,
					InstructorID: section.InstructorID,
					Relaxed:      mode == relaxedMode,
				}, true, nil
			}
		}
	}
	return Assignment{}, false, nil
}

func (s *Scheduler) logUnplaced(_ context.Context, unplaced Unplaced) {
	s.logger.Warn("section could not be scheduled",
		zap.String("section_id", unplaced.SectionID),
		zap.String("course_code", unplaced.CourseCode),
	)
}
