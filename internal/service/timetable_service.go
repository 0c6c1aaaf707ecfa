package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type sectionLister interface {
	ListByTerm(ctx context.Context, termID string) ([]models.CourseSection, error)
}

type classroomLister interface {
	ListActive(ctx context.Context) ([]models.Classroom, error)
}

type courseScheduleStore interface {
	List(ctx context.Context, filter models.CourseScheduleFilter) ([]models.CourseScheduleDetail, int, error)
	Writer(exec sqlx.ExtContext) timetable.ScheduleWriter
	LockTermWithTx(ctx context.Context, exec sqlx.ExtContext, termID string) error
}

// runScopedEnrollments narrows an enrollment source to one generation so that
// cached student sets from earlier runs are never reused.
type runScopedEnrollments interface {
	ForRun(ctx context.Context, sectionIDs []string) timetable.EnrollmentSource
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// TimetableServiceConfig governs generation behaviour.
type TimetableServiceConfig struct {
	Enabled bool
	Grid    *timetable.Grid
}

// TimetableService loads term inputs, runs the engine and replaces the persisted timetable.
type TimetableService struct {
	sections    sectionLister
	classrooms  classroomLister
	schedules   courseScheduleStore
	enrollments timetable.EnrollmentSource
	tx          txProvider
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	enabled     bool
	grid        timetable.Grid
}

// NewTimetableService wires timetable dependencies.
func NewTimetableService(
	sections sectionLister,
	classrooms classroomLister,
	schedules courseScheduleStore,
	enrollments timetable.EnrollmentSource,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableServiceConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	grid := timetable.DefaultGrid()
	if cfg.Grid != nil {
		grid = *cfg.Grid
	}
	return &TimetableService{
		sections:    sections,
		classrooms:  classrooms,
		schedules:   schedules,
		enrollments: enrollments,
		tx:          tx,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		enabled:     cfg.Enabled,
		grid:        grid,
	}
}

// Generate rebuilds and persists the timetable of a term. Unplaced sections are reported, not failed.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (resp *dto.GenerateTimetableResponse, err error) {
	if !s.enabled {
		return nil, appErrors.ErrSchedulerOff
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate timetable payload")
	}

	start := time.Now()
	defer func() {
		outcome := OutcomeFailed
		relaxed := 0
		if err == nil {
			outcome = OutcomeComplete
			if len(resp.Unscheduled) > 0 {
				outcome = OutcomePartial
			}
			relaxed = resp.Conflicts
		}
		s.metrics.ObserveTimetableRun(outcome, relaxed, time.Since(start))
	}()

	sectionRows, err := s.sections.ListByTerm(ctx, req.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sections")
	}
	rooms, err := s.classrooms.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classrooms")
	}

	sections := make([]timetable.Section, 0, len(sectionRows))
	sectionIDs := make([]string, 0, len(sectionRows))
	for _, row := range sectionRows {
		sections = append(sections, timetable.Section{
			ID:               row.ID,
			RequiredCapacity: row.Capacity,
			InstructorID:     row.InstructorID,
			CourseCode:       row.CourseCode,
			CourseName:       row.CourseName,
		})
		sectionIDs = append(sectionIDs, row.ID)
	}
	classrooms := make([]timetable.Classroom, 0, len(rooms))
	for _, room := range rooms {
		classrooms = append(classrooms, timetable.Classroom{ID: room.ID, Capacity: room.Capacity})
	}

	enrollments := s.enrollments
	if scoped, ok := enrollments.(runScopedEnrollments); ok {
		enrollments = scoped.ForRun(ctx, sectionIDs)
	}

	termLogger := s.logger.With(zap.String("term_id", req.TermID))
	scheduler := timetable.NewScheduler(s.grid, enrollments,
		timetable.WithLogger(termLogger),
		timetable.WithDiagnostic(func(ctx context.Context, u timetable.Unplaced) {
			s.metrics.IncUnplacedSection()
			termLogger.Warn("section could not be scheduled",
				zap.String("section_id", u.SectionID),
				zap.String("course_code", u.CourseCode),
			)
		}),
	)

	result, err := scheduler.Generate(ctx, sections, classrooms)
	if err != nil {
		if errors.Is(err, timetable.ErrNoClassrooms) {
			return nil, appErrors.Clone(appErrors.ErrNoClassrooms, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate timetable")
	}

	if len(sectionIDs) > 0 {
		if err = s.persist(ctx, req.TermID, sectionIDs, result.Schedule); err != nil {
			return nil, err
		}
		if invErr := s.cache.Invalidate(ctx, exportCachePattern(req.TermID)); invErr != nil {
			termLogger.Warn("failed to invalidate timetable export cache", zap.Error(invErr))
		}
	}

	termLogger.Info("timetable generated",
		zap.Int("total_sections", result.TotalSections),
		zap.Int("scheduled_sections", result.ScheduledSections),
		zap.Int("relaxed", result.Conflicts),
		zap.Duration("elapsed", time.Since(start)),
	)
	return toGenerateResponse(req.TermID, result), nil
}

func (s *TimetableService) persist(ctx context.Context, termID string, sectionIDs []string, assignments []timetable.Assignment) (err error) {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.schedules.LockTermWithTx(ctx, tx, termID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock term timetable")
	}
	if err = timetable.Persist(ctx, s.schedules.Writer(tx), sectionIDs, assignments); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable")
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable")
	}
	return nil
}

// List returns the persisted timetable of a term.
func (s *TimetableService) List(ctx context.Context, query dto.TimetableQuery) ([]models.CourseScheduleDetail, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable query")
	}
	filter := models.CourseScheduleFilter{
		TermID:       query.TermID,
		InstructorID: query.InstructorID,
		ClassroomID:  query.ClassroomID,
		DayOfWeek:    query.DayOfWeek,
		Page:         query.Page,
		PageSize:     query.PageSize,
	}
	rows, total, err := s.schedules.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable")
	}
	if rows == nil {
		rows = []models.CourseScheduleDetail{}
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 100
	}
	return rows, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func toGenerateResponse(termID string, result timetable.Result) *dto.GenerateTimetableResponse {
	entries := make([]dto.TimetableEntry, 0, len(result.Schedule))
	for _, a := range result.Schedule {
		entries = append(entries, dto.TimetableEntry{
			SectionID:    a.SectionID,
			CourseCode:   a.CourseCode,
			CourseName:   a.CourseName,
			InstructorID: a.InstructorID,
			DayOfWeek:    int(a.Day),
			Day:          a.Day.String(),
			StartTime:    a.StartTime,
			EndTime:      a.EndTime,
			ClassroomID:  a.ClassroomID,
			Relaxed:      a.Relaxed,
		})
	}
	unscheduled := result.Unscheduled
	if unscheduled == nil {
		unscheduled = []string{}
	}
	return &dto.GenerateTimetableResponse{
		TermID:            termID,
		Success:           result.Success,
		TotalSections:     result.TotalSections,
		ScheduledSections: result.ScheduledSections,
		Conflicts:         result.Conflicts,
		Unscheduled:       unscheduled,
		Schedule:          entries,
	}
}
