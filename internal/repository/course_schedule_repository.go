package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/timetable"
)

const courseScheduleDetailColumns = `cs.id, cs.section_id, cs.day_of_week, cs.start_time, cs.end_time, cs.classroom_id, cs.relaxed, cs.created_at,
c.code AS course_code, c.name AS course_name, s.instructor_id, r.name AS classroom_name`

const courseScheduleDetailFrom = `FROM course_schedules cs
JOIN course_sections s ON s.id = cs.section_id
JOIN courses c ON c.id = s.course_id
JOIN classrooms r ON r.id = cs.classroom_id`

// CourseScheduleRepository persists generated timetable rows.
type CourseScheduleRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewCourseScheduleRepository creates a new course schedule repository.
func NewCourseScheduleRepository(db *sqlx.DB) *CourseScheduleRepository {
	return &CourseScheduleRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// List returns the persisted timetable of a term with optional filters and pagination.
func (r *CourseScheduleRepository) List(ctx context.Context, filter models.CourseScheduleFilter) ([]models.CourseScheduleDetail, int, error) {
	conditions := []string{"s.term_id = $1"}
	args := []interface{}{filter.TermID}

	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("s.instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if filter.ClassroomID != "" {
		conditions = append(conditions, fmt.Sprintf("cs.classroom_id = $%d", len(args)+1))
		args = append(args, filter.ClassroomID)
	}
	if filter.DayOfWeek > 0 {
		conditions = append(conditions, fmt.Sprintf("cs.day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s%s ORDER BY cs.day_of_week ASC, cs.start_time ASC, r.name ASC LIMIT %d OFFSET %d",
		courseScheduleDetailColumns, courseScheduleDetailFrom, where, size, offset)
	var rows []models.CourseScheduleDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list course schedules: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+courseScheduleDetailFrom+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count course schedules: %w", err)
	}

	return rows, total, nil
}

// ListByTerm returns the whole timetable of a term, used by exports.
func (r *CourseScheduleRepository) ListByTerm(ctx context.Context, termID string) ([]models.CourseScheduleDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE s.term_id = $1 ORDER BY cs.day_of_week ASC, cs.start_time ASC, r.name ASC",
		courseScheduleDetailColumns, courseScheduleDetailFrom)
	var rows []models.CourseScheduleDetail
	if err := r.db.SelectContext(ctx, &rows, query, termID); err != nil {
		return nil, fmt.Errorf("list course schedules by term: %w", err)
	}
	return rows, nil
}

// LockTermWithTx serializes timetable replacement per term until the transaction ends.
// Statements issued after the lock see rows committed by the previous holder.
func (r *CourseScheduleRepository) LockTermWithTx(ctx context.Context, exec sqlx.ExtContext, termID string) error {
	const query = `SELECT pg_advisory_xact_lock(hashtext($1))`
	if _, err := exec.ExecContext(ctx, query, termLockKey(termID)); err != nil {
		return fmt.Errorf("lock term %s: %w", termID, err)
	}
	return nil
}

func termLockKey(termID string) string {
	return "course_schedules:" + termID
}

// DeleteBySectionsWithTx removes existing rows for the given sections.
func (r *CourseScheduleRepository) DeleteBySectionsWithTx(ctx context.Context, exec sqlx.ExtContext, sectionIDs []string) error {
	if len(sectionIDs) == 0 {
		return nil
	}
	const query = `DELETE FROM course_schedules WHERE section_id = ANY($1)`
	if _, err := exec.ExecContext(ctx, query, pq.Array(sectionIDs)); err != nil {
		return fmt.Errorf("delete course schedules: %w", err)
	}
	return nil
}

// InsertBatchWithTx stores rows using an existing transaction.
func (r *CourseScheduleRepository) InsertBatchWithTx(ctx context.Context, exec sqlx.ExtContext, rows []models.CourseSchedule) error {
	const query = `INSERT INTO course_schedules (id, section_id, day_of_week, start_time, end_time, classroom_id, relaxed, created_at)
VALUES (:id, :section_id, :day_of_week, :start_time, :end_time, :classroom_id, :relaxed, :created_at)`
	now := r.now()
	for i := range rows {
		row := rows[i]
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, exec, query, row); err != nil {
			return fmt.Errorf("insert course schedule for section %s: %w", row.SectionID, err)
		}
	}
	return nil
}

// Writer binds the repository to a transaction as the engine's schedule writer.
func (r *CourseScheduleRepository) Writer(exec sqlx.ExtContext) timetable.ScheduleWriter {
	return &txScheduleWriter{repo: r, exec: exec}
}

type txScheduleWriter struct {
	repo *CourseScheduleRepository
	exec sqlx.ExtContext
}

func (w *txScheduleWriter) ClearAssignments(ctx context.Context, sectionIDs []string) error {
	return w.repo.DeleteBySectionsWithTx(ctx, w.exec, sectionIDs)
}

func (w *txScheduleWriter) SaveAssignments(ctx context.Context, assignments []timetable.Assignment) error {
	rows := make([]models.CourseSchedule, 0, len(assignments))
	for _, a := range assignments {
		rows = append(rows, models.CourseSchedule{
			SectionID:   a.SectionID,
			DayOfWeek:   int(a.Day),
			StartTime:   a.StartTime,
			EndTime:     a.EndTime,
			ClassroomID: a.ClassroomID,
			Relaxed:     a.Relaxed,
		})
	}
	return w.repo.InsertBatchWithTx(ctx, w.exec, rows)
}
