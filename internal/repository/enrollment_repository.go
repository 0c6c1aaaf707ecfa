package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// EnrollmentRepository reads student registrations to sections.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository creates a new enrollment repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ListStudentIDsBySection returns the distinct students actively enrolled in a section.
func (r *EnrollmentRepository) ListStudentIDsBySection(ctx context.Context, sectionID string) ([]string, error) {
	const query = `SELECT DISTINCT student_id FROM enrollments WHERE section_id = $1 AND status = $2 ORDER BY student_id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, sectionID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list students by section: %w", err)
	}
	return ids, nil
}
