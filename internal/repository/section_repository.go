package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// SectionRepository reads course sections offered in a term.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository creates a new section repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// ListByTerm returns every section of the term joined with its course, in a stable order.
func (r *SectionRepository) ListByTerm(ctx context.Context, termID string) ([]models.CourseSection, error) {
	const query = `SELECT s.id, s.term_id, s.course_id, c.code AS course_code, c.name AS course_name, s.instructor_id, s.capacity
FROM course_sections s
JOIN courses c ON c.id = s.course_id
WHERE s.term_id = $1
ORDER BY c.code ASC, s.id ASC`
	var sections []models.CourseSection
	if err := r.db.SelectContext(ctx, &sections, query, termID); err != nil {
		return nil, fmt.Errorf("list sections by term: %w", err)
	}
	return sections, nil
}
