package models

// CourseSection is one offering of a course in a term, joined with its course for reporting.
type CourseSection struct {
	ID           string `db:"id" json:"id"`
	TermID       string `db:"term_id" json:"term_id"`
	CourseID     string `db:"course_id" json:"course_id"`
	CourseCode   string `db:"course_code" json:"course_code"`
	CourseName   string `db:"course_name" json:"course_name"`
	InstructorID string `db:"instructor_id" json:"instructor_id"`
	Capacity     int    `db:"capacity" json:"capacity"`
}
