package models

import "time"

// CourseSchedule is a persisted timetable row for one section.
type CourseSchedule struct {
	ID          string    `db:"id" json:"id"`
	SectionID   string    `db:"section_id" json:"section_id"`
	DayOfWeek   int       `db:"day_of_week" json:"day_of_week"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	ClassroomID string    `db:"classroom_id" json:"classroom_id"`
	Relaxed     bool      `db:"relaxed" json:"relaxed"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CourseScheduleDetail enriches a schedule row with course and room info.
type CourseScheduleDetail struct {
	CourseSchedule
	CourseCode    string `db:"course_code" json:"course_code"`
	CourseName    string `db:"course_name" json:"course_name"`
	InstructorID  string `db:"instructor_id" json:"instructor_id"`
	ClassroomName string `db:"classroom_name" json:"classroom_name"`
}

// CourseScheduleFilter describes query params for listing a term timetable.
type CourseScheduleFilter struct {
	TermID       string
	InstructorID string
	ClassroomID  string
	DayOfWeek    int
	Page         int
	PageSize     int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
