package dto

import "github.com/noah-isme/campus-timetable-api/internal/models"

// GenerateTimetableRequest asks the engine to (re)build the timetable for a term.
type GenerateTimetableRequest struct {
	TermID string `json:"termId" validate:"required"`
}

// TimetableEntry is one placed section in a generation result.
type TimetableEntry struct {
	SectionID    string `json:"sectionId"`
	CourseCode   string `json:"courseCode"`
	CourseName   string `json:"courseName"`
	InstructorID string `json:"instructorId"`
	DayOfWeek    int    `json:"dayOfWeek"`
	Day          string `json:"day"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	ClassroomID  string `json:"classroomId"`
	Relaxed      bool   `json:"relaxed"`
}

// GenerateTimetableResponse summarises a finished generation.
type GenerateTimetableResponse struct {
	TermID            string           `json:"termId"`
	Success           bool             `json:"success"`
	TotalSections     int              `json:"totalSections"`
	ScheduledSections int              `json:"scheduledSections"`
	Conflicts         int              `json:"conflicts"`
	Unscheduled       []string         `json:"unscheduled"`
	Schedule          []TimetableEntry `json:"schedule"`
}

// TimetableRunResponse reports the state of an asynchronous generation.
type TimetableRunResponse struct {
	models.TimetableRun
	Result *GenerateTimetableResponse `json:"result,omitempty"`
}

// TimetableQuery filters the persisted timetable of a term.
type TimetableQuery struct {
	TermID       string `form:"termId" validate:"required"`
	InstructorID string `form:"instructorId"`
	ClassroomID  string `form:"classroomId"`
	DayOfWeek    int    `form:"dayOfWeek" validate:"omitempty,min=1,max=5"`
	Page         int    `form:"page" validate:"omitempty,min=1"`
	PageSize     int    `form:"pageSize" validate:"omitempty,min=1,max=500"`
}

// TimetableExportQuery selects the term and file format of an export.
type TimetableExportQuery struct {
	TermID string `form:"termId" validate:"required"`
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}
