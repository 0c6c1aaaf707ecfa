package timetable

import "context"

// Section is one offering of a course in a term that needs a room and a time.
type Section struct {
	ID               string
	RequiredCapacity int
	InstructorID     string
	CourseCode       string
	CourseName       string
}

// Classroom is a bookable room.
type Classroom struct {
	ID       string
	Capacity int
}

// Assignment places a section at a day, slot and classroom. Relaxed marks
// placements accepted under the capacity-tolerant fallback.
type Assignment struct {
	SectionID    string `json:"section_id"`
	Day          Day    `json:"day_of_week"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	ClassroomID  string `json:"classroom_id"`
	CourseCode   string `json:"course_code"`
	CourseName   string `json:"course_name"`
	InstructorID string `json:"instructor_id"`
	Relaxed      bool   `json:"relaxed"`
}

// Slot returns the assignment's time range.
func (a Assignment) Slot() TimeSlot {
	return TimeSlot{Start: a.StartTime, End: a.EndTime}
}

// Result summarises one Generate call.
type Result struct {
	Success           bool         `json:"success"`
	Schedule          []Assignment `json:"schedule"`
	Conflicts         int          `json:"conflicts"`
	TotalSections     int          `json:"total_sections"`
	ScheduledSections int          `json:"scheduled_sections"`
	Unscheduled       []string     `json:"unscheduled,omitempty"`
}

// EnrollmentSource resolves the students currently enrolled in a section.
type EnrollmentSource interface {
	StudentIDs(ctx context.Context, sectionID string) ([]string, error)
}

// Unplaced describes a section that could not be placed even in relaxed mode.
type Unplaced struct {
	SectionID  string
	CourseCode string
}

// DiagnosticFunc receives unplaced sections as they are detected.
type DiagnosticFunc func(ctx context.Context, unplaced Unplaced)
