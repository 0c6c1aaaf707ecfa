package export

import (
	"fmt"

	"github.com/gocarina/gocsv"
)

// TimetableRow is one flattened timetable entry ready for tabular export.
type TimetableRow struct {
	Day          string `csv:"day"`
	StartTime    string `csv:"start_time"`
	EndTime      string `csv:"end_time"`
	CourseCode   string `csv:"course_code"`
	CourseName   string `csv:"course_name"`
	SectionID    string `csv:"section_id"`
	InstructorID string `csv:"instructor_id"`
	Classroom    string `csv:"classroom"`
	Relaxed      bool   `csv:"relaxed"`
}

// CSVExporter renders timetable rows into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes, header line included even for an empty timetable.
func (e *CSVExporter) Render(rows []TimetableRow) ([]byte, error) {
	if rows == nil {
		rows = []TimetableRow{}
	}
	out, err := gocsv.MarshalString(&rows)
	if err != nil {
		return nil, fmt.Errorf("marshal timetable csv: %w", err)
	}
	return []byte(out), nil
}
