package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

var pdfColumns = []struct {
	title string
	width float64
	value func(TimetableRow) string
}{
	{"Day", 28, func(r TimetableRow) string { return r.Day }},
	{"Time", 30, func(r TimetableRow) string { return r.StartTime + "-" + r.EndTime }},
	{"Course", 30, func(r TimetableRow) string { return r.CourseCode }},
	{"Title", 80, func(r TimetableRow) string { return r.CourseName }},
	{"Instructor", 40, func(r TimetableRow) string { return r.InstructorID }},
	{"Room", 40, func(r TimetableRow) string {
		if r.Relaxed {
			return r.Classroom + " *"
		}
		return r.Classroom
	}},
}

// PDFExporter renders timetable rows into a landscape table.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with a title and one line per timetable entry.
// Rooms booked under relaxed capacity are marked with an asterisk.
func (e *PDFExporter) Render(rows []TimetableRow, title string) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	for _, col := range pdfColumns {
		pdf.CellFormat(col.width, 8, col.title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range rows {
		for _, col := range pdfColumns {
			pdf.CellFormat(col.width, 7, col.value(row), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
