package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
	"github.com/noah-isme/campus-timetable-api/pkg/export"
)

const (
	exportFormatCSV = "csv"
	exportFormatPDF = "pdf"
)

type termScheduleLister interface {
	ListByTerm(ctx context.Context, termID string) ([]models.CourseScheduleDetail, error)
}

// ExportFile is a rendered timetable download.
type ExportFile struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// TimetableExportService renders the persisted timetable of a term as CSV or PDF.
type TimetableExportService struct {
	schedules termScheduleLister
	cache     *CacheService
	ttl       time.Duration
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableExportService constructs the export service. A nil cache renders on every request.
func NewTimetableExportService(schedules termScheduleLister, cache *CacheService, ttl time.Duration, validate *validator.Validate, logger *zap.Logger) *TimetableExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableExportService{
		schedules: schedules,
		cache:     cache,
		ttl:       ttl,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// Export returns the rendered file, serving from cache until the term is regenerated.
func (s *TimetableExportService) Export(ctx context.Context, query dto.TimetableExportQuery) (*ExportFile, error) {
	if query.Format == "" {
		query.Format = exportFormatCSV
	}
	if err := s.validator.Struct(query); err != nil {
		if invalidFormat(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrUnsupportedFormat.Code, appErrors.ErrUnsupportedFormat.Status, appErrors.ErrUnsupportedFormat.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export query")
	}

	key := exportCacheKey(query.TermID, query.Format)
	var cached ExportFile
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	details, err := s.schedules.ListByTerm(ctx, query.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	rows := toExportRows(details)

	file := &ExportFile{Filename: fmt.Sprintf("timetable-%s.%s", query.TermID, query.Format)}
	switch query.Format {
	case exportFormatPDF:
		file.ContentType = "application/pdf"
		file.Body, err = s.pdf.Render(rows, "Timetable "+query.TermID)
	default:
		file.ContentType = "text/csv"
		file.Body, err = s.csv.Render(rows)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable export")
	}

	if err := s.cache.Set(ctx, key, file, s.ttl); err != nil {
		s.logger.Debug("timetable export not cached", zap.String("key", key), zap.Error(err))
	}
	return file, nil
}

func invalidFormat(err error) bool {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return false
	}
	for _, fe := range fieldErrs {
		if fe.Field() == "Format" {
			return true
		}
	}
	return false
}

func toExportRows(details []models.CourseScheduleDetail) []export.TimetableRow {
	rows := make([]export.TimetableRow, 0, len(details))
	for _, d := range details {
		rows = append(rows, export.TimetableRow{
			Day:          timetable.Day(d.DayOfWeek).String(),
			StartTime:    clock(d.StartTime),
			EndTime:      clock(d.EndTime),
			CourseCode:   d.CourseCode,
			CourseName:   d.CourseName,
			SectionID:    d.SectionID,
			InstructorID: d.InstructorID,
			Classroom:    d.ClassroomName,
			Relaxed:      d.Relaxed,
		})
	}
	return rows
}

// clock trims postgres TIME values ("09:00:00") to HH:MM.
func clock(v string) string {
	if len(v) > 5 {
		return v[:5]
	}
	return v
}

func exportCacheKey(termID, format string) string {
	return "timetable:export:" + termID + ":" + format
}

// exportCachePattern matches every cached format of one term. The term id is
// escaped so glob characters in it only match themselves.
func exportCachePattern(termID string) string {
	return "timetable:export:" + globEscaper.Replace(termID) + ":*"
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
