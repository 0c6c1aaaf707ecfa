package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/service"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
	"github.com/noah-isme/campus-timetable-api/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
	List(ctx context.Context, query dto.TimetableQuery) ([]models.CourseScheduleDetail, *models.Pagination, error)
}

type timetableRunner interface {
	Submit(ctx context.Context, req dto.GenerateTimetableRequest, requestedBy string) (*models.TimetableRun, error)
	Get(ctx context.Context, id string) (*dto.TimetableRunResponse, error)
}

type timetableExporter interface {
	Export(ctx context.Context, query dto.TimetableExportQuery) (*service.ExportFile, error)
}

// TimetableHandler exposes timetable generation, lookup and export endpoints.
type TimetableHandler struct {
	timetables timetableGenerator
	runs       timetableRunner
	exports    timetableExporter
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(timetables *service.TimetableService, runs *service.TimetableRunService, exports *service.TimetableExportService) *TimetableHandler {
	return &TimetableHandler{timetables: timetables, runs: runs, exports: exports}
}

// Generate godoc
// @Summary Generate and persist the timetable of a term
// @Description Runs the scheduler synchronously. Sections that could not be placed are listed in meta.warnings.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generate timetable payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}

	result, err := h.timetables.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil, unscheduledWarnings(result.Unscheduled))
}

// CreateRun godoc
// @Summary Queue a background timetable generation
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generate timetable payload"
// @Success 202 {object} response.Envelope
// @Router /timetables/runs [post]
func (h *TimetableHandler) CreateRun(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}

	requestedBy := ""
	if claims := claimsFromContext(c); claims != nil {
		requestedBy = claims.UserID
	}

	run, err := h.runs.Submit(c.Request.Context(), req, requestedBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, run)
}

// GetRun godoc
// @Summary Get the status of a background timetable generation
// @Tags Timetables
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/runs/{id} [get]
func (h *TimetableHandler) GetRun(c *gin.Context) {
	run, err := h.runs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	var meta map[string]interface{}
	if run.Result != nil {
		meta = unscheduledWarnings(run.Result.Unscheduled)
	}
	response.JSON(c, http.StatusOK, run, nil, meta)
}

// List godoc
// @Summary List the persisted timetable of a term
// @Tags Timetables
// @Produce json
// @Param termId query string true "Term ID"
// @Param instructorId query string false "Instructor ID"
// @Param classroomId query string false "Classroom ID"
// @Param dayOfWeek query int false "Day of week (1=Monday)"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /timetables [get]
func (h *TimetableHandler) List(c *gin.Context) {
	var query dto.TimetableQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}

	rows, pagination, err := h.timetables.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Export godoc
// @Summary Download the timetable of a term
// @Tags Timetables
// @Produce text/csv
// @Produce application/pdf
// @Param termId query string true "Term ID"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Router /timetables/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	var query dto.TimetableExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}

	file, err := h.exports.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Body)
}

func unscheduledWarnings(sectionIDs []string) map[string]interface{} {
	if len(sectionIDs) == 0 {
		return nil
	}
	warnings := make([]string, 0, len(sectionIDs))
	for _, id := range sectionIDs {
		warnings = append(warnings, "section "+id+" could not be scheduled")
	}
	return map[string]interface{}{
		"warnings":    warnings,
		"unscheduled": sectionIDs,
	}
}
