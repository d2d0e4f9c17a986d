package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-admin-core/internal/models"
	"github.com/noah-isme/sma-admin-core/internal/service"
	"github.com/noah-isme/sma-admin-core/pkg/response"
)

type classSubjectService interface {
	List(ctx context.Context, actor models.Actor, filter models.ClassSubjectFilter) ([]models.ClassSubjectListItem, error)
	Get(ctx context.Context, actor models.Actor, id int64) (*models.ClassSubject, error)
	Create(ctx context.Context, actor models.Actor, req models.ClassSubjectRequest) (*models.ClassSubject, error)
	Update(ctx context.Context, actor models.Actor, id int64, req models.ClassSubjectRequest) (*models.ClassSubject, error)
	Delete(ctx context.Context, actor models.Actor, id int64) error
}

type assignmentExporter interface {
	Assignments(ctx context.Context, actor models.Actor, filter models.ClassSubjectFilter, format string) (*service.ExportFile, error)
}

// ClassSubjectHandler handles class-subject assignment endpoints.
type ClassSubjectHandler struct {
	service  classSubjectService
	exporter assignmentExporter
}

// NewClassSubjectHandler creates a new assignment handler.
func NewClassSubjectHandler(svc classSubjectService, exporter assignmentExporter) *ClassSubjectHandler {
	return &ClassSubjectHandler{service: svc, exporter: exporter}
}

func assignmentFilter(c *gin.Context) (models.ClassSubjectFilter, bool) {
	var filter models.ClassSubjectFilter
	var ok bool
	if filter.ClassID, ok = optionalID(c, "class_id"); !ok {
		return filter, false
	}
	if filter.SubjectID, ok = optionalID(c, "subject_id"); !ok {
		return filter, false
	}
	if filter.TeacherID, ok = optionalID(c, "teacher_id"); !ok {
		return filter, false
	}
	return filter, true
}

// List godoc
// @Summary List class-subject assignments
// @Tags ClassSubjects
// @Produce json
// @Param class_id query int false "Class filter"
// @Param subject_id query int false "Subject filter"
// @Param teacher_id query int false "Teacher filter"
// @Success 200 {object} response.Envelope
// @Router /class-subjects [get]
func (h *ClassSubjectHandler) List(c *gin.Context) {
	filter, ok := assignmentFilter(c)
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get class-subject assignment
// @Tags ClassSubjects
// @Produce json
// @Param id path int true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /class-subjects/{id} [get]
func (h *ClassSubjectHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	item, err := h.service.Get(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Create godoc
// @Summary Assign a subject to a class
// @Tags ClassSubjects
// @Accept json
// @Produce json
// @Param payload body models.ClassSubjectRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /class-subjects [post]
func (h *ClassSubjectHandler) Create(c *gin.Context) {
	var req models.ClassSubjectRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update class-subject assignment
// @Tags ClassSubjects
// @Accept json
// @Produce json
// @Param id path int true "Assignment ID"
// @Param payload body models.ClassSubjectRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /class-subjects/{id} [put]
func (h *ClassSubjectHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req models.ClassSubjectRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.Update(c.Request.Context(), actorFromContext(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Delete godoc
// @Summary Delete class-subject assignment
// @Tags ClassSubjects
// @Param id path int true "Assignment ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /class-subjects/{id} [delete]
func (h *ClassSubjectHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actorFromContext(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export class-subject assignments
// @Tags ClassSubjects
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /class-subjects/export [get]
func (h *ClassSubjectHandler) Export(c *gin.Context) {
	filter, ok := assignmentFilter(c)
	if !ok {
		return
	}
	file, err := h.exporter.Assignments(c.Request.Context(), actorFromContext(c), filter, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Download(c, file.Filename, file.ContentType, file.Content)
}
