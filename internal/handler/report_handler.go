package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-admin-core/internal/models"
	"github.com/noah-isme/sma-admin-core/pkg/response"
)

type reportService interface {
	UsersByRole(ctx context.Context, actor models.Actor) ([]models.RoleCount, error)
	Attendance(ctx context.Context, actor models.Actor) (*models.AttendanceSummary, error)
	BestClass(ctx context.Context, actor models.Actor) (*models.BestClass, error)
	Dashboard(ctx context.Context, actor models.Actor) (*models.Dashboard, error)
}

type classLister interface {
	List(ctx context.Context, actor models.Actor) ([]models.ClassListItem, error)
}

type subjectLister interface {
	List(ctx context.Context, actor models.Actor) ([]models.SubjectListItem, error)
}

// ReportHandler serves the reporting projections.
type ReportHandler struct {
	reports  reportService
	classes  classLister
	subjects subjectLister
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(reports reportService, classes classLister, subjects subjectLister) *ReportHandler {
	return &ReportHandler{reports: reports, classes: classes, subjects: subjects}
}

// UsersByRole godoc
// @Summary Users per role
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/users-by-role [get]
func (h *ReportHandler) UsersByRole(c *gin.Context) {
	counts, err := h.reports.UsersByRole(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, counts)
}

// Attendance godoc
// @Summary Attendance rate over the trailing window
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/attendance [get]
func (h *ReportHandler) Attendance(c *gin.Context) {
	summary, err := h.reports.Attendance(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}

// BestClass godoc
// @Summary Class with the best attendance
// @Description Returns null data when no class reaches the minimum sample size
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/best-class [get]
func (h *ReportHandler) BestClass(c *gin.Context) {
	best, err := h.reports.BestClass(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, best)
}

// Classes godoc
// @Summary Class listing report
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/classes [get]
func (h *ReportHandler) Classes(c *gin.Context) {
	classes, err := h.classes.List(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// Subjects godoc
// @Summary Subject listing report
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/subjects [get]
func (h *ReportHandler) Subjects(c *gin.Context) {
	subjects, err := h.subjects.List(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// Dashboard godoc
// @Summary Dashboard aggregates
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.reports.Dashboard(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dashboard)
}
