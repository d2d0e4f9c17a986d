package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-admin-core/internal/models"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
)

type fakeReportService struct {
	best *models.BestClass
}

func (f *fakeReportService) UsersByRole(_ context.Context, actor models.Actor) ([]models.RoleCount, error) {
	if !actor.IsAdmin() {
		return nil, appErrors.ErrForbidden
	}
	return []models.RoleCount{{Role: models.RoleAdmin, Count: 1}, {Role: models.RoleStudent, Count: 30}}, nil
}

func (f *fakeReportService) Attendance(context.Context, models.Actor) (*models.AttendanceSummary, error) {
	return &models.AttendanceSummary{WindowDays: 30, Records: 3, Attended: 2, Percentage: 66.7}, nil
}

func (f *fakeReportService) BestClass(context.Context, models.Actor) (*models.BestClass, error) {
	return f.best, nil
}

func (f *fakeReportService) Dashboard(context.Context, models.Actor) (*models.Dashboard, error) {
	return nil, errors.New("pq: connection reset")
}

type fakeClassLister struct{}

func (fakeClassLister) List(context.Context, models.Actor) ([]models.ClassListItem, error) {
	return []models.ClassListItem{{Class: models.Class{ID: 10, ClassCode: "10A"}, StudentCount: 28}}, nil
}

type fakeSubjectLister struct{}

func (fakeSubjectLister) List(context.Context, models.Actor) ([]models.SubjectListItem, error) {
	return nil, nil
}

func newReportHandler(best *models.BestClass) *ReportHandler {
	return NewReportHandler(&fakeReportService{best: best}, fakeClassLister{}, fakeSubjectLister{})
}

func TestReportHandlerUsersByRole(t *testing.T) {
	c, w := newContext(http.MethodGet, "/reports/users-by-role", nil, adminClaims)

	newReportHandler(nil).UsersByRole(c)

	require.Equal(t, http.StatusOK, w.Code)
	var counts []models.RoleCount
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &counts))
	assert.Len(t, counts, 2)
}

func TestReportHandlerForbiddenForTeacher(t *testing.T) {
	c, w := newContext(http.MethodGet, "/reports/users-by-role", nil, &models.JWTClaims{UserID: 7, Role: models.RoleTeacher})

	newReportHandler(nil).UsersByRole(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReportHandlerBestClassNone(t *testing.T) {
	c, w := newContext(http.MethodGet, "/reports/best-class", nil, adminClaims)

	newReportHandler(nil).BestClass(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", string(decode(t, w).Data))
}

func TestReportHandlerClasses(t *testing.T) {
	c, w := newContext(http.MethodGet, "/reports/classes", nil, adminClaims)

	newReportHandler(nil).Classes(c)

	require.Equal(t, http.StatusOK, w.Code)
	var classes []models.ClassListItem
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &classes))
	require.Len(t, classes, 1)
	assert.Equal(t, 28, classes[0].StudentCount)
}

func TestReportHandlerDashboardHidesCause(t *testing.T) {
	c, w := newContext(http.MethodGet, "/reports/dashboard", nil, adminClaims)

	newReportHandler(nil).Dashboard(c)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	env := decode(t, w)
	assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
	assert.NotContains(t, env.Error.Message, "pq")
}
