package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-admin-core/internal/models"
	"github.com/noah-isme/sma-admin-core/internal/service"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
)

type fakeClassSubjectService struct {
	filter    models.ClassSubjectFilter
	createErr error
}

func (f *fakeClassSubjectService) List(_ context.Context, _ models.Actor, filter models.ClassSubjectFilter) ([]models.ClassSubjectListItem, error) {
	f.filter = filter
	return []models.ClassSubjectListItem{}, nil
}

func (f *fakeClassSubjectService) Get(context.Context, models.Actor, int64) (*models.ClassSubject, error) {
	return &models.ClassSubject{ID: 1}, nil
}

func (f *fakeClassSubjectService) Create(context.Context, models.Actor, models.ClassSubjectRequest) (*models.ClassSubject, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.ClassSubject{ID: 1}, nil
}

func (f *fakeClassSubjectService) Update(context.Context, models.Actor, int64, models.ClassSubjectRequest) (*models.ClassSubject, error) {
	return &models.ClassSubject{ID: 1}, nil
}

func (f *fakeClassSubjectService) Delete(context.Context, models.Actor, int64) error {
	return nil
}

type fakeAssignmentExporter struct{}

func (fakeAssignmentExporter) Assignments(context.Context, models.Actor, models.ClassSubjectFilter, string) (*service.ExportFile, error) {
	return nil, appErrors.Clone(appErrors.ErrFormat, "unsupported export format")
}

func TestClassSubjectHandlerListFilters(t *testing.T) {
	svc := &fakeClassSubjectService{}
	h := NewClassSubjectHandler(svc, fakeAssignmentExporter{})
	c, w := newContext(http.MethodGet, "/class-subjects?class_id=10&teacher_id=50", nil, adminClaims)

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.filter.ClassID)
	assert.Equal(t, int64(10), *svc.filter.ClassID)
	assert.Nil(t, svc.filter.SubjectID)
	require.NotNil(t, svc.filter.TeacherID)
	assert.Equal(t, int64(50), *svc.filter.TeacherID)
}

func TestClassSubjectHandlerListRejectsBadFilter(t *testing.T) {
	h := NewClassSubjectHandler(&fakeClassSubjectService{}, fakeAssignmentExporter{})
	c, w := newContext(http.MethodGet, "/class-subjects?subject_id=x", nil, adminClaims)

	h.List(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "FORMAT_ERROR", decode(t, w).Error.Code)
}

func TestClassSubjectHandlerCreateDuplicate(t *testing.T) {
	svc := &fakeClassSubjectService{createErr: appErrors.Clone(appErrors.ErrUniqueness, "subject is already assigned to this class")}
	h := NewClassSubjectHandler(svc, fakeAssignmentExporter{})
	c, w := newContext(http.MethodPost, "/class-subjects", map[string]int64{"class_id": 10, "subject_id": 1, "teacher_id": 50}, adminClaims)

	h.Create(c)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "UNIQUENESS_ERROR", decode(t, w).Error.Code)
}

func TestClassSubjectHandlerExportBadFormat(t *testing.T) {
	h := NewClassSubjectHandler(&fakeClassSubjectService{}, fakeAssignmentExporter{})
	c, w := newContext(http.MethodGet, "/class-subjects/export?format=xls", nil, adminClaims)

	h.Export(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
