package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-admin-core/internal/models"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
)

type memorySubjectRepo struct {
	nextID   int64
	subjects map[int64]*models.Subject
	blocked  map[int64]string
}

func newMemorySubjectRepo() *memorySubjectRepo {
	return &memorySubjectRepo{subjects: map[int64]*models.Subject{}, blocked: map[int64]string{}}
}

func (m *memorySubjectRepo) List(ctx context.Context) ([]models.SubjectListItem, error) {
	items := make([]models.SubjectListItem, 0, len(m.subjects))
	for _, s := range m.subjects {
		items = append(items, models.SubjectListItem{Subject: *s})
	}
	return items, nil
}

func (m *memorySubjectRepo) FindByID(ctx context.Context, id int64) (*models.Subject, error) {
	s, ok := m.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *s
	return &copied, nil
}

func (m *memorySubjectRepo) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	for id, s := range m.subjects {
		if id != excludeID && strings.EqualFold(s.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memorySubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	m.nextID++
	subject.ID = m.nextID
	copied := *subject
	m.subjects[subject.ID] = &copied
	return nil
}

func (m *memorySubjectRepo) Update(ctx context.Context, subject *models.Subject) error {
	if _, ok := m.subjects[subject.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *subject
	m.subjects[subject.ID] = &copied
	return nil
}

func (m *memorySubjectRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.subjects[id]; !ok {
		return sql.ErrNoRows
	}
	if msg, ok := m.blocked[id]; ok {
		return appErrors.Clone(appErrors.ErrDependency, msg)
	}
	delete(m.subjects, id)
	return nil
}

func TestSubjectServiceCreateAndRename(t *testing.T) {
	repo := newMemorySubjectRepo()
	audit := &fakeAudit{}
	svc := NewSubjectService(repo, nil, WriteHooks{Audit: audit})

	math, err := svc.Create(context.Background(), adminActor, models.SubjectRequest{Name: strPtr("  Mathematics ")})
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", math.Name)

	_, err = svc.Create(context.Background(), adminActor, models.SubjectRequest{Name: strPtr("mathematics")})
	assert.Equal(t, appErrors.ErrUniqueness.Code, appErrors.FromError(err).Code)

	renamed, err := svc.Update(context.Background(), adminActor, math.ID, models.SubjectRequest{Name: strPtr("MATHEMATICS")})
	require.NoError(t, err, "renaming to a case variant of itself is allowed")
	assert.Equal(t, "MATHEMATICS", renamed.Name)

	_, err = svc.Update(context.Background(), adminActor, 99, models.SubjectRequest{Name: strPtr("Physics")})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	assert.Equal(t, []string{models.AuditActionCreate, models.AuditActionUpdate}, audit.actions())
}

func TestSubjectServiceRequiresName(t *testing.T) {
	svc := NewSubjectService(newMemorySubjectRepo(), nil, WriteHooks{})

	_, err := svc.Create(context.Background(), adminActor, models.SubjectRequest{Name: strPtr("   ")})
	assert.Equal(t, appErrors.ErrRequiredField.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), adminActor, models.SubjectRequest{Name: strPtr(strings.Repeat("x", 101))})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubjectServiceDeleteBlocked(t *testing.T) {
	repo := newMemorySubjectRepo()
	metrics := NewMetricsService()
	svc := NewSubjectService(repo, nil, WriteHooks{Metrics: metrics})
	subject, err := svc.Create(context.Background(), adminActor, models.SubjectRequest{Name: strPtr("Biology")})
	require.NoError(t, err)
	repo.blocked[subject.ID] = "subject is assigned to classes"

	err = svc.Delete(context.Background(), adminActor, subject.ID)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDependency.Code, appErr.Code)
	assert.Equal(t, "subject is assigned to classes", appErr.Message)

	delete(repo.blocked, subject.ID)
	require.NoError(t, svc.Delete(context.Background(), adminActor, subject.ID))
	assert.Empty(t, repo.subjects)
}
