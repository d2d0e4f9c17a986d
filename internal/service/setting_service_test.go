package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-admin-core/internal/dto"
	"github.com/noah-isme/sma-admin-core/internal/models"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
)

type memorySettingRepo struct {
	settings map[string]models.Setting
	getErr   error
}

func (m *memorySettingRepo) ListByKeys(ctx context.Context, keys []string) ([]models.Setting, error) {
	out := []models.Setting{}
	for _, key := range keys {
		if s, ok := m.settings[key]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memorySettingRepo) Get(ctx context.Context, key string) (*models.Setting, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s, ok := m.settings[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (m *memorySettingRepo) Upsert(ctx context.Context, setting *models.Setting) error {
	m.settings[setting.Key] = *setting
	return nil
}

func newSettingFixture() (*SettingService, *memorySettingRepo, *fakeAudit) {
	repo := &memorySettingRepo{settings: map[string]models.Setting{
		models.SettingSchoolName: {Key: models.SettingSchoolName, Value: "SMA Negeri 1", Type: models.SettingTypeString},
	}}
	audit := &fakeAudit{}
	svc := NewSettingService(repo, nil, WriteHooks{Audit: audit}, map[string]string{
		models.SettingAttendanceWindowDays: "30",
		models.SettingBestClassMinSample:   "10",
	})
	return svc, repo, audit
}

func TestSettingServiceList(t *testing.T) {
	svc, _, _ := newSettingFixture()

	items, err := svc.List(context.Background(), adminActor)
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, "SMA Negeri 1", items[0].Value)
	assert.Equal(t, "", items[1].Value)
	assert.Equal(t, dto.SettingItem{
		Key:         models.SettingAttendanceWindowDays,
		Value:       "30",
		Type:        string(models.SettingTypeNumber),
		Description: allowedSettings[models.SettingAttendanceWindowDays].Description,
	}, items[2])
}

func TestSettingServiceUpdate(t *testing.T) {
	svc, repo, audit := newSettingFixture()

	item, err := svc.Update(context.Background(), adminActor, models.SettingBestClassMinSample, dto.UpdateSettingRequest{Value: " 015 "})
	require.NoError(t, err)
	assert.Equal(t, "15", item.Value)
	assert.Equal(t, int64(1), *repo.settings[models.SettingBestClassMinSample].UpdatedBy)
	assert.Equal(t, []string{models.AuditActionSettingUpdate}, audit.actions())
	assert.Equal(t, 15, svc.Int(context.Background(), models.SettingBestClassMinSample, 10))

	_, err = svc.Update(context.Background(), adminActor, models.SettingBestClassMinSample, dto.UpdateSettingRequest{Value: "ten"})
	assert.Equal(t, appErrors.ErrFormat.Code, appErrors.FromError(err).Code)

	_, err = svc.Update(context.Background(), adminActor, models.SettingAttendanceWindowDays, dto.UpdateSettingRequest{Value: "0"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Update(context.Background(), adminActor, "theme", dto.UpdateSettingRequest{Value: "dark"})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Update(context.Background(), adminActor, models.SettingSchoolName, dto.UpdateSettingRequest{})
	assert.Equal(t, appErrors.ErrRequiredField.Code, appErrors.FromError(err).Code)
}

func TestSettingServiceIntFallback(t *testing.T) {
	svc, repo, _ := newSettingFixture()
	repo.settings[models.SettingAttendanceWindowDays] = models.Setting{Key: models.SettingAttendanceWindowDays, Value: "abc"}

	assert.Equal(t, 30, svc.Int(context.Background(), models.SettingAttendanceWindowDays, 30))
	assert.Equal(t, 10, svc.Int(context.Background(), models.SettingBestClassMinSample, 10))

	repo.getErr = errors.New("timeout")
	assert.Equal(t, 10, svc.Int(context.Background(), models.SettingBestClassMinSample, 10))
}

func TestSettingServiceGetDefault(t *testing.T) {
	svc, _, _ := newSettingFixture()

	item, err := svc.Get(context.Background(), adminActor, models.SettingAttendanceWindowDays)
	require.NoError(t, err)
	assert.Equal(t, "30", item.Value)

	_, err = svc.Get(context.Background(), teacherActor, models.SettingAttendanceWindowDays)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
