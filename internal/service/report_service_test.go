package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-admin-core/internal/models"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
)

type fakeReportRepo struct {
	counts     []models.RoleCount
	tally      models.AttendanceTally
	classes    []models.ClassAttendanceTally
	since      time.Time
	minSample  int
	tallyCalls int
}

func (f *fakeReportRepo) CountUsersByRole(ctx context.Context) ([]models.RoleCount, error) {
	return f.counts, nil
}

func (f *fakeReportRepo) AttendanceSince(ctx context.Context, since time.Time) (models.AttendanceTally, error) {
	f.since = since
	f.tallyCalls++
	return f.tally, nil
}

func (f *fakeReportRepo) ClassAttendanceSince(ctx context.Context, since time.Time, minSample int) ([]models.ClassAttendanceTally, error) {
	f.since = since
	f.minSample = minSample
	return f.classes, nil
}

type fakeSettings map[string]int

func (f fakeSettings) Int(ctx context.Context, key string, fallback int) int {
	if v, ok := f[key]; ok {
		return v
	}
	return fallback
}

func TestPercentageRounding(t *testing.T) {
	cases := []struct {
		part, total int
		want        float64
	}{
		{0, 0, 0},
		{2, 3, 66.7},
		{1, 3, 33.3},
		{1, 16, 6.3},
		{1, 8, 12.5},
		{1, 400, 0.3},
		{10, 10, 100},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, percentage(tc.part, tc.total), "%d/%d", tc.part, tc.total)
	}
}

func TestReportServiceAttendanceWindow(t *testing.T) {
	repo := &fakeReportRepo{tally: models.AttendanceTally{Total: 3, Attended: 2}}
	svc := NewReportService(repo, fakeSettings{models.SettingAttendanceWindowDays: 7}, nil, ReportConfig{})
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 18, 30, 0, 0, time.UTC) }

	summary, err := svc.Attendance(context.Background(), adminActor)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceSummary{WindowDays: 7, Records: 3, Attended: 2, Percentage: 66.7}, *summary)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), repo.since)
}

func TestReportServiceBestClass(t *testing.T) {
	repo := &fakeReportRepo{classes: []models.ClassAttendanceTally{
		{ClassID: 3, ClassCode: "10C", Total: 20, Attended: 18},
		{ClassID: 2, ClassCode: "10B", Total: 40, Attended: 36},
		{ClassID: 1, ClassCode: "10A", Total: 40, Attended: 36},
		{ClassID: 4, ClassCode: "10D", Total: 5, Attended: 5},
	}}
	svc := NewReportService(repo, nil, nil, ReportConfig{BestClassMinSample: 10})

	best, err := svc.BestClass(context.Background(), adminActor)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, int64(1), best.ClassID, "equal rates go to more records, then the lower id")
	assert.Equal(t, 90.0, best.Percentage)
	assert.Equal(t, 10, repo.minSample)
}

func TestReportServiceBestClassNoneQualifies(t *testing.T) {
	repo := &fakeReportRepo{classes: []models.ClassAttendanceTally{{ClassID: 1, Total: 4, Attended: 4}}}
	svc := NewReportService(repo, fakeSettings{models.SettingBestClassMinSample: 5}, nil, ReportConfig{})

	best, err := svc.BestClass(context.Background(), adminActor)
	require.NoError(t, err)
	assert.Nil(t, best)
	assert.Equal(t, 5, repo.minSample)
}

func TestReportServiceDashboardCache(t *testing.T) {
	repo := &fakeReportRepo{
		counts: []models.RoleCount{{Role: models.RoleAdmin, Count: 1}},
		tally:  models.AttendanceTally{Total: 8, Attended: 1},
	}
	store := newMemoryCacheStore()
	metrics := NewMetricsService()
	cache := NewCacheService(store, metrics, time.Minute, zap.NewNop(), true)
	svc := NewReportService(repo, nil, cache, ReportConfig{})

	first, err := svc.Dashboard(context.Background(), adminActor)
	require.NoError(t, err)
	second, err := svc.Dashboard(context.Background(), adminActor)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.tallyCalls)
	assert.Equal(t, 12.5, second.Attendance.Percentage)
	assert.Contains(t, store.items, "dash:attendance:30")

	cache.InvalidateDashboard(context.Background())
	_, err = svc.Attendance(context.Background(), adminActor)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.tallyCalls)
}

func TestReportServiceRequiresAdmin(t *testing.T) {
	svc := NewReportService(&fakeReportRepo{}, nil, nil, ReportConfig{})

	_, err := svc.Dashboard(context.Background(), teacherActor)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
