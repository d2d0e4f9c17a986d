package service

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/noah-isme/sma-admin-core/internal/models"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
)

type reportRepository interface {
	CountUsersByRole(ctx context.Context) ([]models.RoleCount, error)
	AttendanceSince(ctx context.Context, since time.Time) (models.AttendanceTally, error)
	ClassAttendanceSince(ctx context.Context, since time.Time, minSample int) ([]models.ClassAttendanceTally, error)
}

type reportSettings interface {
	Int(ctx context.Context, key string, fallback int) int
}

// ReportConfig holds the defaults used when the settings table has no value.
type ReportConfig struct {
	AttendanceWindowDays int
	BestClassMinSample   int
}

// ReportService computes the read-only dashboard aggregates.
type ReportService struct {
	repo     reportRepository
	settings reportSettings
	cache    *CacheService
	config   ReportConfig
	now      func() time.Time
}

// NewReportService constructs a ReportService. settings and cache may be nil.
func NewReportService(repo reportRepository, settings reportSettings, cache *CacheService, cfg ReportConfig) *ReportService {
	if cfg.AttendanceWindowDays <= 0 {
		cfg.AttendanceWindowDays = 30
	}
	if cfg.BestClassMinSample <= 0 {
		cfg.BestClassMinSample = 10
	}
	return &ReportService{repo: repo, settings: settings, cache: cache, config: cfg, now: time.Now}
}

// UsersByRole counts users per role, including roles without users.
func (s *ReportService) UsersByRole(ctx context.Context, actor models.Actor) ([]models.RoleCount, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var counts []models.RoleCount
	key := dashboardKey("users-by-role")
	if s.cache.Get(ctx, key, &counts) {
		return counts, nil
	}
	counts, err := s.repo.CountUsersByRole(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count users by role")
	}
	s.cache.Set(ctx, key, counts)
	return counts, nil
}

// Attendance reports the share of PRESENT and LATE records over the trailing window.
func (s *ReportService) Attendance(ctx context.Context, actor models.Actor) (*models.AttendanceSummary, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	days := s.windowDays(ctx)
	key := dashboardKey("attendance", strconv.Itoa(days))
	var summary models.AttendanceSummary
	if s.cache.Get(ctx, key, &summary) {
		return &summary, nil
	}
	tally, err := s.repo.AttendanceSince(ctx, s.windowStart(days))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to compute attendance")
	}
	summary = models.AttendanceSummary{
		WindowDays: days,
		Records:    tally.Total,
		Attended:   tally.Attended,
		Percentage: percentage(tally.Attended, tally.Total),
	}
	s.cache.Set(ctx, key, summary)
	return &summary, nil
}

// BestClass returns the class with the highest attendance rate among those
// with enough records, or nil when none qualifies. Ties go to the class with
// more records, then to the lower class id.
func (s *ReportService) BestClass(ctx context.Context, actor models.Actor) (*models.BestClass, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	days := s.windowDays(ctx)
	minSample := s.minSample(ctx)
	key := dashboardKey("best-class", strconv.Itoa(days), strconv.Itoa(minSample))
	var cached struct {
		Class *models.BestClass `json:"class"`
	}
	if s.cache.Get(ctx, key, &cached) {
		return cached.Class, nil
	}

	tallies, err := s.repo.ClassAttendanceSince(ctx, s.windowStart(days), minSample)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to compute class attendance")
	}
	best := pickBestClass(tallies, minSample)
	cached.Class = best
	s.cache.Set(ctx, key, cached)
	return best, nil
}

// Dashboard bundles every aggregate.
func (s *ReportService) Dashboard(ctx context.Context, actor models.Actor) (*models.Dashboard, error) {
	counts, err := s.UsersByRole(ctx, actor)
	if err != nil {
		return nil, err
	}
	attendance, err := s.Attendance(ctx, actor)
	if err != nil {
		return nil, err
	}
	best, err := s.BestClass(ctx, actor)
	if err != nil {
		return nil, err
	}
	return &models.Dashboard{UsersByRole: counts, Attendance: *attendance, BestClass: best}, nil
}

func (s *ReportService) windowDays(ctx context.Context) int {
	if s.settings == nil {
		return s.config.AttendanceWindowDays
	}
	return s.settings.Int(ctx, models.SettingAttendanceWindowDays, s.config.AttendanceWindowDays)
}

func (s *ReportService) minSample(ctx context.Context) int {
	if s.settings == nil {
		return s.config.BestClassMinSample
	}
	return s.settings.Int(ctx, models.SettingBestClassMinSample, s.config.BestClassMinSample)
}

// windowStart is the first day included in a window of days ending today.
func (s *ReportService) windowStart(days int) time.Time {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, -(days - 1))
}

func pickBestClass(tallies []models.ClassAttendanceTally, minSample int) *models.BestClass {
	var best *models.ClassAttendanceTally
	for i := range tallies {
		t := &tallies[i]
		if t.Total < minSample || t.Total == 0 {
			continue
		}
		if best == nil || betterAttendance(t, best) {
			best = t
		}
	}
	if best == nil {
		return nil
	}
	return &models.BestClass{
		ClassID:    best.ClassID,
		ClassCode:  best.ClassCode,
		Title:      best.Title,
		Records:    best.Total,
		Percentage: percentage(best.Attended, best.Total),
	}
}

// betterAttendance compares rates exactly by cross-multiplying.
func betterAttendance(a, b *models.ClassAttendanceTally) bool {
	left := int64(a.Attended) * int64(b.Total)
	right := int64(b.Attended) * int64(a.Total)
	if left != right {
		return left > right
	}
	if a.Total != b.Total {
		return a.Total > b.Total
	}
	return a.ClassID < b.ClassID
}

// percentage returns part/total as a percentage rounded half away from zero
// to one decimal. An empty total yields 0.
func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)*1000/float64(total)) / 10
}
