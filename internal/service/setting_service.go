package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-admin-core/internal/dto"
	"github.com/noah-isme/sma-admin-core/internal/models"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
)

type settingRepository interface {
	ListByKeys(ctx context.Context, keys []string) ([]models.Setting, error)
	Get(ctx context.Context, key string) (*models.Setting, error)
	Upsert(ctx context.Context, setting *models.Setting) error
}

type allowedSetting struct {
	Type        models.SettingType
	Description string
}

var settingKeys = []string{
	models.SettingSchoolName,
	models.SettingSchoolYear,
	models.SettingAttendanceWindowDays,
	models.SettingBestClassMinSample,
}

var allowedSettings = map[string]allowedSetting{
	models.SettingSchoolName: {
		Type:        models.SettingTypeString,
		Description: "Display name of the school",
	},
	models.SettingSchoolYear: {
		Type:        models.SettingTypeString,
		Description: "Current school year, for example 2025/2026",
	},
	models.SettingAttendanceWindowDays: {
		Type:        models.SettingTypeNumber,
		Description: "Trailing window in days for the attendance report",
	},
	models.SettingBestClassMinSample: {
		Type:        models.SettingTypeNumber,
		Description: "Minimum attendance records a class needs to rank as best class",
	},
}

// SettingService manages the whitelisted system settings.
type SettingService struct {
	repo      settingRepository
	validator *Validator
	hooks     WriteHooks
	defaults  map[string]string
}

// NewSettingService constructs a SettingService. defaults supplies values
// for keys that were never stored.
func NewSettingService(repo settingRepository, validate *Validator, hooks WriteHooks, defaults map[string]string) *SettingService {
	if validate == nil {
		validate = NewValidator()
	}
	if hooks.Logger == nil {
		hooks.Logger = zap.NewNop()
	}
	copied := make(map[string]string, len(defaults))
	for key, value := range defaults {
		copied[key] = value
	}
	return &SettingService{repo: repo, validator: validate, hooks: hooks, defaults: copied}
}

// List returns every allowed setting, stored or defaulted.
func (s *SettingService) List(ctx context.Context, actor models.Actor) ([]dto.SettingItem, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByKeys(ctx, settingKeys)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list settings")
	}
	stored := make(map[string]models.Setting, len(rows))
	for _, row := range rows {
		stored[row.Key] = row
	}
	items := make([]dto.SettingItem, 0, len(settingKeys))
	for _, key := range settingKeys {
		if row, ok := stored[key]; ok {
			items = append(items, s.item(key, row.Value))
			continue
		}
		items = append(items, s.item(key, s.defaults[key]))
	}
	return items, nil
}

// Get returns one allowed setting.
func (s *SettingService) Get(ctx context.Context, actor models.Actor, key string) (*dto.SettingItem, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, ok := allowedSettings[key]; !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "setting not found")
	}
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			item := s.item(key, s.defaults[key])
			return &item, nil
		}
		return nil, appErrors.Internal(err, "failed to get setting")
	}
	item := s.item(key, setting.Value)
	return &item, nil
}

// Update stores a new value for key after checking its type.
func (s *SettingService) Update(ctx context.Context, actor models.Actor, key string, req dto.UpdateSettingRequest) (*dto.SettingItem, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	meta, ok := allowedSettings[key]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "setting not found")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	value := strings.TrimSpace(req.Value)
	if meta.Type == models.SettingTypeNumber {
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrFormat, key+" must be a whole number")
		}
		if n <= 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, key+" must be positive")
		}
		value = strconv.Itoa(n)
	}

	description := meta.Description
	setting := &models.Setting{Key: key, Value: value, Type: meta.Type, Description: &description}
	if actor.UserID != 0 {
		updatedBy := actor.UserID
		setting.UpdatedBy = &updatedBy
	}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, appErrors.Internal(err, "failed to update setting")
	}
	s.hooks.written(ctx, actor, models.AuditActionSettingUpdate, models.AuditResourceSetting, 0,
		map[string]string{"key": key, "value": value})

	item := s.item(key, value)
	return &item, nil
}

// Int reads a NUMBER setting without an actor check, falling back to
// fallback when it is unset, malformed or not positive.
func (s *SettingService) Int(ctx context.Context, key string, fallback int) int {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.hooks.log(ctx).Warn("failed to read setting", zap.String("key", key), zap.Error(err))
		}
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(setting.Value))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func (s *SettingService) item(key, value string) dto.SettingItem {
	meta := allowedSettings[key]
	return dto.SettingItem{Key: key, Value: value, Type: string(meta.Type), Description: meta.Description}
}
