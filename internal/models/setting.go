package models

import "time"

// SettingType defines supported types for setting values.
type SettingType string

const (
	SettingTypeString SettingType = "STRING"
	SettingTypeNumber SettingType = "NUMBER"
)

// Well-known setting keys.
const (
	SettingSchoolName           = "school_name"
	SettingSchoolYear           = "school_year"
	SettingAttendanceWindowDays = "attendance_window_days"
	SettingBestClassMinSample   = "best_class_min_sample"
)

// Setting represents a persisted system-wide setting.
type Setting struct {
	Key         string      `db:"key" json:"key"`
	Value       string      `db:"value" json:"value"`
	Type        SettingType `db:"type" json:"type"`
	Description *string     `db:"description" json:"description,omitempty"`
	UpdatedBy   *int64      `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}
