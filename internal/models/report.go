package models

// RoleCount is the number of users holding a role.
type RoleCount struct {
	Role  Role `db:"role" json:"role"`
	Count int  `db:"count" json:"count"`
}

// AttendanceTally is the raw attendance count over a window.
type AttendanceTally struct {
	Total    int `db:"total"`
	Attended int `db:"attended"`
}

// ClassAttendanceTally is an attendance count for one class.
type ClassAttendanceTally struct {
	ClassID   int64  `db:"class_id"`
	ClassCode string `db:"class_code"`
	Title     string `db:"title"`
	Total     int    `db:"total"`
	Attended  int    `db:"attended"`
}

// AttendanceSummary reports the attendance rate over a trailing window.
type AttendanceSummary struct {
	WindowDays int     `json:"window_days"`
	Records    int     `json:"records"`
	Attended   int     `json:"attended"`
	Percentage float64 `json:"percentage"`
}

// BestClass is the class with the highest attendance rate in the window.
type BestClass struct {
	ClassID    int64   `json:"class_id"`
	ClassCode  string  `json:"class_code"`
	Title      string  `json:"title"`
	Records    int     `json:"records"`
	Percentage float64 `json:"percentage"`
}

// Dashboard bundles the dashboard aggregates.
type Dashboard struct {
	UsersByRole []RoleCount       `json:"users_by_role"`
	Attendance  AttendanceSummary `json:"attendance"`
	BestClass   *BestClass        `json:"best_class,omitempty"`
}
