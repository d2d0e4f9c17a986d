package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-admin-core/internal/models"
)

// Attendance statuses counted as attended.
const attendedStatuses = `('PRESENT', 'LATE')`

// ReportRepository runs the read-only dashboard aggregates.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// CountUsersByRole returns the number of users per role, including empty roles.
func (r *ReportRepository) CountUsersByRole(ctx context.Context) ([]models.RoleCount, error) {
	const query = `
SELECT r.name AS role, COUNT(u.user_id) AS count
FROM roles r
LEFT JOIN users u ON u.role_id = r.role_id
GROUP BY r.role_id, r.name
ORDER BY r.role_id ASC`
	counts := []models.RoleCount{}
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}
	return counts, nil
}

// AttendanceSince tallies attendance records on or after since.
func (r *ReportRepository) AttendanceSince(ctx context.Context, since time.Time) (models.AttendanceTally, error) {
	query := `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE status IN ` + attendedStatuses + `) AS attended FROM attendance WHERE attended_on >= $1`
	var tally models.AttendanceTally
	if err := r.db.GetContext(ctx, &tally, query, since); err != nil {
		return models.AttendanceTally{}, fmt.Errorf("tally attendance: %w", err)
	}
	return tally, nil
}

// ClassAttendanceSince tallies attendance per class, keeping only classes with at least minSample records.
func (r *ReportRepository) ClassAttendanceSince(ctx context.Context, since time.Time, minSample int) ([]models.ClassAttendanceTally, error) {
	query := `
SELECT c.class_id, c.class_code, c.title,
       COUNT(a.attendance_id) AS total,
       COUNT(a.attendance_id) FILTER (WHERE a.status IN ` + attendedStatuses + `) AS attended
FROM attendance a
JOIN enrollments e ON e.enrollment_id = a.enrollment_id
JOIN classes c ON c.class_id = e.class_id
WHERE a.attended_on >= $1
GROUP BY c.class_id, c.class_code, c.title
HAVING COUNT(a.attendance_id) >= $2
ORDER BY c.class_id ASC`
	tallies := []models.ClassAttendanceTally{}
	if err := r.db.SelectContext(ctx, &tallies, query, since, minSample); err != nil {
		return nil, fmt.Errorf("tally class attendance: %w", err)
	}
	return tallies, nil
}
