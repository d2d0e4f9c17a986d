package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-admin-core/internal/models"
	"github.com/noah-isme/sma-admin-core/pkg/database"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
)

var classSubjectDeleteDependencies = []dependency{
	{
		name:    "assignment grade items",
		query:   `SELECT COUNT(*) FROM grade_items WHERE class_subject_id = $1`,
		message: "assignment has grade items",
	},
	{
		name:    "assignment periods",
		query:   `SELECT COUNT(*) FROM periods WHERE class_subject_id = $1`,
		message: "assignment has scheduled periods",
	},
}

const classSubjectPairConstraint = "class_subjects_class_subject_key"

var errDuplicateAssignment = appErrors.Clone(appErrors.ErrUniqueness, "subject is already assigned to this class")

// assignmentWriteError maps constraint violations raised by assignment writes.
func assignmentWriteError(err error, action string) error {
	switch {
	case database.IsUniqueViolation(err) && database.ConstraintName(err) == classSubjectPairConstraint:
		return errDuplicateAssignment
	case database.IsForeignKeyViolation(err):
		return appErrors.Clone(appErrors.ErrNotFound, "class, subject or teacher no longer exists")
	}
	return fmt.Errorf("%s: %w", action, err)
}

// ClassSubjectRepository manages class-subject-teacher assignments.
type ClassSubjectRepository struct {
	db *sqlx.DB
	tx *Coordinator
}

// NewClassSubjectRepository creates a new repository.
func NewClassSubjectRepository(tx *Coordinator) *ClassSubjectRepository {
	return &ClassSubjectRepository{db: tx.DB(), tx: tx}
}

// List returns assignments with class, subject and teacher display names.
func (r *ClassSubjectRepository) List(ctx context.Context, filter models.ClassSubjectFilter) ([]models.ClassSubjectListItem, error) {
	query := `
SELECT cs.class_subject_id, cs.class_id, cs.subject_id, cs.teacher_id, cs.schedule,
       c.class_code, c.title AS class_title, s.name AS subject_name, u.username AS teacher_name
FROM class_subjects cs
JOIN classes c ON c.class_id = cs.class_id
JOIN subjects s ON s.subject_id = cs.subject_id
JOIN teachers t ON t.teacher_id = cs.teacher_id
JOIN users u ON u.user_id = t.user_id
WHERE 1=1`
	var conditions []string
	var args []interface{}
	if filter.ClassID != nil {
		args = append(args, *filter.ClassID)
		conditions = append(conditions, fmt.Sprintf("cs.class_id = $%d", len(args)))
	}
	if filter.SubjectID != nil {
		args = append(args, *filter.SubjectID)
		conditions = append(conditions, fmt.Sprintf("cs.subject_id = $%d", len(args)))
	}
	if filter.TeacherID != nil {
		args = append(args, *filter.TeacherID)
		conditions = append(conditions, fmt.Sprintf("cs.teacher_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY c.class_code ASC, s.name ASC"

	assignments := []models.ClassSubjectListItem{}
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list class subjects: %w", err)
	}
	return assignments, nil
}

// FindByID returns an assignment by id.
func (r *ClassSubjectRepository) FindByID(ctx context.Context, id int64) (*models.ClassSubject, error) {
	const query = `SELECT class_subject_id, class_id, subject_id, teacher_id, schedule FROM class_subjects WHERE class_subject_id = $1`
	var assignment models.ClassSubject
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find class subject: %w", err)
	}
	return &assignment, nil
}

// ExistsPair reports whether another assignment already binds the class and subject.
func (r *ClassSubjectRepository) ExistsPair(ctx context.Context, classID, subjectID, excludeID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM class_subjects WHERE class_id = $1 AND subject_id = $2 AND class_subject_id <> $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, classID, subjectID, excludeID); err != nil {
		return false, fmt.Errorf("check class subject pair: %w", err)
	}
	return exists, nil
}

// Create persists an assignment. A duplicate (class, subject) pair yields a uniqueness error.
func (r *ClassSubjectRepository) Create(ctx context.Context, assignment *models.ClassSubject) error {
	const query = `INSERT INTO class_subjects (class_id, subject_id, teacher_id, schedule) VALUES ($1, $2, $3, $4) RETURNING class_subject_id`
	err := r.db.GetContext(ctx, &assignment.ID, query, assignment.ClassID, assignment.SubjectID, assignment.TeacherID, assignment.Schedule)
	if err != nil {
		return assignmentWriteError(err, "create class subject")
	}
	return nil
}

// Update rewrites the assignment's fields. It returns sql.ErrNoRows when the assignment does not exist.
func (r *ClassSubjectRepository) Update(ctx context.Context, assignment *models.ClassSubject) error {
	const query = `UPDATE class_subjects SET class_id = $1, subject_id = $2, teacher_id = $3, schedule = $4 WHERE class_subject_id = $5`
	res, err := r.db.ExecContext(ctx, query, assignment.ClassID, assignment.SubjectID, assignment.TeacherID, assignment.Schedule, assignment.ID)
	if err != nil {
		return assignmentWriteError(err, "update class subject")
	}
	return expectAffected(res, "update class subject")
}

// Delete removes an assignment unless grade items or periods reference it.
func (r *ClassSubjectRepository) Delete(ctx context.Context, id int64) error {
	return r.tx.Run(ctx, func(tx *sqlx.Tx) error {
		if _, err := lockRow(ctx, tx, `SELECT class_subject_id FROM class_subjects WHERE class_subject_id = $1 FOR UPDATE`, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return err
			}
			return fmt.Errorf("lock class subject: %w", err)
		}
		if err := checkDependencies(ctx, tx, id, classSubjectDeleteDependencies); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM class_subjects WHERE class_subject_id = $1`, id); err != nil {
			return fmt.Errorf("delete class subject: %w", err)
		}
		return nil
	})
}
