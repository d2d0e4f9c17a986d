package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-admin-core/internal/models"
)

var subjectDeleteDependencies = []dependency{
	{
		name:    "subject grade items",
		query:   `SELECT COUNT(*) FROM grade_items gi JOIN class_subjects cs ON cs.class_subject_id = gi.class_subject_id WHERE cs.subject_id = $1`,
		message: "subject has grade items",
	},
	{
		name:    "subject class assignments",
		query:   `SELECT COUNT(*) FROM class_subjects WHERE subject_id = $1`,
		message: "subject is assigned to classes",
	},
}

// SubjectRepository manages persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
	tx *Coordinator
}

// NewSubjectRepository constructs a subject repository.
func NewSubjectRepository(tx *Coordinator) *SubjectRepository {
	return &SubjectRepository{db: tx.DB(), tx: tx}
}

// List returns every subject with the titles of the classes it is taught in.
func (r *SubjectRepository) List(ctx context.Context) ([]models.SubjectListItem, error) {
	const query = `
SELECT s.subject_id, s.name,
       COALESCE(ARRAY_AGG(DISTINCT c.title ORDER BY c.title) FILTER (WHERE c.title IS NOT NULL), '{}') AS class_titles
FROM subjects s
LEFT JOIN class_subjects cs ON cs.subject_id = s.subject_id
LEFT JOIN classes c ON c.class_id = cs.class_id
GROUP BY s.subject_id, s.name
ORDER BY s.name ASC`
	subjects := []models.SubjectListItem{}
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindByID returns a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id int64) (*models.Subject, error) {
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, `SELECT subject_id, name FROM subjects WHERE subject_id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find subject: %w", err)
	}
	return &subject, nil
}

// ExistsByName checks whether another subject already uses the name, ignoring case.
func (r *SubjectRepository) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM subjects WHERE LOWER(name) = LOWER($1) AND subject_id <> $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, name, excludeID); err != nil {
		return false, fmt.Errorf("check subject name: %w", err)
	}
	return exists, nil
}

// Create persists a subject and fills in its id.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if err := r.db.GetContext(ctx, &subject.ID, `INSERT INTO subjects (name) VALUES ($1) RETURNING subject_id`, subject.Name); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update renames a subject. It returns sql.ErrNoRows when the subject does not exist.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	res, err := r.db.ExecContext(ctx, `UPDATE subjects SET name = $1 WHERE subject_id = $2`, subject.Name, subject.ID)
	if err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return expectAffected(res, "update subject")
}

// Delete removes a subject unless an assignment or grade item still references it.
func (r *SubjectRepository) Delete(ctx context.Context, id int64) error {
	return r.tx.Run(ctx, func(tx *sqlx.Tx) error {
		if _, err := lockRow(ctx, tx, `SELECT subject_id FROM subjects WHERE subject_id = $1 FOR UPDATE`, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return err
			}
			return fmt.Errorf("lock subject: %w", err)
		}
		if err := checkDependencies(ctx, tx, id, subjectDeleteDependencies); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM teacher_subjects WHERE subject_id = $1`, id); err != nil {
			return fmt.Errorf("delete subject teachers: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM subjects WHERE subject_id = $1`, id); err != nil {
			return fmt.Errorf("delete subject: %w", err)
		}
		return nil
	})
}

func expectAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
