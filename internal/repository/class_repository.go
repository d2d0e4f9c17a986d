package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-admin-core/internal/models"
)

var classDeleteDependencies = []dependency{
	{
		name:    "class enrollments",
		query:   `SELECT COUNT(*) FROM enrollments WHERE class_id = $1`,
		message: "class has enrollments",
	},
	{
		name:    "class subject assignments",
		query:   `SELECT COUNT(*) FROM class_subjects WHERE class_id = $1`,
		message: "class has subject assignments",
	},
}

// ClassRepository manages persistence for classes.
type ClassRepository struct {
	db *sqlx.DB
	tx *Coordinator
}

// NewClassRepository constructs a new class repository.
func NewClassRepository(tx *Coordinator) *ClassRepository {
	return &ClassRepository{db: tx.DB(), tx: tx}
}

// List returns classes with the homeroom teacher name and subject and student counts.
func (r *ClassRepository) List(ctx context.Context) ([]models.ClassListItem, error) {
	const query = `
SELECT c.class_id, c.class_code, c.title, c.homeroom_teacher_id,
       hu.username AS homeroom_teacher_name,
       (SELECT COUNT(*) FROM class_subjects cs WHERE cs.class_id = c.class_id) AS subject_count,
       (SELECT COUNT(DISTINCT e.student_id) FROM enrollments e WHERE e.class_id = c.class_id) AS student_count
FROM classes c
LEFT JOIN teachers t ON t.teacher_id = c.homeroom_teacher_id
LEFT JOIN users hu ON hu.user_id = t.user_id
ORDER BY c.class_code ASC, c.title ASC`
	classes := []models.ClassListItem{}
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// FindByID returns a class record by id.
func (r *ClassRepository) FindByID(ctx context.Context, id int64) (*models.Class, error) {
	const query = `SELECT class_id, class_code, title, homeroom_teacher_id FROM classes WHERE class_id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find class: %w", err)
	}
	return &class, nil
}

// Create persists a class record and fills in its id.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	const query = `INSERT INTO classes (class_code, title, homeroom_teacher_id) VALUES ($1, $2, $3) RETURNING class_id`
	if err := r.db.GetContext(ctx, &class.ID, query, class.ClassCode, class.Title, class.HomeroomTeacherID); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update changes only the supplied fields. It returns sql.ErrNoRows when the class does not exist.
func (r *ClassRepository) Update(ctx context.Context, id int64, changes models.ClassRequest) error {
	set := &updateSet{}
	if changes.ClassCode != nil {
		set.add("class_code", *changes.ClassCode)
	}
	if changes.Title != nil {
		set.add("title", *changes.Title)
	}
	switch {
	case changes.ClearHomeroom:
		set.add("homeroom_teacher_id", nil)
	case changes.HomeroomTeacherID != nil:
		set.add("homeroom_teacher_id", *changes.HomeroomTeacherID)
	}
	if set.empty() {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return nil
	}

	query, args := set.statement("classes", "class_id", id)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return expectAffected(res, "update class")
}

// Delete removes a class unless enrollments or subject assignments reference it.
func (r *ClassRepository) Delete(ctx context.Context, id int64) error {
	return r.tx.Run(ctx, func(tx *sqlx.Tx) error {
		if _, err := lockRow(ctx, tx, `SELECT class_id FROM classes WHERE class_id = $1 FOR UPDATE`, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return err
			}
			return fmt.Errorf("lock class: %w", err)
		}
		if err := checkDependencies(ctx, tx, id, classDeleteDependencies); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM classes WHERE class_id = $1`, id); err != nil {
			return fmt.Errorf("delete class: %w", err)
		}
		return nil
	})
}
