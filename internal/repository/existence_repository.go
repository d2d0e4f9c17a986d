package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ExistenceRepository answers the read-only lookups used by payload validation.
type ExistenceRepository struct {
	db *sqlx.DB
}

// NewExistenceRepository constructs the repository.
func NewExistenceRepository(db *sqlx.DB) *ExistenceRepository {
	return &ExistenceRepository{db: db}
}

// UsernameExists reports whether a user other than excludeUserID has the username.
func (r *ExistenceRepository) UsernameExists(ctx context.Context, username string, excludeUserID int64) (bool, error) {
	return r.exists(ctx, "username", `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND user_id <> $2)`, username, excludeUserID)
}

// ClassCodeExists reports whether any class uses the code.
func (r *ExistenceRepository) ClassCodeExists(ctx context.Context, classCode string) (bool, error) {
	return r.exists(ctx, "class code", `SELECT EXISTS (SELECT 1 FROM classes WHERE class_code = $1)`, classCode)
}

// ClassExists reports whether the class id exists.
func (r *ExistenceRepository) ClassExists(ctx context.Context, classID int64) (bool, error) {
	return r.exists(ctx, "class", `SELECT EXISTS (SELECT 1 FROM classes WHERE class_id = $1)`, classID)
}

// SubjectExists reports whether the subject id exists.
func (r *ExistenceRepository) SubjectExists(ctx context.Context, subjectID int64) (bool, error) {
	return r.exists(ctx, "subject", `SELECT EXISTS (SELECT 1 FROM subjects WHERE subject_id = $1)`, subjectID)
}

// TeacherExists reports whether the teacher id exists.
func (r *ExistenceRepository) TeacherExists(ctx context.Context, teacherID int64) (bool, error) {
	return r.exists(ctx, "teacher", `SELECT EXISTS (SELECT 1 FROM teachers WHERE teacher_id = $1)`, teacherID)
}

// SubjectsExist reports whether every id in the list is a subject.
func (r *ExistenceRepository) SubjectsExist(ctx context.Context, ids []int64) (bool, error) {
	return r.allExist(ctx, "subjects", `SELECT COUNT(*) FROM subjects WHERE subject_id = ANY($1)`, ids)
}

// StudentsExist reports whether every id in the list is a student.
func (r *ExistenceRepository) StudentsExist(ctx context.Context, ids []int64) (bool, error) {
	return r.allExist(ctx, "students", `SELECT COUNT(*) FROM students WHERE student_id = ANY($1)`, ids)
}

func (r *ExistenceRepository) exists(ctx context.Context, what, query string, args ...interface{}) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("check %s exists: %w", what, err)
	}
	return exists, nil
}

func (r *ExistenceRepository) allExist(ctx context.Context, what, query string, ids []int64) (bool, error) {
	unique := distinct(ids)
	if len(unique) == 0 {
		return true, nil
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, pq.Array(unique)); err != nil {
		return false, fmt.Errorf("check %s exist: %w", what, err)
	}
	return count == len(unique), nil
}

func distinct(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
