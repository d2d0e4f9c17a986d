package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-admin-core/internal/models"
	"github.com/noah-isme/sma-admin-core/pkg/database"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
)

const userColumns = `u.user_id, u.username, u.password_hash, u.role_id, r.name AS role, u.created_at`

var (
	studentDeleteDependencies = []dependency{
		{
			name:    "student grades",
			query:   `SELECT COUNT(*) FROM grades g JOIN enrollments e ON e.enrollment_id = g.enrollment_id WHERE e.student_id = $1`,
			message: "student has recorded grades",
		},
		{
			name:    "student attendance",
			query:   `SELECT COUNT(*) FROM attendance a JOIN enrollments e ON e.enrollment_id = a.enrollment_id WHERE e.student_id = $1`,
			message: "student has attendance records",
		},
	}
	teacherDeleteDependencies = []dependency{
		{
			name:    "teacher class subjects",
			query:   `SELECT COUNT(*) FROM class_subjects WHERE teacher_id = $1`,
			message: "teacher has assigned classes",
		},
		{
			name:    "teacher homerooms",
			query:   `SELECT COUNT(*) FROM classes WHERE homeroom_teacher_id = $1`,
			message: "teacher is homeroom teacher of a class",
		},
	}
)

const usernameConstraint = "users_username_key"

// UserRepository provides database access for users and their role sub-records.
type UserRepository struct {
	db *sqlx.DB
	tx *Coordinator
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(tx *Coordinator) *UserRepository {
	return &UserRepository{db: tx.DB(), tx: tx}
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u JOIN roles r ON r.role_id = u.role_id WHERE u.user_id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// FindByUsername returns a user by exact username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u JOIN roles r ON r.role_id = u.role_id WHERE u.username = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return &user, nil
}

// FindDetail returns a user together with its role sub-record and links.
func (r *UserRepository) FindDetail(ctx context.Context, id int64) (*models.UserDetail, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &models.UserDetail{User: *user}

	switch user.Role {
	case models.RoleStudent:
		var student models.Student
		err = r.db.GetContext(ctx, &student, `SELECT student_id, user_id, first_name, last_name, dob, class_code FROM students WHERE user_id = $1`, id)
		if err == nil {
			detail.Student = &student
		}
	case models.RoleTeacher:
		var teacher models.Teacher
		err = r.db.GetContext(ctx, &teacher, `SELECT teacher_id, user_id FROM teachers WHERE user_id = $1`, id)
		if err == nil {
			detail.Teacher = &teacher
			err = r.db.SelectContext(ctx, &detail.SubjectIDs, `SELECT subject_id FROM teacher_subjects WHERE teacher_id = $1 ORDER BY subject_id`, teacher.ID)
		}
	case models.RoleParent:
		var parent models.Parent
		err = r.db.GetContext(ctx, &parent, `SELECT parent_id, user_id FROM parents WHERE user_id = $1`, id)
		if err == nil {
			detail.Parent = &parent
			err = r.db.SelectContext(ctx, &detail.StudentIDs, `SELECT student_id FROM student_parents WHERE parent_id = $1 ORDER BY student_id`, parent.ID)
		}
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load %s sub-record: %w", strings.ToLower(string(user.Role)), err)
	}
	return detail, nil
}

// List returns users with their role name and, for students, the full name.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.UserListItem, int, error) {
	base := `FROM users u JOIN roles r ON r.role_id = u.role_id LEFT JOIN students s ON s.user_id = u.user_id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("r.name = $%d", len(args)+1))
		args = append(args, string(*filter.Role))
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(u.username) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf(`SELECT u.user_id, u.username, r.name AS role, CASE WHEN s.student_id IS NULL THEN NULL ELSE s.first_name || ' ' || s.last_name END AS student_name, u.created_at %s ORDER BY u.username ASC LIMIT %d OFFSET %d`, base, limit, offset)

	users := []models.UserListItem{}
	if err := r.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return users, total, nil
}

// Create inserts the user row and its role sub-record in one transaction.
func (r *UserRepository) Create(ctx context.Context, input models.NewUser) (*models.User, error) {
	return RunInTransaction(ctx, r.tx, func(tx *sqlx.Tx) (*models.User, error) {
		user := &models.User{Username: input.Username, PasswordHash: input.PasswordHash, Role: input.Role, RoleID: input.Role.ID()}
		const insertUser = `INSERT INTO users (username, password_hash, role_id) VALUES ($1, $2, $3) RETURNING user_id, created_at`
		if err := tx.QueryRowxContext(ctx, insertUser, user.Username, user.PasswordHash, user.RoleID).Scan(&user.ID, &user.CreatedAt); err != nil {
			if database.IsUniqueViolation(err) && database.ConstraintName(err) == usernameConstraint {
				return nil, appErrors.Clone(appErrors.ErrUniqueness, "username already exists")
			}
			return nil, fmt.Errorf("insert user: %w", err)
		}

		switch input.Role {
		case models.RoleStudent:
			if input.Student == nil {
				return nil, appErrors.Clone(appErrors.ErrRequiredField, "student details are required")
			}
			const insertStudent = `INSERT INTO students (user_id, first_name, last_name, dob, class_code) VALUES ($1, $2, $3, $4, $5)`
			s := input.Student
			if _, err := tx.ExecContext(ctx, insertStudent, user.ID, s.FirstName, s.LastName, s.DOB, s.ClassCode); err != nil {
				return nil, fmt.Errorf("insert student: %w", err)
			}
		case models.RoleTeacher:
			var teacherID int64
			if err := tx.GetContext(ctx, &teacherID, `INSERT INTO teachers (user_id) VALUES ($1) RETURNING teacher_id`, user.ID); err != nil {
				return nil, fmt.Errorf("insert teacher: %w", err)
			}
			if err := insertTeacherSubjects(ctx, tx, teacherID, input.SubjectIDs); err != nil {
				return nil, err
			}
		case models.RoleParent:
			var parentID int64
			if err := tx.GetContext(ctx, &parentID, `INSERT INTO parents (user_id) VALUES ($1) RETURNING parent_id`, user.ID); err != nil {
				return nil, fmt.Errorf("insert parent: %w", err)
			}
			if err := insertParentLinks(ctx, tx, parentID, input.StudentIDs); err != nil {
				return nil, err
			}
		}
		return user, nil
	})
}

// Update applies the changes to the user row and to the sub-record of the
// stored role. It returns sql.ErrNoRows when the user does not exist.
func (r *UserRepository) Update(ctx context.Context, id int64, changes models.UserChanges) error {
	return r.tx.Run(ctx, func(tx *sqlx.Tx) error {
		var stored models.User
		lock := `SELECT ` + userColumns + ` FROM users u JOIN roles r ON r.role_id = u.role_id WHERE u.user_id = $1 FOR UPDATE OF u`
		if err := tx.GetContext(ctx, &stored, lock, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return err
			}
			return fmt.Errorf("lock user: %w", err)
		}

		if changes.Username != nil && *changes.Username != stored.Username {
			if _, err := tx.ExecContext(ctx, `UPDATE users SET username = $1 WHERE user_id = $2`, *changes.Username, id); err != nil {
				if database.IsUniqueViolation(err) && database.ConstraintName(err) == usernameConstraint {
					return appErrors.Clone(appErrors.ErrUniqueness, "username already exists")
				}
				return fmt.Errorf("update username: %w", err)
			}
		}

		switch stored.Role {
		case models.RoleStudent:
			set := &updateSet{}
			if changes.FirstName != nil {
				set.add("first_name", *changes.FirstName)
			}
			if changes.LastName != nil {
				set.add("last_name", *changes.LastName)
			}
			if changes.DOB != nil {
				set.add("dob", *changes.DOB)
			}
			if changes.ClassCode != nil {
				set.add("class_code", *changes.ClassCode)
			}
			if set.empty() {
				return nil
			}
			query, args := set.statement("students", "user_id", id)
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("update student: %w", err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("update student rows: %w", err)
			}
			if affected == 0 {
				return fmt.Errorf("update student: user %d has no student record", id)
			}
		case models.RoleTeacher:
			if changes.SubjectIDs == nil {
				return nil
			}
			var teacherID int64
			if err := tx.GetContext(ctx, &teacherID, `SELECT teacher_id FROM teachers WHERE user_id = $1`, id); err != nil {
				return fmt.Errorf("find teacher: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM teacher_subjects WHERE teacher_id = $1`, teacherID); err != nil {
				return fmt.Errorf("clear teacher subjects: %w", err)
			}
			return insertTeacherSubjects(ctx, tx, teacherID, changes.SubjectIDs)
		case models.RoleParent:
			if changes.StudentIDs == nil {
				return nil
			}
			var parentID int64
			if err := tx.GetContext(ctx, &parentID, `SELECT parent_id FROM parents WHERE user_id = $1`, id); err != nil {
				return fmt.Errorf("find parent: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM student_parents WHERE parent_id = $1`, parentID); err != nil {
				return fmt.Errorf("clear parent links: %w", err)
			}
			return insertParentLinks(ctx, tx, parentID, changes.StudentIDs)
		}
		return nil
	})
}

// ResetPassword overwrites the password hash. It reports false when no user has the id.
func (r *UserRepository) ResetPassword(ctx context.Context, id int64, passwordHash string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE user_id = $2`, passwordHash, id)
	if err != nil {
		return false, fmt.Errorf("reset password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reset password rows: %w", err)
	}
	return affected > 0, nil
}

// Delete removes the user, its sub-record and its links after the guards of
// its stored role pass. It returns sql.ErrNoRows when the user does not exist.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.tx.Run(ctx, func(tx *sqlx.Tx) error {
		var roleID int16
		if err := tx.GetContext(ctx, &roleID, `SELECT role_id FROM users WHERE user_id = $1 FOR UPDATE`, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return err
			}
			return fmt.Errorf("lock user: %w", err)
		}
		role, _ := models.RoleFromID(roleID)

		var err error
		switch role {
		case models.RoleStudent:
			err = deleteStudentRecord(ctx, tx, id)
		case models.RoleTeacher:
			err = deleteTeacherRecord(ctx, tx, id)
		case models.RoleParent:
			err = deleteParentRecord(ctx, tx, id)
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, id); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
}

func deleteStudentRecord(ctx context.Context, tx *sqlx.Tx, userID int64) error {
	studentID, err := lockRow(ctx, tx, `SELECT student_id FROM students WHERE user_id = $1 FOR UPDATE`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lock student: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `SELECT enrollment_id FROM enrollments WHERE student_id = $1 FOR UPDATE`, studentID); err != nil {
		return fmt.Errorf("lock enrollments: %w", err)
	}
	if err := checkDependencies(ctx, tx, studentID, studentDeleteDependencies); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM student_parents WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("delete student parent links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM enrollments WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("delete enrollments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM students WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

func deleteTeacherRecord(ctx context.Context, tx *sqlx.Tx, userID int64) error {
	teacherID, err := lockRow(ctx, tx, `SELECT teacher_id FROM teachers WHERE user_id = $1 FOR UPDATE`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lock teacher: %w", err)
	}
	if err := checkDependencies(ctx, tx, teacherID, teacherDeleteDependencies); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM teacher_subjects WHERE teacher_id = $1`, teacherID); err != nil {
		return fmt.Errorf("delete teacher subjects: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM teachers WHERE teacher_id = $1`, teacherID); err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	return nil
}

func deleteParentRecord(ctx context.Context, tx *sqlx.Tx, userID int64) error {
	parentID, err := lockRow(ctx, tx, `SELECT parent_id FROM parents WHERE user_id = $1 FOR UPDATE`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lock parent: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM student_parents WHERE parent_id = $1`, parentID); err != nil {
		return fmt.Errorf("delete parent links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM parents WHERE parent_id = $1`, parentID); err != nil {
		return fmt.Errorf("delete parent: %w", err)
	}
	return nil
}

func insertTeacherSubjects(ctx context.Context, tx *sqlx.Tx, teacherID int64, subjectIDs []int64) error {
	if len(subjectIDs) == 0 {
		return nil
	}
	const query = `INSERT INTO teacher_subjects (teacher_id, subject_id) SELECT $1, UNNEST($2::BIGINT[]) ON CONFLICT DO NOTHING`
	if _, err := tx.ExecContext(ctx, query, teacherID, pq.Array(subjectIDs)); err != nil {
		return fmt.Errorf("insert teacher subjects: %w", err)
	}
	return nil
}

func insertParentLinks(ctx context.Context, tx *sqlx.Tx, parentID int64, studentIDs []int64) error {
	if len(studentIDs) == 0 {
		return nil
	}
	const query = `INSERT INTO student_parents (student_id, parent_id) SELECT UNNEST($1::BIGINT[]), $2 ON CONFLICT DO NOTHING`
	if _, err := tx.ExecContext(ctx, query, pq.Array(studentIDs), parentID); err != nil {
		return fmt.Errorf("insert parent links: %w", err)
	}
	return nil
}
