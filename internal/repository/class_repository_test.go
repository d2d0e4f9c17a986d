package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-admin-core/internal/models"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
)

func TestClassRepositoryDeleteWithEnrollmentsBlocked(t *testing.T) {
	coord, mock, cleanup := newMockCoordinator(t)
	defer cleanup()
	repo := NewClassRepository(coord)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT class_id FROM classes WHERE class_id = $1 FOR UPDATE")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"class_id"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE class_id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 3)
	assert.True(t, errors.Is(err, appErrors.ErrDependency))
	assert.Equal(t, "class has enrollments", appErrors.FromError(err).Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryDeleteWithAssignmentsBlocked(t *testing.T) {
	coord, mock, cleanup := newMockCoordinator(t)
	defer cleanup()
	repo := NewClassRepository(coord)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT class_id FROM classes WHERE class_id = $1 FOR UPDATE")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"class_id"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE class_id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM class_subjects WHERE class_id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 3)
	assert.True(t, errors.Is(err, appErrors.ErrDependency))
	assert.Equal(t, "class has subject assignments", appErrors.FromError(err).Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryDeleteUnreferenced(t *testing.T) {
	coord, mock, cleanup := newMockCoordinator(t)
	defer cleanup()
	repo := NewClassRepository(coord)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WillReturnRows(sqlmock.NewRows([]string{"class_id"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments")).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_subjects")).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM classes WHERE class_id = $1")).WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryDeleteMissing(t *testing.T) {
	coord, mock, cleanup := newMockCoordinator(t)
	defer cleanup()
	repo := NewClassRepository(coord)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Delete(context.Background(), 9), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryUpdatePartial(t *testing.T) {
	coord, mock, cleanup := newMockCoordinator(t)
	defer cleanup()
	repo := NewClassRepository(coord)

	title := "X IPA 1"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE classes SET title = $1, homeroom_teacher_id = $2 WHERE class_id = $3")).
		WithArgs(title, nil, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), 3, models.ClassRequest{Title: &title, ClearHomeroom: true})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryUpdateMissing(t *testing.T) {
	coord, mock, cleanup := newMockCoordinator(t)
	defer cleanup()
	repo := NewClassRepository(coord)

	code := "2025/2026"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE classes SET class_code = $1 WHERE class_id = $2")).
		WithArgs(code, int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), 9, models.ClassRequest{ClassCode: &code})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestClassRepositoryList(t *testing.T) {
	coord, mock, cleanup := newMockCoordinator(t)
	defer cleanup()
	repo := NewClassRepository(coord)

	teacher := int64(5)
	rows := sqlmock.NewRows([]string{"class_id", "class_code", "title", "homeroom_teacher_id", "homeroom_teacher_name", "subject_count", "student_count"}).
		AddRow(3, "2025/2026", "X IPA 1", teacher, "pak_guru", 4, 31).
		AddRow(4, "2025/2026", "X IPA 2", nil, nil, 0, 0)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN users hu ON hu.user_id = t.user_id")).WillReturnRows(rows)

	classes, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, classes, 2)
	assert.Equal(t, 31, classes[0].StudentCount)
	assert.Equal(t, "pak_guru", *classes[0].HomeroomTeacherName)
	assert.Nil(t, classes[1].HomeroomTeacherID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
