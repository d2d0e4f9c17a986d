package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-admin-core/internal/models"
)

func TestAuditRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	actor := int64(1)
	resource := int64(10)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO audit_logs (actor_id, action, resource, resource_id, new_values)")).
		WithArgs(&actor, models.AuditActionDelete, models.AuditResourceUser, &resource, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(99, now))

	log := &models.AuditLog{ActorID: &actor, Action: models.AuditActionDelete, Resource: models.AuditResourceUser, ResourceID: &resource, NewValues: types.JSONText(`{"username":"ana_p"}`)}
	require.NoError(t, repo.CreateAuditLog(context.Background(), log))
	assert.Equal(t, int64(99), log.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryListRecentClampsLimit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_logs ORDER BY id DESC LIMIT $1")).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "actor_id", "action", "resource", "resource_id", "new_values", "created_at"}).
			AddRow(1, nil, "LOGIN", "user", 1, nil, time.Now()))

	logs, err := repo.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].ActorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
