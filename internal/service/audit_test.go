package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/supertrooper/backend/internal/model"
)

func TestAuditRecordAndList(t *testing.T) {
	svc := NewAuditService(newTestDB(t))
	ctx := context.Background()
	for i, action := range []string{"create_project", "delete_project", "create_project"} {
		require.NoError(t, svc.Record(ctx, &model.OperationLog{
			UserID:       uint(i%2 + 1),
			Action:       action,
			ResourceType: "project",
			ResourceID:   uint(i + 1),
			Detail:       datatypes.JSONMap{"n": i},
		}))
	}

	logs, total, err := svc.List(ctx, AuditFilter{Action: "create_project"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, logs, 2)
	assert.Equal(t, uint(3), logs[0].ResourceID)

	uid := uint(2)
	logs, total, err = svc.List(ctx, AuditFilter{UserID: &uid}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "delete_project", logs[0].Action)

	page, total, err := svc.List(ctx, AuditFilter{}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 1)
}

func TestAuditStats(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuditService(db)
	admin := seedUser(t, db, "admin@example.com", model.RoleAdmin)
	seedUser(t, db, "u1@example.com", model.RoleUser)
	seedUser(t, db, "u2@example.com", model.RoleUser)
	seedProject(t, db, admin.ID, "a", model.ProjectActive)
	seedProject(t, db, admin.ID, "b", model.ProjectArchived)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.UsersByRole[model.RoleAdmin])
	assert.Equal(t, int64(2), stats.UsersByRole[model.RoleUser])
	assert.Equal(t, int64(1), stats.ProjectsByStatus[model.ProjectActive])
	assert.Equal(t, int64(1), stats.ProjectsByStatus[model.ProjectArchived])
	assert.Zero(t, stats.ProjectsByStatus[model.ProjectInactive])
}
