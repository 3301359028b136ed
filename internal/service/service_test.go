package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/supertrooper/backend/internal/database"
	"github.com/supertrooper/backend/internal/model"
	"github.com/supertrooper/backend/internal/notify"
)

const (
	testSecret = "test-secret"
	testAESKey = "0123456789abcdef0123456789abcdef"
)

func init() {
	passwordCost = bcrypt.MinCost
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string, role model.Role) model.User {
	t.Helper()
	u := model.User{Name: email, Email: email, Password: "x", Role: role}
	require.NoError(t, db.Create(&u).Error)
	require.NoError(t, db.Create(&model.Profile{UserID: u.ID, Bio: "bio of " + email, Avatar: email + ".png"}).Error)
	return u
}

func seedProject(t *testing.T, db *gorm.DB, ownerID uint, name string, status model.ProjectStatus) model.Project {
	t.Helper()
	p := model.Project{Name: name, UserID: ownerID, Status: status}
	require.NoError(t, db.Create(&p).Error)
	require.NoError(t, db.Create(&model.ProjectMember{ProjectID: p.ID, UserID: ownerID, Role: model.ProjectRoleOwner}).Error)
	return p
}

func count(t *testing.T, db *gorm.DB, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(m).Where(query, args...).Count(&n).Error)
	return n
}

type recordingNotifier struct {
	mu       sync.Mutex
	roles    []notify.RoleAssignedEvent
	tasks    []notify.TaskAssignedEvent
	feedback []notify.FeedbackStatusEvent
}

func (r *recordingNotifier) NotifyRoleAssigned(_ context.Context, e notify.RoleAssignedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles = append(r.roles, e)
	return nil
}

func (r *recordingNotifier) NotifyTaskAssigned(_ context.Context, e notify.TaskAssignedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, e)
	return nil
}

func (r *recordingNotifier) NotifyFeedbackStatus(_ context.Context, e notify.FeedbackStatusEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedback = append(r.feedback, e)
	return nil
}
