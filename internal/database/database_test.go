package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supertrooper/backend/internal/config"
	"github.com/supertrooper/backend/internal/model"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	require.NoError(t, Ping(db))
	require.NoError(t, Migrate(db))

	for _, m := range model.All() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}
	assert.True(t, db.Migrator().HasColumn(&model.Feedback{}, "Status"))
	assert.True(t, db.Migrator().HasColumn(&model.Task{}, "AssigneeID"))

	// A second run is a no-op.
	require.NoError(t, Migrate(db))
}

func TestMigrateCreatesUsableSchema(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "schema.db"))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	u := model.User{Name: "ada", Email: "ada@example.com", Password: "x"}
	require.NoError(t, db.Create(&u).Error)
	assert.Equal(t, model.RoleUser, u.Role)

	dup := model.User{Name: "ada2", Email: "ada@example.com", Password: "x"}
	assert.Error(t, db.Create(&dup).Error)

	p := model.Project{Name: "p", UserID: u.ID}
	require.NoError(t, db.Create(&p).Error)
	assert.Equal(t, model.ProjectActive, p.Status)

	orphan := model.Project{Name: "orphan", UserID: 9999}
	assert.Error(t, db.Create(&orphan).Error, "foreign keys are enforced")
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}
