package database

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/supertrooper/backend/internal/logging"
	"github.com/supertrooper/backend/internal/model"
)

func migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "202601050900_initial_schema",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(model.All()...)
			},
			Rollback: func(tx *gorm.DB) error {
				all := model.All()
				for i := len(all) - 1; i >= 0; i-- {
					if err := tx.Migrator().DropTable(all[i]); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			ID: "202602110930_feedback_status",
			Migrate: func(tx *gorm.DB) error {
				if tx.Migrator().HasColumn(&model.Feedback{}, "Status") {
					return nil
				}
				return tx.Migrator().AddColumn(&model.Feedback{}, "Status")
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropColumn(&model.Feedback{}, "Status")
			},
		},
		{
			ID: "202603020815_task_assignee",
			Migrate: func(tx *gorm.DB) error {
				if tx.Migrator().HasColumn(&model.Task{}, "AssigneeID") {
					return nil
				}
				if err := tx.Migrator().AddColumn(&model.Task{}, "AssigneeID"); err != nil {
					return err
				}
				return tx.Migrator().CreateIndex(&model.Task{}, "idx_tasks_assignee")
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropColumn(&model.Task{}, "AssigneeID")
			},
		},
	}
}

// Migrate applies pending schema migrations.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrations())
	if err := m.Migrate(); err != nil {
		return err
	}
	logging.Log.Debug("schema migrations applied")
	return nil
}
