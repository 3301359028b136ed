package model

import "time"

type Task struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	DueDate     time.Time `json:"due_date"`
	ProjectID   uint      `gorm:"not null;index:idx_tasks_project" json:"project_id"`
	AssigneeID  *uint     `gorm:"index:idx_tasks_assignee" json:"assignee_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Task) TableName() string { return "tasks" }
