package model

import "time"

type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "ACTIVE"
	ProjectInactive ProjectStatus = "INACTIVE"
	ProjectArchived ProjectStatus = "ARCHIVED"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectInactive, ProjectArchived:
		return true
	}
	return false
}

// Project doubles as a workspace.
type Project struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Name        string        `gorm:"type:varchar(255);not null" json:"name"`
	Description string        `gorm:"type:text" json:"description"`
	Status      ProjectStatus `gorm:"type:varchar(10);not null;default:ACTIVE;index:idx_projects_status" json:"status"`
	UserID      uint          `gorm:"not null;index:idx_projects_owner" json:"user_id"`
	Deadline    *time.Time    `json:"deadline"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Owner   *User           `gorm:"foreignKey:UserID" json:"owner,omitempty"`
	Members []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	Tasks   []Task          `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`
}

func (Project) TableName() string { return "projects" }
