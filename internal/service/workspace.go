package service

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/supertrooper/backend/internal/model"
	"github.com/supertrooper/backend/internal/sse"
)

const (
	EventWorkspaceCreated = "workspace.created"
	EventWorkspaceUpdated = "workspace.updated"
	EventWorkspaceDeleted = "workspace.deleted"

	workspaceOverview = "Overview of current activities and users in the workspace."
)

// WorkspaceService manages projects through the workspace vocabulary.
type WorkspaceService struct {
	db  *gorm.DB
	hub *sse.Hub
}

func NewWorkspaceService(db *gorm.DB, hub *sse.Hub) *WorkspaceService {
	return &WorkspaceService{db: db, hub: hub}
}

type CreateWorkspaceInput struct {
	UserID      uint
	Name        string
	Description string
}

type CreateWorkspaceResult struct {
	WorkspaceID          int64  `json:"workspaceId"`
	WorkspaceName        string `json:"workspaceName"`
	WorkspaceDescription string `json:"workspaceDescription"`
	CreationStatus       string `json:"creationStatus"`
}

func (s *WorkspaceService) Create(ctx context.Context, in CreateWorkspaceInput) (*CreateWorkspaceResult, error) {
	result := &CreateWorkspaceResult{WorkspaceName: in.Name, WorkspaceDescription: in.Description}

	admin, err := isAdmin(ctx, s.db, in.UserID)
	if err != nil {
		return nil, err
	}
	if !admin {
		result.WorkspaceID = -1
		result.CreationStatus = fmt.Sprintf("Creation failed. User ID %d not authorized or not found.", in.UserID)
		return result, nil
	}

	project := model.Project{Name: in.Name, Description: in.Description, Status: model.ProjectActive, UserID: in.UserID}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		return tx.Create(&model.ProjectMember{ProjectID: project.ID, UserID: in.UserID, Role: model.ProjectRoleOwner}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	s.hub.Publish(ctx, project.ID, EventWorkspaceCreated, projectEvent(project))
	result.WorkspaceID = int64(project.ID)
	result.CreationStatus = "Workspace created successfully!"
	return result, nil
}

type ActiveUser struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

type WorkspaceDetails struct {
	WorkspaceID       uint             `json:"workspaceId"`
	ActiveUsers       []ActiveUser     `json:"activeUsers"`
	OngoingProjects   []ProjectSummary `json:"ongoingProjects"`
	WorkspaceOverview string           `json:"workspaceOverview"`
}

// Details summarises the ACTIVE projects sharing the workspace's owner and
// the distinct users who are members of them.
func (s *WorkspaceService) Details(ctx context.Context, id uint) (*WorkspaceDetails, error) {
	details := &WorkspaceDetails{
		WorkspaceID:       id,
		ActiveUsers:       make([]ActiveUser, 0),
		OngoingProjects:   make([]ProjectSummary, 0),
		WorkspaceOverview: workspaceOverview,
	}
	workspace, err := findProject(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if workspace == nil {
		return details, nil
	}

	var projects []model.Project
	err = s.db.WithContext(ctx).
		Preload("Members", byID).
		Preload("Members.User").
		Where("user_id = ? AND status = ?", workspace.UserID, model.ProjectActive).
		Order("id").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}

	var users []ActiveUser
	for _, p := range projects {
		details.OngoingProjects = append(details.OngoingProjects, ProjectSummary{ID: p.ID, Name: p.Name, Status: p.Status})
		for _, m := range p.Members {
			if m.User != nil {
				users = append(users, ActiveUser{ID: m.User.ID, Email: m.User.Email})
			}
		}
	}
	details.ActiveUsers = append(details.ActiveUsers, lo.UniqBy(users, func(u ActiveUser) uint { return u.ID })...)
	return details, nil
}

type UpdateWorkspaceInput struct {
	Name        *string
	Status      string
	Description *string
}

type WorkspaceView struct {
	ID          uint                `json:"id"`
	Name        string              `json:"name"`
	Status      model.ProjectStatus `json:"status"`
	Description string              `json:"description"`
}

type UpdateWorkspaceResult struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Workspace *WorkspaceView `json:"workspace"`
}

func (s *WorkspaceService) Update(ctx context.Context, id uint, in UpdateWorkspaceInput) (*UpdateWorkspaceResult, error) {
	status := model.ProjectStatus(in.Status)
	if !status.Valid() {
		return &UpdateWorkspaceResult{Message: fmt.Sprintf("Invalid workspace status %s.", in.Status)}, nil
	}
	workspace, err := findProject(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if workspace == nil {
		return &UpdateWorkspaceResult{Message: fmt.Sprintf("No workspace found with ID %d.", id)}, nil
	}

	updates := map[string]interface{}{"status": status}
	workspace.Status = status
	if in.Name != nil && *in.Name != "" {
		updates["name"] = *in.Name
		workspace.Name = *in.Name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
		workspace.Description = *in.Description
	}
	if err := s.db.WithContext(ctx).Model(&model.Project{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update workspace %d: %w", id, err)
	}

	s.hub.Publish(ctx, id, EventWorkspaceUpdated, projectEvent(*workspace))
	return &UpdateWorkspaceResult{
		Success: true,
		Message: "Workspace updated successfully.",
		Workspace: &WorkspaceView{
			ID:          workspace.ID,
			Name:        workspace.Name,
			Status:      workspace.Status,
			Description: workspace.Description,
		},
	}, nil
}

// MessageResult is a {message} reply. Done reports whether anything changed
// and stays off the wire.
type MessageResult struct {
	Message string `json:"message"`
	Done    bool   `json:"-"`
}

// Delete removes the workspace with its tasks and memberships. Admin only.
func (s *WorkspaceService) Delete(ctx context.Context, id, actorID uint) (*MessageResult, error) {
	admin, err := isAdmin(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return &MessageResult{Message: fmt.Sprintf("User ID %d is not authorized to delete workspaces.", actorID)}, nil
	}
	workspace, err := findProject(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if workspace == nil {
		return &MessageResult{Message: fmt.Sprintf("No workspace found with ID %d.", id)}, nil
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteProjectTree(tx, id)
	}); err != nil {
		return nil, fmt.Errorf("delete workspace %d: %w", id, err)
	}

	s.hub.Publish(ctx, id, EventWorkspaceDeleted, projectEvent(*workspace))
	s.hub.Drop(ctx, id)
	return &MessageResult{Message: fmt.Sprintf("Workspace with ID %d has been successfully deleted.", id), Done: true}, nil
}

type ListWorkspacesResult struct {
	Workspaces []ProjectSummary `json:"workspaces"`
}

// List returns workspaces that are ACTIVE or INACTIVE.
func (s *WorkspaceService) List(ctx context.Context) (*ListWorkspacesResult, error) {
	var projects []model.Project
	err := s.db.WithContext(ctx).
		Where("status IN ?", []model.ProjectStatus{model.ProjectActive, model.ProjectInactive}).
		Order("id").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return &ListWorkspacesResult{
		Workspaces: lo.Map(projects, func(p model.Project, _ int) ProjectSummary {
			return ProjectSummary{ID: p.ID, Name: p.Name, Status: p.Status}
		}),
	}, nil
}
