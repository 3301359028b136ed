package service

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/supertrooper/backend/internal/logging"
	"github.com/supertrooper/backend/internal/model"
	"github.com/supertrooper/backend/internal/notify"
	"github.com/supertrooper/backend/internal/sse"
)

const (
	EventProjectCreated = "project.created"
	EventProjectUpdated = "project.updated"
	EventProjectDeleted = "project.deleted"
	EventTaskCreated    = "task.created"
)

type ProjectService struct {
	db       *gorm.DB
	notifier notify.Notifier
	hub      *sse.Hub
}

func NewProjectService(db *gorm.DB, notifier notify.Notifier, hub *sse.Hub) *ProjectService {
	return &ProjectService{db: db, notifier: notifier, hub: hub}
}

type CreateProjectInput struct {
	Name        string
	Description string
	OwnerID     uint
	MemberIDs   []uint
}

type CreateProjectResult struct {
	ProjectID            uint   `json:"projectId"`
	Status               string `json:"status"`
	RoleAssignmentStatus string `json:"roleAssignmentStatus"`
}

// Create stores the project, an OWNER membership for the creator and a MEMBER
// membership for every other distinct existing user in MemberIDs.
func (s *ProjectService) Create(ctx context.Context, in CreateProjectInput) (*CreateProjectResult, error) {
	owner, err := findUser(ctx, s.db, in.OwnerID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return &CreateProjectResult{Status: "failed", RoleAssignmentStatus: "skipped"}, nil
	}

	ids := lo.Uniq(lo.Filter(in.MemberIDs, func(id uint, _ int) bool { return id != 0 && id != owner.ID }))
	var members []model.User
	if len(ids) > 0 {
		if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&members).Error; err != nil {
			return nil, err
		}
	}

	project := model.Project{
		Name:        in.Name,
		Description: in.Description,
		Status:      model.ProjectActive,
		UserID:      owner.ID,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		rows := lo.Map(members, func(u model.User, _ int) model.ProjectMember {
			return model.ProjectMember{ProjectID: project.ID, UserID: u.ID, Role: model.ProjectRoleMember}
		})
		rows = append(rows, model.ProjectMember{ProjectID: project.ID, UserID: owner.ID, Role: model.ProjectRoleOwner})
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.hub.Publish(ctx, project.ID, EventProjectCreated, projectEvent(project))

	assignment := "skipped"
	if len(members) > 0 {
		assignment = "success"
		for _, m := range members {
			err := s.notifier.NotifyRoleAssigned(ctx, notify.RoleAssignedEvent{
				ProjectID:   project.ID,
				ProjectName: project.Name,
				OwnerEmail:  owner.Email,
				MemberEmail: m.Email,
				Role:        string(model.ProjectRoleMember),
			})
			if err != nil {
				logging.Log.Warnf("queue role notification for user %d: %v", m.ID, err)
				assignment = "partial"
			}
		}
	}
	return &CreateProjectResult{ProjectID: project.ID, Status: "success", RoleAssignmentStatus: assignment}, nil
}

func projectEvent(p model.Project) map[string]interface{} {
	return map[string]interface{}{"id": p.ID, "name": p.Name, "status": p.Status}
}

type TaskBrief struct {
	Title       string    `json:"title"`
	DueDate     time.Time `json:"dueDate"`
	Description string    `json:"description"`
}

type ProjectWithTasks struct {
	ID     uint                `json:"id"`
	Name   string              `json:"name"`
	Status model.ProjectStatus `json:"status"`
	Tasks  []TaskBrief         `json:"tasks"`
}

type ListProjectsResult struct {
	Projects []ProjectWithTasks `json:"projects"`
}

func byID(db *gorm.DB) *gorm.DB { return db.Order("id") }

func (s *ProjectService) List(ctx context.Context) (*ListProjectsResult, error) {
	var projects []model.Project
	if err := s.db.WithContext(ctx).Preload("Tasks", byID).Order("id").Find(&projects).Error; err != nil {
		return nil, err
	}
	result := &ListProjectsResult{Projects: make([]ProjectWithTasks, 0, len(projects))}
	for _, p := range projects {
		item := ProjectWithTasks{ID: p.ID, Name: p.Name, Status: p.Status, Tasks: make([]TaskBrief, 0, len(p.Tasks))}
		for _, t := range p.Tasks {
			item.Tasks = append(item.Tasks, TaskBrief{Title: t.Title, DueDate: t.DueDate, Description: t.Description})
		}
		result.Projects = append(result.Projects, item)
	}
	return result, nil
}

type MemberView struct {
	UserID uint              `json:"userId"`
	Email  string            `json:"email"`
	Role   model.ProjectRole `json:"role"`
}

type TaskView struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	ProjectID   uint      `json:"projectId"`
}

type ProjectDetail struct {
	ID          uint                `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Status      model.ProjectStatus `json:"status"`
	Deadline    *time.Time          `json:"deadline"`
	Owner       *model.UserBrief    `json:"owner"`
	Members     []MemberView        `json:"members"`
	Tasks       []TaskView          `json:"tasks"`
}

func toTaskView(t model.Task) TaskView {
	return TaskView{ID: t.ID, Title: t.Title, Description: t.Description, DueDate: t.DueDate, ProjectID: t.ProjectID}
}

func (s *ProjectService) Get(ctx context.Context, id uint) (*ProjectDetail, error) {
	var project model.Project
	err := s.db.WithContext(ctx).
		Preload("Owner").
		Preload("Members", byID).
		Preload("Members.User").
		Preload("Tasks", byID).
		First(&project, id).Error
	if err != nil {
		if isRecordNotFound(err) {
			return nil, notFound("No project found with ID %d", id)
		}
		return nil, err
	}

	detail := &ProjectDetail{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		Status:      project.Status,
		Deadline:    project.Deadline,
		Members:     make([]MemberView, 0, len(project.Members)),
		Tasks:       lo.Map(project.Tasks, func(t model.Task, _ int) TaskView { return toTaskView(t) }),
	}
	if project.Owner != nil {
		brief := project.Owner.Brief()
		detail.Owner = &brief
	}
	for _, m := range project.Members {
		view := MemberView{UserID: m.UserID, Role: m.Role}
		if m.User != nil {
			view.Email = m.User.Email
		}
		detail.Members = append(detail.Members, view)
	}
	return detail, nil
}

type UpdateProjectInput struct {
	Name        string
	Description *string
	Deadline    *time.Time
}

type UpdateProjectResult struct {
	Success bool            `json:"success"`
	Project *ProjectSummary `json:"project"`
}

func (s *ProjectService) Update(ctx context.Context, id uint, in UpdateProjectInput) (*UpdateProjectResult, error) {
	project, err := findProject(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return &UpdateProjectResult{Success: false}, nil
	}

	updates := map[string]interface{}{"name": in.Name}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Deadline != nil {
		updates["deadline"] = *in.Deadline
	}
	if err := s.db.WithContext(ctx).Model(project).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update project %d: %w", id, err)
	}
	project.Name = in.Name

	s.hub.Publish(ctx, project.ID, EventProjectUpdated, projectEvent(*project))
	return &UpdateProjectResult{
		Success: true,
		Project: &ProjectSummary{ID: project.ID, Name: project.Name, Status: project.Status},
	}, nil
}

// Delete removes the project with its memberships and tasks. Admin only.
func (s *ProjectService) Delete(ctx context.Context, id, actorID uint) (*StatusResult, error) {
	admin, err := isAdmin(ctx, s.db, actorID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return &StatusResult{Message: "User is not authorized to delete projects."}, nil
	}
	project, err := findProject(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return &StatusResult{Message: "Project not found."}, nil
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteProjectTree(tx, id)
	}); err != nil {
		return nil, fmt.Errorf("delete project %d: %w", id, err)
	}

	s.hub.Publish(ctx, id, EventProjectDeleted, projectEvent(*project))
	s.hub.Drop(ctx, id)
	return &StatusResult{Success: true, Message: "Project deleted successfully."}, nil
}

type ProjectTasksResult struct {
	Tasks []TaskView `json:"tasks"`
}

// Tasks lists the project's tasks. Admins always see them; other roles only
// when userID is a member of the project.
func (s *ProjectService) Tasks(ctx context.Context, id uint, role model.Role, userID uint) (*ProjectTasksResult, error) {
	if !role.Valid() {
		return nil, invalid("Invalid role %s.", role)
	}
	result := &ProjectTasksResult{Tasks: make([]TaskView, 0)}

	if role != model.RoleAdmin {
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.ProjectMember{}).
			Where("project_id = ? AND user_id = ?", id, userID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return result, nil
		}
	}

	var tasks []model.Task
	if err := s.db.WithContext(ctx).Where("project_id = ?", id).Order("id").Find(&tasks).Error; err != nil {
		return nil, err
	}
	for _, t := range tasks {
		result.Tasks = append(result.Tasks, toTaskView(t))
	}
	return result, nil
}

type AddTaskInput struct {
	Description    string
	Deadline       time.Time
	AssignedUserID uint
}

type AddTaskResult struct {
	Success     bool       `json:"success"`
	Message     string     `json:"message"`
	TaskID      uint       `json:"task_id"`
	TaskDetails *TaskBrief `json:"task_details"`
}

const maxTaskTitle = 255

func (s *ProjectService) AddTask(ctx context.Context, projectID uint, in AddTaskInput) (*AddTaskResult, error) {
	project, err := findProject(ctx, s.db, projectID)
	if err != nil {
		return nil, err
	}
	assignee, err := findUser(ctx, s.db, in.AssignedUserID)
	if err != nil {
		return nil, err
	}
	if project == nil || assignee == nil {
		return &AddTaskResult{Message: "Project or User does not exist."}, nil
	}

	task := model.Task{
		Title:       truncateRunes(in.Description, maxTaskTitle),
		Description: in.Description,
		DueDate:     in.Deadline,
		ProjectID:   project.ID,
		AssigneeID:  &assignee.ID,
	}
	if err := s.db.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.hub.Publish(ctx, project.ID, EventTaskCreated, toTaskView(task))
	if err := s.notifier.NotifyTaskAssigned(ctx, notify.TaskAssignedEvent{
		TaskID:        task.ID,
		Title:         task.Title,
		ProjectName:   project.Name,
		AssigneeEmail: assignee.Email,
		DueDate:       task.DueDate.Format(time.DateOnly),
	}); err != nil {
		logging.Log.Warnf("queue task notification for task %d: %v", task.ID, err)
	}

	return &AddTaskResult{
		Success:     true,
		Message:     "Task successfully added to the project.",
		TaskID:      task.ID,
		TaskDetails: &TaskBrief{Title: task.Title, DueDate: task.DueDate, Description: task.Description},
	}, nil
}

type PublicProject struct {
	ID          uint                `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Status      model.ProjectStatus `json:"status"`
}

func (s *ProjectService) PublicInfo(ctx context.Context, id uint) (*PublicProject, error) {
	project, err := findProject(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, notFound("No project found with ID %d", id)
	}
	return &PublicProject{ID: project.ID, Name: project.Name, Description: project.Description, Status: project.Status}, nil
}

// Exists reports whether a project row is present.
func (s *ProjectService) Exists(ctx context.Context, id uint) (bool, error) {
	project, err := findProject(ctx, s.db, id)
	return project != nil, err
}
