package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/supertrooper/backend/internal/model"
	"github.com/supertrooper/backend/internal/service"
	"github.com/supertrooper/backend/internal/sse"
)

type ProjectHandler struct {
	projectService *service.ProjectService
	auditService   *service.AuditService
	hub            *sse.Hub
}

func NewProjectHandler(projectService *service.ProjectService, auditService *service.AuditService, hub *sse.Hub) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, auditService: auditService, hub: hub}
}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,max=255"`
		Description string `json:"description"`
		UserID      uint   `json:"userId" binding:"required"`
		Members     []uint `json:"members"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	res, err := h.projectService.Create(c.Request.Context(), service.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     req.UserID,
		MemberIDs:   req.Members,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	if res.ProjectID != 0 {
		LogOperation(h.auditService, c, req.UserID, "create_project", "project", res.ProjectID,
			map[string]interface{}{"name": req.Name, "members": len(req.Members)})
	}
	Success(c, res)
}

// GET /projects
func (h *ProjectHandler) List(c *gin.Context) {
	res, err := h.projectService.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, res)
}

// GET /projects/:id
func (h *ProjectHandler) GetDetail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.projectService.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, res)
}

// PUT /projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name        string  `json:"name" binding:"required,max=255"`
		Description *string `json:"description"`
		Deadline    *string `json:"deadline"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	in := service.UpdateProjectInput{Name: req.Name, Description: req.Description}
	if req.Deadline != nil && *req.Deadline != "" {
		t, err := parseDate(*req.Deadline)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		in.Deadline = &t
	}

	res, err := h.projectService.Update(c.Request.Context(), id, in)
	if err != nil {
		handleError(c, err)
		return
	}
	if res.Success {
		LogOperation(h.auditService, c, 0, "update_project", "project", id, map[string]interface{}{"name": req.Name})
	}
	Success(c, res)
}

// DELETE /projects/:id?admin_user_id=
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}
	res, err := h.projectService.Delete(c.Request.Context(), id, actor)
	if err != nil {
		handleError(c, err)
		return
	}
	if res.Success {
		LogOperation(h.auditService, c, actor, "delete_project", "project", id, nil)
	}
	Success(c, res)
}

// GET /projects/:id/tasks?role=&user_id=
func (h *ProjectHandler) Tasks(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, ok := queryID(c, "user_id")
	if !ok {
		return
	}
	var userID uint
	if v != nil {
		userID = *v
	}
	res, err := h.projectService.Tasks(c.Request.Context(), id, model.Role(c.Query("role")), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, res)
}

// POST /projects/:id/tasks
func (h *ProjectHandler) AddTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Description    string `json:"description" binding:"required"`
		Deadline       string `json:"deadline" binding:"required"`
		AssignedUserID uint   `json:"assigned_user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	deadline, err := parseDate(req.Deadline)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	res, err := h.projectService.AddTask(c.Request.Context(), id, service.AddTaskInput{
		Description:    req.Description,
		Deadline:       deadline,
		AssignedUserID: req.AssignedUserID,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	if res.Success {
		LogOperation(h.auditService, c, 0, "add_task", "task", res.TaskID,
			map[string]interface{}{"project_id": id, "assignee": req.AssignedUserID})
	}
	Success(c, res)
}

// GET /public/projects/:id
func (h *ProjectHandler) PublicInfo(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.projectService.PublicInfo(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, res)
}
