package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/supertrooper/backend/internal/service"
)

type WorkspaceHandler struct {
	workspaceService *service.WorkspaceService
	auditService     *service.AuditService
}

func NewWorkspaceHandler(workspaceService *service.WorkspaceService, auditService *service.AuditService) *WorkspaceHandler {
	return &WorkspaceHandler{workspaceService: workspaceService, auditService: auditService}
}

// POST /workspace
func (h *WorkspaceHandler) Create(c *gin.Context) {
	var req struct {
		UserID               uint   `json:"userId" binding:"required"`
		WorkspaceName        string `json:"workspaceName" binding:"required,max=255"`
		WorkspaceDescription string `json:"workspaceDescription"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	res, err := h.workspaceService.Create(c.Request.Context(), service.CreateWorkspaceInput{
		UserID:      req.UserID,
		Name:        req.WorkspaceName,
		Description: req.WorkspaceDescription,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	if res.WorkspaceID > 0 {
		LogOperation(h.auditService, c, req.UserID, "create_workspace", "workspace", uint(res.WorkspaceID), nil)
	}
	Success(c, res)
}

// GET /workspace/:workspaceId
func (h *WorkspaceHandler) GetDetails(c *gin.Context) {
	id, ok := pathID(c, "workspaceId")
	if !ok {
		return
	}
	res, err := h.workspaceService.Details(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, res)
}

// PUT /workspace/:workspaceId
func (h *WorkspaceHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "workspaceId")
	if !ok {
		return
	}
	var req struct {
		ProjectName   *string `json:"projectName"`
		ProjectStatus string  `json:"projectStatus" binding:"required"`
		Description   *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	res, err := h.workspaceService.Update(c.Request.Context(), id, service.UpdateWorkspaceInput{
		Name:        req.ProjectName,
		Status:      req.ProjectStatus,
		Description: req.Description,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	if res.Success {
		LogOperation(h.auditService, c, 0, "update_workspace", "workspace", id,
			map[string]interface{}{"status": req.ProjectStatus})
	}
	Success(c, res)
}

// DELETE /workspace/:workspaceId?admin_user_id=
func (h *WorkspaceHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "workspaceId")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}
	res, err := h.workspaceService.Delete(c.Request.Context(), id, actor)
	if err != nil {
		handleError(c, err)
		return
	}
	if res.Done {
		LogOperation(h.auditService, c, actor, "delete_workspace", "workspace", id, nil)
	}
	Success(c, res)
}

// GET /workspaces
func (h *WorkspaceHandler) List(c *gin.Context) {
	res, err := h.workspaceService.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, res)
}
