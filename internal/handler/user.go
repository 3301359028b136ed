package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/supertrooper/backend/internal/logging"
	"github.com/supertrooper/backend/internal/middleware"
	"github.com/supertrooper/backend/internal/model"
	"github.com/supertrooper/backend/internal/service"
)

type UserHandler struct {
	userService  *service.UserService
	auditService *service.AuditService
}

func NewUserHandler(userService *service.UserService, auditService *service.AuditService) *UserHandler {
	return &UserHandler{userService: userService, auditService: auditService}
}

// POST /users
func (h *UserHandler) Create(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required,max=128"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	res, err := h.userService.Create(c.Request.Context(), service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	LogOperation(h.auditService, c, res.UserID, "create_user", "user", res.UserID, nil)
	Success(c, res)
}

// POST /users/authenticate
func (h *UserHandler) Authenticate(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	res, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, res)
}

// GET /users/:userId
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "userId")
	if !ok {
		return
	}
	res, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, res)
}

// GET /users
func (h *UserHandler) List(c *gin.Context) {
	res, err := h.userService.List(c.Request.Context(), c.Query("role"), c.Query("status"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, res)
}

// PUT /users/:userId
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "userId")
	if !ok {
		return
	}
	var req struct {
		Name     *string `json:"name"`
		Email    *string `json:"email" binding:"omitempty,email"`
		Password *string `json:"password"`
		Bio      *string `json:"bio"`
		Avatar   *string `json:"avatar"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	res, err := h.userService.Update(c.Request.Context(), id, service.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Bio:      req.Bio,
		Avatar:   req.Avatar,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	if res.Success {
		LogOperation(h.auditService, c, id, "update_user", "user", id, map[string]interface{}{"fields": res.UpdatedFields})
	}
	Success(c, res)
}

// DELETE /users/:userId?admin_user_id=
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "userId")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}
	res, err := h.userService.Delete(c.Request.Context(), id, actor)
	if err != nil {
		handleError(c, err)
		return
	}
	if res.Success {
		LogOperation(h.auditService, c, actor, "delete_user", "user", id, nil)
	}
	Success(c, res)
}

// GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	res, err := h.userService.Get(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, res)
}

// POST /auth/refresh
func (h *UserHandler) Refresh(c *gin.Context) {
	token, expireAt, err := h.userService.RefreshToken(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"token": token, "expire_at": expireAt})
}

// GET /admin/operation-logs
func (h *UserHandler) GetOperationLogs(c *gin.Context) {
	page, pageSize := parsePage(c)

	filter := service.AuditFilter{
		Action:       c.Query("action"),
		ResourceType: c.Query("resource_type"),
	}
	var ok bool
	if filter.UserID, ok = queryID(c, "user_id"); !ok {
		return
	}
	if filter.StartTime, ok = queryTime(c, "start_time"); !ok {
		return
	}
	if filter.EndTime, ok = queryTime(c, "end_time"); !ok {
		return
	}

	logs, total, err := h.auditService.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		InternalError(c, err)
		return
	}

	list := make([]gin.H, 0, len(logs))
	for _, log := range logs {
		list = append(list, gin.H{
			"id":            log.ID,
			"user_id":       log.UserID,
			"action":        log.Action,
			"resource_type": log.ResourceType,
			"resource_id":   log.ResourceID,
			"detail":        log.Detail,
			"ip":            log.IP,
			"created_at":    log.CreatedAt,
		})
	}
	SuccessPaged(c, list, total, page, pageSize)
}

// LogOperation appends an audit entry. Failures are logged and otherwise
// ignored so they never affect the response.
func LogOperation(audit *service.AuditService, c *gin.Context, userID uint, action, resourceType string, resourceID uint, detail map[string]interface{}) {
	if audit == nil {
		return
	}
	if current := middleware.GetCurrentUserID(c); current != 0 {
		userID = current
	}
	if detail == nil {
		detail = map[string]interface{}{}
	}
	detail["request_id"] = logging.RequestID(c)
	err := audit.Record(c.Request.Context(), &model.OperationLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Detail:       detail,
		IP:           c.ClientIP(),
	})
	if err != nil {
		logging.FromContext(c).WithError(err).Warnf("record operation %s", action)
	}
}
