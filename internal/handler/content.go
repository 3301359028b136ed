package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/supertrooper/backend/internal/service"
)

type ContentHandler struct {
	contentService *service.ContentService
	auditService   *service.AuditService
}

func NewContentHandler(contentService *service.ContentService, auditService *service.AuditService) *ContentHandler {
	return &ContentHandler{contentService: contentService, auditService: auditService}
}

type contentRequest struct {
	UserID  uint                   `json:"userId" binding:"required"`
	Title   string                 `json:"title" binding:"required,max=255"`
	Content map[string]interface{} `json:"content"`
	Type    string                 `json:"type" binding:"required"`
}

// POST /content/create
func (h *ContentHandler) Create(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	res, err := h.contentService.Create(c.Request.Context(), service.CreateContentInput{
		UserID:  req.UserID,
		Title:   req.Title,
		Content: req.Content,
		Type:    req.Type,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	if res.Success {
		LogOperation(h.auditService, c, req.UserID, "create_content", "post", uint(res.ContentID), nil)
	}
	Success(c, res)
}

// GET /content/:contentId
func (h *ContentHandler) Fetch(c *gin.Context) {
	id, ok := pathID(c, "contentId")
	if !ok {
		return
	}
	res, err := h.contentService.Fetch(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, res)
}

// PUT /content/update/:contentId
func (h *ContentHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "contentId")
	if !ok {
		return
	}
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	res, err := h.contentService.Update(c.Request.Context(), id, service.UpdateContentInput{
		UserID:  req.UserID,
		Title:   req.Title,
		Content: req.Content,
		Type:    req.Type,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	if res.Success {
		LogOperation(h.auditService, c, req.UserID, "update_content", "post", id, nil)
	}
	Success(c, res)
}

// DELETE /content/delete/:contentId
func (h *ContentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "contentId")
	if !ok {
		return
	}
	res, err := h.contentService.Delete(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	if res.Success {
		LogOperation(h.auditService, c, 0, "delete_content", "post", id, nil)
	}
	Success(c, res)
}

// POST /portfolio/upload/:userId/:contentId
func (h *ContentHandler) Upload(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	contentID, err := strconv.ParseInt(c.Param("contentId"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid contentId")
		return
	}
	var req struct {
		Title       string `json:"title" binding:"required,max=255"`
		Description string `json:"description"`
		Type        string `json:"type" binding:"required"`
		Data        string `json:"data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	res, err := h.contentService.Upload(c.Request.Context(), userID, contentID, service.UploadContentInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Data:        req.Data,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	if res.Success {
		LogOperation(h.auditService, c, userID, "upload_content", "post", uint(res.ContentID), nil)
	}
	Success(c, res)
}
