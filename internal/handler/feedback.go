package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/supertrooper/backend/internal/service"
)

type FeedbackHandler struct {
	feedbackService *service.FeedbackService
	auditService    *service.AuditService
}

func NewFeedbackHandler(feedbackService *service.FeedbackService, auditService *service.AuditService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService, auditService: auditService}
}

// POST /feedback
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req struct {
		UserID  uint   `json:"userId" binding:"required"`
		PostID  uint   `json:"postId" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	res, err := h.feedbackService.Submit(c.Request.Context(), service.SubmitFeedbackInput{
		UserID:  req.UserID,
		PostID:  req.PostID,
		Content: req.Content,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	if !res.Success {
		Success(c, res)
		return
	}
	LogOperation(h.auditService, c, req.UserID, "submit_feedback", "feedback", res.FeedbackID,
		map[string]interface{}{"post_id": req.PostID})
	c.JSON(http.StatusCreated, res)
}

// GET /feedback?user_id=&content_id=
func (h *FeedbackHandler) List(c *gin.Context) {
	userID, ok := queryID(c, "user_id")
	if !ok {
		return
	}
	contentID, ok := queryID(c, "content_id")
	if !ok {
		return
	}
	res, err := h.feedbackService.List(c.Request.Context(), userID, contentID)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, res)
}

// GET /feedback/:feedbackId
func (h *FeedbackHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "feedbackId")
	if !ok {
		return
	}
	res, err := h.feedbackService.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, res)
}

// PATCH /feedback/:feedbackId/status
func (h *FeedbackHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "feedbackId")
	if !ok {
		return
	}
	var req struct {
		NewStatus string `json:"newStatus" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	res, err := h.feedbackService.UpdateStatus(c.Request.Context(), id, req.NewStatus)
	if err != nil {
		handleError(c, err)
		return
	}
	if res.Success {
		LogOperation(h.auditService, c, 0, "update_feedback_status", "feedback", id,
			map[string]interface{}{"status": req.NewStatus})
	}
	Success(c, res)
}

// DELETE /feedback/:feedbackId?admin_user_id=
func (h *FeedbackHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "feedbackId")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}
	res, err := h.feedbackService.Delete(c.Request.Context(), id, actor)
	if err != nil {
		handleError(c, err)
		return
	}
	if res.Success {
		LogOperation(h.auditService, c, actor, "delete_feedback", "feedback", id, nil)
	}
	Success(c, res)
}
