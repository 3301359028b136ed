package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/supertrooper/backend/internal/service"
)

type PortfolioHandler struct {
	portfolioService *service.PortfolioService
	auditService     *service.AuditService
}

func NewPortfolioHandler(portfolioService *service.PortfolioService, auditService *service.AuditService) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService, auditService: auditService}
}

// POST /portfolios
func (h *PortfolioHandler) Create(c *gin.Context) {
	var req struct {
		UserID      uint   `json:"user_id" binding:"required"`
		Title       string `json:"title" binding:"required,max=255"`
		Description string `json:"description"`
		AuthToken   string `json:"auth_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	res, err := h.portfolioService.Create(c.Request.Context(), service.CreatePortfolioInput{
		UserID:      req.UserID,
		Title:       req.Title,
		Description: req.Description,
		AuthToken:   req.AuthToken,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	if res.Success {
		LogOperation(h.auditService, c, req.UserID, "create_portfolio", "portfolio", res.PortfolioID, nil)
	}
	Success(c, res)
}

// GET /portfolios/:userId
func (h *PortfolioHandler) Get(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	res, err := h.portfolioService.Get(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, res)
}

// GET /public/portfolios/:token
func (h *PortfolioHandler) Shared(c *gin.Context) {
	res, err := h.portfolioService.Shared(c.Request.Context(), c.Param("token"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, res)
}

// PUT /portfolios/:userId
func (h *PortfolioHandler) Update(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	var req struct {
		Title        string                `json:"title" binding:"required,max=255"`
		Description  *string               `json:"description"`
		ContentItems []service.ContentItem `json:"contentItems"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	res, err := h.portfolioService.Update(c.Request.Context(), userID, service.UpdatePortfolioInput{
		Title:        req.Title,
		Description:  req.Description,
		ContentItems: req.ContentItems,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	if res.Updated {
		LogOperation(h.auditService, c, userID, "update_portfolio", "portfolio", userID,
			map[string]interface{}{"items": len(res.UpdatedItems)})
	}
	Success(c, res)
}

// DELETE /portfolios/:userId
func (h *PortfolioHandler) Delete(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	res, err := h.portfolioService.Delete(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	if res.Done {
		LogOperation(h.auditService, c, userID, "delete_portfolio", "portfolio", userID, nil)
	}
	Success(c, res)
}
