package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/supertrooper/backend/internal/handler"
	"github.com/supertrooper/backend/internal/logging"
	"github.com/supertrooper/backend/internal/middleware"
)

type Deps struct {
	DB               *gorm.DB
	JWTSecret        string
	AllowOrigins     []string
	UserHandler      *handler.UserHandler
	ProjectHandler   *handler.ProjectHandler
	WorkspaceHandler *handler.WorkspaceHandler
	ContentHandler   *handler.ContentHandler
	PortfolioHandler *handler.PortfolioHandler
	FeedbackHandler  *handler.FeedbackHandler
	MetricsHandler   *handler.MetricsHandler
	HealthHandler    *handler.HealthHandler
}

func Setup(r *gin.Engine, deps Deps) {
	r.Use(logging.RequestLogger())
	r.Use(middleware.CORSMiddleware(deps.AllowOrigins))
	if deps.MetricsHandler != nil {
		r.Use(deps.MetricsHandler.Instrument())
		r.GET("/metrics", deps.MetricsHandler.GetMetrics)
	}
	r.GET("/healthz", deps.HealthHandler.Check)

	authMW := middleware.AuthMiddleware(deps.JWTSecret, deps.DB)

	// Users
	users := r.Group("/users")
	{
		users.POST("", deps.UserHandler.Create)
		users.POST("/authenticate", deps.UserHandler.Authenticate)
		users.GET("", deps.UserHandler.List)
		users.GET("/me", authMW, deps.UserHandler.Me)
		users.GET("/:userId", deps.UserHandler.Get)
		users.PUT("/:userId", deps.UserHandler.Update)
		users.DELETE("/:userId", deps.UserHandler.Delete)
	}
	r.POST("/auth/refresh", authMW, deps.UserHandler.Refresh)

	// Admin routes
	admin := r.Group("/admin", authMW, middleware.RequireAdmin())
	{
		admin.GET("/operation-logs", deps.UserHandler.GetOperationLogs)
	}

	// Projects
	projects := r.Group("/projects")
	{
		projects.POST("", deps.ProjectHandler.Create)
		projects.GET("", deps.ProjectHandler.List)
		projects.GET("/:id", deps.ProjectHandler.GetDetail)
		projects.PUT("/:id", deps.ProjectHandler.Update)
		projects.DELETE("/:id", deps.ProjectHandler.Delete)
		projects.GET("/:id/tasks", deps.ProjectHandler.Tasks)
		projects.POST("/:id/tasks", deps.ProjectHandler.AddTask)
		projects.GET("/:id/events", deps.ProjectHandler.Stream)
	}

	// Workspaces
	r.POST("/workspace", deps.WorkspaceHandler.Create)
	r.GET("/workspace/:workspaceId", deps.WorkspaceHandler.GetDetails)
	r.PUT("/workspace/:workspaceId", deps.WorkspaceHandler.Update)
	r.DELETE("/workspace/:workspaceId", deps.WorkspaceHandler.Delete)
	r.GET("/workspaces", deps.WorkspaceHandler.List)

	// Content
	content := r.Group("/content")
	{
		content.POST("/create", deps.ContentHandler.Create)
		content.GET("/:contentId", deps.ContentHandler.Fetch)
		content.PUT("/update/:contentId", deps.ContentHandler.Update)
		content.DELETE("/delete/:contentId", deps.ContentHandler.Delete)
	}
	r.POST("/portfolio/upload/:userId/:contentId", deps.ContentHandler.Upload)

	// Portfolios
	portfolios := r.Group("/portfolios")
	{
		portfolios.POST("", deps.PortfolioHandler.Create)
		portfolios.GET("/:userId", deps.PortfolioHandler.Get)
		portfolios.PUT("/:userId", deps.PortfolioHandler.Update)
		portfolios.DELETE("/:userId", deps.PortfolioHandler.Delete)
	}

	// Feedback
	feedback := r.Group("/feedback")
	{
		feedback.POST("", deps.FeedbackHandler.Submit)
		feedback.GET("", deps.FeedbackHandler.List)
		feedback.GET("/:feedbackId", deps.FeedbackHandler.Get)
		feedback.PATCH("/:feedbackId/status", deps.FeedbackHandler.UpdateStatus)
		feedback.DELETE("/:feedbackId", deps.FeedbackHandler.Delete)
	}

	// Public routes (no auth)
	public := r.Group("/public")
	{
		public.GET("/projects/:id", deps.ProjectHandler.PublicInfo)
		public.GET("/portfolios/:token", deps.PortfolioHandler.Shared)
	}
}
