package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/pranshh/library-management-mad2/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.EnableHSTS {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	authController := auth.NewAuthController(cfg.Accounts, cfg.RateLimiter)
	catalogController := NewCatalogController(cfg.Catalog, cfg.Auditor)
	requestsController := NewRequestsController(cfg.Loans)
	feedbackController := NewFeedbackController(cfg.Feedback)
	profileController := NewProfileController(cfg.Profiles, cfg.Stats)
	librarianController := NewLibrarianController(cfg.Stats, cfg.AuditLog)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	// Public endpoints
	authController.RegisterRoutes(api)
	api.GET("/section", catalogController.ListSections)
	api.GET("/section/:id", catalogController.GetSection)
	api.GET("/ebook", catalogController.ListEbooks)
	api.GET("/ebook/:id", catalogController.GetEbook)
	api.POST("/auto-return", requestsController.AutoReturn)

	// Authenticated endpoints
	member := api.Group("")
	member.Use(cfg.AuthMiddleware.RequireAuth())
	member.GET("/users", profileController.ListUsers)
	member.GET("/user/profile", profileController.GetProfile)
	member.PUT("/user/profile", profileController.UpdateProfile)
	member.GET("/user/stats", profileController.GetStats)
	member.GET("/request", requestsController.ListRequests)
	member.POST("/request", requestsController.CreateRequest)
	member.POST("/return/:id", requestsController.ReturnRequest)
	member.GET("/feedback", feedbackController.ListFeedback)
	member.POST("/feedback", feedbackController.SubmitFeedback)

	// Librarian endpoints
	librarian := member.Group("")
	librarian.Use(cfg.AuthMiddleware.RequireLibrarian())
	librarian.POST("/section", catalogController.CreateSection)
	librarian.PUT("/section/:id", catalogController.UpdateSection)
	librarian.DELETE("/section/:id", catalogController.DeleteSection)
	librarian.POST("/ebook", catalogController.CreateEbook)
	librarian.PUT("/ebook/:id", catalogController.UpdateEbook)
	librarian.DELETE("/ebook/:id", catalogController.DeleteEbook)
	librarian.PUT("/request/:id", requestsController.UpdateRequest)
	librarian.DELETE("/feedback/:id", feedbackController.DeleteFeedback)
	librarian.GET("/librarian/dashboard", librarianController.Dashboard)
	librarian.GET("/librarian/audit", librarianController.GetAuditEvents)

	// Task management endpoints
	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue, cfg.Scheduler)
		librarian.GET("/tasks/types", tasksController.ListTaskTypes)
		librarian.GET("/scheduler/jobs", tasksController.ListJobs)
		librarian.POST("/scheduler/jobs/:name/run", tasksController.RunJob)
		librarian.GET("/tasks/:id", tasksController.GetTaskStatus)
		librarian.POST("/tasks/:type/run", tasksController.RunTask)
	}

	return router
}
