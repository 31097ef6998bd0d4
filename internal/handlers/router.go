package handlers

import (
	"github.com/catprep/mocktest-service/internal/services"
	"github.com/catprep/mocktest-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	userService     services.UserService
	authHandler     *AuthHandler
	examHandler     *ExamHandler
	statsHandler    *StatsHandler
	analysisHandler *AnalysisHandler
}

func NewHandlerManager(
	userService services.UserService,
	examService services.ExamService,
	statsService services.StatsService,
	analysisService services.AnalysisService,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		userService:     userService,
		authHandler:     NewAuthHandler(userService, logger),
		examHandler:     NewExamHandler(examService, logger),
		statsHandler:    NewStatsHandler(statsService, logger),
		analysisHandler: NewAnalysisHandler(analysisService, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "mocktest-service",
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public auth routes
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", hm.authHandler.Signup)
			auth.POST("/login", hm.authHandler.Login)
		}

		protected := v1.Group("")
		protected.Use(AuthRequired(hm.userService))
		{
			// Test catalog routes
			tests := protected.Group("/tests")
			{
				tests.GET("", hm.examHandler.ListTests)
				tests.GET("/:name", hm.examHandler.GetTest)
			}

			// Exam session routes
			sessions := protected.Group("/sessions")
			{
				sessions.POST("", hm.examHandler.StartTest)
				sessions.GET("/:id", hm.examHandler.GetSession)
				sessions.DELETE("/:id", hm.examHandler.ReleaseSession)

				sessions.POST("/:id/answer", hm.examHandler.SubmitAnswer)
				sessions.POST("/:id/bookmark", hm.examHandler.ToggleBookmark)
				sessions.POST("/:id/flag", hm.examHandler.SetFlag)
				sessions.POST("/:id/save", hm.examHandler.SaveSession)

				sessions.POST("/:id/goto", hm.examHandler.Goto)
				sessions.POST("/:id/next", hm.examHandler.Next)
				sessions.POST("/:id/previous", hm.examHandler.Previous)
				sessions.POST("/:id/section", hm.examHandler.SwitchSection)

				sessions.POST("/:id/pause", hm.examHandler.PauseTest)
				sessions.POST("/:id/resume", hm.examHandler.ResumeTest)
				sessions.POST("/:id/submit", hm.examHandler.SubmitTest)
			}

			// User-scoped routes
			me := protected.Group("/me")
			{
				me.GET("/paused-tests", hm.examHandler.PausedTests)
				me.GET("/active-session", hm.examHandler.ActiveSession)

				me.GET("/stats", hm.statsHandler.UserStats)
				me.GET("/progress", hm.statsHandler.DownloadProgress)
				me.GET("/report", hm.statsHandler.DownloadReport)

				me.GET("/analysis", hm.analysisHandler.Analyze)
				me.POST("/analysis/followup", hm.analysisHandler.Followup)
			}
		}
	}
}
