package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hirelens/hirelens-backend/internal/config"
	"github.com/hirelens/hirelens-backend/internal/handler"
	"github.com/hirelens/hirelens-backend/internal/middleware"
	"github.com/hirelens/hirelens-backend/internal/model"
	"github.com/hirelens/hirelens-backend/internal/response"
	"github.com/hirelens/hirelens-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth            *handler.AuthHandler
	CandidatePortal *handler.CandidatePortalHandler
	CandidateMgmt   *handler.CandidateManagementHandler
	Assessment      *handler.AssessmentHandler
	Question        *handler.QuestionHandler
	Monitor         *handler.MonitorHandler
	WS              *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// If AllowedOrigins is set in config, restrict CORS to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for login routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/candidate/login", authLimiter.Middleware(), handlers.Auth.CandidateLogin)
		auth.POST("/recruiter/login", authLimiter.Middleware(), handlers.Auth.RecruiterLogin)

		// Authenticated profile routes
		auth.POST("/candidate/logout", middleware.RequireCandidateJWT(authService), handlers.Auth.CandidateLogout)
		auth.GET("/candidate/me", middleware.RequireCandidateJWT(authService), handlers.Auth.GetCandidateProfile)
		auth.GET("/recruiter/me", middleware.RequireRecruiterJWT(authService), handlers.Auth.GetRecruiterProfile)
	}

	// ─── 2. Candidate Group (JWT + Single Device) ──────────────────────
	candidateAPI := router.Group("/api/v1/candidate")
	candidateAPI.Use(
		middleware.RequireCandidateJWT(authService),
		middleware.CheckSingleDeviceLogin(authService),
	)
	{
		candidateAPI.GET("/lobby", handlers.CandidatePortal.GetLobby)
		candidateAPI.POST("/assessments/:assessment_id/start", handlers.CandidatePortal.StartSession)
		candidateAPI.GET("/assessments/:assessment_id/paper", handlers.CandidatePortal.GetPaper)
		candidateAPI.GET("/assessments/:assessment_id/state", handlers.CandidatePortal.GetState)
		candidateAPI.GET("/assessments/:assessment_id/result", handlers.CandidatePortal.GetResult)
	}

	// ─── 3. WebSocket Group (Candidate WS Auth) ────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireCandidateWSAuth(authService))
	{
		ws.GET("/candidate/assessments/:assessment_id/stream", handlers.WS.SessionStream)
	}

	// ─── 4. Recruiter Group (JWT + RBAC) ───────────────────────────────
	recruiterAPI := router.Group("/api/v1/recruiter")
	recruiterAPI.Use(middleware.RequireRecruiterJWT(authService))
	{
		// Assessment management
		recruiterAPI.GET("/assessments",
			middleware.RequirePermission(string(model.PermissionAssessmentsRead)),
			handlers.Assessment.List,
		)
		recruiterAPI.POST("/assessments",
			middleware.RequirePermission(string(model.PermissionAssessmentsWrite)),
			handlers.Assessment.Create,
		)
		recruiterAPI.GET("/assessments/:id",
			middleware.RequirePermission(string(model.PermissionAssessmentsRead)),
			handlers.Assessment.Get,
		)
		recruiterAPI.PUT("/assessments/:id",
			middleware.RequirePermission(string(model.PermissionAssessmentsWrite)),
			handlers.Assessment.Update,
		)
		recruiterAPI.DELETE("/assessments/:id",
			middleware.RequirePermission(string(model.PermissionAssessmentsWrite)),
			handlers.Assessment.Delete,
		)
		recruiterAPI.POST("/assessments/:id/publish",
			middleware.RequirePermission(string(model.PermissionAssessmentsPublish)),
			handlers.Assessment.Publish,
		)
		recruiterAPI.POST("/assessments/:id/archive",
			middleware.RequirePermission(string(model.PermissionAssessmentsPublish)),
			handlers.Assessment.Archive,
		)

		// Question management
		recruiterAPI.GET("/assessments/:id/questions",
			middleware.RequirePermission(string(model.PermissionAssessmentsRead)),
			handlers.Question.List,
		)
		recruiterAPI.PUT("/assessments/:id/questions",
			middleware.RequirePermission(string(model.PermissionAssessmentsWrite)),
			handlers.Question.Replace,
		)

		// Results
		recruiterAPI.GET("/assessments/:id/results",
			middleware.RequirePermission(string(model.PermissionResultsRead)),
			handlers.Assessment.ListResults,
		)
		recruiterAPI.GET("/assessments/:id/results/:candidate_id",
			middleware.RequirePermission(string(model.PermissionResultsRead)),
			handlers.Assessment.GetCandidateResult,
		)

		// Live monitoring (SSE)
		recruiterAPI.GET("/assessments/:id/monitor",
			middleware.RequirePermission(string(model.PermissionResultsRead)),
			handlers.Monitor.MonitorSSE,
		)

		// Candidate management
		recruiterAPI.GET("/candidates",
			middleware.RequirePermission(string(model.PermissionCandidatesRead)),
			handlers.CandidateMgmt.List,
		)
		recruiterAPI.POST("/candidates",
			middleware.RequirePermission(string(model.PermissionCandidatesWrite)),
			handlers.CandidateMgmt.Create,
		)
		recruiterAPI.POST("/candidates/:id/reset-login",
			middleware.RequirePermission(string(model.PermissionCandidatesWrite)),
			handlers.CandidateMgmt.ResetLogin,
		)
	}

	return router
}
