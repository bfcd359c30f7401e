package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/learnflow/learnflow-backend/internal/config"
	"github.com/learnflow/learnflow-backend/internal/handler"
	"github.com/learnflow/learnflow-backend/internal/middleware"
	"github.com/learnflow/learnflow-backend/internal/model"
	"github.com/learnflow/learnflow-backend/internal/response"
	"github.com/learnflow/learnflow-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Assessment *handler.AssessmentHandler
	Session    *handler.SessionHandler
	Report     *handler.ReportHandler
	WS         *handler.WSHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	rdb *redis.Client,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)

	api := router.Group("/api/v1")

	// ─── 1. Auth ───────────────────────────────────────────────────────
	loginLimiter := middleware.NewRateLimiter(rdb, "login", cfg.LoginRateLimit, time.Minute, log)
	auth := api.Group("/auth")
	{
		auth.POST("/login", loginLimiter.Middleware(), handlers.Auth.Login)

		signedIn := auth.Group("",
			middleware.RequireJWT(authService),
			middleware.CheckSingleDeviceSession(authService),
		)
		signedIn.POST("/logout", handlers.Auth.Logout)
		signedIn.GET("/me", handlers.Auth.Me)
	}

	// ─── 2. Student ────────────────────────────────────────────────────
	student := api.Group("/student",
		middleware.RequireJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
		middleware.RequireRole(model.RoleStudent),
	)
	{
		student.GET("/assessments", handlers.Assessment.Lobby)
		student.GET("/assessments/:id/paper", handlers.Assessment.Paper)

		session := student.Group("/assessments/:id/session")
		session.POST("", handlers.Session.Start)
		session.GET("", handlers.Session.State)
		session.DELETE("", handlers.Session.Discard)
		session.PUT("/answers", handlers.Session.SelectAnswer)
		session.POST("/submit", handlers.Session.Submit)
		session.GET("/result", handlers.Session.Result)
	}

	// ─── 3. Staff (teacher + admin) ────────────────────────────────────
	staff := api.Group("/staff",
		middleware.RequireJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
		middleware.RequireRole(model.RoleTeacher, model.RoleAdmin),
	)
	{
		staff.GET("/assessments", handlers.Assessment.List)
		staff.POST("/assessments", handlers.Assessment.Create)
		staff.GET("/assessments/:id", handlers.Assessment.Get)
		staff.GET("/assessments/:id/results", handlers.Report.Results)
		staff.GET("/assessments/:id/results/export", handlers.Report.Export)
		staff.GET("/system/metrics", handlers.System.MetricsSSE)
	}

	// ─── 4. WebSocket ──────────────────────────────────────────────────
	ws := router.Group("/ws/v1/student",
		middleware.RequireWSAuth(authService),
		middleware.CheckSingleDeviceSession(authService),
		middleware.RequireRole(model.RoleStudent),
	)
	ws.GET("/assessments/:id/stream", handlers.WS.SessionStream)

	return router
}
