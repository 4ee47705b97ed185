package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/readably/readably-backend/config"
	"github.com/readably/readably-backend/controllers"
	"github.com/readably/readably-backend/middleware"
	"github.com/readably/readably-backend/services"
	"github.com/readably/readably-backend/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	streakLoc := time.Local
	if cfg.StreakTimezone != "" {
		if loc, err := time.LoadLocation(cfg.StreakTimezone); err == nil {
			streakLoc = loc
		} else {
			utils.Sugar.Warnf("invalid StreakTimezone %q, falling back to server local", cfg.StreakTimezone)
		}
	}

	ledger := services.NewLedgerService(db)
	sessions := services.NewSessionService(db, ledger, cfg.CompletionRewardPoints)
	streaks := services.NewStreakService(db, streakLoc)
	achievements := services.NewAchievementService(db)
	challenges := services.NewChallengeService(db)

	sessionController := controllers.NewSessionController(sessions)
	streakController := controllers.NewStreakController(streaks)
	rewardController := controllers.NewRewardController(ledger)
	achievementController := controllers.NewAchievementController(achievements)
	challengeController := controllers.NewChallengeController(challenges)

	api := r.Group("/api/v1")
	api.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())

	reading := api.Group("/reading")
	reading.POST("/sessions/start", sessionController.StartSession)
	reading.POST("/sessions/progress", sessionController.RecordProgress)
	reading.POST("/sessions/complete", sessionController.CompleteSession)
	reading.GET("/progress", sessionController.GetProgress)

	parent := api.Group("/parent")
	parent.Use(middleware.ParentOnly())
	parent.GET("/children/:childId/streak", streakController.GetChildStreak)

	gamification := api.Group("/gamification")
	gamification.GET("/rewards", rewardController.ListRewards)
	gamification.POST("/rewards/unlock", rewardController.UnlockReward)
	gamification.GET("/achievements", achievementController.ListUserAchievements)
	gamification.GET("/challenges", challengeController.ListActiveChallenges)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}
