package api

import (
	"net/http"

	"github.com/TheGojiOG/mcadmin/internal/api/handlers"
	"github.com/TheGojiOG/mcadmin/internal/api/middleware"
	"github.com/TheGojiOG/mcadmin/internal/auth"
	"github.com/TheGojiOG/mcadmin/internal/config"
	"github.com/TheGojiOG/mcadmin/internal/permissions"
	"github.com/TheGojiOG/mcadmin/internal/server"
	"github.com/TheGojiOG/mcadmin/internal/systemd"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the HTTP router
func SetupRouter(cfg *config.Config, dispatcher *server.Dispatcher, orchestrator *systemd.Orchestrator) *gin.Engine {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.Security.CORS))
	router.Use(middleware.RateLimit(cfg.Security.RateLimit.Enabled, cfg.Security.RateLimit.RequestsPerMinute))
	router.Use(middleware.SecurityHeaders(cfg.Server.TLS.Enabled))

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret)

	minecraftHandler := handlers.NewMinecraftHandler(dispatcher)
	systemHandler := handlers.NewSystemHandler(orchestrator)

	protected := router.Group("/api/v1")
	protected.Use(middleware.Auth(jwtManager))
	{
		mc := protected.Group("/minecraft")
		{
			mc.GET("/test", middleware.RequireTier(permissions.ConsoleTest), minecraftHandler.Test)
			mc.POST("/command", middleware.RequireTier(permissions.ConsoleExecute), minecraftHandler.ExecuteCommand)
			mc.POST("/command/check", middleware.RequireTier(permissions.CommandsAllowed), minecraftHandler.CheckCommand)
			mc.GET("/commands/allowed", middleware.RequireTier(permissions.CommandsAllowed), minecraftHandler.AllowedCommands)
			mc.GET("/players", middleware.RequireTier(permissions.PlayersRead), minecraftHandler.Players)
			mc.POST("/broadcast", middleware.RequireTier(permissions.ChatBroadcast), minecraftHandler.Broadcast)

			mc.POST("/whitelist/add/:player", middleware.RequireTier(permissions.WhitelistAdd), minecraftHandler.WhitelistAdd)
			mc.POST("/whitelist/remove/:player", middleware.RequireTier(permissions.WhitelistRemove), minecraftHandler.WhitelistRemove)
			mc.POST("/kick/:player", middleware.RequireTier(permissions.PlayersKick), minecraftHandler.Kick)
			mc.POST("/ban/:player", middleware.RequireTier(permissions.PlayersBan), minecraftHandler.Ban)
			mc.POST("/pardon/:player", middleware.RequireTier(permissions.PlayersPardon), minecraftHandler.Pardon)
			mc.POST("/op/:player", middleware.RequireTier(permissions.PlayersOp), minecraftHandler.Op)
			mc.POST("/deop/:player", middleware.RequireTier(permissions.PlayersDeop), minecraftHandler.Deop)
		}

		sys := protected.Group("/system")
		{
			sys.GET("/status", middleware.RequireTier(permissions.ServicesStatus), systemHandler.Status)
			sys.GET("/services", middleware.RequireTier(permissions.ServicesStatus), systemHandler.ListServices)

			services := sys.Group("/services/:service")
			services.GET("/status", middleware.RequireTier(permissions.ServicesStatus), systemHandler.ServiceStatus)
			services.POST("/start", middleware.RequireTier(permissions.ServicesStart), systemHandler.Start)
			services.POST("/stop", middleware.RequireTier(permissions.ServicesStop), systemHandler.Stop)
			services.POST("/restart", middleware.RequireTier(permissions.ServicesRestart), systemHandler.Restart)
			services.GET("/logs", middleware.RequireTier(permissions.ServicesLogs), systemHandler.Logs)
			services.GET("/uptime", middleware.RequireTier(permissions.ServicesUptime), systemHandler.Uptime)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
