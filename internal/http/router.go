package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(handler *Handler, authMiddleware gin.HandlerFunc, env string) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{"Content-Type", "Content-Disposition"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	protected := router.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.POST("/drivers/:driverId/logs", handler.startLog)
		protected.POST("/drivers/:driverId/logs/complete", handler.completeLog)
		protected.POST("/drivers/:driverId/status", handler.changeStatus)
		protected.GET("/drivers/:driverId/logs", handler.listLogs)
		protected.GET("/drivers/:driverId/logs/export", handler.exportLogs)
		protected.PUT("/logs/:id", handler.editLog)
		protected.DELETE("/logs/:id", handler.deleteLog)
		protected.POST("/drivers/:driverId/certify", handler.certifyDay)

		protected.GET("/drivers/:driverId/summary", handler.getSummary)
		protected.GET("/drivers/:driverId/can-drive", handler.canDrive)

		protected.POST("/drivers/:driverId/violations/check", handler.checkViolations)
		protected.GET("/drivers/:driverId/violations", handler.listViolations)
		protected.PUT("/violations/:id/resolve", handler.resolveViolation)
	}

	return router
}
