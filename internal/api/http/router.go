package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/crushpad/terminal-service/internal/domain/ports"
	serviceports "github.com/crushpad/terminal-service/internal/services/ports"
)

// NewRouter builds the HTTP API surface
func NewRouter(orchestrator serviceports.SaleOrchestrator, checker serviceports.StatusChecker, logger ports.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	h := NewHandlers(orchestrator, checker, logger)

	v1 := router.Group("/v1")
	{
		v1.POST("/terminal/sales", h.SubmitSale)
		v1.GET("/terminal/sales/:reference_id", h.GetSale)
		v1.POST("/terminal/sales/:reference_id/check", h.CheckStatus)
		v1.GET("/transactions", h.ListTransactions)
	}

	return router
}
