package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openledger-engine/internal/api_gateway/handler"
	"github.com/openledger-engine/internal/api_gateway/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	ledgerHandler *handler.LedgerHandler,
	reportHandler *handler.ReportHandler,
	schedulerHandler *handler.SchedulerHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Chart-of-accounts and balance queries
		accounts := v1.Group("/accounts")
		{
			accounts.GET("", ledgerHandler.ListAccounts)
			accounts.GET("/:id/balance", ledgerHandler.GetBalance)
			accounts.GET("/:id/period-balance", ledgerHandler.GetPeriodBalance)
			accounts.GET("/:id/entries", ledgerHandler.GetEntries)
		}

		// Transaction posting and history
		transactions := v1.Group("/transactions")
		{
			transactions.POST("", ledgerHandler.Create)
			transactions.GET("", ledgerHandler.List)
		}

		// Financial statements
		reports := v1.Group("/reports")
		{
			reports.GET("/balance-sheet", reportHandler.BalanceSheet)
			reports.GET("/income-statement", reportHandler.IncomeStatement)
			reports.GET("/cash-flow", reportHandler.CashFlow)
		}

		// Manual scheduler ticks
		scheduler := v1.Group("/scheduler")
		{
			scheduler.POST("/depreciation/tick", schedulerHandler.TickDepreciation)
			scheduler.POST("/recurrence/tick", schedulerHandler.TickRecurrence)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
