package routes

import (
	handlers "drowsyguard/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

// SetupDashboardRoutes sets up the dashboard read API
func SetupDashboardRoutes(r *gin.RouterGroup, dashboardHandler *handlers.DashboardHandler) {
	r.GET("/alerts/:id", dashboardHandler.GetAlert)
	r.GET("/drivers/:driver_id/alerts", dashboardHandler.GetDriverAlerts)
	r.GET("/connections", dashboardHandler.GetConnections)
}
