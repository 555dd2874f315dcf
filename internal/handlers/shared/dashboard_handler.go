package handlers

import (
	"net/http"
	"strconv"
	"time"

	"drowsyguard/internal/registry"
	"drowsyguard/internal/repositories/interfaces"
	"drowsyguard/internal/utils"

	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the REST read surface dashboards use to
// bootstrap before their websocket subscription starts streaming.
type DashboardHandler struct {
	alertRepo interfaces.AlertRepository
	registry  *registry.Registry
}

func NewDashboardHandler(alertRepo interfaces.AlertRepository, reg *registry.Registry) *DashboardHandler {
	return &DashboardHandler{
		alertRepo: alertRepo,
		registry:  reg,
	}
}

// GetAlert returns one stored alert by id.
func (h *DashboardHandler) GetAlert(c *gin.Context) {
	alertID := c.Param("id")
	if alertID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_ALERT_ID", "Alert ID is required")
		return
	}

	alert, err := h.alertRepo.GetByID(c.Request.Context(), alertID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "ALERT_NOT_FOUND", err.Error())
		return
	}

	utils.SuccessResponse(c, "Alert retrieved", alert)
}

// GetDriverAlerts returns a driver's recent alerts, newest first.
func (h *DashboardHandler) GetDriverAlerts(c *gin.Context) {
	driverID := c.Param("driver_id")
	if driverID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_DRIVER_ID", "Driver ID is required")
		return
	}

	hours, err := strconv.Atoi(c.DefaultQuery("hours", "24"))
	if err != nil || hours <= 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_RANGE", "hours must be a positive integer")
		return
	}

	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit <= 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
		return
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	alerts, err := h.alertRepo.GetByDriverID(c.Request.Context(), driverID, since, limit)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "ALERT_LOOKUP_FAILED", err.Error())
		return
	}

	utils.SuccessResponse(c, "Alerts retrieved", alerts)
}

// GetConnections reports the currently registered dashboard connections.
func (h *DashboardHandler) GetConnections(c *gin.Context) {
	utils.SuccessResponse(c, "Connections retrieved", gin.H{
		"count":       h.registry.Len(),
		"connections": h.registry.Entries(),
	})
}
