package websocket

import (
	"net/http"

	"drowsyguard/internal/config"
	"drowsyguard/internal/models"
	"drowsyguard/internal/registry"
	"drowsyguard/internal/utils"
	"drowsyguard/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Handler struct {
	hub       *Hub
	upgrader  websocket.Upgrader
	config    *config.WebSocketConfig
	jwtSecret string
	logger    *logger.Logger
}

func NewHandler(reg *registry.Registry, cfg *config.WebSocketConfig, jwtSecret string, log *logger.Logger) *Handler {
	hub := NewHub(reg, log)
	go hub.Run()

	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:    cfg.ReadBufferSize,
			WriteBufferSize:   cfg.WriteBufferSize,
			HandshakeTimeout:  cfg.HandshakeTimeout,
			EnableCompression: cfg.EnableCompression,
			CheckOrigin: func(r *http.Request) bool {
				return checkOrigin(r.Header.Get("Origin"), cfg.AllowedOrigins)
			},
		},
		config:    cfg,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

// HandleDashboard upgrades an emergency-dashboard client. The subscriber
// role comes from the JWT claim; each physical connection gets a fresh id
// so a reconnecting client never aliases its previous session.
func (h *Handler) HandleDashboard(c *gin.Context) {
	role := models.RoleUnspecified

	token := c.Query("token")
	if token == "" {
		token = c.GetHeader("Authorization")
	}

	if h.jwtSecret != "" {
		claims, err := utils.ValidateDashboardToken(token, h.jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		role = models.ParseSubscriberRole(claims.SubscriberRole)
	} else {
		role = models.ParseSubscriberRole(c.Query("role"))
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	connectionID := uuid.NewString()
	client := NewClient(h.hub, conn, connectionID, role, h.config.SendBufferSize)
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}

func (h *Handler) GetHub() *Hub {
	return h.hub
}

func checkOrigin(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
