package handler

import (
	"net/http"
	"net/url"
	"slices"

	"github.com/amoylab/familia/internal/common/config"
	"github.com/amoylab/familia/internal/i18n"
	"github.com/amoylab/familia/internal/realtime"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket upgrades authenticated requests into realtime connections
type WebSocket struct {
	hub      *realtime.Hub
	cfg      config.RealtimeConfig
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewWebSocket(hub *realtime.Hub, cfg config.RealtimeConfig, logger *zap.Logger) *WebSocket {
	h := &WebSocket{hub: hub, cfg: cfg, logger: logger.Named("apiserver.handler.websocket")}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Handle authenticates the handshake and serves the connection until it drops.
// The credential comes from the token query parameter or a bearer header.
func (h *WebSocket) Handle(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = c.GetHeader("Authorization")
	}
	userID, err := h.hub.Authenticate(token)
	if err != nil {
		h.logger.Debug("websocket handshake rejected", zap.String("remote", c.ClientIP()), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade connection", zap.String("user_id", userID), zap.Error(err))
		return
	}

	if err := h.hub.Serve(c.Request.Context(), realtime.NewClient(conn, userID, h.cfg)); err != nil {
		h.logger.Info("websocket session refused", zap.String("user_id", userID), zap.Error(err))
	}
}

func (h *WebSocket) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowOrigins) == 0 || slices.Contains(h.cfg.AllowOrigins, "*") {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if _, err := url.Parse(origin); err != nil {
		return false
	}
	return slices.Contains(h.cfg.AllowOrigins, origin)
}
