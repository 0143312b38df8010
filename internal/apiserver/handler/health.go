package handler

import (
	"net/http"

	"github.com/amoylab/familia/pkg/version"
	"github.com/gin-gonic/gin"
)

// Health reports liveness together with how many users hold a connection
func Health(presence interface{ Online() []string }) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"version":     version.Get(),
			"onlineUsers": len(presence.Online()),
		})
	}
}
