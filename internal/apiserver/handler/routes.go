package handler

import (
	"github.com/amoylab/familia/internal/apiserver/database"
	"github.com/amoylab/familia/internal/apiserver/middleware"
	"github.com/amoylab/familia/internal/auth/jwt"
	"github.com/amoylab/familia/internal/common/config"
	"github.com/amoylab/familia/internal/realtime"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps are the collaborators shared by every handler
type Deps struct {
	DB       database.Database
	JWT      *jwt.Service
	Hub      *realtime.Hub
	Fanout   *realtime.Fanout
	Realtime config.RealtimeConfig
	Logger   *zap.Logger
}

type Handlers struct {
	jwt           *jwt.Service
	wsPath        string
	health        gin.HandlerFunc
	auth          *Auth
	users         *Users
	friends       *Friends
	posts         *Posts
	messages      *Messages
	notifications *Notifications
	websocket     *WebSocket
}

func NewHandlers(d Deps) *Handlers {
	return &Handlers{
		jwt:           d.JWT,
		wsPath:        d.Realtime.Path,
		health:        Health(d.Hub),
		auth:          NewAuth(d.DB, d.JWT, d.Hub, d.Logger),
		users:         NewUsers(d.DB, d.Hub, d.Logger),
		friends:       NewFriends(d.DB, d.Fanout, d.Hub, d.Logger),
		posts:         NewPosts(d.DB, d.Fanout, d.Hub, d.Logger),
		messages:      NewMessages(d.DB, d.Fanout, d.Hub, d.Logger),
		notifications: NewNotifications(d.DB, d.Hub, d.Logger),
		websocket:     NewWebSocket(d.Hub, d.Realtime, d.Logger),
	}
}

// Register mounts the REST API under /api and the websocket endpoint at its configured path
func (h *Handlers) Register(r gin.IRouter) {
	r.GET(h.wsPath, h.websocket.Handle)

	api := r.Group("/api")
	api.GET("/health", h.health)
	api.POST("/auth/register", h.auth.Register)
	api.POST("/auth/login", h.auth.Login)

	protected := api.Group("")
	protected.Use(middleware.JWTAuthMiddleware(h.jwt))

	protected.GET("/auth/me", h.auth.Me)

	users := protected.Group("/users")
	{
		users.GET("", h.users.Search)
		users.GET("/:id", h.users.Get)
		users.PUT("/me/profile", h.users.UpdateProfile)
		users.PUT("/me/password", h.auth.ChangePassword)
		users.DELETE("/me/account", h.users.DeleteAccount)
	}

	friends := protected.Group("/friends")
	{
		friends.GET("", h.friends.List)
		friends.GET("/requests", h.friends.Requests)
		friends.GET("/suggestions", h.friends.Suggestions)
		friends.GET("/status/:userId", h.friends.Status)
		friends.POST("/request/:userId", h.friends.SendRequest)
		friends.PUT("/accept/:requestId", h.friends.Accept)
		friends.PUT("/reject/:requestId", h.friends.Reject)
		friends.DELETE("/:userId", h.friends.Remove)
	}

	posts := protected.Group("/posts")
	{
		posts.POST("", h.posts.Create)
		posts.GET("", h.posts.List)
		posts.GET("/:id", h.posts.Get)
		posts.PUT("/:id", h.posts.Update)
		posts.DELETE("/:id", h.posts.Delete)
		posts.POST("/:id/like", h.posts.Like)
		posts.POST("/:id/comments", h.posts.Comment)
		posts.GET("/:id/comments", h.posts.Comments)
	}

	messages := protected.Group("/messages")
	{
		messages.POST("", h.messages.Send)
		messages.GET("/conversations", h.messages.Conversations)
		messages.GET("/:userId", h.messages.History)
		messages.DELETE("/:messageId", h.messages.Delete)
	}

	notifications := protected.Group("/notifications")
	{
		notifications.GET("", h.notifications.List)
		notifications.PUT("/read-all", h.notifications.MarkAllRead)
		notifications.PUT("/read/:id", h.notifications.MarkRead)
		notifications.DELETE("/:id", h.notifications.Delete)
		notifications.DELETE("", h.notifications.Clear)
	}
}
