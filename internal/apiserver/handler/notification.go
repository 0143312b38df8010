package handler

import (
	"errors"

	"github.com/amoylab/familia/internal/apiserver/database"
	"github.com/amoylab/familia/internal/common/dto"
	"github.com/amoylab/familia/internal/i18n"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Notifications struct {
	db       database.Database
	presence Presence
	logger   *zap.Logger
}

func NewNotifications(db database.Database, presence Presence, logger *zap.Logger) *Notifications {
	return &Notifications{db: db, presence: presence, logger: logger.Named("apiserver.handler.notifications")}
}

// List returns a page of the caller's notifications, newest first, with the unread count
func (h *Notifications) List(c *gin.Context) {
	var q dto.NotificationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	me := uidOf(c)

	items, err := h.db.ListNotifications(ctx, me, q.UnreadOnly, q.Offset, q.Or(defaultPageSize))
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	unread, err := h.db.CountUnreadNotifications(ctx, me)
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	ids := make([]string, 0, len(items))
	for _, n := range items {
		ids = append(ids, n.SenderID)
	}
	senders, err := usersByID(ctx, h.db, ids)
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	out := make([]dto.NotificationInfo, 0, len(items))
	for _, n := range items {
		info := dto.NotificationInfo{
			ID:        n.ID,
			Type:      string(n.Type),
			Content:   n.Content,
			RelatedID: n.RelatedID,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		}
		if s, ok := senders[n.SenderID]; ok {
			sender := toUserInfo(s, h.presence)
			info.Sender = &sender
		}
		out = append(out, info)
	}
	i18n.Success(i18n.SuccessNotificationList).WithPayload(gin.H{
		"data":        out,
		"unreadCount": unread,
	}).Send(c)
}

func (h *Notifications) MarkRead(c *gin.Context) {
	err := h.db.MarkNotificationRead(c.Request.Context(), c.Param("id"), uidOf(c))
	if errors.Is(err, database.ErrNotFound) {
		i18n.RespondWithError(c, i18n.ErrorNotificationNotFound)
		return
	}
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	i18n.Success(i18n.SuccessNotificationRead).Send(c)
}

func (h *Notifications) MarkAllRead(c *gin.Context) {
	n, err := h.db.MarkAllNotificationsRead(c.Request.Context(), uidOf(c))
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	i18n.Success(i18n.SuccessNotificationRead).WithPayload(gin.H{"updated": n}).Send(c)
}

func (h *Notifications) Delete(c *gin.Context) {
	err := h.db.DeleteNotification(c.Request.Context(), c.Param("id"), uidOf(c))
	if errors.Is(err, database.ErrNotFound) {
		i18n.RespondWithError(c, i18n.ErrorNotificationNotFound)
		return
	}
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	i18n.Success(i18n.SuccessNotificationDeleted).Send(c)
}

// Clear deletes every notification of the caller
func (h *Notifications) Clear(c *gin.Context) {
	n, err := h.db.ClearNotifications(c.Request.Context(), uidOf(c))
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	h.logger.Debug("notifications cleared", zap.String("user_id", uidOf(c)), zap.Int64("count", n))
	i18n.Success(i18n.SuccessNotificationDeleted).WithPayload(gin.H{"deleted": n}).Send(c)
}
