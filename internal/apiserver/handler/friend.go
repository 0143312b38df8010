package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/amoylab/familia/internal/apiserver/database"
	"github.com/amoylab/familia/internal/common/dto"
	"github.com/amoylab/familia/internal/i18n"
	"github.com/amoylab/familia/internal/realtime"
	"github.com/amoylab/familia/pkg/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Friends handles friend requests and the friend list
type Friends struct {
	db       database.Database
	fanout   *realtime.Fanout
	presence Presence
	logger   *zap.Logger
}

func NewFriends(db database.Database, fanout *realtime.Fanout, presence Presence, logger *zap.Logger) *Friends {
	return &Friends{db: db, fanout: fanout, presence: presence, logger: logger.Named("apiserver.handler.friends")}
}

// SendRequest asks :userId to become the caller's friend
func (h *Friends) SendRequest(c *gin.Context) {
	me, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	targetID := c.Param("userId")
	if targetID == me.ID {
		i18n.RespondWithError(c, i18n.ErrorSelfFriendRequest)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.db.GetUserByID(ctx, targetID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			i18n.RespondWithError(c, i18n.ErrorUserNotFound)
			return
		}
		i18n.RespondWithError(c, err)
		return
	}

	existing, err := h.db.GetFriendshipBetween(ctx, me.ID, targetID)
	switch {
	case err == nil && existing.Status == database.FriendshipAccepted:
		i18n.RespondWithError(c, i18n.ErrorAlreadyFriends)
		return
	case err == nil:
		i18n.RespondWithError(c, i18n.ErrorRequestAlreadySent)
		return
	case !errors.Is(err, database.ErrNotFound):
		i18n.RespondWithError(c, err)
		return
	}

	f := &database.Friendship{RequesterID: me.ID, AddresseeID: targetID, Status: database.FriendshipPending}
	n, err := h.withNotification(ctx, func(ctx context.Context) error {
		return h.db.CreateFriendship(ctx, f)
	}, func() realtime.NotificationInput {
		return realtime.NotificationInput{
			RecipientID: targetID,
			SenderID:    me.ID,
			Type:        database.NotificationFriendRequest,
			Content:     fmt.Sprintf("%s sent you a friend request", displayName(me)),
			RelatedID:   f.ID,
		}
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			i18n.RespondWithError(c, i18n.ErrorRequestAlreadySent)
			return
		}
		h.logger.Error("failed to create friend request", zap.String("user_id", me.ID), zap.Error(err))
		i18n.RespondWithError(c, err)
		return
	}
	h.fanout.Deliver(ctx, n)

	i18n.Created(i18n.SuccessFriendRequestSent).WithPayload(f).Send(c)
}

// Accept accepts a pending request addressed to the caller
func (h *Friends) Accept(c *gin.Context) {
	h.respond(c, database.FriendshipAccepted)
}

// Reject declines a pending request addressed to the caller. The row is removed.
func (h *Friends) Reject(c *gin.Context) {
	h.respond(c, "")
}

func (h *Friends) respond(c *gin.Context, status database.FriendshipStatus) {
	me, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	f, err := h.db.GetFriendshipByID(ctx, c.Param("requestId"))
	if errors.Is(err, database.ErrNotFound) || (err == nil && f.AddresseeID != me.ID) {
		i18n.RespondWithError(c, i18n.ErrorRequestNotFound)
		return
	}
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	if f.Status != database.FriendshipPending {
		i18n.RespondWithError(c, i18n.ErrorRequestNotPending)
		return
	}

	accept := status == database.FriendshipAccepted
	in := realtime.NotificationInput{
		RecipientID: f.RequesterID,
		SenderID:    me.ID,
		RelatedID:   f.ID,
	}
	if accept {
		in.Type = database.NotificationFriendAccept
		in.Content = fmt.Sprintf("%s accepted your friend request", displayName(me))
	} else {
		in.Type = database.NotificationFriendReject
		in.Content = fmt.Sprintf("%s declined your friend request", displayName(me))
	}

	n, err := h.withNotification(ctx, func(ctx context.Context) error {
		if accept {
			return h.db.UpdateFriendshipStatus(ctx, f.ID, database.FriendshipAccepted)
		}
		return h.db.DeleteFriendship(ctx, f.ID)
	}, func() realtime.NotificationInput { return in })
	if err != nil {
		h.logger.Error("failed to answer friend request",
			zap.String("request_id", f.ID),
			zap.Bool("accept", accept),
			zap.Error(err))
		i18n.RespondWithError(c, err)
		return
	}
	h.fanout.Deliver(ctx, n)

	if accept {
		f.Status = database.FriendshipAccepted
		i18n.Success(i18n.SuccessFriendRequestAccepted).WithPayload(f).Send(c)
		return
	}
	i18n.Success(i18n.SuccessFriendRequestRejected).Send(c)
}

// withNotification runs write and records the notification in one transaction
func (h *Friends) withNotification(ctx context.Context, write func(ctx context.Context) error, input func() realtime.NotificationInput) (*database.Notification, error) {
	var n *database.Notification
	err := h.db.Transaction(ctx, func(ctx context.Context) error {
		if err := write(ctx); err != nil {
			return err
		}
		var err error
		n, err = h.fanout.Record(ctx, input())
		return err
	})
	return n, err
}

// Remove ends the friendship with :userId
func (h *Friends) Remove(c *gin.Context) {
	me, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	f, err := h.db.GetFriendshipBetween(ctx, me.ID, c.Param("userId"))
	if errors.Is(err, database.ErrNotFound) || (err == nil && f.Status != database.FriendshipAccepted) {
		i18n.RespondWithError(c, i18n.ErrorNotFriends)
		return
	}
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	if err := h.db.DeleteFriendship(ctx, f.ID); err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	i18n.Success(i18n.SuccessFriendRemoved).Send(c)
}

// List returns the caller's friends
func (h *Friends) List(c *gin.Context) {
	ctx := c.Request.Context()
	ids, err := h.db.ListFriendIDs(ctx, uidOf(c))
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	users, err := h.db.GetUsersByIDs(ctx, ids)
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	i18n.Success(i18n.SuccessFriendList).WithPayload(toUserInfos(users, h.presence)).Send(c)
}

// Requests returns pending requests addressed to the caller, newest first
func (h *Friends) Requests(c *gin.Context) {
	ctx := c.Request.Context()
	reqs, err := h.db.ListIncomingRequests(ctx, uidOf(c))
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.RequesterID)
	}
	users, err := usersByID(ctx, h.db, ids)
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	out := make([]dto.FriendRequestInfo, 0, len(reqs))
	for _, r := range reqs {
		from, ok := users[r.RequesterID]
		if !ok {
			continue
		}
		out = append(out, dto.FriendRequestInfo{ID: r.ID, From: toUserInfo(from, h.presence), CreatedAt: r.CreatedAt})
	}
	i18n.Success(i18n.SuccessFriendList).WithPayload(out).Send(c)
}

// Status reports the relation between the caller and :userId
func (h *Friends) Status(c *gin.Context) {
	me := uidOf(c)
	f, err := h.db.GetFriendshipBetween(c.Request.Context(), me, c.Param("userId"))
	status := dto.FriendStatus{Status: dto.FriendStatusNone}
	switch {
	case errors.Is(err, database.ErrNotFound):
	case err != nil:
		i18n.RespondWithError(c, err)
		return
	case f.Status == database.FriendshipAccepted:
		status = dto.FriendStatus{Status: dto.FriendStatusFriends, RequestID: f.ID}
	case f.RequesterID == me:
		status = dto.FriendStatus{Status: dto.FriendStatusPendingSent, RequestID: f.ID}
	default:
		status = dto.FriendStatus{Status: dto.FriendStatusPendingReceived, RequestID: f.ID}
	}
	i18n.Success(i18n.SuccessFriendStatus).WithPayload(status).Send(c)
}

// Suggestions lists users the caller has no relation with yet
func (h *Friends) Suggestions(c *gin.Context) {
	users, err := h.db.ListSuggestions(c.Request.Context(), uidOf(c), defaultSuggestionsLimit)
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	i18n.Success(i18n.SuccessUserList).WithPayload(toUserInfos(users, h.presence)).Send(c)
}

func displayName(u *database.User) string {
	return utils.FirstNonEmpty(u.Name, u.Username)
}
