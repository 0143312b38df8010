package handler

import (
	"errors"

	"github.com/amoylab/familia/internal/apiserver/database"
	"github.com/amoylab/familia/internal/common/cnst"
	"github.com/amoylab/familia/internal/common/dto"
	"github.com/amoylab/familia/internal/i18n"
	"github.com/amoylab/familia/internal/realtime"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Messages handles direct messages over REST. Live delivery goes through the fanout.
type Messages struct {
	db       database.Database
	fanout   *realtime.Fanout
	presence Presence
	logger   *zap.Logger
}

func NewMessages(db database.Database, fanout *realtime.Fanout, presence Presence, logger *zap.Logger) *Messages {
	return &Messages{db: db, fanout: fanout, presence: presence, logger: logger.Named("apiserver.handler.messages")}
}

// Send persists a message to a friend and pushes it to their open connections
func (h *Messages) Send(c *gin.Context) {
	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	msg, err := h.fanout.SendMessage(c.Request.Context(), uidOf(c), req.ReceiverID, req.Content)
	if err != nil {
		mapped := messageError(err)
		if i18n.AsErrorWithCode(mapped) == nil {
			h.logger.Error("failed to send message",
				zap.String("sender_id", uidOf(c)),
				zap.String("receiver_id", req.ReceiverID),
				zap.Error(err))
		}
		i18n.RespondWithError(c, mapped)
		return
	}
	i18n.Created(i18n.SuccessMessageSent).WithPayload(toMessageInfo(msg)).Send(c)
}

func messageError(err error) error {
	switch {
	case errors.Is(err, cnst.ErrSelfAction):
		return i18n.ErrorSelfMessage
	case errors.Is(err, cnst.ErrEmptyContent):
		return i18n.ErrorRequiredField.WithParam("Field", "content")
	case errors.Is(err, cnst.ErrContentTooLong):
		return i18n.ErrorInvalidFormat.WithParam("Field", "content")
	case errors.Is(err, cnst.ErrNotFriends):
		return i18n.ErrorNotFriends
	case errors.Is(err, database.ErrNotFound):
		return i18n.ErrorUserNotFound
	}
	return err
}

// Conversations lists the caller's inbox, newest first
func (h *Messages) Conversations(c *gin.Context) {
	ctx := c.Request.Context()
	summaries, err := h.db.ListConversations(ctx, uidOf(c))
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	ids := make([]string, 0, len(summaries))
	for _, s := range summaries {
		ids = append(ids, s.PeerID)
	}
	partners, err := usersByID(ctx, h.db, ids)
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	out := make([]dto.ConversationInfo, 0, len(summaries))
	for _, s := range summaries {
		partner, ok := partners[s.PeerID]
		if !ok {
			continue
		}
		info := dto.ConversationInfo{Partner: toUserInfo(partner, h.presence), UnreadCount: s.UnreadCount}
		if s.LastMessage != nil {
			last := toMessageInfo(s.LastMessage)
			info.LastMessage = &last
		}
		out = append(out, info)
	}
	i18n.Success(i18n.SuccessConversations).WithPayload(out).Send(c)
}

// History returns one page of the conversation with :userId, oldest first,
// and marks the peer's messages as read.
func (h *Messages) History(c *gin.Context) {
	var page dto.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	me, peerID := uidOf(c), c.Param("userId")

	if _, err := h.db.GetUserByID(ctx, peerID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			i18n.RespondWithError(c, i18n.ErrorUserNotFound)
			return
		}
		i18n.RespondWithError(c, err)
		return
	}
	friends, err := h.db.AreFriends(ctx, me, peerID)
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	if !friends {
		i18n.RespondWithError(c, i18n.ErrorNotFriends)
		return
	}

	if _, err := h.db.MarkConversationRead(ctx, me, peerID); err != nil {
		h.logger.Warn("failed to mark conversation read",
			zap.String("reader_id", me),
			zap.String("peer_id", peerID),
			zap.Error(err))
	}
	msgs, err := h.db.GetConversation(ctx, me, peerID, page.Offset, page.Or(defaultHistoryPageSize))
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	out := make([]dto.MessageInfo, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageInfo(m))
	}
	i18n.Success(i18n.SuccessChatMessages).WithPayload(out).Send(c)
}

// Delete removes a message. Only its sender may.
func (h *Messages) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	msg, err := h.db.GetMessageByID(ctx, c.Param("messageId"))
	if errors.Is(err, database.ErrNotFound) {
		i18n.RespondWithError(c, i18n.ErrorMessageNotFound)
		return
	}
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	if msg.SenderID != uidOf(c) {
		i18n.RespondWithError(c, i18n.ErrorNotMessageSender)
		return
	}
	if err := h.db.DeleteMessage(ctx, msg.ID); err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	i18n.Success(i18n.SuccessMessageDeleted).Send(c)
}
