package handler

import (
	"context"
	"errors"

	"github.com/amoylab/familia/internal/apiserver/database"
	"github.com/amoylab/familia/internal/apiserver/middleware"
	"github.com/amoylab/familia/internal/common/dto"
	"github.com/amoylab/familia/internal/i18n"
	"github.com/gin-gonic/gin"
)

// Presence answers whether a user currently holds a realtime connection
type Presence interface {
	IsOnline(userID string) bool
}

const (
	defaultPageSize         = 20
	defaultHistoryPageSize  = 50
	defaultSuggestionsLimit = 10
	minPasswordLength       = 6
)

// currentUser loads the authenticated user, answering 401 when the token outlived the account
func currentUser(c *gin.Context, db database.Database) (*database.User, bool) {
	uid := middleware.UserID(c)
	if uid == "" {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return nil, false
	}
	user, err := db.GetUserByID(c.Request.Context(), uid)
	if errors.Is(err, database.ErrNotFound) {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return nil, false
	}
	if err != nil {
		i18n.RespondWithError(c, err)
		return nil, false
	}
	return user, true
}

func uidOf(c *gin.Context) string {
	return middleware.UserID(c)
}

func badRequest(c *gin.Context, err error) {
	i18n.RespondWithError(c, i18n.ErrBadRequest.WithParam("Reason", err.Error()))
}

func toUserInfo(u *database.User, presence Presence) dto.UserInfo {
	info := dto.UserInfo{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Bio:       u.Bio,
		Avatar:    u.Avatar,
		LastSeen:  u.LastSeen,
		CreatedAt: u.CreatedAt,
	}
	if presence != nil {
		info.Online = presence.IsOnline(u.ID)
	}
	return info
}

// toSelfInfo also exposes the private fields of the caller's own profile
func toSelfInfo(u *database.User, presence Presence) dto.UserInfo {
	info := toUserInfo(u, presence)
	info.Email = u.Email
	return info
}

func toUserInfos(users []*database.User, presence Presence) []dto.UserInfo {
	out := make([]dto.UserInfo, 0, len(users))
	for _, u := range users {
		out = append(out, toUserInfo(u, presence))
	}
	return out
}

func toMessageInfo(m *database.Message) dto.MessageInfo {
	return dto.MessageInfo{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		Read:       m.Read,
		ReadAt:     m.ReadAt,
		CreatedAt:  m.CreatedAt,
	}
}

// usersByID loads the given users keyed by id. Missing ids are absent from the map.
func usersByID(ctx context.Context, db database.Database, ids []string) (map[string]*database.User, error) {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	users, err := db.GetUsersByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*database.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
