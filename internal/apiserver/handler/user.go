package handler

import (
	"errors"
	"strings"

	"github.com/amoylab/familia/internal/apiserver/database"
	"github.com/amoylab/familia/internal/common/dto"
	"github.com/amoylab/familia/internal/i18n"
	"github.com/amoylab/familia/pkg/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Users handles profile lookup and maintenance
type Users struct {
	db       database.Database
	presence Presence
	logger   *zap.Logger
}

func NewUsers(db database.Database, presence Presence, logger *zap.Logger) *Users {
	return &Users{db: db, presence: presence, logger: logger.Named("apiserver.handler.users")}
}

// Search lists other users whose name or username matches every term in q
func (h *Users) Search(c *gin.Context) {
	var q dto.SearchUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	limit := q.Limit
	if limit == 0 {
		limit = defaultPageSize
	}

	terms := utils.SplitByMultipleDelimiters(q.Q, " ", ",")
	users, err := h.db.SearchUsers(c.Request.Context(), terms, uidOf(c), limit)
	if err != nil {
		h.logger.Error("failed to search users", zap.String("q", q.Q), zap.Error(err))
		i18n.RespondWithError(c, err)
		return
	}
	i18n.Success(i18n.SuccessUserList).WithPayload(toUserInfos(users, h.presence)).Send(c)
}

// Get returns one user's public profile
func (h *Users) Get(c *gin.Context) {
	user, err := h.db.GetUserByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		i18n.RespondWithError(c, i18n.ErrorUserNotFound)
		return
	}
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	info := toUserInfo(user, h.presence)
	if user.ID == uidOf(c) {
		info = toSelfInfo(user, h.presence)
	}
	i18n.Success(i18n.SuccessUserInfo).WithPayload(info).Send(c)
}

// UpdateProfile changes the caller's name, bio or avatar
func (h *Users) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			i18n.RespondWithError(c, i18n.ErrorRequiredField.WithParam("Field", "name"))
			return
		}
		user.Name = name
	}
	if req.Bio != nil {
		user.Bio = strings.TrimSpace(*req.Bio)
	}
	if req.Avatar != nil {
		user.Avatar = strings.TrimSpace(*req.Avatar)
	}

	if err := h.db.UpdateUser(c.Request.Context(), user); err != nil {
		h.logger.Error("failed to update profile", zap.String("user_id", user.ID), zap.Error(err))
		i18n.RespondWithError(c, err)
		return
	}
	i18n.Success(i18n.SuccessUserUpdated).WithPayload(toSelfInfo(user, h.presence)).Send(c)
}

// DeleteAccount removes the caller and everything they own
func (h *Users) DeleteAccount(c *gin.Context) {
	var req dto.DeleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		i18n.RespondWithError(c, i18n.ErrorInvalidCredentials)
		return
	}

	if err := h.db.DeleteUser(c.Request.Context(), user.ID); err != nil {
		h.logger.Error("failed to delete account", zap.String("user_id", user.ID), zap.Error(err))
		i18n.RespondWithError(c, err)
		return
	}
	h.logger.Info("account deleted", zap.String("user_id", user.ID))
	i18n.Success(i18n.SuccessUserDeleted).Send(c)
}
