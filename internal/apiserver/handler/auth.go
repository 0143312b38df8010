package handler

import (
	"errors"
	"strings"

	"github.com/amoylab/familia/internal/apiserver/database"
	"github.com/amoylab/familia/internal/auth/jwt"
	"github.com/amoylab/familia/internal/common/dto"
	"github.com/amoylab/familia/internal/i18n"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Auth handles registration, login and credentials
type Auth struct {
	db         database.Database
	jwtService *jwt.Service
	presence   Presence
	logger     *zap.Logger
}

func NewAuth(db database.Database, jwtService *jwt.Service, presence Presence, logger *zap.Logger) *Auth {
	return &Auth{
		db:         db,
		jwtService: jwtService,
		presence:   presence,
		logger:     logger.Named("apiserver.handler.auth"),
	}
}

// Register creates an account and signs the new user in
func (h *Auth) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if len(req.Password) < minPasswordLength {
		i18n.RespondWithError(c, i18n.ErrorPasswordTooShort.WithParam("Min", minPasswordLength))
		return
	}

	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	if _, err := h.db.GetUserByEmail(ctx, email); err == nil {
		i18n.RespondWithError(c, i18n.ErrorEmailExists)
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		h.logger.Error("failed to look up email", zap.Error(err))
		i18n.RespondWithError(c, err)
		return
	}
	if _, err := h.db.GetUserByUsername(ctx, username); err == nil {
		i18n.RespondWithError(c, i18n.ErrorUsernameExists)
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		h.logger.Error("failed to look up username", zap.Error(err))
		i18n.RespondWithError(c, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		i18n.RespondWithError(c, err)
		return
	}

	user := &database.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
		Name:     strings.TrimSpace(req.Name),
	}
	if err := h.db.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			i18n.RespondWithError(c, i18n.ErrorUsernameExists)
			return
		}
		h.logger.Error("failed to create user", zap.Error(err))
		i18n.RespondWithError(c, err)
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Username)
	if err != nil {
		h.logger.Error("failed to generate token", zap.String("user_id", user.ID), zap.Error(err))
		i18n.RespondWithError(c, err)
		return
	}

	h.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	i18n.Created(i18n.SuccessRegistered).
		WithPayload(gin.H{"token": token, "user": toSelfInfo(user, h.presence)}).
		Send(c)
}

// Login accepts either an email address or a username
func (h *Auth) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	login := strings.TrimSpace(req.Login)
	var (
		user *database.User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = h.db.GetUserByEmail(ctx, login)
	} else {
		user, err = h.db.GetUserByUsername(ctx, login)
	}
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			h.logger.Error("failed to look up user", zap.Error(err))
		}
		i18n.RespondWithError(c, i18n.ErrorInvalidCredentials)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		h.logger.Info("login rejected", zap.String("user_id", user.ID), zap.String("remote_addr", c.ClientIP()))
		i18n.RespondWithError(c, i18n.ErrorInvalidCredentials)
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Username)
	if err != nil {
		h.logger.Error("failed to generate token", zap.String("user_id", user.ID), zap.Error(err))
		i18n.RespondWithError(c, err)
		return
	}

	i18n.Success(i18n.SuccessLogin).
		WithPayload(gin.H{"token": token, "user": toSelfInfo(user, h.presence)}).
		Send(c)
}

// Me returns the caller's own profile
func (h *Auth) Me(c *gin.Context) {
	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	i18n.Success(i18n.SuccessUserInfo).WithPayload(toSelfInfo(user, h.presence)).Send(c)
}

// ChangePassword replaces the caller's password after checking the old one
func (h *Auth) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		i18n.RespondWithError(c, i18n.ErrorPasswordTooShort.WithParam("Min", minPasswordLength))
		return
	}

	user, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		i18n.RespondWithError(c, i18n.ErrorInvalidOldPassword)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	user.Password = string(hashed)
	if err := h.db.UpdateUser(c.Request.Context(), user); err != nil {
		h.logger.Error("failed to update password", zap.String("user_id", user.ID), zap.Error(err))
		i18n.RespondWithError(c, err)
		return
	}

	h.logger.Info("password changed", zap.String("user_id", user.ID))
	i18n.Success(i18n.SuccessPasswordChanged).Send(c)
}
