package middleware

import (
	"strings"

	"github.com/amoylab/familia/internal/auth/jwt"
	"github.com/amoylab/familia/internal/common/cnst"
	"github.com/amoylab/familia/internal/i18n"
	"github.com/gin-gonic/gin"
)

// JWTAuthMiddleware creates a middleware that validates bearer tokens
func JWTAuthMiddleware(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			i18n.RespondWithError(c, i18n.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			i18n.RespondWithError(c, i18n.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(cnst.CtxKeyClaims, claims)
		c.Next()
	}
}

// Claims returns the claims stored by JWTAuthMiddleware
func Claims(c *gin.Context) (*jwt.Claims, bool) {
	v, ok := c.Get(cnst.CtxKeyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}

// UserID returns the authenticated user's id, or "" outside an authenticated route
func UserID(c *gin.Context) string {
	claims, ok := Claims(c)
	if !ok {
		return ""
	}
	return claims.UserID
}
