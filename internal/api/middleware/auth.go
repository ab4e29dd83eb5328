package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"gsource-auth/internal/core/source"
	"gsource-auth/internal/pkg/auth"
	"gsource-auth/internal/pkg/jwt"
	"gsource-auth/pkg/constants"
	pkgErrors "gsource-auth/pkg/errors"
	"gsource-auth/pkg/responses"
)

const contextKeySubject = "subject"

// AuthMiddleware JWT认证中间件
func AuthMiddleware(manager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(constants.HeaderAuthorization)
		if authHeader == "" {
			responses.ErrorWithCode(c, pkgErrors.CodeUnauthorized, "缺少Authorization Header")
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, constants.HeaderBearerPrefix) {
			responses.ErrorWithCode(c, pkgErrors.CodeUnauthorized, "Authorization格式错误")
			c.Abort()
			return
		}

		claims, err := manager.ParseToken(strings.TrimPrefix(authHeader, constants.HeaderBearerPrefix))
		if err != nil {
			responses.Error(c, err)
			c.Abort()
			return
		}

		// 调用方身份存入context
		c.Set(contextKeySubject, claims.Subject)
		c.Set(constants.ContextKeyRoles, claims.Roles)
		c.Set(constants.ContextKeyActing, auth.ActingIdentity(claims.Subject, claims.Roles))

		c.Next()
	}
}

// RequirePermission 调用方角色必须包含指定权限
func RequirePermission(perm auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.Allow(Roles(c), perm) {
			responses.ErrorWithDetail(c, pkgErrors.CodeForbidden, "禁止访问", string(perm))
			c.Abort()
			return
		}
		c.Next()
	}
}

// Acting 当前请求的调用方身份
func Acting(c *gin.Context) source.Identity {
	if v, ok := c.Get(constants.ContextKeyActing); ok {
		if id, ok := v.(source.Identity); ok {
			return id
		}
	}
	return ""
}

func Roles(c *gin.Context) []string {
	return c.GetStringSlice(constants.ContextKeyRoles)
}

func Subject(c *gin.Context) string {
	return c.GetString(contextKeySubject)
}
