package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"property-listing/internal/core/auth"
	"property-listing/internal/transport/http/ez"
	resp "property-listing/internal/transport/http/response"
)

const KeyClaims = "claims"

// AuthJWT 校验 Bearer token，把 userId/role/email 写进 gin.Context
func AuthJWT(j *auth.JWTer, requireRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			resp.Abort(c, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil || claims.UID == "" {
			resp.Abort(c, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		if requireRole != "" && claims.Role != requireRole {
			resp.Abort(c, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		c.Set(KeyClaims, claims)
		c.Set(ez.CtxUserID, claims.UID)
		c.Set(ez.CtxRole, claims.Role)
		c.Set(ez.CtxEmail, claims.Email)
		c.Next()
	}
}
