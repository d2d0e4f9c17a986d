package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-admin-core/internal/models"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
	"github.com/noah-isme/sma-admin-core/pkg/response"
)

// RequireRoles lets a request through only when its token carries one of roles.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
