package middlewares

import (
	"net/http"

	"bitbucket.org/mmdatafocus/hr_backend/config"
	"bitbucket.org/mmdatafocus/hr_backend/models"
	"bitbucket.org/mmdatafocus/hr_backend/utils"
	"github.com/gin-gonic/gin"
)

// SessionMiddleware resolves the token header into the request context:
// token -> email via redis, then the cached user for id/name/role. Requests
// without a token pass through; route groups decide whether to require one.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		email, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetEmailInContext(ctx, email)

		user, err := models.GetSessionUser(ctx, email)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		ctx = utils.SetUserIdInContext(ctx, user.ID)
		ctx = utils.SetUserNameInContext(ctx, user.FullName())
		if user.Role != nil {
			ctx = utils.SetRoleNameInContext(ctx, user.Role.Name)
		}
		ctx = utils.SetIsAdminInContext(ctx, user.IsSuperAdmin())

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
