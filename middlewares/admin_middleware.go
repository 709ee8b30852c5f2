package middlewares

import (
	"net/http"

	"github.com/cyberbrief/newsroom/global"
	"github.com/cyberbrief/newsroom/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RoleChecker answers whether a user holds a role.
type RoleChecker func(c *gin.Context, userID uint, role string) (bool, error)

// HasRole looks the role up in user_roles.
func HasRole(c *gin.Context, userID uint, role string) (bool, error) {
	var count int64
	err := global.DB.WithContext(c.Request.Context()).
		Model(&models.UserRole{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&count).Error
	return count > 0, err
}

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware(check RoleChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint(ContextUserID)
		if userID == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		ok, err := check(c, userID, models.RoleAdmin)
		if err != nil {
			global.Logger.Error("Role lookup failed", zap.Uint("user_id", userID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
