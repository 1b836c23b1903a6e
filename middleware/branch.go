package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BranchScope resolves the branch every scoped query must filter by and
// stores it as "scope_branch_id". Admins may pick any branch with the
// branch_id query param (or none, to see all branches); everyone else is
// pinned to the branch in their token.
func BranchScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("user_role")
		roleStr, _ := role.(string)
		isManagement := roleStr == "admin" || roleStr == "super_admin"

		if isManagement {
			if param := c.Query("branch_id"); param != "" {
				branchID, err := uuid.Parse(param)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid branch_id"})
					c.Abort()
					return
				}
				c.Set("scope_branch_id", branchID)
			}
			c.Next()
			return
		}

		branchID, exists := c.Get("branch_id")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "No branch associated with this account"})
			c.Abort()
			return
		}
		c.Set("scope_branch_id", branchID.(uuid.UUID))
		c.Next()
	}
}

// ScopedBranchID returns the branch the request is scoped to, if any.
func ScopedBranchID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get("scope_branch_id")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
