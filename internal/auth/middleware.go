package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// InstructorAuth enforces bearer JWT tokens signed with HS256 and puts
// the authenticated instructor id on the gin context.
func InstructorAuth(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set("instructor_id", claims.Subject)
		c.Set("claims", claims)
		c.Next()
	}
}

// InstructorID returns the authenticated instructor id set by
// InstructorAuth, or "" when the request is unauthenticated.
func InstructorID(c *gin.Context) string {
	id, _ := c.Get("instructor_id")
	s, _ := id.(string)
	return s
}
