package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ashtonliu88/SlugScheduler/pkg/jwt"
	"github.com/ashtonliu88/SlugScheduler/pkg/response"
)

// ContextKeyStudentID is where JWTAuth stores the session's student.
const ContextKeyStudentID = "student_id"

// JWTAuth requires an "Authorization: Bearer <token>" session token.
func JWTAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "malformed authorization header")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "session token invalid or expired")
			c.Abort()
			return
		}

		c.Set(ContextKeyStudentID, claims.StudentID)

		c.Next()
	}
}
