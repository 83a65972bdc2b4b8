package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/appraisily/appraisals-backend/internal/pkg/logger"
	"github.com/appraisily/appraisals-backend/internal/services"
)

const operatorEmailKey = "operatorEmail"

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		log:         log.With("middleware", "AuthMiddleware"),
		authService: authService,
	}
}

// RequireAuth guards the operator trust domain. The session token
// arrives as an httpOnly cookie from the frontend, or as a bearer
// header from tooling.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authentication required."})
			return
		}
		email, err := am.authService.VerifyToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired session."})
			return
		}
		c.Set(operatorEmailKey, email)
		c.Next()
	}
}

// OperatorEmail returns the authenticated operator's email, set by
// RequireAuth.
func OperatorEmail(c *gin.Context) string {
	return c.GetString(operatorEmailKey)
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie("jwtToken"); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
