package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const sharedSecretHeader = "x-shared-secret"

// RequireSharedSecret guards the machine-caller trust domain. Distinct
// from operator sessions: automated collaborators authenticate with a
// static secret, not a JWT.
func RequireSharedSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		incoming := c.GetHeader(sharedSecretHeader)
		if incoming == "" || subtle.ConstantTimeCompare([]byte(incoming), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Forbidden: invalid shared secret."})
			return
		}
		c.Next()
	}
}
