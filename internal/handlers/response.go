package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Ack is the envelope every endpoint answers with. For the trigger
// endpoint it only acknowledges receipt; pipeline outcome is visible
// out-of-band.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondError(c *gin.Context, status int, message string) {
	c.JSON(status, Ack{Success: false, Message: message})
}
