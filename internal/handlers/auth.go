package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/appraisily/appraisals-backend/internal/pkg/errors"
	"github.com/appraisily/appraisals-backend/internal/services"
)

const sessionCookieName = "jwtToken"
const sessionCookieMaxAge = 24 * 60 * 60

type AuthHandler struct {
	authService   services.AuthService
	secureCookies bool
}

func NewAuthHandler(authService services.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookies: secureCookies}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "Email and password are required.")
		return
	}
	token, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidArgument):
			RespondError(c, http.StatusBadRequest, "Email and password are required.")
		case errors.Is(err, apperrors.ErrUnauthorized):
			RespondError(c, http.StatusUnauthorized, "Invalid credentials.")
		default:
			RespondError(c, http.StatusInternalServerError, "Internal server error.")
		}
		return
	}
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(sessionCookieName, token, sessionCookieMaxAge, "/", "", ah.secureCookies, true)
	RespondOK(c, Ack{Success: true})
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(sessionCookieName, "", -1, "/", "", ah.secureCookies, true)
	RespondOK(c, Ack{Success: true, Message: "Logged out."})
}
