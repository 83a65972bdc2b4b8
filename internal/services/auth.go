package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/appraisily/appraisals-backend/internal/config"
	apperrors "github.com/appraisily/appraisals-backend/internal/pkg/errors"
	"github.com/appraisily/appraisals-backend/internal/pkg/logger"
)

const sessionTokenTTL = 24 * time.Hour

// AuthService handles the operator trust domain: allow-listed humans
// logging in with a password and holding a signed session token.
// Machine callers use the shared secret instead and never touch this.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	VerifyToken(tokenString string) (string, error)
}

type authService struct {
	log *logger.Logger
	cfg *config.Config
}

func NewAuthService(log *logger.Logger, cfg *config.Config) AuthService {
	return &authService{
		log: log.With("service", "AuthService"),
		cfg: cfg,
	}
}

func (as *authService) Login(_ context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", fmt.Errorf("email and password required: %w", apperrors.ErrInvalidArgument)
	}
	if !as.cfg.IsAuthorizedUser(email) {
		as.log.Warn("Login attempt by unlisted user", "email", email)
		return "", fmt.Errorf("user not authorized: %w", apperrors.ErrUnauthorized)
	}

	sum := sha256.Sum256([]byte(password))
	got := hex.EncodeToString(sum[:])
	want := strings.ToLower(strings.TrimSpace(as.cfg.OperatorPasswordHash))
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		as.log.Warn("Invalid password attempt", "email", email)
		return "", fmt.Errorf("invalid credentials: %w", apperrors.ErrUnauthorized)
	}

	claims := jwt.MapClaims{
		"email": email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(sessionTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(as.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (as *authService) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(as.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %w", apperrors.ErrUnauthorized)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid claims: %w", apperrors.ErrUnauthorized)
	}
	email, _ := claims["email"].(string)
	if email == "" || !as.cfg.IsAuthorizedUser(email) {
		return "", fmt.Errorf("user not authorized: %w", apperrors.ErrUnauthorized)
	}
	return email, nil
}
