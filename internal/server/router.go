package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/appraisily/appraisals-backend/internal/handlers"
	"github.com/appraisily/appraisals-backend/internal/middleware"
)

type RouterConfig struct {
	SharedSecret         string
	FrontendOrigin       string
	AuthHandler          *handlers.AuthHandler
	AuthMiddleware       *middleware.AuthMiddleware
	AppraisalHandler     *handlers.AppraisalHandler
	UpdatePendingHandler *handlers.UpdatePendingHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.RequestID())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000",
			cfg.FrontendOrigin,
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "Cookie", "X-Requested-With", "x-shared-secret"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")

	// Operator trust domain (JWT session)
	api.POST("/auth/login", cfg.AuthHandler.Login)
	api.POST("/auth/logout", cfg.AuthHandler.Logout)

	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	protected.GET("/appraisals", cfg.AppraisalHandler.List)
	protected.GET("/appraisals/:id", cfg.AppraisalHandler.Get)
	protected.POST("/appraisals/:id", cfg.AppraisalHandler.SetValue)
	protected.POST("/appraisals/:id/complete", cfg.AppraisalHandler.Complete)

	// Machine trust domain (shared secret)
	machine := api.Group("/")
	machine.Use(middleware.RequireSharedSecret(cfg.SharedSecret))
	machine.POST("/update-pending-appraisal", cfg.UpdatePendingHandler.Update)

	return router
}
