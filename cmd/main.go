package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/appraisily/appraisals-backend/internal/config"
	"github.com/appraisily/appraisals-backend/internal/handlers"
	"github.com/appraisily/appraisals-backend/internal/middleware"
	"github.com/appraisily/appraisals-backend/internal/pkg/envutil"
	"github.com/appraisily/appraisals-backend/internal/pkg/logger"
	"github.com/appraisily/appraisals-backend/internal/platform/openai"
	"github.com/appraisily/appraisals-backend/internal/platform/pubsub"
	"github.com/appraisily/appraisals-backend/internal/platform/secrets"
	"github.com/appraisily/appraisals-backend/internal/platform/sendgrid"
	"github.com/appraisily/appraisals-backend/internal/platform/sheets"
	"github.com/appraisily/appraisals-backend/internal/platform/wordpress"
	"github.com/appraisily/appraisals-backend/internal/server"
	"github.com/appraisily/appraisals-backend/internal/services"
)

func main() {
	// Logger
	logMode := envutil.String("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Secrets + config
	log.Info("Loading configuration...")
	projectID := envutil.String("GOOGLE_CLOUD_PROJECT", envutil.String("GCP_PROJECT", ""))
	var provider secrets.Provider
	if projectID != "" {
		provider, err = secrets.New(ctx, log, projectID)
		if err != nil {
			log.Fatal("Could not init secret provider", "error", err)
		}
	} else {
		log.Warn("GOOGLE_CLOUD_PROJECT not set, resolving secrets from environment only")
		provider = secrets.EnvProvider{}
	}
	cfg, err := config.Load(ctx, projectID, provider)
	if err != nil {
		log.Fatal("Could not load configuration", "error", err)
	}
	_ = provider.Close()

	// Required collaborators
	log.Info("Setting up platform clients...")
	sheetsClient, err := sheets.New(ctx, log, cfg.SpreadsheetID)
	if err != nil {
		log.Fatal("Could not init SheetsClient", "error", err)
	}
	wpClient, err := wordpress.New(log, wordpress.Config{
		BaseURL:     cfg.WordPressAPIURL,
		Username:    cfg.WordPressUsername,
		AppPassword: cfg.WordPressAppPassword,
	})
	if err != nil {
		log.Fatal("Could not init WordPressClient", "error", err)
	}

	// Optional collaborators: a failed init disables the capability,
	// never the process.
	var aiClient openai.Client
	if cfg.AIEnabled() {
		aiClient, err = openai.New(log, openai.Config{APIKey: cfg.OpenAIAPIKey})
		if err != nil {
			log.Warn("Could not init OpenAIClient, enrichment disabled", "error", err)
			aiClient = nil
		}
	} else {
		log.Warn("OpenAI not configured, enrichment disabled")
	}

	var sgClient sendgrid.Client
	if cfg.EmailEnabled() {
		sgClient, err = sendgrid.New(log, sendgrid.Config{
			APIKey:           cfg.SendGridAPIKey,
			DefaultFromEmail: cfg.SendGridFromEmail,
			DefaultFromName:  "Appraisily",
		})
		if err != nil {
			log.Warn("Could not init SendGridClient, notifications disabled", "error", err)
			sgClient = nil
		}
	} else {
		log.Warn("SendGrid not configured, notifications disabled")
	}

	var publisher pubsub.Publisher
	if cfg.EventsEnabled() && projectID != "" {
		publisher, err = pubsub.New(ctx, log, projectID, cfg.PubSubCompletedTopic)
		if err != nil {
			log.Warn("Could not init PubSubPublisher, completion events disabled", "error", err)
			publisher = nil
		}
	}

	caps := services.NewCapabilities(aiClient != nil, sgClient != nil, publisher != nil)
	log.Info("Capabilities resolved",
		"ai", caps.AI(),
		"email", caps.Email(),
		"events", caps.Events(),
	)

	// Services
	log.Info("Setting up services...")
	resolverService := services.NewResolverService(log, sheetsClient, cfg.SheetName)
	shortcodeService := services.NewShortcodeService(log, wpClient)
	authService := services.NewAuthService(log, cfg)
	var emailService services.EmailService
	if sgClient != nil {
		emailService = services.NewEmailService(log, sgClient, cfg)
	}
	var merger services.DescriptionMerger
	if aiClient != nil {
		merger = aiClient
	}
	pipelineService := services.NewPipelineService(log, caps, aiClient, wpClient, sheetsClient, resolverService, emailService, cfg.SheetName)
	appraisalService := services.NewAppraisalService(log, caps, sheetsClient, wpClient, resolverService, shortcodeService, merger, emailService, publisher, cfg.SheetName)

	// Handlers
	log.Info("Setting up handlers...")
	secureCookies := logMode == "prod" || logMode == "production"
	authHandler := handlers.NewAuthHandler(authService, secureCookies)
	appraisalHandler := handlers.NewAppraisalHandler(appraisalService)
	pipelineTimeout := time.Duration(envutil.Int("PIPELINE_TIMEOUT_SECONDS", 180)) * time.Second
	updatePendingHandler := handlers.NewUpdatePendingHandler(log, pipelineService, pipelineTimeout)

	// Middleware + router
	authMiddleware := middleware.NewAuthMiddleware(log, authService)
	router := server.NewRouter(server.RouterConfig{
		SharedSecret:         cfg.SharedSecret,
		FrontendOrigin:       envutil.String("FRONTEND_ORIGIN", "https://appraisers-frontend-856401495068.us-central1.run.app"),
		AuthHandler:          authHandler,
		AuthMiddleware:       authMiddleware,
		AppraisalHandler:     appraisalHandler,
		UpdatePendingHandler: updatePendingHandler,
	})

	port := envutil.String("PORT", "8080")
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server failed", "error", err)
	}
}
