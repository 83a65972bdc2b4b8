package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/appraisily/appraisals-backend/internal/pkg/envutil"
	"github.com/appraisily/appraisals-backend/internal/platform/secrets"
)

// Config is built once at startup and passed by injection; nothing in
// the process reads secrets after Load returns. A missing required
// secret fails startup, a missing optional one only disables the
// collaborator that needs it.
type Config struct {
	ProjectID string

	JWTSecret            string
	SharedSecret         string
	OperatorPasswordHash string
	AuthorizedUsers      []string

	SpreadsheetID string
	SheetName     string

	WordPressAPIURL      string
	WordPressUsername    string
	WordPressAppPassword string

	// Optional: enrichment.
	OpenAIAPIKey string

	// Optional: notification.
	SendGridAPIKey            string
	SendGridFromEmail         string
	TemplateAppraisalUpdate   string
	TemplateAppraisalComplete string

	// Optional: completion events.
	PubSubCompletedTopic string
}

func Load(ctx context.Context, projectID string, provider secrets.Provider) (*Config, error) {
	cfg := &Config{ProjectID: projectID}

	required := []struct {
		name string
		dst  *string
	}{
		{"jwt-secret", &cfg.JWTSecret},
		{"SHARED_SECRET", &cfg.SharedSecret},
		{"OPERATOR_PASSWORD_HASH", &cfg.OperatorPasswordHash},
		{"PENDING_APPRAISALS_SPREADSHEET_ID", &cfg.SpreadsheetID},
		{"GOOGLE_SHEET_NAME", &cfg.SheetName},
		{"WORDPRESS_API_URL", &cfg.WordPressAPIURL},
		{"wp_username", &cfg.WordPressUsername},
		{"wp_app_password", &cfg.WordPressAppPassword},
	}
	for _, s := range required {
		v, err := provider.Get(ctx, s.name)
		if err != nil {
			return nil, fmt.Errorf("required secret %q: %w", s.name, err)
		}
		*s.dst = strings.TrimSpace(v)
	}

	// Legacy host fixup carried over from the first deployment.
	cfg.WordPressAPIURL = strings.Replace(cfg.WordPressAPIURL, "www.resources", "resources", 1)

	optional := []struct {
		name string
		dst  *string
	}{
		{"OPENAI_API_KEY", &cfg.OpenAIAPIKey},
		{"SENDGRID_API_KEY", &cfg.SendGridAPIKey},
		{"SENDGRID_EMAIL", &cfg.SendGridFromEmail},
		{"SEND_GRID_TEMPLATE_NOTIFY_APPRAISAL_UPDATE", &cfg.TemplateAppraisalUpdate},
		{"SEND_GRID_TEMPLATE_NOTIFY_APPRAISAL_COMPLETED", &cfg.TemplateAppraisalComplete},
		{"PUBSUB_COMPLETED_TOPIC", &cfg.PubSubCompletedTopic},
	}
	for _, s := range optional {
		if v, err := provider.Get(ctx, s.name); err == nil {
			*s.dst = strings.TrimSpace(v)
		}
	}

	users := envutil.String("AUTHORIZED_USERS", "")
	for _, u := range strings.Split(users, ",") {
		if u = strings.ToLower(strings.TrimSpace(u)); u != "" {
			cfg.AuthorizedUsers = append(cfg.AuthorizedUsers, u)
		}
	}

	return cfg, nil
}

// EmailEnabled reports whether the notification collaborator has
// everything it needs.
func (c *Config) EmailEnabled() bool {
	return c.SendGridAPIKey != "" && c.SendGridFromEmail != "" &&
		c.TemplateAppraisalUpdate != "" && c.TemplateAppraisalComplete != ""
}

func (c *Config) AIEnabled() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) EventsEnabled() bool {
	return c.PubSubCompletedTopic != ""
}

// IsAuthorizedUser checks the operator allow-list.
func (c *Config) IsAuthorizedUser(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range c.AuthorizedUsers {
		if u == email {
			return true
		}
	}
	return false
}
