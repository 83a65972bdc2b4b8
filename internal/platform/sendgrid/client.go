package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/appraisily/appraisals-backend/internal/pkg/ctxutil"
	"github.com/appraisily/appraisals-backend/internal/pkg/envutil"
	"github.com/appraisily/appraisals-backend/internal/pkg/httpx"
	"github.com/appraisily/appraisals-backend/internal/pkg/logger"
)

// Client sends transactional mail. Only dynamic-template sends are
// used here; every customer notification goes through a template.
type Client interface {
	Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error)
}

type Config struct {
	APIKey           string
	BaseURL          string
	DefaultFromEmail string
	DefaultFromName  string
	Timeout          time.Duration
	MaxRetries       int
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing SENDGRID_API_KEY")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Duration(envutil.Int("SENDGRID_TIMEOUT_SECONDS", 30)) * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = envutil.Int("SENDGRID_MAX_RETRIES", 4)
	}
	return &client{
		log:        log.With("client", "SendGridClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

// --- public request/response types ---

type EmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type SendEmailRequest struct {
	From                EmailAddress
	To                  []EmailAddress
	TemplateID          string
	DynamicTemplateData map[string]any
	Categories          []string
}

type SendEmailResult struct {
	StatusCode int
	MessageID  string
}

// --- SendGrid mail send wire types ---

type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             EmailAddress      `json:"from"`
	TemplateID       string            `json:"template_id"`
	Categories       []string          `json:"categories,omitempty"`
}

type personalization struct {
	To                  []EmailAddress `json:"to"`
	DynamicTemplateData map[string]any `json:"dynamic_template_data,omitempty"`
}

func (c *client) Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error) {
	if strings.TrimSpace(req.From.Email) == "" {
		req.From.Email = c.cfg.DefaultFromEmail
		if strings.TrimSpace(req.From.Name) == "" {
			req.From.Name = c.cfg.DefaultFromName
		}
	}
	req.From.Email = strings.TrimSpace(req.From.Email)
	req.TemplateID = strings.TrimSpace(req.TemplateID)

	if req.From.Email == "" {
		return nil, fmt.Errorf("sendgrid: From.Email required (or set SENDGRID_EMAIL)")
	}
	if len(req.To) == 0 {
		return nil, fmt.Errorf("sendgrid: To required")
	}
	if req.TemplateID == "" {
		return nil, fmt.Errorf("sendgrid: TemplateID required")
	}

	wire := mailSendRequest{
		Personalizations: []personalization{{
			To:                  req.To,
			DynamicTemplateData: req.DynamicTemplateData,
		}},
		From:       req.From,
		TemplateID: req.TemplateID,
		Categories: req.Categories,
	}

	resp, err := c.do(ctx, "/v3/mail/send", wire)
	if err != nil {
		return nil, err
	}
	return &SendEmailResult{
		StatusCode: resp.StatusCode,
		MessageID:  strings.TrimSpace(resp.Header.Get("X-Message-Id")),
	}, nil
}

// --- HTTP / retry plumbing ---

type errorItem struct {
	Message string `json:"message"`
	Field   any    `json:"field,omitempty"`
}

type errorResponse struct {
	Errors []errorItem `json:"errors"`
}

type HTTPError struct {
	StatusCode int
	Body       string
	Errors     []errorItem
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "sendgrid: <nil error>"
	}
	if len(e.Errors) > 0 && strings.TrimSpace(e.Errors[0].Message) != "" {
		return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, e.Errors[0].Message)
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 2000 {
		msg = msg[:2000] + "..."
	}
	return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) do(ctx context.Context, path string, body any) (*http.Response, error) {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if ctx != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		resp, err := c.doOnce(ctx, path, body)
		if err == nil {
			return resp, nil
		}
		if !httpx.IsRetryableError(err) || attempt == c.cfg.MaxRetries {
			return nil, err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("SendGrid request retrying",
			"path", path,
			"attempt", attempt+1,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		time.Sleep(sleepFor)
		backoff *= 2
	}

	return nil, errors.New("unreachable retry loop")
}

func (c *client) doOnce(ctx context.Context, path string, body any) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodPost, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		he := &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
		var er errorResponse
		if json.Unmarshal(raw, &er) == nil && len(er.Errors) > 0 {
			he.Errors = er.Errors
		}
		return resp, he
	}
	return resp, nil
}
