package openai

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

// Client is the enrichment adapter. Both calls return plain text.
type Client interface {
	// DescribeImage produces a short appraisal-style description of the
	// item shown at imageURL.
	DescribeImage(ctx context.Context, imageURL string) (string, error)
	// MergeDescriptions combines the generated and appraiser
	// descriptions into one customer-facing paragraph.
	MergeDescriptions(ctx context.Context, aiDescription, appraiserDescription string) (string, error)
}

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = envutil.String("OPENAI_MODEL", "gpt-4o")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Duration(envutil.Int("OPENAI_TIMEOUT_SECONDS", 60)) * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = envutil.Int("OPENAI_MAX_RETRIES", 3)
	}
	return &client{
		log:        log.With("client", "OpenAIClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

const describeSystemPrompt = "You are an art and antiques appraiser. " +
	"Describe the item in the image in two to three sentences: medium, style, " +
	"apparent age and notable condition details. No price estimates."

const mergeSystemPrompt = "You are an art and antiques appraiser. Merge the " +
	"two descriptions into a single cohesive customer-facing paragraph, keeping " +
	"every factual detail from the appraiser's text."

func (c *client) DescribeImage(ctx context.Context, imageURL string) (string, error) {
	if strings.TrimSpace(imageURL) == "" {
		return "", fmt.Errorf("openai: image url required")
	}
	userContent := []contentPart{
		{Type: "text", Text: "Describe this item for a pending appraisal."},
		{Type: "image_url", ImageURL: &imageRef{URL: imageURL}},
	}
	return c.chat(ctx, describeSystemPrompt, userContent)
}

func (c *client) MergeDescriptions(ctx context.Context, aiDescription, appraiserDescription string) (string, error) {
	prompt := fmt.Sprintf("Generated description:\n%s\n\nAppraiser description:\n%s",
		strings.TrimSpace(aiDescription), strings.TrimSpace(appraiserDescription))
	return c.chat(ctx, mergeSystemPrompt, []contentPart{{Type: "text", Text: prompt}})
}

// --- chat completions wire types ---

type imageRef struct {
	URL string `json:"url"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *client) chat(ctx context.Context, system string, user []contentPart) (string, error) {
	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens: 400,
	}

	raw, err := c.do(ctx, "/chat/completions", reqBody)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("openai: decode: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("openai: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "openai: <nil error>"
	}
	msg := strings.TrimSpace(e.Body)
	if len(msg) > 2000 {
		msg = msg[:2000] + "..."
	}
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) do(ctx context.Context, path string, body any) ([]byte, error) {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if ctx != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, path, body)
		if err == nil {
			return raw, nil
		}
		if !httpx.IsRetryableError(err) || attempt == c.cfg.MaxRetries {
			return nil, err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 15*time.Second))
		c.log.Warn("OpenAI request retrying",
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

func (c *client) doOnce(ctx context.Context, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodPost, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}
