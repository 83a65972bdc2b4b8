package wordpress

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

// Client is the content-backend adapter. Posts are fetched with
// context=edit so raw (unrendered) title and content come back.
type Client interface {
	GetPost(ctx context.Context, postID int) (*Post, error)
	UpdatePost(ctx context.Context, postID int, patch Patch) error
}

type Config struct {
	// BaseURL is the REST root, e.g. https://resources.example.com/wp-json/wp/v2.
	BaseURL     string
	Username    string
	AppPassword string
	Timeout     time.Duration
	MaxRetries  int
}

type Post struct {
	ID      int
	Title   string
	Content string
	Link    string
	ACF     map[string]any
}

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	Title   *string
	Content *string
	ACF     map[string]any
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("missing WORDPRESS_API_URL")
	}
	if strings.TrimSpace(cfg.Username) == "" || strings.TrimSpace(cfg.AppPassword) == "" {
		return nil, fmt.Errorf("missing wordpress credentials")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Duration(envutil.Int("WORDPRESS_TIMEOUT_SECONDS", 30)) * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = envutil.Int("WORDPRESS_MAX_RETRIES", 3)
	}
	return &client{
		log:        log.With("client", "WordPressClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

// --- wire types ---

type renderedField struct {
	Raw      string `json:"raw"`
	Rendered string `json:"rendered"`
}

type postResponse struct {
	ID      int            `json:"id"`
	Title   renderedField  `json:"title"`
	Content renderedField  `json:"content"`
	Link    string         `json:"link"`
	ACF     map[string]any `json:"acf"`
}

type postPatchRequest struct {
	Title   *string        `json:"title,omitempty"`
	Content *string        `json:"content,omitempty"`
	ACF     map[string]any `json:"acf,omitempty"`
}

func (c *client) GetPost(ctx context.Context, postID int) (*Post, error) {
	raw, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/appraisals/%d?context=edit", postID), nil)
	if err != nil {
		return nil, err
	}
	var wire postResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("wordpress post %d: decode: %w", postID, err)
	}
	return &Post{
		ID:      wire.ID,
		Title:   pickRaw(wire.Title),
		Content: pickRaw(wire.Content),
		Link:    wire.Link,
		ACF:     wire.ACF,
	}, nil
}

func (c *client) UpdatePost(ctx context.Context, postID int, patch Patch) error {
	if patch.Title == nil && patch.Content == nil && len(patch.ACF) == 0 {
		return nil
	}
	body := postPatchRequest{Title: patch.Title, Content: patch.Content, ACF: patch.ACF}
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/appraisals/%d", postID), body)
	return err
}

func pickRaw(f renderedField) string {
	if f.Raw != "" {
		return f.Raw
	}
	return f.Rendered
}

// --- HTTP / retry plumbing ---

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "wordpress: <nil error>"
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 2000 {
		msg = msg[:2000] + "..."
	}
	return fmt.Sprintf("wordpress http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if ctx != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			return raw, nil
		}
		if !httpx.IsRetryableError(err) || attempt == c.cfg.MaxRetries {
			return nil, err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("WordPress request retrying",
			"method", method,
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

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.AppPassword)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

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
