package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	gpubsub "cloud.google.com/go/pubsub"

	"github.com/appraisily/appraisals-backend/internal/pkg/ctxutil"
	"github.com/appraisily/appraisals-backend/internal/pkg/logger"
)

// Publisher emits appraisal lifecycle events for downstream automation.
// Optional collaborator: absence of a topic disables it entirely.
type Publisher interface {
	PublishCompleted(ctx context.Context, event CompletedEvent) error
	Close() error
}

type CompletedEvent struct {
	SessionID     string    `json:"session_id"`
	Row           int       `json:"row"`
	PostID        int       `json:"post_id"`
	CustomerEmail string    `json:"customer_email"`
	CompletedAt   time.Time `json:"completed_at"`
}

type publisher struct {
	log    *logger.Logger
	client *gpubsub.Client
	topic  *gpubsub.Topic
}

func New(ctx context.Context, log *logger.Logger, projectID, topicID string) (Publisher, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(projectID) == "" || strings.TrimSpace(topicID) == "" {
		return nil, fmt.Errorf("missing pubsub project or topic")
	}
	client, err := gpubsub.NewClient(ctxutil.Default(ctx), projectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}
	return &publisher{
		log:    log.With("client", "PubSubPublisher"),
		client: client,
		topic:  client.Topic(topicID),
	}, nil
}

func (p *publisher) PublishCompleted(ctx context.Context, event CompletedEvent) error {
	if event.CompletedAt.IsZero() {
		event.CompletedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("pubsub: encode event: %w", err)
	}
	res := p.topic.Publish(ctxutil.Default(ctx), &gpubsub.Message{
		Data:       payload,
		Attributes: map[string]string{"event": "appraisal.completed"},
	})
	id, err := res.Get(ctxutil.Default(ctx))
	if err != nil {
		return fmt.Errorf("pubsub: publish: %w", err)
	}
	p.log.Debug("Published completion event", "message_id", id, "session_id", event.SessionID)
	return nil
}

func (p *publisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
