package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	"github.com/appraisily/appraisals-backend/internal/pkg/ctxutil"
	"github.com/appraisily/appraisals-backend/internal/pkg/logger"
)

// Provider resolves named secrets at startup. Get returns the latest
// version of the secret; callers decide whether absence is fatal.
type Provider interface {
	Get(ctx context.Context, name string) (string, error)
	Close() error
}

type gcpProvider struct {
	log       *logger.Logger
	client    *secretmanager.Client
	projectID string
}

// New returns a Secret Manager backed provider. An environment variable
// named after the secret (uppercased, dashes to underscores) overrides
// the remote value, so local runs need no GCP access.
func New(ctx context.Context, log *logger.Logger, projectID string) (Provider, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(projectID) == "" {
		return nil, fmt.Errorf("missing GOOGLE_CLOUD_PROJECT")
	}
	client, err := secretmanager.NewClient(ctxutil.Default(ctx))
	if err != nil {
		return nil, fmt.Errorf("secretmanager client: %w", err)
	}
	return &gcpProvider{
		log:       log.With("client", "SecretProvider"),
		client:    client,
		projectID: projectID,
	}, nil
}

func (p *gcpProvider) Get(ctx context.Context, name string) (string, error) {
	if v, ok := envOverride(name); ok {
		return v, nil
	}
	resource := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", p.projectID, name)
	resp, err := p.client.AccessSecretVersion(ctxutil.Default(ctx), &secretmanagerpb.AccessSecretVersionRequest{
		Name: resource,
	})
	if err != nil {
		return "", fmt.Errorf("access secret %q: %w", name, err)
	}
	return strings.TrimSpace(string(resp.GetPayload().GetData())), nil
}

func (p *gcpProvider) Close() error {
	return p.client.Close()
}

func envOverride(name string) (string, bool) {
	key := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

// EnvProvider resolves secrets from the environment only. Used in tests
// and local development without a GCP project.
type EnvProvider struct{}

func (EnvProvider) Get(_ context.Context, name string) (string, error) {
	if v, ok := envOverride(name); ok {
		return v, nil
	}
	return "", fmt.Errorf("secret %q not set in environment", name)
}

func (EnvProvider) Close() error { return nil }
