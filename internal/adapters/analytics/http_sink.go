package analytics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pet-health-tracker/internal/platform/httpclient"
)

var (
	ErrNotConfigured = errors.New("analytics sink not configured")
	ErrEventRequired = errors.New("analytics event name required")
)

type Config struct {
	BaseURL string
	APIKey  string

	// Opcional: header de la API key. Default "X-Api-Key".
	APIKeyHeader string
	Timeout      time.Duration

	// Se agrega a todos los eventos (p.ej. "production").
	Environment string
}

// HTTPSink envía eventos a un collector HTTP (POST /v1/events).
type HTTPSink struct {
	client      *httpclient.Client
	environment string
	now         func() time.Time
}

func NewHTTPSink(cfg Config) (*HTTPSink, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}

	c, err := httpclient.New(httpclient.Options{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Headers: map[string]string{h: strings.TrimSpace(cfg.APIKey)},
	})
	if err != nil {
		return nil, err
	}

	return &HTTPSink{
		client:      c,
		environment: strings.TrimSpace(cfg.Environment),
		now:         time.Now,
	}, nil
}

type eventPayload struct {
	Event       string         `json:"event"`
	Properties  map[string]any `json:"properties"`
	Environment string         `json:"environment,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

func (s *HTTPSink) Record(ctx context.Context, event string, properties map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return ErrEventRequired
	}
	if properties == nil {
		properties = map[string]any{}
	}

	err := s.client.DoJSON(ctx, http.MethodPost, "/v1/events", eventPayload{
		Event:       event,
		Properties:  properties,
		Environment: s.environment,
		Timestamp:   s.now().UTC(),
	}, nil)
	if err != nil {
		return fmt.Errorf("analytics record %s: %w", event, err)
	}
	return nil
}
