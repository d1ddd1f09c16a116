package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pet-health-tracker/internal/platform/logger"
)

func TestHTTPSink_Record(t *testing.T) {
	var got eventPayload
	var gotKey, gotPath string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	sink, err := NewHTTPSink(Config{BaseURL: ts.URL, APIKey: "key-1", Environment: "staging"})
	require.NoError(t, err)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	sink.now = func() time.Time { return fixed }

	err = sink.Record(context.Background(), "share_token_created", map[string]any{"permission_level": "basic"})

	require.NoError(t, err)
	require.Equal(t, "key-1", gotKey)
	require.Equal(t, "/v1/events", gotPath)
	require.Equal(t, "share_token_created", got.Event)
	require.Equal(t, "basic", got.Properties["permission_level"])
	require.Equal(t, "staging", got.Environment)
	require.True(t, fixed.Equal(got.Timestamp))
}

func TestHTTPSink_UpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	sink, err := NewHTTPSink(Config{BaseURL: ts.URL, APIKey: "key-1"})
	require.NoError(t, err)

	require.Error(t, sink.Record(context.Background(), "share_token_created", nil))
	require.ErrorIs(t, sink.Record(context.Background(), " ", nil), ErrEventRequired)
}

func TestNewHTTPSink_NotConfigured(t *testing.T) {
	_, err := NewHTTPSink(Config{BaseURL: "http://localhost:1"})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestLogSink_Record(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(logger.New(logger.Options{Level: logger.Debug, Output: &buf}))

	require.NoError(t, sink.Record(context.Background(), "share_token_created", map[string]any{"pet_id": "p1"}))
	require.Contains(t, buf.String(), "event=share_token_created")
	require.Contains(t, buf.String(), "component=analytics")
	require.Contains(t, buf.String(), "pet_id=p1")
}
