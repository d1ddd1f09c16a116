package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient_DoJSON(t *testing.T) {
	var gotKey, gotContentType string
	var gotBody map[string]any

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	c, err := New(Options{BaseURL: ts.URL, Headers: map[string]string{"X-Api-Key": "k-1", "X-Empty": ""}})
	require.NoError(t, err)

	var out struct {
		OK bool `json:"ok"`
	}
	err = c.DoJSON(context.Background(), http.MethodPost, "v1/events", map[string]any{"event": "x"}, &out)

	require.NoError(t, err)
	require.True(t, out.OK)
	require.Equal(t, "k-1", gotKey)
	require.Equal(t, "application/json", gotContentType)
	require.Equal(t, "x", gotBody["event"])
}

func TestClient_DoJSON_Non2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer ts.Close()

	c, err := New(Options{})
	require.NoError(t, err)

	err = c.DoJSON(context.Background(), http.MethodGet, ts.URL+"/x", nil, nil)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr), "expected HTTPError, got %v", err)
	require.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	require.Equal(t, "nope", httpErr.Body)
}

func TestClient_RelativePathWithoutBaseURL(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)

	err = c.DoJSON(context.Background(), http.MethodGet, "/relative", nil, nil)
	require.Error(t, err)
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New(Options{BaseURL: "::not-a-url"})
	require.Error(t, err)
}
