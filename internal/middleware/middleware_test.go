package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"pet-health-tracker/internal/platform/logger"
	"pet-health-tracker/internal/ports/auth"
)

func TestRateLimit_PerClientIP(t *testing.T) {
	h := RateLimit(0.001, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/shared/x", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, do("10.0.0.1"))
	require.Equal(t, http.StatusOK, do("10.0.0.1"))
	require.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"))
	require.Equal(t, http.StatusOK, do("10.0.0.2"))
}

func TestRateLimit_BoundedBuckets(t *testing.T) {
	prev := maxBuckets
	maxBuckets = 2
	t.Cleanup(func() { maxBuckets = prev })

	h := RateLimit(100, 10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/shared/x", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, do("10.0.0.1"))
	require.Equal(t, http.StatusOK, do("10.0.0.2"))
	require.Equal(t, http.StatusTooManyRequests, do("10.0.0.3"), "no room for a new client")
	require.Equal(t, http.StatusOK, do("10.0.0.1"), "known clients keep their bucket")
}

func TestAccessLog_UsesRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Options{Level: logger.Debug, Output: &buf})

	r := chi.NewRouter()
	r.Use(AccessLog(l))
	r.Get("/shared/{token}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/shared/secret-token-value", nil))

	out := buf.String()
	require.Contains(t, out, "route=/shared/{token}")
	require.Contains(t, out, "status=404")
	require.NotContains(t, out, "secret-token-value")
}

func TestAuthContext_DevHeader(t *testing.T) {
	var got string
	h := AuthContext(nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = UserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/pets", nil)
	req.Header.Set(DebugUserHeader, "user-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, "user-1", got)
}

func TestAuthContext_Bearer(t *testing.T) {
	verifier := auth.VerifierFunc(func(_ context.Context, token string) (auth.Claims, error) {
		if token != "good" {
			return auth.Claims{}, errors.New("bad token")
		}
		return auth.Claims{UserID: "user-9", Role: "owner"}, nil
	})

	tests := []struct {
		name   string
		header string
		debug  string
		wantID string
		wantOK bool
	}{
		{name: "valid bearer", header: "Bearer good", wantID: "user-9", wantOK: true},
		{name: "lowercase scheme", header: "bearer good", wantID: "user-9", wantOK: true},
		{name: "rejected token", header: "Bearer nope"},
		{name: "wrong scheme", header: "Basic good"},
		{name: "empty token", header: "Bearer "},
		{name: "debug header ignored with verifier", debug: "user-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID string
			var gotOK bool
			h := AuthContext(verifier, logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID, gotOK = UserID(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest(http.MethodGet, "/pets", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.debug != "" {
				req.Header.Set(DebugUserHeader, tt.debug)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, http.StatusNoContent, rec.Code, "auth never short-circuits")
			require.Equal(t, tt.wantOK, gotOK)
			require.Equal(t, tt.wantID, gotID)
		})
	}
}
