package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pet-health-tracker/internal/router"
)

type tokenResp struct {
	ID              string `json:"id"`
	Token           string `json:"token"`
	PermissionLevel string `json:"permission_level"`
	IsActive        bool   `json:"is_active"`
	AccessedCount   int64  `json:"accessed_count"`
	ShareURL        string `json:"share_url"`
}

func TestHTTP_EndToEnd_ShareLinks(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	ownerID := "owner-1"
	strangerID := "stranger-1"

	// 1) Owner crea mascota
	petID := createPet(t, ts.URL, ownerID, map[string]any{
		"name":    "Milo",
		"species": "dog",
		"breed":   "mixed",
		"gender":  "male",
	})

	// 2) Otro usuario no puede ver ni crear links
	{
		st, _ := doReq(t, ts.URL, "GET", "/pets/"+petID+"/share-tokens", strangerID, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for stranger, got %d", st)
		}
		st, _ = doReq(t, ts.URL, "GET", "/pets/"+petID+"/share-tokens", "", nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 without user, got %d", st)
		}
	}

	// 3) get-or-create: la segunda vez devuelve el mismo token
	basic := putCurrent(t, ts.URL, ownerID, petID, "basic", http.StatusCreated)
	again := putCurrent(t, ts.URL, ownerID, petID, "basic", http.StatusOK)
	if again.Token != basic.Token {
		t.Fatalf("expected same token on second get-or-create")
	}
	if len(basic.Token) != 64 {
		t.Fatalf("expected 64-char token, got %q", basic.Token)
	}
	if !strings.HasPrefix(basic.ShareURL, "http://127.0.0.1:") || !strings.HasSuffix(basic.ShareURL, "/pet/shared/"+basic.Token) {
		t.Fatalf("unexpected share url %q", basic.ShareURL)
	}

	// 4) Link basic: solo identidad
	{
		st, body := doReq(t, ts.URL, "GET", "/shared/"+basic.Token, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 shared basic, got %d body=%s", st, string(body))
		}
		var m map[string]any
		_ = json.Unmarshal(body, &m)
		if _, ok := m["allergies"]; ok {
			t.Fatalf("basic link must not include medical data: %s", string(body))
		}
		pet, _ := m["pet"].(map[string]any)
		if pet["name"] != "Milo" {
			t.Fatalf("unexpected pet identity: %s", string(body))
		}
	}

	// 5) Historia médica + link advanced
	next := time.Now().AddDate(1, 0, 0).Format("2006-01-02")
	{
		st, body := doReq(t, ts.URL, "POST", "/pets/"+petID+"/vaccinations", ownerID, map[string]any{
			"vaccine_name":  "Rabies",
			"date_given":    time.Now().AddDate(0, -1, 0).Format("2006-01-02"),
			"next_due_date": next,
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 create vaccination, got %d body=%s", st, string(body))
		}
		st, body = doReq(t, ts.URL, "POST", "/pets/"+petID+"/allergies", ownerID, map[string]any{
			"allergen": "Chicken",
			"severity": "moderate",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 create allergy, got %d body=%s", st, string(body))
		}
	}

	var advanced tokenResp
	{
		st, body := doReq(t, ts.URL, "POST", "/pets/"+petID+"/share-tokens", ownerID, map[string]any{
			"permission_level": "advanced",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 generate, got %d body=%s", st, string(body))
		}
		_ = json.Unmarshal(body, &advanced)
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/shared/"+advanced.Token, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 shared advanced, got %d body=%s", st, string(body))
		}
		var m map[string]json.RawMessage
		_ = json.Unmarshal(body, &m)
		for _, k := range []string{"allergies", "vaccinations", "treatments", "conditions", "health_metrics"} {
			raw, ok := m[k]
			if !ok || raw[0] != '[' {
				t.Fatalf("advanced link must include %s as array: %s", k, string(body))
			}
		}
		var vaccs []map[string]any
		_ = json.Unmarshal(m["vaccinations"], &vaccs)
		if len(vaccs) != 1 {
			t.Fatalf("expected 1 vaccination, got %d", len(vaccs))
		}
	}

	// 6) El acceso quedó contado
	{
		items := listTokens(t, ts.URL, ownerID, petID)
		if len(items) != 2 || items[0].ID != advanced.ID {
			t.Fatalf("expected 2 tokens newest first, got %#v", items)
		}
		if items[1].AccessedCount != 1 {
			t.Fatalf("expected basic accessed once, got %d", items[1].AccessedCount)
		}
	}

	// 7) Revocar es idempotente y corta el link
	for i := 0; i < 2; i++ {
		st, body := doReq(t, ts.URL, "POST", "/pets/"+petID+"/share-tokens/"+basic.ID+"/revoke", ownerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 revoke #%d, got %d body=%s", i+1, st, string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/shared/"+basic.Token, "", nil)
		if st != http.StatusNotFound || !strings.Contains(string(body), "invalid or expired share link") {
			t.Fatalf("expected 404 generic error for revoked link, got %d body=%s", st, string(body))
		}
	}

	// 8) Borrar elimina el token del listado
	{
		st, _ := doReq(t, ts.URL, "DELETE", "/pets/"+petID+"/share-tokens/"+advanced.ID, ownerID, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 delete, got %d", st)
		}
		items := listTokens(t, ts.URL, ownerID, petID)
		if len(items) != 1 || items[0].ID != basic.ID || items[0].IsActive {
			t.Fatalf("expected only the revoked basic token, got %#v", items)
		}
		st, _ = doReq(t, ts.URL, "GET", "/shared/"+advanced.Token, "", nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 for deleted link, got %d", st)
		}
	}

	// 9) Compliance
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+petID+"/vaccinations/compliance", ownerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 compliance, got %d body=%s", st, string(body))
		}
		var c struct {
			Total   int `json:"total_vaccinations"`
			Percent int `json:"compliance_percentage"`
		}
		_ = json.Unmarshal(body, &c)
		if c.Total != 1 || c.Percent != 100 {
			t.Fatalf("unexpected compliance: %s", string(body))
		}
	}
}

func TestHTTP_SharedEndpointIsRateLimited(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{ShareRatePerSec: 0.001, ShareRateBurst: 2}))
	defer ts.Close()

	unknown := strings.Repeat("ab", 32)
	for i := 0; i < 2; i++ {
		if st, _ := doReq(t, ts.URL, "GET", "/shared/"+unknown, "", nil); st != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", st)
		}
	}
	if st, _ := doReq(t, ts.URL, "GET", "/shared/"+unknown, "", nil); st != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", st)
	}

	// El resto de la API no comparte el limiter.
	if st, _ := doReq(t, ts.URL, "GET", "/health", "", nil); st != http.StatusOK {
		t.Fatalf("expected 200 health, got %d", st)
	}
}

func TestHTTP_SharedRateLimitIgnoresForwardedHeaders(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{ShareRatePerSec: 0.001, ShareRateBurst: 2}))
	defer ts.Close()

	unknown := strings.Repeat("cd", 32)
	limited := 0
	for i := 0; i < 20; i++ {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/shared/"+unknown, nil)
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i+1))

		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("do request: %v", err)
		}
		_, _ = io.Copy(io.Discard, res.Body)
		res.Body.Close()
		if res.StatusCode == http.StatusTooManyRequests {
			limited++
		}
	}

	if limited != 18 {
		t.Fatalf("expected 18 of 20 requests limited despite rotating forwarded headers, got %d", limited)
	}
}

func TestHTTP_SharedRateLimitTrustedProxy(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{ShareRatePerSec: 0.001, ShareRateBurst: 1, TrustProxyHeaders: true}))
	defer ts.Close()

	unknown := strings.Repeat("ef", 32)
	get := func(clientIP string) int {
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/shared/"+unknown, nil)
		req.Header.Set("X-Forwarded-For", clientIP)
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("do request: %v", err)
		}
		defer res.Body.Close()
		return res.StatusCode
	}

	if st := get("203.0.113.1"); st != http.StatusNotFound {
		t.Fatalf("expected 404 for first client, got %d", st)
	}
	if st := get("203.0.113.1"); st != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for same forwarded client, got %d", st)
	}
	if st := get("203.0.113.2"); st != http.StatusNotFound {
		t.Fatalf("expected 404 for another client behind the proxy, got %d", st)
	}
}

func TestHTTP_OpsEndpoints(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	if st, _ := doReq(t, ts.URL, "GET", "/health", "", nil); st != http.StatusOK {
		t.Fatalf("expected 200 health, got %d", st)
	}
	st, body := doReq(t, ts.URL, "GET", "/metrics", "", nil)
	if st != http.StatusOK || !strings.Contains(string(body), "http_requests_total") {
		t.Fatalf("expected metrics exposition, got %d", st)
	}
	st, body = doReq(t, ts.URL, "GET", "/swagger/doc.json", "", nil)
	if st != http.StatusOK || !strings.Contains(string(body), "/shared/{token}") {
		t.Fatalf("expected swagger doc, got %d", st)
	}
}

func createPet(t *testing.T, baseURL, userID string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/pets", userID, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create pet, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create pet: missing id body=%s", string(body))
	}
	return resp.ID
}

func putCurrent(t *testing.T, baseURL, userID, petID, level string, wantStatus int) tokenResp {
	t.Helper()

	st, body := doReq(t, baseURL, "PUT", "/pets/"+petID+"/share-tokens/current", userID, map[string]any{
		"permission_level": level,
	})
	if st != wantStatus {
		t.Fatalf("expected %d get-or-create, got %d body=%s", wantStatus, st, string(body))
	}

	var resp tokenResp
	_ = json.Unmarshal(body, &resp)
	return resp
}

func listTokens(t *testing.T, baseURL, userID, petID string) []tokenResp {
	t.Helper()

	st, body := doReq(t, baseURL, "GET", "/pets/"+petID+"/share-tokens", userID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 list tokens, got %d body=%s", st, string(body))
	}
	var items []tokenResp
	_ = json.Unmarshal(body, &items)
	return items
}

func doReq(t *testing.T, baseURL, method, path, debugUserID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
