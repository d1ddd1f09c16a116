package sharing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func serveShared(t *testing.T, svc *Service, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	r := chi.NewRouter()
	RegisterRoutes(r, svc)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shared/"+token, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestSharedPetHandler_BasicOmitsMedicalFields(t *testing.T) {
	rec, body := serveShared(t, newFixture().svc, basicToken)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "basic", body["permission_level"])
	for _, k := range []string{"allergies", "vaccinations", "treatments", "conditions", "health_metrics"} {
		require.NotContains(t, body, k)
	}
}

func TestSharedPetHandler_AdvancedIncludesEmptyArrays(t *testing.T) {
	rec, body := serveShared(t, newFixture().svc, advancedToken)

	require.Equal(t, http.StatusOK, rec.Code)
	for _, k := range []string{"allergies", "vaccinations", "treatments", "conditions", "health_metrics"} {
		require.Contains(t, body, k)
		require.IsType(t, []any{}, body[k])
	}
	require.Empty(t, body["treatments"])
	require.Len(t, body["vaccinations"], 1)
}

func TestSharedPetHandler_InvalidToken(t *testing.T) {
	rec, body := serveShared(t, newFixture().svc, revokedToken)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "invalid or expired share link", body["error"])
}
