package sharetokens

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-health-tracker/internal/middleware"
	"pet-health-tracker/internal/platform/validate"

	"github.com/go-chi/chi/v5"
)

// PetOwnerLookup evita importar el paquete pets (rompe ciclos).
type PetOwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

func RegisterRoutes(r chi.Router, svc *Service, petOwners PetOwnerLookup, urls URLBuilder) {
	r.Route("/pets/{petID}/share-tokens", func(tr chi.Router) {
		tr.Get("/", listTokensHandler(svc, petOwners, urls))
		tr.Post("/", generateTokenHandler(svc, petOwners, urls))
		tr.Put("/current", getOrCreateTokenHandler(svc, petOwners, urls))
		tr.Post("/{tokenID}/revoke", revokeTokenHandler(svc, petOwners, urls))
		tr.Delete("/{tokenID}", deleteTokenHandler(svc, petOwners))
	})
}

type generateTokenRequest struct {
	PermissionLevel string     `json:"permission_level" validate:"required,oneof=basic advanced"`
	ExpiresAt       *time.Time `json:"expires_at"`
}

type currentTokenRequest struct {
	PermissionLevel string `json:"permission_level" validate:"required,oneof=basic advanced"`
}

type shareTokenResponse struct {
	ID              string          `json:"id"`
	PetID           string          `json:"pet_id"`
	Token           string          `json:"token"`
	PermissionLevel PermissionLevel `json:"permission_level"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	ExpiresAt       *time.Time      `json:"expires_at,omitempty"`
	AccessedCount   int64           `json:"accessed_count"`
	LastAccessedAt  *time.Time      `json:"last_accessed_at,omitempty"`
	ShareURL        string          `json:"share_url"`
}

// listTokensHandler godoc
// @Summary Listar links compartidos de una mascota
// @Description Tokens activos y revocados, más nuevos primero. Solo el dueño.
// @Tags share-tokens
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Success 200 {array} shareTokenResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/share-tokens [get]
func listTokensHandler(svc *Service, petOwners PetOwnerLookup, urls URLBuilder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := authorizeOwner(w, r, petOwners)
		if !ok {
			return
		}

		items, err := svc.List(r.Context(), petID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]shareTokenResponse, 0, len(items))
		for _, t := range items {
			out = append(out, toShareTokenResponse(t, urls, r.Host))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// generateTokenHandler godoc
// @Summary Generar link compartido
// @Description Crea siempre un token nuevo (64 hex). basic = identidad; advanced = identidad + historia médica.
// @Tags share-tokens
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param payload body generateTokenRequest true "permission_level: basic|advanced; expires_at opcional (RFC3339)"
// @Success 201 {object} shareTokenResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/share-tokens [post]
func generateTokenHandler(svc *Service, petOwners PetOwnerLookup, urls URLBuilder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := authorizeOwner(w, r, petOwners)
		if !ok {
			return
		}

		var req generateTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": validate.Fields(err)})
			return
		}

		t, err := svc.Generate(r.Context(), GenerateInput{
			PetID:           petID,
			PermissionLevel: PermissionLevel(req.PermissionLevel),
			ExpiresAt:       req.ExpiresAt,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toShareTokenResponse(t, urls, r.Host))
	}
}

// getOrCreateTokenHandler godoc
// @Summary Obtener o crear el link vigente
// @Description Devuelve el token activo y no vencido más reciente del nivel pedido (200) o crea uno (201).
// @Tags share-tokens
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param payload body currentTokenRequest true "permission_level: basic|advanced"
// @Success 200 {object} shareTokenResponse
// @Success 201 {object} shareTokenResponse
// @Router /pets/{petID}/share-tokens/current [put]
func getOrCreateTokenHandler(svc *Service, petOwners PetOwnerLookup, urls URLBuilder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := authorizeOwner(w, r, petOwners)
		if !ok {
			return
		}

		var req currentTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": validate.Fields(err)})
			return
		}

		t, created, err := svc.GetOrCreate(r.Context(), petID, PermissionLevel(req.PermissionLevel))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, status, toShareTokenResponse(t, urls, r.Host))
	}
}

// revokeTokenHandler godoc
// @Summary Revocar link compartido
// @Description Idempotente. El token deja de validar pero queda guardado.
// @Tags share-tokens
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param tokenID path string true "ID del token"
// @Success 200 {object} shareTokenResponse
// @Failure 404 {string} string "share token not found"
// @Router /pets/{petID}/share-tokens/{tokenID}/revoke [post]
func revokeTokenHandler(svc *Service, petOwners PetOwnerLookup, urls URLBuilder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := authorizeOwner(w, r, petOwners)
		if !ok {
			return
		}
		tokenID, ok := tokenOfPet(w, r, svc, petID)
		if !ok {
			return
		}

		t, err := svc.Revoke(r.Context(), tokenID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toShareTokenResponse(t, urls, r.Host))
	}
}

// deleteTokenHandler godoc
// @Summary Borrar link compartido
// @Description Borrado permanente.
// @Tags share-tokens
// @Param petID path string true "ID de la mascota"
// @Param tokenID path string true "ID del token"
// @Success 204
// @Failure 404 {string} string "share token not found"
// @Router /pets/{petID}/share-tokens/{tokenID} [delete]
func deleteTokenHandler(svc *Service, petOwners PetOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := authorizeOwner(w, r, petOwners)
		if !ok {
			return
		}
		tokenID, ok := tokenOfPet(w, r, svc, petID)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), tokenID); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func authorizeOwner(w http.ResponseWriter, r *http.Request, petOwners PetOwnerLookup) (string, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}

	petID := chi.URLParam(r, "petID")
	ownerID, err := petOwners.OwnerOf(r.Context(), petID)
	if err != nil || strings.TrimSpace(ownerID) == "" {
		http.Error(w, "pet not found", http.StatusNotFound)
		return "", false
	}
	if ownerID != userID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return "", false
	}
	return petID, true
}

// tokenOfPet: un token de otra mascota se reporta como inexistente.
func tokenOfPet(w http.ResponseWriter, r *http.Request, svc *Service, petID string) (string, bool) {
	t, err := svc.Get(r.Context(), chi.URLParam(r, "tokenID"))
	if err == nil && t.PetID != petID {
		err = ErrNotFound
	}
	if err != nil {
		writeServiceError(w, err)
		return "", false
	}
	return t.ID, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "share token not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toShareTokenResponse(t ShareToken, urls URLBuilder, host string) shareTokenResponse {
	return shareTokenResponse{
		ID:              t.ID,
		PetID:           t.PetID,
		Token:           t.Token,
		PermissionLevel: t.PermissionLevel,
		IsActive:        t.IsActive,
		CreatedAt:       t.CreatedAt,
		ExpiresAt:       t.ExpiresAt,
		AccessedCount:   t.AccessedCount,
		LastAccessedAt:  t.LastAccessedAt,
		ShareURL:        urls.ShareURL(host, t.Token),
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
