package sharing

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pet-health-tracker/internal/domain/pets"
	"pet-health-tracker/internal/domain/records"
	"pet-health-tracker/internal/domain/sharetokens"
	"pet-health-tracker/internal/domain/vaccinations"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta el endpoint público. El rate limit lo pone el router.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/shared/{token}", sharedPetHandler(svc))
}

type petIdentityResponse struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Species         pets.Species `json:"species"`
	Breed           string       `json:"breed"`
	Gender          pets.Gender  `json:"gender"`
	DateOfBirth     *time.Time   `json:"date_of_birth,omitempty"`
	AvatarURL       string       `json:"avatar_url,omitempty"`
	MicrochipNumber string       `json:"microchip_number,omitempty"`
}

// sharedPetResponse: en basic las colecciones médicas no aparecen;
// en advanced aparecen siempre, aunque estén vacías.
type sharedPetResponse struct {
	Pet             petIdentityResponse                 `json:"pet"`
	PermissionLevel sharetokens.PermissionLevel         `json:"permission_level"`
	ExpiresAt       *time.Time                          `json:"expires_at,omitempty"`
	Allergies       *[]records.AllergyResponse          `json:"allergies,omitempty"`
	Vaccinations    *[]vaccinations.VaccinationResponse `json:"vaccinations,omitempty"`
	Treatments      *[]records.TreatmentResponse        `json:"treatments,omitempty"`
	Conditions      *[]records.ConditionResponse        `json:"conditions,omitempty"`
	HealthMetrics   *[]records.HealthMetricResponse     `json:"health_metrics,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// sharedPetHandler godoc
// @Summary Ver mascota compartida
// @Description Endpoint público. basic = identidad; advanced = identidad + alergias, vacunas, tratamientos, condiciones y últimas 10 métricas.
// @Tags shared
// @Produce json
// @Param token path string true "Token del link (64 hex)"
// @Success 200 {object} sharedPetResponse
// @Failure 404 {object} errorResponse "invalid or expired share link"
// @Failure 429 {string} string "too many requests"
// @Failure 503 {object} errorResponse
// @Router /shared/{token} [get]
func sharedPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.Validate(r.Context(), chi.URLParam(r, "token"))
		if err != nil {
			if errors.Is(err, ErrInvalidToken) {
				writeJSON(w, http.StatusNotFound, errorResponse{Error: ErrInvalidToken.Error()})
				return
			}
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: ErrUnavailable.Error()})
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, toSharedPetResponse(data))
	}
}

func toSharedPetResponse(d SharedPetData) sharedPetResponse {
	out := sharedPetResponse{
		Pet: petIdentityResponse{
			ID:              d.Pet.ID,
			Name:            d.Pet.Name,
			Species:         d.Pet.Species,
			Breed:           d.Pet.Breed,
			Gender:          d.Pet.Gender,
			DateOfBirth:     d.Pet.DateOfBirth,
			AvatarURL:       d.Pet.AvatarURL,
			MicrochipNumber: d.Pet.MicrochipNumber,
		},
		PermissionLevel: d.PermissionLevel,
		ExpiresAt:       d.ExpiresAt,
	}
	if d.Medical == nil {
		return out
	}

	allergies := records.ToAllergyResponses(d.Medical.Allergies)
	vaccs := vaccinations.ToResponses(d.Medical.Vaccinations)
	treatments := records.ToTreatmentResponses(d.Medical.Treatments)
	conditions := records.ToConditionResponses(d.Medical.Conditions)
	metrics := records.ToHealthMetricResponses(d.Medical.HealthMetrics)

	out.Allergies = &allergies
	out.Vaccinations = &vaccs
	out.Treatments = &treatments
	out.Conditions = &conditions
	out.HealthMetrics = &metrics
	return out
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
