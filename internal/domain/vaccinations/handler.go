package vaccinations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pet-health-tracker/internal/middleware"
	"pet-health-tracker/internal/platform/validate"

	"github.com/go-chi/chi/v5"
)

// PetOwnerLookup evita importar el paquete pets.
type PetOwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

func RegisterRoutes(r chi.Router, svc *Service, petOwners PetOwnerLookup) {
	r.Route("/pets/{petID}/vaccinations", func(vr chi.Router) {
		vr.Get("/", listVaccinationsHandler(svc, petOwners))
		vr.Post("/", createVaccinationHandler(svc, petOwners))
		vr.Get("/compliance", complianceHandler(svc, petOwners))
		vr.Patch("/{vaccinationID}", updateVaccinationHandler(svc, petOwners))
		vr.Delete("/{vaccinationID}", deleteVaccinationHandler(svc, petOwners))
	})
}

type createVaccinationRequest struct {
	VaccineName  string  `json:"vaccine_name" validate:"required,max=200"`
	Category     string  `json:"category" validate:"omitempty,oneof=core non_core lifestyle"`
	DateGiven    string  `json:"date_given" validate:"required"`
	NextDueDate  *string `json:"next_due_date"`
	Veterinarian string  `json:"veterinarian" validate:"max=200"`
	BatchNumber  string  `json:"batch_number" validate:"max=100"`
	Notes        string  `json:"notes" validate:"max=2000"`
}

type updateVaccinationRequest struct {
	VaccineName  *string `json:"vaccine_name"`
	Category     *string `json:"category"`
	DateGiven    *string `json:"date_given"`
	Veterinarian *string `json:"veterinarian"`
	BatchNumber  *string `json:"batch_number"`
	Notes        *string `json:"notes"`
}

type statusResponse struct {
	IsCurrent    bool `json:"is_current"`
	IsOverdue    bool `json:"is_overdue"`
	DaysUntilDue *int `json:"days_until_due,omitempty"`
	DaysOverdue  *int `json:"days_overdue,omitempty"`
}

// VaccinationResponse se reutiliza en el payload de links compartidos.
type VaccinationResponse struct {
	ID           string         `json:"id"`
	PetID        string         `json:"pet_id"`
	VaccineName  string         `json:"vaccine_name"`
	Category     Category       `json:"vaccination_type"`
	DateGiven    time.Time      `json:"date_given"`
	NextDueDate  *time.Time     `json:"next_due_date,omitempty"`
	Veterinarian string         `json:"veterinarian,omitempty"`
	BatchNumber  string         `json:"batch_number,omitempty"`
	Notes        string         `json:"notes,omitempty"`
	Status       statusResponse `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type complianceResponse struct {
	TotalVaccinations    int `json:"total_vaccinations"`
	CurrentVaccinations  int `json:"current_vaccinations"`
	OverdueCount         int `json:"overdue_count"`
	DueSoonCount         int `json:"due_soon_count"`
	CompliancePercentage int `json:"compliance_percentage"`
}

// listVaccinationsHandler godoc
// @Summary Listar vacunas de una mascota
// @Description Devuelve las vacunas ordenadas por date_given DESC con su estado (vigente/vencida) calculado al momento del request.
// @Tags vaccinations
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Success 200 {array} VaccinationResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/vaccinations [get]
func listVaccinationsHandler(svc *Service, petOwners PetOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := authorizeOwner(w, r, petOwners)
		if !ok {
			return
		}

		items, err := svc.ListByPet(r.Context(), petID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, ToResponses(items))
	}
}

// createVaccinationHandler godoc
// @Summary Registrar vacuna
// @Tags vaccinations
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param payload body createVaccinationRequest true "Fechas en YYYY-MM-DD o RFC3339; category default core"
// @Success 201 {object} VaccinationResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/vaccinations [post]
func createVaccinationHandler(svc *Service, petOwners PetOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := authorizeOwner(w, r, petOwners)
		if !ok {
			return
		}

		var req createVaccinationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": validate.Fields(err)})
			return
		}

		given, err := parseDate(req.DateGiven)
		if err != nil {
			http.Error(w, "date_given must be YYYY-MM-DD or RFC3339", http.StatusBadRequest)
			return
		}
		var next *time.Time
		if req.NextDueDate != nil && strings.TrimSpace(*req.NextDueDate) != "" {
			t, err := parseDate(*req.NextDueDate)
			if err != nil {
				http.Error(w, "next_due_date must be YYYY-MM-DD or RFC3339", http.StatusBadRequest)
				return
			}
			next = &t
		}

		v, err := svc.Create(r.Context(), petID, CreateInput{
			VaccineName:  req.VaccineName,
			Category:     Category(req.Category),
			DateGiven:    given,
			NextDueDate:  next,
			Veterinarian: req.Veterinarian,
			BatchNumber:  req.BatchNumber,
			Notes:        req.Notes,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, ToResponse(v))
	}
}

func updateVaccinationHandler(svc *Service, petOwners PetOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := authorizeOwner(w, r, petOwners)
		if !ok {
			return
		}

		// next_due_date: null limpia la fecha; por eso detectamos presencia del campo.
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		var req updateVaccinationRequest
		b, _ := json.Marshal(raw)
		if err := json.Unmarshal(b, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{
			VaccineName:  req.VaccineName,
			Veterinarian: req.Veterinarian,
			BatchNumber:  req.BatchNumber,
			Notes:        req.Notes,
		}
		if req.Category != nil {
			c := Category(*req.Category)
			in.Category = &c
		}
		if req.DateGiven != nil {
			t, err := parseDate(*req.DateGiven)
			if err != nil {
				http.Error(w, "date_given must be YYYY-MM-DD or RFC3339", http.StatusBadRequest)
				return
			}
			in.DateGiven = &t
		}
		if v, exists := raw["next_due_date"]; exists {
			if string(v) == "null" {
				in.ClearNextDueDate = true
			} else {
				var s string
				if err := json.Unmarshal(v, &s); err != nil {
					http.Error(w, "next_due_date must be a date or null", http.StatusBadRequest)
					return
				}
				t, err := parseDate(s)
				if err != nil {
					http.Error(w, "next_due_date must be a date or null", http.StatusBadRequest)
					return
				}
				in.NextDueDate = &t
			}
		}

		updated, err := svc.Update(r.Context(), petID, chi.URLParam(r, "vaccinationID"), in)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, ToResponse(updated))
	}
}

func deleteVaccinationHandler(svc *Service, petOwners PetOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := authorizeOwner(w, r, petOwners)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), petID, chi.URLParam(r, "vaccinationID")); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// complianceHandler godoc
// @Summary Cumplimiento de vacunación
// @Description Porcentaje de vacunas vigentes, vencidas y próximas a vencer (30 días).
// @Tags vaccinations
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} complianceResponse
// @Router /pets/{petID}/vaccinations/compliance [get]
func complianceHandler(svc *Service, petOwners PetOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := authorizeOwner(w, r, petOwners)
		if !ok {
			return
		}

		c, err := svc.Compliance(r.Context(), petID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, complianceResponse{
			TotalVaccinations:    c.TotalVaccinations,
			CurrentVaccinations:  c.CurrentVaccinations,
			OverdueCount:         c.OverdueCount,
			DueSoonCount:         c.DueSoonCount,
			CompliancePercentage: c.CompliancePercentage,
		})
	}
}

func ToResponse(v WithStatus) VaccinationResponse {
	return VaccinationResponse{
		ID:           v.ID,
		PetID:        v.PetID,
		VaccineName:  v.VaccineName,
		Category:     v.Category,
		DateGiven:    v.DateGiven,
		NextDueDate:  v.NextDueDate,
		Veterinarian: v.Veterinarian,
		BatchNumber:  v.BatchNumber,
		Notes:        v.Notes,
		Status: statusResponse{
			IsCurrent:    v.Status.IsCurrent,
			IsOverdue:    v.Status.IsOverdue,
			DaysUntilDue: v.Status.DaysUntilDue,
			DaysOverdue:  v.Status.DaysOverdue,
		},
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

func ToResponses(items []WithStatus) []VaccinationResponse {
	out := make([]VaccinationResponse, 0, len(items))
	for _, v := range items {
		out = append(out, ToResponse(v))
	}
	return out
}

// authorizeOwner: usuario autenticado + la mascota debe pertenecer al usuario.
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

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "vaccination not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
