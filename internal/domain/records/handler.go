package records

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pet-health-tracker/internal/middleware"
	"pet-health-tracker/internal/platform/validate"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// PetOwnerLookup evita importar el paquete pets (rompe ciclos).
type PetOwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

func RegisterRoutes(r chi.Router, svc *Service, petOwners PetOwnerLookup) {
	r.Route("/pets/{petID}", func(pr chi.Router) {
		pr.Get("/allergies", listAllergiesHandler(svc, petOwners))
		pr.Post("/allergies", createAllergyHandler(svc, petOwners))
		pr.Get("/treatments", listTreatmentsHandler(svc, petOwners))
		pr.Post("/treatments", createTreatmentHandler(svc, petOwners))
		pr.Get("/conditions", listConditionsHandler(svc, petOwners))
		pr.Post("/conditions", createConditionHandler(svc, petOwners))
		pr.Get("/health-metrics", listHealthMetricsHandler(svc, petOwners))
		pr.Post("/health-metrics", createHealthMetricHandler(svc, petOwners))
	})
}

type createAllergyRequest struct {
	Allergen    string `json:"allergen" validate:"required,max=200"`
	Severity    string `json:"severity" validate:"omitempty,oneof=mild moderate severe"`
	Reaction    string `json:"reaction" validate:"max=500"`
	DiagnosedAt string `json:"diagnosed_at" validate:"omitempty,datetime=2006-01-02"`
	Notes       string `json:"notes" validate:"max=2000"`
}

type createTreatmentRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	TreatmentType string `json:"treatment_type" validate:"max=50"`
	StartDate     string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate       string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Dosage        string `json:"dosage" validate:"max=100"`
	Frequency     string `json:"frequency" validate:"max=100"`
	Notes         string `json:"notes" validate:"max=2000"`
}

type createConditionRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Status      string `json:"status" validate:"omitempty,oneof=active managed resolved"`
	DiagnosedAt string `json:"diagnosed_at" validate:"omitempty,datetime=2006-01-02"`
	Notes       string `json:"notes" validate:"max=2000"`
}

type createHealthMetricRequest struct {
	MetricType string          `json:"metric_type" validate:"required,max=50"`
	Value      decimal.Decimal `json:"value"`
	Unit       string          `json:"unit" validate:"max=20"`
	Date       *time.Time      `json:"date"`
	Notes      string          `json:"notes" validate:"max=2000"`
}

type AllergyResponse struct {
	ID          string     `json:"id"`
	PetID       string     `json:"pet_id"`
	Allergen    string     `json:"allergen"`
	Severity    Severity   `json:"severity"`
	Reaction    string     `json:"reaction,omitempty"`
	DiagnosedAt *time.Time `json:"diagnosed_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type TreatmentResponse struct {
	ID            string     `json:"id"`
	PetID         string     `json:"pet_id"`
	Name          string     `json:"name"`
	TreatmentType string     `json:"treatment_type,omitempty"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Dosage        string     `json:"dosage,omitempty"`
	Frequency     string     `json:"frequency,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type ConditionResponse struct {
	ID          string          `json:"id"`
	PetID       string          `json:"pet_id"`
	Name        string          `json:"name"`
	Status      ConditionStatus `json:"status"`
	DiagnosedAt *time.Time      `json:"diagnosed_at,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type HealthMetricResponse struct {
	ID         string          `json:"id"`
	PetID      string          `json:"pet_id"`
	MetricType string          `json:"metric_type"`
	Value      decimal.Decimal `json:"value" swaggertype:"string"`
	Unit       string          `json:"unit,omitempty"`
	Date       time.Time       `json:"date"`
	Notes      string          `json:"notes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// listAllergiesHandler godoc
// @Summary Listar alergias
// @Tags records
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Success 200 {array} AllergyResponse
// @Router /pets/{petID}/allergies [get]
func listAllergiesHandler(svc *Service, petOwners PetOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := authorizeOwner(w, r, petOwners)
		if !ok {
			return
		}
		items, err := svc.ListAllergies(r.Context(), petID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToAllergyResponses(items))
	}
}

// createAllergyHandler godoc
// @Summary Registrar alergia
// @Tags records
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param payload body createAllergyRequest true "severity: mild|moderate|severe (default mild)"
// @Success 201 {object} AllergyResponse
// @Failure 400 {string} string "invalid json / validación"
// @Router /pets/{petID}/allergies [post]
func createAllergyHandler(svc *Service, petOwners PetOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := authorizeOwner(w, r, petOwners)
		if !ok {
			return
		}
		var req createAllergyRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		a, err := svc.CreateAllergy(r.Context(), petID, AllergyInput{
			Allergen:    req.Allergen,
			Severity:    Severity(req.Severity),
			Reaction:    req.Reaction,
			DiagnosedAt: optionalDate(req.DiagnosedAt),
			Notes:       req.Notes,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, ToAllergyResponse(a))
	}
}

// listTreatmentsHandler godoc
// @Summary Listar tratamientos
// @Description Ordenados por start_date DESC.
// @Tags records
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {array} TreatmentResponse
// @Router /pets/{petID}/treatments [get]
func listTreatmentsHandler(svc *Service, petOwners PetOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := authorizeOwner(w, r, petOwners)
		if !ok {
			return
		}
		items, err := svc.ListTreatments(r.Context(), petID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToTreatmentResponses(items))
	}
}

func createTreatmentHandler(svc *Service, petOwners PetOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := authorizeOwner(w, r, petOwners)
		if !ok {
			return
		}
		var req createTreatmentRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		start, _ := time.Parse("2006-01-02", req.StartDate) // ya validado
		t, err := svc.CreateTreatment(r.Context(), petID, TreatmentInput{
			Name:          req.Name,
			TreatmentType: req.TreatmentType,
			StartDate:     start,
			EndDate:       optionalDate(req.EndDate),
			Dosage:        req.Dosage,
			Frequency:     req.Frequency,
			Notes:         req.Notes,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, ToTreatmentResponse(t))
	}
}

func listConditionsHandler(svc *Service, petOwners PetOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := authorizeOwner(w, r, petOwners)
		if !ok {
			return
		}
		items, err := svc.ListConditions(r.Context(), petID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToConditionResponses(items))
	}
}

func createConditionHandler(svc *Service, petOwners PetOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := authorizeOwner(w, r, petOwners)
		if !ok {
			return
		}
		var req createConditionRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		c, err := svc.CreateCondition(r.Context(), petID, ConditionInput{
			Name:        req.Name,
			Status:      ConditionStatus(req.Status),
			DiagnosedAt: optionalDate(req.DiagnosedAt),
			Notes:       req.Notes,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, ToConditionResponse(c))
	}
}

// listHealthMetricsHandler godoc
// @Summary Listar métricas de salud
// @Description Más recientes primero. limit default 50, máximo 200.
// @Tags records
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param limit query int false "Cantidad máxima"
// @Success 200 {array} HealthMetricResponse
// @Router /pets/{petID}/health-metrics [get]
func listHealthMetricsHandler(svc *Service, petOwners PetOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := authorizeOwner(w, r, petOwners)
		if !ok {
			return
		}

		limit := 0
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = n
		}

		items, err := svc.RecentHealthMetrics(r.Context(), petID, limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ToHealthMetricResponses(items))
	}
}

func createHealthMetricHandler(svc *Service, petOwners PetOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := authorizeOwner(w, r, petOwners)
		if !ok {
			return
		}
		var req createHealthMetricRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		in := HealthMetricInput{
			MetricType: req.MetricType,
			Value:      req.Value,
			Unit:       req.Unit,
			Notes:      req.Notes,
		}
		if req.Date != nil {
			in.Date = *req.Date
		}

		m, err := svc.CreateHealthMetric(r.Context(), petID, in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, ToHealthMetricResponse(m))
	}
}

func ToAllergyResponse(a Allergy) AllergyResponse {
	return AllergyResponse{
		ID:          a.ID,
		PetID:       a.PetID,
		Allergen:    a.Allergen,
		Severity:    a.Severity,
		Reaction:    a.Reaction,
		DiagnosedAt: a.DiagnosedAt,
		Notes:       a.Notes,
		CreatedAt:   a.CreatedAt,
	}
}

func ToAllergyResponses(items []Allergy) []AllergyResponse {
	out := make([]AllergyResponse, 0, len(items))
	for _, a := range items {
		out = append(out, ToAllergyResponse(a))
	}
	return out
}

func ToTreatmentResponse(t Treatment) TreatmentResponse {
	return TreatmentResponse{
		ID:            t.ID,
		PetID:         t.PetID,
		Name:          t.Name,
		TreatmentType: t.TreatmentType,
		StartDate:     t.StartDate,
		EndDate:       t.EndDate,
		Dosage:        t.Dosage,
		Frequency:     t.Frequency,
		Notes:         t.Notes,
		CreatedAt:     t.CreatedAt,
	}
}

func ToTreatmentResponses(items []Treatment) []TreatmentResponse {
	out := make([]TreatmentResponse, 0, len(items))
	for _, t := range items {
		out = append(out, ToTreatmentResponse(t))
	}
	return out
}

func ToConditionResponse(c Condition) ConditionResponse {
	return ConditionResponse{
		ID:          c.ID,
		PetID:       c.PetID,
		Name:        c.Name,
		Status:      c.Status,
		DiagnosedAt: c.DiagnosedAt,
		Notes:       c.Notes,
		CreatedAt:   c.CreatedAt,
	}
}

func ToConditionResponses(items []Condition) []ConditionResponse {
	out := make([]ConditionResponse, 0, len(items))
	for _, c := range items {
		out = append(out, ToConditionResponse(c))
	}
	return out
}

func ToHealthMetricResponse(m HealthMetric) HealthMetricResponse {
	return HealthMetricResponse{
		ID:         m.ID,
		PetID:      m.PetID,
		MetricType: m.MetricType,
		Value:      m.Value,
		Unit:       m.Unit,
		Date:       m.Date,
		Notes:      m.Notes,
		CreatedAt:  m.CreatedAt,
	}
}

func ToHealthMetricResponses(items []HealthMetric) []HealthMetricResponse {
	out := make([]HealthMetricResponse, 0, len(items))
	for _, m := range items {
		out = append(out, ToHealthMetricResponse(m))
	}
	return out
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

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": validate.Fields(err)})
		return false
	}
	return true
}

func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrInvalidInput) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// optionalDate: los formatos ya pasaron por el validator.
func optionalDate(s string) *time.Time {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
