package pets

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pet-health-tracker/internal/middleware"
	"pet-health-tracker/internal/platform/validate"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc))
		pr.Get("/", listPetsHandler(svc))
		pr.Get("/{petID}", getPetHandler(svc))
		pr.Patch("/{petID}", updatePetHandler(svc))
	})
}

type createPetRequest struct {
	Name            string `json:"name" validate:"required,max=100"`
	Species         string `json:"species" validate:"required,max=50"`
	Breed           string `json:"breed" validate:"max=100"`
	Gender          string `json:"gender" validate:"omitempty,oneof=male female unknown"`
	DateOfBirth     string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	AvatarURL       string `json:"avatar_url" validate:"omitempty,url"`
	MicrochipNumber string `json:"microchip_number" validate:"max=50"`
}

type petResponse struct {
	ID              string     `json:"id"`
	OwnerUserID     string     `json:"owner_user_id"`
	Name            string     `json:"name"`
	Species         Species    `json:"species"`
	Breed           string     `json:"breed"`
	Gender          Gender     `json:"gender"`
	DateOfBirth     *time.Time `json:"date_of_birth,omitempty"`
	AvatarURL       string     `json:"avatar_url"`
	MicrochipNumber string     `json:"microchip_number"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// createPetHandler godoc
// @Summary Crear mascota
// @Tags pets
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createPetRequest true "Datos de la mascota; date_of_birth en formato YYYY-MM-DD"
// @Success 201 {object} petResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 401 {string} string "unauthorized"
// @Router /pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": validate.Fields(err)})
			return
		}

		var dob *time.Time
		if req.DateOfBirth != "" {
			t, _ := time.Parse("2006-01-02", req.DateOfBirth) // ya validado
			dob = &t
		}

		p, err := svc.Create(r.Context(), userID, CreateInput{
			Name:            req.Name,
			Species:         req.Species,
			Breed:           req.Breed,
			Gender:          req.Gender,
			DateOfBirth:     dob,
			AvatarURL:       req.AvatarURL,
			MicrochipNumber: req.MicrochipNumber,
		})
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByOwner(r.Context(), userID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "pet not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if p.OwnerUserID != userID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// updatePetRequest: punteros para PATCH real, nil = no tocar.
type updatePetRequest struct {
	Name            *string `json:"name"`
	Species         *string `json:"species"`
	Breed           *string `json:"breed"`
	Gender          *string `json:"gender"`
	AvatarURL       *string `json:"avatar_url"`
	MicrochipNumber *string `json:"microchip_number"`
}

func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// Para soportar date_of_birth: null necesitamos detectar presencia del campo.
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var req updatePetRequest
		b, _ := json.Marshal(raw)
		if err := json.Unmarshal(b, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateProfileInput{
			Name:            req.Name,
			Species:         req.Species,
			Breed:           req.Breed,
			Gender:          req.Gender,
			AvatarURL:       req.AvatarURL,
			MicrochipNumber: req.MicrochipNumber,
		}
		if v, exists := raw["date_of_birth"]; exists {
			if string(v) == "null" {
				in.ClearDateOfBirth = true
			} else {
				var s string
				if err := json.Unmarshal(v, &s); err != nil {
					http.Error(w, "date_of_birth must be YYYY-MM-DD or null", http.StatusBadRequest)
					return
				}
				t, err := time.Parse("2006-01-02", s)
				if err != nil {
					http.Error(w, "date_of_birth must be YYYY-MM-DD or null", http.StatusBadRequest)
					return
				}
				in.DateOfBirth = &t
			}
		}

		updated, err := svc.UpdateProfile(r.Context(), chi.URLParam(r, "petID"), userID, in)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "pet not found", http.StatusNotFound)
			case errors.Is(err, ErrForbidden):
				http.Error(w, "forbidden", http.StatusForbidden)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(updated))
	}
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:              p.ID,
		OwnerUserID:     p.OwnerUserID,
		Name:            p.Name,
		Species:         p.Species,
		Breed:           p.Breed,
		Gender:          p.Gender,
		DateOfBirth:     p.DateOfBirth,
		AvatarURL:       p.AvatarURL,
		MicrochipNumber: p.MicrochipNumber,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
