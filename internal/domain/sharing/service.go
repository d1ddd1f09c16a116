package sharing

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"pet-health-tracker/internal/domain/pets"
	"pet-health-tracker/internal/domain/records"
	"pet-health-tracker/internal/domain/sharetokens"
	"pet-health-tracker/internal/domain/vaccinations"
	"pet-health-tracker/internal/platform/logger"
	"pet-health-tracker/internal/platform/obs"
)

var (
	// ErrInvalidToken es el único error que ve quien abre un link:
	// no distingue token inexistente, revocado o vencido.
	ErrInvalidToken = errors.New("invalid or expired share link")
	// ErrUnavailable oculta fallas del store al caller público.
	ErrUnavailable = errors.New("shared data temporarily unavailable")
)

// SharedMetricsLimit: cantidad de métricas de salud incluidas en un link avanzado.
const SharedMetricsLimit = 10

type TokenLookup interface {
	GetActiveByToken(ctx context.Context, token string) (sharetokens.ShareToken, error)
	RecordAccess(ctx context.Context, id string, at time.Time) error
}

type PetIdentities interface {
	IdentityOf(ctx context.Context, petID string) (pets.Identity, error)
}

type VaccinationLister interface {
	ListByPet(ctx context.Context, petID string) ([]vaccinations.WithStatus, error)
}

type RecordsLister interface {
	ListAllergies(ctx context.Context, petID string) ([]records.Allergy, error)
	ListTreatments(ctx context.Context, petID string) ([]records.Treatment, error)
	ListConditions(ctx context.Context, petID string) ([]records.Condition, error)
	RecentHealthMetrics(ctx context.Context, petID string, limit int) ([]records.HealthMetric, error)
}

// SharedPetData es lo que ve el destinatario de un link.
// Medical es nil para links basic.
type SharedPetData struct {
	Pet             pets.Identity
	PermissionLevel sharetokens.PermissionLevel
	ExpiresAt       *time.Time
	Medical         *MedicalHistory
}

// MedicalHistory siempre trae las cinco colecciones; una colección que no
// se pudo leer queda vacía.
type MedicalHistory struct {
	Allergies     []records.Allergy
	Vaccinations  []vaccinations.WithStatus
	Treatments    []records.Treatment
	Conditions    []records.Condition
	HealthMetrics []records.HealthMetric
}

type Service struct {
	tokens  TokenLookup
	pets    PetIdentities
	vaccs   VaccinationLister
	records RecordsLister
	log     logger.Logger
	now     func() time.Time
}

func NewService(tokens TokenLookup, petIDs PetIdentities, vaccs VaccinationLister, recs RecordsLister, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		tokens:  tokens,
		pets:    petIDs,
		vaccs:   vaccs,
		records: recs,
		log:     log.With(map[string]any{"component": "sharing"}),
		now:     time.Now,
	}
}

// Validate resuelve un token público en los datos de la mascota según su nivel.
func (s *Service) Validate(ctx context.Context, token string) (SharedPetData, error) {
	data, err := s.validate(ctx, token)
	switch {
	case err == nil:
		obs.ShareValidation("ok")
	case errors.Is(err, ErrInvalidToken):
		obs.ShareValidation("invalid")
	default:
		obs.ShareValidation("error")
	}
	return data, err
}

func (s *Service) validate(ctx context.Context, token string) (SharedPetData, error) {
	token = strings.ToLower(strings.TrimSpace(token))
	if !wellFormed(token) {
		return SharedPetData{}, ErrInvalidToken
	}

	t, err := s.tokens.GetActiveByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sharetokens.ErrNotFound) {
			return SharedPetData{}, ErrInvalidToken
		}
		s.log.Error("share token lookup failed", map[string]any{"error": err})
		return SharedPetData{}, ErrUnavailable
	}

	now := s.now()
	if !t.Usable(now) {
		return SharedPetData{}, ErrInvalidToken
	}

	// La lectura principal ya fue exitosa: si falla el contador solo se loguea.
	if err := s.tokens.RecordAccess(ctx, t.ID, now); err != nil {
		s.log.Warn("share token access bump failed", map[string]any{"token_id": t.ID, "error": err})
	}

	identity, err := s.pets.IdentityOf(ctx, t.PetID)
	if err != nil {
		if errors.Is(err, pets.ErrNotFound) {
			return SharedPetData{}, ErrInvalidToken
		}
		s.log.Error("shared pet lookup failed", map[string]any{"pet_id": t.PetID, "error": err})
		return SharedPetData{}, ErrUnavailable
	}

	data := SharedPetData{
		Pet:             identity,
		PermissionLevel: t.PermissionLevel,
		ExpiresAt:       t.ExpiresAt,
	}
	if t.PermissionLevel == sharetokens.PermissionAdvanced {
		data.Medical = s.medicalHistory(ctx, t.PetID)
	}
	return data, nil
}

// medicalHistory lee las colecciones en paralelo. Ninguna falla aborta el
// resto: la colección queda vacía, se loguea y se cuenta en métricas.
func (s *Service) medicalHistory(ctx context.Context, petID string) *MedicalHistory {
	h := &MedicalHistory{
		Allergies:     []records.Allergy{},
		Vaccinations:  []vaccinations.WithStatus{},
		Treatments:    []records.Treatment{},
		Conditions:    []records.Condition{},
		HealthMetrics: []records.HealthMetric{},
	}

	var g errgroup.Group
	g.Go(func() error {
		if items, err := s.records.ListAllergies(ctx, petID); s.keep("allergies", petID, err) {
			h.Allergies = items
		}
		return nil
	})
	g.Go(func() error {
		if items, err := s.vaccs.ListByPet(ctx, petID); s.keep("vaccinations", petID, err) {
			h.Vaccinations = items
		}
		return nil
	})
	g.Go(func() error {
		if items, err := s.records.ListTreatments(ctx, petID); s.keep("treatments", petID, err) {
			h.Treatments = items
		}
		return nil
	})
	g.Go(func() error {
		if items, err := s.records.ListConditions(ctx, petID); s.keep("conditions", petID, err) {
			h.Conditions = items
		}
		return nil
	})
	g.Go(func() error {
		if items, err := s.records.RecentHealthMetrics(ctx, petID, SharedMetricsLimit); s.keep("health_metrics", petID, err) {
			h.HealthMetrics = items
		}
		return nil
	})
	_ = g.Wait()

	// Nunca devolvemos nil: el payload advanced siempre lleva las cinco listas.
	if h.Allergies == nil {
		h.Allergies = []records.Allergy{}
	}
	if h.Vaccinations == nil {
		h.Vaccinations = []vaccinations.WithStatus{}
	}
	if h.Treatments == nil {
		h.Treatments = []records.Treatment{}
	}
	if h.Conditions == nil {
		h.Conditions = []records.Condition{}
	}
	if h.HealthMetrics == nil {
		h.HealthMetrics = []records.HealthMetric{}
	}
	return h
}

func (s *Service) keep(collection, petID string, err error) bool {
	if err == nil {
		return true
	}
	obs.SharePartialFetch(collection)
	s.log.Warn("shared collection unavailable", map[string]any{"collection": collection, "pet_id": petID, "error": err})
	return false
}

// wellFormed descarta valores que no pueden ser un token sin ir al store.
func wellFormed(token string) bool {
	if len(token) != 64 {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}
