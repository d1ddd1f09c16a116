package records

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrInvalidInput = errors.New("invalid input")

const (
	DefaultMetricsLimit = 50
	MaxMetricsLimit     = 200
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type AllergyInput struct {
	Allergen    string
	Severity    Severity
	Reaction    string
	DiagnosedAt *time.Time
	Notes       string
}

func (s *Service) CreateAllergy(ctx context.Context, petID string, in AllergyInput) (Allergy, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" || strings.TrimSpace(in.Allergen) == "" {
		return Allergy{}, ErrInvalidInput
	}
	sev := Severity(strings.ToLower(strings.TrimSpace(string(in.Severity))))
	switch sev {
	case "":
		sev = SeverityMild
	case SeverityMild, SeverityModerate, SeveritySevere:
	default:
		return Allergy{}, ErrInvalidInput
	}

	a := Allergy{
		ID:          uuid.NewString(),
		PetID:       petID,
		Allergen:    strings.TrimSpace(in.Allergen),
		Severity:    sev,
		Reaction:    strings.TrimSpace(in.Reaction),
		DiagnosedAt: in.DiagnosedAt,
		Notes:       strings.TrimSpace(in.Notes),
		CreatedAt:   s.now(),
	}
	if err := s.repo.CreateAllergy(ctx, a); err != nil {
		return Allergy{}, err
	}
	return a, nil
}

func (s *Service) ListAllergies(ctx context.Context, petID string) ([]Allergy, error) {
	if strings.TrimSpace(petID) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListAllergies(ctx, strings.TrimSpace(petID))
}

type TreatmentInput struct {
	Name          string
	TreatmentType string
	StartDate     time.Time
	EndDate       *time.Time
	Dosage        string
	Frequency     string
	Notes         string
}

func (s *Service) CreateTreatment(ctx context.Context, petID string, in TreatmentInput) (Treatment, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" || strings.TrimSpace(in.Name) == "" || in.StartDate.IsZero() {
		return Treatment{}, ErrInvalidInput
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return Treatment{}, ErrInvalidInput
	}

	t := Treatment{
		ID:            uuid.NewString(),
		PetID:         petID,
		Name:          strings.TrimSpace(in.Name),
		TreatmentType: strings.ToLower(strings.TrimSpace(in.TreatmentType)),
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		Dosage:        strings.TrimSpace(in.Dosage),
		Frequency:     strings.TrimSpace(in.Frequency),
		Notes:         strings.TrimSpace(in.Notes),
		CreatedAt:     s.now(),
	}
	if err := s.repo.CreateTreatment(ctx, t); err != nil {
		return Treatment{}, err
	}
	return t, nil
}

func (s *Service) ListTreatments(ctx context.Context, petID string) ([]Treatment, error) {
	if strings.TrimSpace(petID) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListTreatments(ctx, strings.TrimSpace(petID))
}

type ConditionInput struct {
	Name        string
	Status      ConditionStatus
	DiagnosedAt *time.Time
	Notes       string
}

func (s *Service) CreateCondition(ctx context.Context, petID string, in ConditionInput) (Condition, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" || strings.TrimSpace(in.Name) == "" {
		return Condition{}, ErrInvalidInput
	}
	st := ConditionStatus(strings.ToLower(strings.TrimSpace(string(in.Status))))
	switch st {
	case "":
		st = ConditionActive
	case ConditionActive, ConditionManaged, ConditionResolved:
	default:
		return Condition{}, ErrInvalidInput
	}

	c := Condition{
		ID:          uuid.NewString(),
		PetID:       petID,
		Name:        strings.TrimSpace(in.Name),
		Status:      st,
		DiagnosedAt: in.DiagnosedAt,
		Notes:       strings.TrimSpace(in.Notes),
		CreatedAt:   s.now(),
	}
	if err := s.repo.CreateCondition(ctx, c); err != nil {
		return Condition{}, err
	}
	return c, nil
}

func (s *Service) ListConditions(ctx context.Context, petID string) ([]Condition, error) {
	if strings.TrimSpace(petID) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListConditions(ctx, strings.TrimSpace(petID))
}

type HealthMetricInput struct {
	MetricType string
	Value      decimal.Decimal
	Unit       string
	Date       time.Time
	Notes      string
}

func (s *Service) CreateHealthMetric(ctx context.Context, petID string, in HealthMetricInput) (HealthMetric, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" || strings.TrimSpace(in.MetricType) == "" {
		return HealthMetric{}, ErrInvalidInput
	}
	if in.Value.IsNegative() {
		return HealthMetric{}, ErrInvalidInput
	}

	now := s.now()
	date := in.Date
	if date.IsZero() {
		date = now
	}

	m := HealthMetric{
		ID:         uuid.NewString(),
		PetID:      petID,
		MetricType: strings.ToLower(strings.TrimSpace(in.MetricType)),
		Value:      in.Value,
		Unit:       strings.TrimSpace(in.Unit),
		Date:       date,
		Notes:      strings.TrimSpace(in.Notes),
		CreatedAt:  now,
	}
	if err := s.repo.CreateHealthMetric(ctx, m); err != nil {
		return HealthMetric{}, err
	}
	return m, nil
}

// RecentHealthMetrics: limit <= 0 usa DefaultMetricsLimit; se recorta a MaxMetricsLimit.
func (s *Service) RecentHealthMetrics(ctx context.Context, petID string, limit int) ([]HealthMetric, error) {
	if strings.TrimSpace(petID) == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = DefaultMetricsLimit
	}
	if limit > MaxMetricsLimit {
		limit = MaxMetricsLimit
	}
	return s.repo.ListHealthMetrics(ctx, strings.TrimSpace(petID), limit)
}
