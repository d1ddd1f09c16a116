package vaccinations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("vaccination not found")
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

type CreateInput struct {
	VaccineName  string
	Category     Category
	DateGiven    time.Time
	NextDueDate  *time.Time
	Veterinarian string
	BatchNumber  string
	Notes        string
}

func (s *Service) Create(ctx context.Context, petID string, in CreateInput) (WithStatus, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" || strings.TrimSpace(in.VaccineName) == "" || in.DateGiven.IsZero() {
		return WithStatus{}, ErrInvalidInput
	}
	cat, err := normalizeCategory(in.Category)
	if err != nil {
		return WithStatus{}, err
	}
	if in.NextDueDate != nil && in.NextDueDate.Before(in.DateGiven) {
		return WithStatus{}, ErrInvalidInput
	}

	now := s.now()
	v := Vaccination{
		ID:           uuid.NewString(),
		PetID:        petID,
		VaccineName:  strings.TrimSpace(in.VaccineName),
		Category:     cat,
		DateGiven:    in.DateGiven,
		NextDueDate:  in.NextDueDate,
		Veterinarian: strings.TrimSpace(in.Veterinarian),
		BatchNumber:  strings.TrimSpace(in.BatchNumber),
		Notes:        strings.TrimSpace(in.Notes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, v); err != nil {
		return WithStatus{}, err
	}
	return s.withStatus(now, v), nil
}

// UpdateInput: nil = no tocar. ClearNextDueDate tiene prioridad sobre NextDueDate.
type UpdateInput struct {
	VaccineName      *string
	Category         *Category
	DateGiven        *time.Time
	NextDueDate      *time.Time
	ClearNextDueDate bool
	Veterinarian     *string
	BatchNumber      *string
	Notes            *string
}

func (s *Service) Update(ctx context.Context, petID, id string, in UpdateInput) (WithStatus, error) {
	v, err := s.getForPet(ctx, petID, id)
	if err != nil {
		return WithStatus{}, err
	}

	if in.VaccineName != nil {
		if strings.TrimSpace(*in.VaccineName) == "" {
			return WithStatus{}, ErrInvalidInput
		}
		v.VaccineName = strings.TrimSpace(*in.VaccineName)
	}
	if in.Category != nil {
		cat, err := normalizeCategory(*in.Category)
		if err != nil {
			return WithStatus{}, err
		}
		v.Category = cat
	}
	if in.DateGiven != nil {
		if in.DateGiven.IsZero() {
			return WithStatus{}, ErrInvalidInput
		}
		v.DateGiven = *in.DateGiven
	}
	switch {
	case in.ClearNextDueDate:
		v.NextDueDate = nil
	case in.NextDueDate != nil:
		v.NextDueDate = in.NextDueDate
	}
	if v.NextDueDate != nil && v.NextDueDate.Before(v.DateGiven) {
		return WithStatus{}, ErrInvalidInput
	}
	if in.Veterinarian != nil {
		v.Veterinarian = strings.TrimSpace(*in.Veterinarian)
	}
	if in.BatchNumber != nil {
		v.BatchNumber = strings.TrimSpace(*in.BatchNumber)
	}
	if in.Notes != nil {
		v.Notes = strings.TrimSpace(*in.Notes)
	}

	now := s.now()
	v.UpdatedAt = now
	if err := s.repo.Update(ctx, v); err != nil {
		return WithStatus{}, err
	}
	return s.withStatus(now, v), nil
}

func (s *Service) Delete(ctx context.Context, petID, id string) error {
	if _, err := s.getForPet(ctx, petID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ListByPet devuelve las vacunas (date_given DESC) con el estado recalculado ahora.
func (s *Service) ListByPet(ctx context.Context, petID string) ([]WithStatus, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, ErrInvalidInput
	}

	items, err := s.repo.ListByPet(ctx, petID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]WithStatus, 0, len(items))
	for _, v := range items {
		out = append(out, s.withStatus(now, v))
	}
	return out, nil
}

func (s *Service) Compliance(ctx context.Context, petID string) (Compliance, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return Compliance{}, ErrInvalidInput
	}

	items, err := s.repo.ListByPet(ctx, petID)
	if err != nil {
		return Compliance{}, err
	}
	return ComputeCompliance(s.now(), items), nil
}

func (s *Service) getForPet(ctx context.Context, petID, id string) (Vaccination, error) {
	petID = strings.TrimSpace(petID)
	id = strings.TrimSpace(id)
	if petID == "" || id == "" {
		return Vaccination{}, ErrInvalidInput
	}

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Vaccination{}, err
	}
	// No filtramos existencia de vacunas de otras mascotas.
	if v.PetID != petID {
		return Vaccination{}, ErrNotFound
	}
	return v, nil
}

func (s *Service) withStatus(now time.Time, v Vaccination) WithStatus {
	return WithStatus{Vaccination: v, Status: ComputeStatus(now, v.NextDueDate)}
}

func normalizeCategory(c Category) (Category, error) {
	switch cat := Category(strings.ToLower(strings.TrimSpace(string(c)))); cat {
	case "":
		return CategoryCore, nil
	case CategoryCore, CategoryNonCore, CategoryLifestyle:
		return cat, nil
	default:
		return "", ErrInvalidInput
	}
}
