package memory

import (
	"context"
	"sort"
	"sync"

	"pet-health-tracker/internal/domain/records"
)

// recordsRepo guarda las cuatro colecciones médicas; son append-only.
type recordsRepo struct {
	mu         sync.RWMutex
	allergies  []records.Allergy
	treatments []records.Treatment
	conditions []records.Condition
	metrics    []records.HealthMetric
}

func NewRecordsRepo() records.Repository {
	return &recordsRepo{}
}

func (r *recordsRepo) CreateAllergy(ctx context.Context, a records.Allergy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allergies = append(r.allergies, a)
	return nil
}

func (r *recordsRepo) ListAllergies(ctx context.Context, petID string) ([]records.Allergy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]records.Allergy, 0)
	for _, a := range r.allergies {
		if a.PetID == petID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *recordsRepo) CreateTreatment(ctx context.Context, t records.Treatment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.treatments = append(r.treatments, t)
	return nil
}

func (r *recordsRepo) ListTreatments(ctx context.Context, petID string) ([]records.Treatment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]records.Treatment, 0)
	for _, t := range r.treatments {
		if t.PetID == petID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (r *recordsRepo) CreateCondition(ctx context.Context, c records.Condition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conditions = append(r.conditions, c)
	return nil
}

func (r *recordsRepo) ListConditions(ctx context.Context, petID string) ([]records.Condition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]records.Condition, 0)
	for _, c := range r.conditions {
		if c.PetID == petID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *recordsRepo) CreateHealthMetric(ctx context.Context, m records.HealthMetric) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = append(r.metrics, m)
	return nil
}

func (r *recordsRepo) ListHealthMetrics(ctx context.Context, petID string, limit int) ([]records.HealthMetric, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]records.HealthMetric, 0)
	for _, m := range r.metrics {
		if m.PetID == petID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
