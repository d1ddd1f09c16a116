package records

import "context"

type Repository interface {
	CreateAllergy(ctx context.Context, a Allergy) error
	// ListAllergies ordena por created_at DESC.
	ListAllergies(ctx context.Context, petID string) ([]Allergy, error)

	CreateTreatment(ctx context.Context, t Treatment) error
	// ListTreatments ordena por start_date DESC.
	ListTreatments(ctx context.Context, petID string) ([]Treatment, error)

	CreateCondition(ctx context.Context, c Condition) error
	// ListConditions ordena por created_at DESC.
	ListConditions(ctx context.Context, petID string) ([]Condition, error)

	CreateHealthMetric(ctx context.Context, m HealthMetric) error
	// ListHealthMetrics ordena por date DESC y corta en limit.
	ListHealthMetrics(ctx context.Context, petID string, limit int) ([]HealthMetric, error)
}
