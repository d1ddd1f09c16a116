package vaccinations

import "context"

type Repository interface {
	Create(ctx context.Context, v Vaccination) error
	Update(ctx context.Context, v Vaccination) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Vaccination, error)

	// ListByPet ordena por date_given DESC.
	ListByPet(ctx context.Context, petID string) ([]Vaccination, error)
}
