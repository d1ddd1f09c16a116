package vaccinations

import "time"

// Category se persiste en la columna vaccination_type.
type Category string

const (
	CategoryCore      Category = "core"
	CategoryNonCore   Category = "non_core"
	CategoryLifestyle Category = "lifestyle"
)

type Vaccination struct {
	ID    string
	PetID string

	VaccineName string
	Category    Category

	DateGiven   time.Time
	NextDueDate *time.Time

	Veterinarian string
	BatchNumber  string
	Notes        string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// WithStatus es una vacuna con su estado calculado al momento de la lectura.
// El estado nunca se persiste.
type WithStatus struct {
	Vaccination
	Status Status
}
