package pets

import "time"

// Species define las especies soportadas.
// @Enum dog, cat, bird, rabbit, other
type Species string

const (
	SpeciesDog    Species = "dog"
	SpeciesCat    Species = "cat"
	SpeciesBird   Species = "bird"
	SpeciesRabbit Species = "rabbit"
	SpeciesOther  Species = "other"
)

// Gender define el sexo de la mascota.
// @Enum male, female, unknown
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// Pet representa el perfil de una mascota registrada en el sistema.
type Pet struct {
	ID          string
	OwnerUserID string

	Name    string
	Species Species
	Breed   string
	Gender  Gender

	DateOfBirth     *time.Time
	AvatarURL       string
	MicrochipNumber string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity son los campos que se exponen siempre en un link compartido,
// sin importar el nivel de permiso.
type Identity struct {
	ID              string
	Name            string
	Species         Species
	Breed           string
	Gender          Gender
	DateOfBirth     *time.Time
	AvatarURL       string
	MicrochipNumber string
}

func (p Pet) Identity() Identity {
	return Identity{
		ID:              p.ID,
		Name:            p.Name,
		Species:         p.Species,
		Breed:           p.Breed,
		Gender:          p.Gender,
		DateOfBirth:     p.DateOfBirth,
		AvatarURL:       p.AvatarURL,
		MicrochipNumber: p.MicrochipNumber,
	}
}
