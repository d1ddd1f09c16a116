package sharetokens

import "time"

type PermissionLevel string

const (
	// PermissionBasic expone solo la identidad de la mascota.
	PermissionBasic PermissionLevel = "basic"
	// PermissionAdvanced suma historia médica (alergias, vacunas, tratamientos, condiciones, métricas).
	PermissionAdvanced PermissionLevel = "advanced"
)

func (l PermissionLevel) Valid() bool {
	return l == PermissionBasic || l == PermissionAdvanced
}

type ShareToken struct {
	ID    string
	PetID string

	// Token es la clave pública del link: 64 caracteres hex.
	Token           string
	PermissionLevel PermissionLevel

	// IsActive=false significa revocado; la fila se conserva para auditoría.
	IsActive bool

	CreatedAt time.Time
	ExpiresAt *time.Time

	AccessedCount  int64
	LastAccessedAt *time.Time
}

// Expired: un token con ExpiresAt <= now ya no es válido.
func (t ShareToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}

// Usable: activo y no vencido.
func (t ShareToken) Usable(now time.Time) bool {
	return t.IsActive && !t.Expired(now)
}
