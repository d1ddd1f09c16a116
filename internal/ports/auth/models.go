package auth

import "strings"

// Claims es lo que la API necesita saber del usuario autenticado.
type Claims struct {
	UserID string
	Email  string
	Role   string
}

// Authenticated: sin UserID no hay dueño al que atribuir mascotas ni links.
func (c Claims) Authenticated() bool {
	return strings.TrimSpace(c.UserID) != ""
}
