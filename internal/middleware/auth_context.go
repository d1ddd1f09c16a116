package middleware

import (
	"context"
	"net/http"
	"strings"

	"pet-health-tracker/internal/platform/logger"
	"pet-health-tracker/internal/ports/auth"
)

type ctxKey struct{}

// DebugUserHeader permite fijar el usuario en modo dev (sin verifier).
const DebugUserHeader = "X-Debug-User-ID"

// AuthContext resuelve el usuario del request y lo deja en el contexto.
// Nunca corta: los endpoints públicos (/shared, /health) no llevan auth y
// los handlers de dueño responden 401 si falta el usuario.
//
// Con verifier nil corre en modo dev y acepta el header X-Debug-User-ID.
func AuthContext(verifier auth.AuthVerifier, log logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With(map[string]any{"component": "auth"})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := resolveClaims(r, verifier, log)
			if ok {
				r = r.WithContext(WithClaims(r.Context(), claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolveClaims(r *http.Request, verifier auth.AuthVerifier, log logger.Logger) (auth.Claims, bool) {
	if verifier == nil {
		c := auth.Claims{UserID: strings.TrimSpace(r.Header.Get(DebugUserHeader))}
		return c, c.Authenticated()
	}

	token, found := bearerToken(r.Header.Get("Authorization"))
	if !found {
		return auth.Claims{}, false
	}

	c, err := verifier.Verify(r.Context(), token)
	if err != nil {
		// El token no se loguea.
		log.Debug("bearer token rejected", map[string]any{"error": err, "path": r.URL.Path})
		return auth.Claims{}, false
	}
	return c, c.Authenticated()
}

func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(auth.Claims)
	return c, ok
}

// UserID devuelve el usuario autenticado, si hay.
func UserID(ctx context.Context) (string, bool) {
	c, ok := GetClaims(ctx)
	if !ok || !c.Authenticated() {
		return "", false
	}
	return c.UserID, true
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
