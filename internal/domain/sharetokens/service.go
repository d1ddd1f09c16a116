package sharetokens

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"pet-health-tracker/internal/platform/logger"
	"pet-health-tracker/internal/platform/obs"
	"pet-health-tracker/internal/ports/analytics"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("share token not found")
	ErrTokenConflict = errors.New("share token value already exists")
)

const (
	tokenBytes          = 32
	maxGenerateAttempts = 3
	analyticsTimeout    = 3 * time.Second
	getOrCreateTimeout  = 10 * time.Second

	EventShareTokenCreated = "share_token_created"
)

type Service struct {
	repo Repository
	sink analytics.Sink
	log  logger.Logger

	now     func() time.Time
	entropy io.Reader

	// inflight colapsa GetOrCreate concurrentes para el mismo (pet, nivel)
	// dentro del proceso. Entre réplicas la carrera sigue existiendo.
	inflight singleflight.Group
}

func NewService(repo Repository, sink analytics.Sink, log logger.Logger) *Service {
	if sink == nil {
		sink = analytics.Nop{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo:    repo,
		sink:    sink,
		log:     log.With(map[string]any{"component": "sharetokens"}),
		now:     time.Now,
		entropy: rand.Reader,
	}
}

// List devuelve los tokens de la mascota, más nuevos primero.
func (s *Service) List(ctx context.Context, petID string) ([]ShareToken, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, ErrInvalidInput
	}

	items, err := s.repo.ListByPet(ctx, petID)
	if err != nil {
		s.log.Error("list share tokens failed", map[string]any{"pet_id": petID, "error": err})
		return nil, err
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id string) (ShareToken, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ShareToken{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

type GenerateInput struct {
	PetID           string
	PermissionLevel PermissionLevel
	ExpiresAt       *time.Time
}

// Generate crea siempre un token nuevo, activo y con accessed_count en 0.
// Si el valor aleatorio choca con uno existente se regenera (hasta maxGenerateAttempts).
func (s *Service) Generate(ctx context.Context, in GenerateInput) (ShareToken, error) {
	petID := strings.TrimSpace(in.PetID)
	level := PermissionLevel(strings.ToLower(strings.TrimSpace(string(in.PermissionLevel))))
	if petID == "" || !level.Valid() {
		return ShareToken{}, ErrInvalidInput
	}

	now := s.now()
	if in.ExpiresAt != nil && !in.ExpiresAt.After(now) {
		return ShareToken{}, ErrInvalidInput
	}

	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		value, err := s.newTokenValue()
		if err != nil {
			return ShareToken{}, fmt.Errorf("generate token value: %w", err)
		}

		t := ShareToken{
			ID:              uuid.NewString(),
			PetID:           petID,
			Token:           value,
			PermissionLevel: level,
			IsActive:        true,
			CreatedAt:       now,
			ExpiresAt:       in.ExpiresAt,
		}

		err = s.repo.Create(ctx, t)
		if errors.Is(err, ErrTokenConflict) {
			s.log.Warn("share token collision, retrying", map[string]any{"pet_id": petID, "attempt": attempt})
			continue
		}
		if err != nil {
			s.log.Error("create share token failed", map[string]any{"pet_id": petID, "error": err})
			return ShareToken{}, err
		}

		obs.ShareTokenCreated(string(level))
		s.track(ctx, t)
		return t, nil
	}

	return ShareToken{}, ErrTokenConflict
}

// GetOrCreate devuelve el token usable más reciente para (pet, nivel) sin tocarlo,
// o genera uno nuevo. created indica cuál de los dos caminos se tomó.
func (s *Service) GetOrCreate(ctx context.Context, petID string, level PermissionLevel) (ShareToken, bool, error) {
	petID = strings.TrimSpace(petID)
	level = PermissionLevel(strings.ToLower(strings.TrimSpace(string(level))))
	if petID == "" || !level.Valid() {
		return ShareToken{}, false, ErrInvalidInput
	}

	type result struct {
		token   ShareToken
		created bool
	}

	// El trabajo compartido no depende del ctx del primer caller: si ese
	// cliente se va, los demás que esperan la misma clave siguen su curso.
	ch := s.inflight.DoChan(petID+"|"+string(level), func() (any, error) {
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), getOrCreateTimeout)
		defer cancel()

		items, err := s.repo.ListByPet(wctx, petID)
		if err != nil {
			return nil, err
		}

		now := s.now()
		for _, t := range items {
			if t.PermissionLevel == level && t.Usable(now) {
				return result{token: t}, nil
			}
		}

		t, err := s.Generate(wctx, GenerateInput{PetID: petID, PermissionLevel: level})
		if err != nil {
			return nil, err
		}
		return result{token: t, created: true}, nil
	})

	var v any
	select {
	case <-ctx.Done():
		return ShareToken{}, false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return ShareToken{}, false, r.Err
		}
		v = r.Val
	}

	res := v.(result)
	return res.token, res.created, nil
}

// Revoke es idempotente: revocar un token ya revocado no falla ni lo modifica.
func (s *Service) Revoke(ctx context.Context, id string) (ShareToken, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return ShareToken{}, err
	}
	if !t.IsActive {
		return t, nil
	}

	if err := s.repo.Deactivate(ctx, t.ID); err != nil {
		s.log.Error("revoke share token failed", map[string]any{"token_id": t.ID, "error": err})
		return ShareToken{}, err
	}
	t.IsActive = false
	return t, nil
}

// Delete borra la fila. Irreversible.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Error("delete share token failed", map[string]any{"token_id": id, "error": err})
		}
		return err
	}
	return nil
}

func (s *Service) newTokenValue() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := io.ReadFull(s.entropy, b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// track manda el evento fuera del request: no comparte la cancelación
// del caller y su resultado nunca llega al flujo principal.
func (s *Service) track(ctx context.Context, t ShareToken) {
	props := map[string]any{
		"pet_id":           t.PetID,
		"permission_level": string(t.PermissionLevel),
		"has_expiry":       t.ExpiresAt != nil,
	}
	bg := context.WithoutCancel(ctx)

	go func() {
		ctx, cancel := context.WithTimeout(bg, analyticsTimeout)
		defer cancel()

		if err := s.sink.Record(ctx, EventShareTokenCreated, props); err != nil {
			s.log.Warn("analytics event dropped", map[string]any{"event": EventShareTokenCreated, "error": err})
		}
	}()
}
