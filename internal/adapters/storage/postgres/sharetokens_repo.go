package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"pet-health-tracker/internal/domain/sharetokens"
)

type ShareTokensRepo struct {
	db *sql.DB
}

func NewShareTokensRepo(db *sql.DB) *ShareTokensRepo {
	return &ShareTokensRepo{db: db}
}

const shareTokenColumns = `
	id, pet_id, token, permission_level, is_active,
	created_at, expires_at, accessed_count, last_accessed_at`

func (r *ShareTokensRepo) Create(ctx context.Context, t sharetokens.ShareToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pet_share_tokens (`+shareTokenColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		t.ID,
		t.PetID,
		t.Token,
		string(t.PermissionLevel),
		t.IsActive,
		t.CreatedAt,
		toNullTime(t.ExpiresAt),
		t.AccessedCount,
		toNullTime(t.LastAccessedAt),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return sharetokens.ErrTokenConflict
		}
		return fmt.Errorf("insert share token: %w", err)
	}
	return nil
}

func (r *ShareTokensRepo) GetByID(ctx context.Context, id string) (sharetokens.ShareToken, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return sharetokens.ShareToken{}, sharetokens.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+shareTokenColumns+` FROM pet_share_tokens WHERE id = $1`, id)
	return scanShareTokenRow(row)
}

func (r *ShareTokensRepo) GetActiveByToken(ctx context.Context, token string) (sharetokens.ShareToken, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+shareTokenColumns+`
		FROM pet_share_tokens
		WHERE token = $1 AND is_active = TRUE
	`, token)
	return scanShareTokenRow(row)
}

func (r *ShareTokensRepo) ListByPet(ctx context.Context, petID string) ([]sharetokens.ShareToken, error) {
	if _, err := uuid.Parse(strings.TrimSpace(petID)); err != nil {
		return []sharetokens.ShareToken{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+shareTokenColumns+`
		FROM pet_share_tokens
		WHERE pet_id = $1
		ORDER BY created_at DESC, id DESC
	`, strings.TrimSpace(petID))
	if err != nil {
		return nil, fmt.Errorf("list share tokens: %w", err)
	}
	defer rows.Close()

	out := make([]sharetokens.ShareToken, 0)
	for rows.Next() {
		t, err := scanShareToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *ShareTokensRepo) Deactivate(ctx context.Context, id string) error {
	return r.execOne(ctx, `UPDATE pet_share_tokens SET is_active = FALSE WHERE id = $1`, id)
}

func (r *ShareTokensRepo) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM pet_share_tokens WHERE id = $1`, id)
}

// RecordAccess incrementa en la misma sentencia; accesos concurrentes no se pisan.
func (r *ShareTokensRepo) RecordAccess(ctx context.Context, id string, at time.Time) error {
	return r.execOne(ctx, `
		UPDATE pet_share_tokens
		SET accessed_count = accessed_count + 1, last_accessed_at = $2
		WHERE id = $1
	`, id, at)
}

func (r *ShareTokensRepo) execOne(ctx context.Context, query string, id string, args ...any) error {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return sharetokens.ErrNotFound
	}

	res, err := r.db.ExecContext(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sharetokens.ErrNotFound
	}
	return nil
}

func scanShareTokenRow(row *sql.Row) (sharetokens.ShareToken, error) {
	t, err := scanShareToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return sharetokens.ShareToken{}, sharetokens.ErrNotFound
	}
	return t, err
}

func scanShareToken(row rowScanner) (sharetokens.ShareToken, error) {
	var t sharetokens.ShareToken
	var expires, lastAccess sql.NullTime
	if err := row.Scan(
		&t.ID,
		&t.PetID,
		&t.Token,
		&t.PermissionLevel,
		&t.IsActive,
		&t.CreatedAt,
		&expires,
		&t.AccessedCount,
		&lastAccess,
	); err != nil {
		return sharetokens.ShareToken{}, err
	}
	t.ExpiresAt = fromNullTime(expires)
	t.LastAccessedAt = fromNullTime(lastAccess)
	return t, nil
}
