package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"pet-health-tracker/internal/domain/vaccinations"
)

type VaccinationsRepo struct {
	db *sql.DB
}

func NewVaccinationsRepo(db *sql.DB) *VaccinationsRepo {
	return &VaccinationsRepo{db: db}
}

const vaccinationColumns = `
	id, pet_id, vaccine_name, vaccination_type,
	date_given, next_due_date,
	veterinarian, batch_number, notes,
	created_at, updated_at`

func (r *VaccinationsRepo) Create(ctx context.Context, v vaccinations.Vaccination) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vaccinations (`+vaccinationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		v.ID,
		v.PetID,
		v.VaccineName,
		string(v.Category),
		v.DateGiven,
		toNullTime(v.NextDueDate),
		v.Veterinarian,
		v.BatchNumber,
		v.Notes,
		v.CreatedAt,
		v.UpdatedAt,
	)
	return err
}

func (r *VaccinationsRepo) Update(ctx context.Context, v vaccinations.Vaccination) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE vaccinations
		SET
			vaccine_name = $2,
			vaccination_type = $3,
			date_given = $4,
			next_due_date = $5,
			veterinarian = $6,
			batch_number = $7,
			notes = $8,
			updated_at = $9
		WHERE id = $1
	`,
		v.ID,
		v.VaccineName,
		string(v.Category),
		v.DateGiven,
		toNullTime(v.NextDueDate),
		v.Veterinarian,
		v.BatchNumber,
		v.Notes,
		v.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return vaccinations.ErrNotFound
	}
	return nil
}

func (r *VaccinationsRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return vaccinations.ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM vaccinations WHERE id = $1`, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return vaccinations.ErrNotFound
	}
	return nil
}

func (r *VaccinationsRepo) GetByID(ctx context.Context, id string) (vaccinations.Vaccination, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return vaccinations.Vaccination{}, vaccinations.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+vaccinationColumns+` FROM vaccinations WHERE id = $1`, id)
	v, err := scanVaccination(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return vaccinations.Vaccination{}, vaccinations.ErrNotFound
		}
		return vaccinations.Vaccination{}, err
	}
	return v, nil
}

func (r *VaccinationsRepo) ListByPet(ctx context.Context, petID string) ([]vaccinations.Vaccination, error) {
	petID = strings.TrimSpace(petID)
	if _, err := uuid.Parse(petID); err != nil {
		return []vaccinations.Vaccination{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+vaccinationColumns+`
		FROM vaccinations
		WHERE pet_id = $1
		ORDER BY date_given DESC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]vaccinations.Vaccination, 0)
	for rows.Next() {
		v, err := scanVaccination(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanVaccination(row rowScanner) (vaccinations.Vaccination, error) {
	var v vaccinations.Vaccination
	var next sql.NullTime
	if err := row.Scan(
		&v.ID,
		&v.PetID,
		&v.VaccineName,
		&v.Category,
		&v.DateGiven,
		&next,
		&v.Veterinarian,
		&v.BatchNumber,
		&v.Notes,
		&v.CreatedAt,
		&v.UpdatedAt,
	); err != nil {
		return vaccinations.Vaccination{}, err
	}
	v.NextDueDate = fromNullTime(next)
	return v, nil
}
