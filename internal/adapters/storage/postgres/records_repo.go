package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"pet-health-tracker/internal/domain/records"
)

type RecordsRepo struct {
	db *sql.DB
}

func NewRecordsRepo(db *sql.DB) *RecordsRepo {
	return &RecordsRepo{db: db}
}

func (r *RecordsRepo) CreateAllergy(ctx context.Context, a records.Allergy) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO allergies (id, pet_id, allergen, severity, reaction, diagnosed_at, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, a.ID, a.PetID, a.Allergen, string(a.Severity), a.Reaction, toNullTime(a.DiagnosedAt), a.Notes, a.CreatedAt)
	return err
}

func (r *RecordsRepo) ListAllergies(ctx context.Context, petID string) ([]records.Allergy, error) {
	rows, ok, err := r.queryByPet(ctx, `
		SELECT id, pet_id, allergen, severity, reaction, diagnosed_at, notes, created_at
		FROM allergies
		WHERE pet_id = $1
		ORDER BY created_at DESC
	`, petID)
	if err != nil || !ok {
		return []records.Allergy{}, err
	}
	defer rows.Close()

	out := make([]records.Allergy, 0)
	for rows.Next() {
		var a records.Allergy
		var diagnosed sql.NullTime
		if err := rows.Scan(&a.ID, &a.PetID, &a.Allergen, &a.Severity, &a.Reaction, &diagnosed, &a.Notes, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.DiagnosedAt = fromNullTime(diagnosed)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *RecordsRepo) CreateTreatment(ctx context.Context, t records.Treatment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO treatments (id, pet_id, name, treatment_type, start_date, end_date, dosage, frequency, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, t.ID, t.PetID, t.Name, t.TreatmentType, t.StartDate, toNullTime(t.EndDate), t.Dosage, t.Frequency, t.Notes, t.CreatedAt)
	return err
}

func (r *RecordsRepo) ListTreatments(ctx context.Context, petID string) ([]records.Treatment, error) {
	rows, ok, err := r.queryByPet(ctx, `
		SELECT id, pet_id, name, treatment_type, start_date, end_date, dosage, frequency, notes, created_at
		FROM treatments
		WHERE pet_id = $1
		ORDER BY start_date DESC
	`, petID)
	if err != nil || !ok {
		return []records.Treatment{}, err
	}
	defer rows.Close()

	out := make([]records.Treatment, 0)
	for rows.Next() {
		var t records.Treatment
		var end sql.NullTime
		if err := rows.Scan(&t.ID, &t.PetID, &t.Name, &t.TreatmentType, &t.StartDate, &end, &t.Dosage, &t.Frequency, &t.Notes, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.EndDate = fromNullTime(end)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *RecordsRepo) CreateCondition(ctx context.Context, c records.Condition) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conditions (id, pet_id, name, status, diagnosed_at, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, c.ID, c.PetID, c.Name, string(c.Status), toNullTime(c.DiagnosedAt), c.Notes, c.CreatedAt)
	return err
}

func (r *RecordsRepo) ListConditions(ctx context.Context, petID string) ([]records.Condition, error) {
	rows, ok, err := r.queryByPet(ctx, `
		SELECT id, pet_id, name, status, diagnosed_at, notes, created_at
		FROM conditions
		WHERE pet_id = $1
		ORDER BY created_at DESC
	`, petID)
	if err != nil || !ok {
		return []records.Condition{}, err
	}
	defer rows.Close()

	out := make([]records.Condition, 0)
	for rows.Next() {
		var c records.Condition
		var diagnosed sql.NullTime
		if err := rows.Scan(&c.ID, &c.PetID, &c.Name, &c.Status, &diagnosed, &c.Notes, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.DiagnosedAt = fromNullTime(diagnosed)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *RecordsRepo) CreateHealthMetric(ctx context.Context, m records.HealthMetric) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO health_metrics (id, pet_id, metric_type, value, unit, date, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, m.ID, m.PetID, m.MetricType, m.Value, m.Unit, m.Date, m.Notes, m.CreatedAt)
	return err
}

func (r *RecordsRepo) ListHealthMetrics(ctx context.Context, petID string, limit int) ([]records.HealthMetric, error) {
	rows, ok, err := r.queryByPet(ctx, `
		SELECT id, pet_id, metric_type, value, unit, date, notes, created_at
		FROM health_metrics
		WHERE pet_id = $1
		ORDER BY date DESC
		LIMIT $2
	`, petID, limit)
	if err != nil || !ok {
		return []records.HealthMetric{}, err
	}
	defer rows.Close()

	out := make([]records.HealthMetric, 0)
	for rows.Next() {
		var m records.HealthMetric
		// decimal.Decimal implementa sql.Scanner para NUMERIC.
		if err := rows.Scan(&m.ID, &m.PetID, &m.MetricType, &m.Value, &m.Unit, &m.Date, &m.Notes, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// queryByPet devuelve ok=false si petID no es un uuid (no hay filas posibles).
func (r *RecordsRepo) queryByPet(ctx context.Context, query, petID string, args ...any) (*sql.Rows, bool, error) {
	petID = strings.TrimSpace(petID)
	if _, err := uuid.Parse(petID); err != nil {
		return nil, false, nil
	}

	rows, err := r.db.QueryContext(ctx, query, append([]any{petID}, args...)...)
	if err != nil {
		return nil, false, fmt.Errorf("query records: %w", err)
	}
	return rows, true, nil
}
