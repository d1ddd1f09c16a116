package records

import (
	"time"

	"github.com/shopspring/decimal"
)

type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

type ConditionStatus string

const (
	ConditionActive   ConditionStatus = "active"
	ConditionManaged  ConditionStatus = "managed"
	ConditionResolved ConditionStatus = "resolved"
)

type Allergy struct {
	ID          string
	PetID       string
	Allergen    string
	Severity    Severity
	Reaction    string
	DiagnosedAt *time.Time
	Notes       string
	CreatedAt   time.Time
}

type Treatment struct {
	ID            string
	PetID         string
	Name          string
	TreatmentType string
	StartDate     time.Time
	EndDate       *time.Time
	Dosage        string
	Frequency     string
	Notes         string
	CreatedAt     time.Time
}

type Condition struct {
	ID          string
	PetID       string
	Name        string
	Status      ConditionStatus
	DiagnosedAt *time.Time
	Notes       string
	CreatedAt   time.Time
}

// HealthMetric: peso, temperatura, frecuencia cardíaca, etc.
// Value es decimal para no perder precisión al persistir NUMERIC.
type HealthMetric struct {
	ID         string
	PetID      string
	MetricType string
	Value      decimal.Decimal
	Unit       string
	Date       time.Time
	Notes      string
	CreatedAt  time.Time
}
