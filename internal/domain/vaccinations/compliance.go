package vaccinations

import (
	"math"
	"time"
)

// DueSoonThresholdDays: una vacuna vigente que vence en este plazo (o antes) cuenta como "due soon".
const DueSoonThresholdDays = 30

const day = 24 * time.Hour

// Status de una vacuna respecto de "now".
// DaysUntilDue y DaysOverdue son excluyentes; ambos nil si no hay NextDueDate.
type Status struct {
	IsCurrent    bool
	IsOverdue    bool
	DaysUntilDue *int
	DaysOverdue  *int
}

type Compliance struct {
	TotalVaccinations    int
	CurrentVaccinations  int
	OverdueCount         int
	DueSoonCount         int
	CompliancePercentage int
}

// ComputeStatus es puro. Las comparaciones son estrictas: si nextDue == now
// la vacuna no está vigente ni vencida, y queda DaysOverdue = 0.
func ComputeStatus(now time.Time, nextDue *time.Time) Status {
	if nextDue == nil {
		return Status{}
	}

	st := Status{
		IsCurrent: nextDue.After(now),
		IsOverdue: nextDue.Before(now),
	}

	diff := int(math.Ceil(float64(nextDue.Sub(now)) / float64(day)))
	if diff > 0 {
		st.DaysUntilDue = &diff
	} else {
		overdue := -diff
		st.DaysOverdue = &overdue
	}
	return st
}

// ComputeCompliance agrega el estado de una lista de vacunas.
// Las vacunas sin NextDueDate suman al total pero no a vigentes ni vencidas.
func ComputeCompliance(now time.Time, items []Vaccination) Compliance {
	var c Compliance
	c.TotalVaccinations = len(items)

	for _, v := range items {
		st := ComputeStatus(now, v.NextDueDate)
		if st.IsCurrent {
			c.CurrentVaccinations++
		}
		if st.IsOverdue {
			c.OverdueCount++
		}
		if st.DaysUntilDue != nil && *st.DaysUntilDue <= DueSoonThresholdDays {
			c.DueSoonCount++
		}
	}

	if c.TotalVaccinations > 0 {
		c.CompliancePercentage = int(math.Round(100 * float64(c.CurrentVaccinations) / float64(c.TotalVaccinations)))
	}
	return c
}
