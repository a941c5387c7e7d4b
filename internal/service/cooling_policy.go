package service

import (
	"time"

	"github.com/ermuhamett/slagfield-api/internal/models"
)

// CoolingPolicy decides bucket-empty eligibility and the current visual
// stage from elapsed wall-clock time and a material's cooling profile. It is
// stateless; evaluation happens on demand whenever state is read or an
// empty-attempt is made.
type CoolingPolicy struct{}

// ElapsedHours returns the fractional hours since the bucket was placed.
func (CoolingPolicy) ElapsedHours(start, now time.Time) float64 {
	return now.Sub(start).Hours()
}

// Assess evaluates a placement against the material's stages at the given
// instant.
//
// A bucket is emptyable once it has reached the final classification stage
// by its lower bound, or once elapsed time passes the profile's total
// duration. The OR keeps the gate usable when stage data is incomplete or
// elapsed slightly exceeds the nominal total.
func (p CoolingPolicy) Assess(stages []models.CoolingStage, start, now time.Time) models.CoolingAssessment {
	elapsed := p.ElapsedHours(start, now)
	out := models.CoolingAssessment{ElapsedHours: elapsed}

	var maxDurationHours float64
	if len(stages) > 0 {
		// All stages of a material share TotalDurationMinutes by invariant.
		maxDurationHours = float64(stages[0].TotalDurationMinutes) / 60
	}
	out.MaxDurationHours = maxDurationHours
	out.ExceedsMaxDuration = maxDurationHours > 0 && elapsed > maxDurationHours

	var last *models.CoolingStage
	for i := range stages {
		if last == nil || stages[i].MinHours > last.MinHours {
			last = &stages[i]
		}
	}

	for i := range stages {
		if elapsed >= stages[i].MinHours && elapsed < stages[i].MaxHours {
			stage := stages[i]
			out.Stage = &stage
			break
		}
	}

	eligibleByStage := last != nil && elapsed >= last.MinHours
	eligibleByMax := elapsed >= maxDurationHours
	out.Eligible = eligibleByStage || eligibleByMax

	if !out.Eligible && last != nil {
		after := last.MinHours
		out.EligibleAfterHours = &after
	}

	return out
}
