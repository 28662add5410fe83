package loan

import (
	"math"
	"time"

	"biblio/config"
)

// CalcPenalty computes the late fee and whole days late for a loan due at
// due, evaluated at the reference time at (the return date for returned
// loans, now for outstanding ones). Pure; the same rule is applied whether
// the penalty is projected or final.
func CalcPenalty(p config.LoanPolicy, due, at time.Time) (penalty float64, daysLate int) {
	if !at.After(due) {
		return 0, 0
	}
	daysLate = int(at.Sub(due).Hours() / 24)
	penalty = math.Min(float64(daysLate)*p.PenaltyRatePerDay, p.MaxPenalty)
	return math.Round(penalty*100) / 100, daysLate
}
