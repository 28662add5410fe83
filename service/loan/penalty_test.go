package loan

import (
	"testing"
	"time"

	"biblio/config"

	"github.com/stretchr/testify/require"
)

func TestCalcPenalty_NotLate(t *testing.T) {
	p := config.DefaultLoanPolicy()
	due := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, at := range []time.Time{
		due.AddDate(0, 0, -3),
		due.Add(-time.Hour),
		due,
	} {
		penalty, days := CalcPenalty(p, due, at)
		require.Zero(t, penalty)
		require.Zero(t, days)
	}
}

func TestCalcPenalty_Late(t *testing.T) {
	p := config.DefaultLoanPolicy()
	due := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		at       time.Time
		penalty  float64
		daysLate int
	}{
		{"three days", due.AddDate(0, 0, 3), 1.5, 3},
		{"fractional day truncates down", due.Add(36 * time.Hour), 0.5, 1},
		{"under one day is free", due.Add(23 * time.Hour), 0, 0},
		{"at the cap", due.AddDate(0, 0, 20), 10.0, 20},
		{"beyond the cap", due.AddDate(0, 0, 45), 10.0, 45},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			penalty, days := CalcPenalty(p, due, tc.at)
			require.Equal(t, tc.penalty, penalty)
			require.Equal(t, tc.daysLate, days)
		})
	}
}

func TestCalcPenalty_Rounding(t *testing.T) {
	p := config.LoanPolicy{PenaltyRatePerDay: 0.333, MaxPenalty: 10.0}
	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	penalty, days := CalcPenalty(p, due, due.AddDate(0, 0, 2))
	require.Equal(t, 0.67, penalty)
	require.Equal(t, 2, days)
}

// The penalty never decreases as time passes and flattens at the cap.
func TestCalcPenalty_Monotonic(t *testing.T) {
	p := config.DefaultLoanPolicy()
	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	prev := 0.0
	for d := 0; d <= 60; d++ {
		penalty, _ := CalcPenalty(p, due, due.AddDate(0, 0, d))
		require.GreaterOrEqual(t, penalty, prev, "day %d", d)
		require.LessOrEqual(t, penalty, p.MaxPenalty, "day %d", d)
		prev = penalty
	}
	require.Equal(t, p.MaxPenalty, prev)
}
