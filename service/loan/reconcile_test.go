package loan

import (
	"testing"
	"time"

	"biblio/config"
	"biblio/model"

	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func activeLoan(due time.Time) model.Loan {
	return model.Loan{
		ID:       1,
		BookID:   7,
		LoanDate: due.AddDate(0, 0, -14),
		DueDate:  due,
		Status:   model.LoanOnLoan,
	}
}

func TestReconcile_PastDueBecomesOverdue(t *testing.T) {
	l, changed := Reconcile(activeLoan(baseTime.AddDate(0, 0, -1)), baseTime)
	require.True(t, changed)
	require.Equal(t, model.LoanOverdue, l.Status)
}

func TestReconcile_NotYetDue(t *testing.T) {
	l, changed := Reconcile(activeLoan(baseTime.AddDate(0, 0, 1)), baseTime)
	require.False(t, changed)
	require.Equal(t, model.LoanOnLoan, l.Status)
}

func TestReconcile_Idempotent(t *testing.T) {
	first, changed := Reconcile(activeLoan(baseTime.AddDate(0, 0, -1)), baseTime)
	require.True(t, changed)

	second, changed := Reconcile(first, baseTime)
	require.False(t, changed)
	require.Equal(t, first, second)
}

func TestReconcile_ReturnedStaysReturned(t *testing.T) {
	ret := baseTime.AddDate(0, 0, -2)
	l := activeLoan(baseTime.AddDate(0, 0, -5))
	l.Status = model.LoanReturned
	l.ReturnDate = &ret

	out, changed := Reconcile(l, baseTime)
	require.False(t, changed)
	require.Equal(t, model.LoanReturned, out.Status)
}

func TestEnrich_ActiveOnTime(t *testing.T) {
	p := config.DefaultLoanPolicy()
	out := Enrich(p, activeLoan(baseTime.AddDate(0, 0, 3)), baseTime)
	require.Zero(t, out.Penalty)
	require.Zero(t, out.DaysLate)
}

func TestEnrich_OverdueProjectsPenaltyToDate(t *testing.T) {
	p := config.DefaultLoanPolicy()
	l := activeLoan(baseTime.AddDate(0, 0, -20))
	l.Status = model.LoanOverdue

	out := Enrich(p, l, baseTime)
	require.Equal(t, 10.0, out.Penalty)
	require.Equal(t, 20, out.DaysLate)
}

func TestEnrich_ReturnedLateUsesReturnDate(t *testing.T) {
	p := config.DefaultLoanPolicy()
	l := activeLoan(baseTime.AddDate(0, 0, -10))
	ret := l.DueDate.AddDate(0, 0, 3)
	l.Status = model.LoanReturned
	l.ReturnDate = &ret

	// Penalty is frozen at the return date no matter when we look.
	out := Enrich(p, l, baseTime.AddDate(0, 0, 30))
	require.Equal(t, 1.5, out.Penalty)
	require.Equal(t, 3, out.DaysLate)
}

func TestEnrich_ReturnedOnTime(t *testing.T) {
	p := config.DefaultLoanPolicy()
	l := activeLoan(baseTime)
	ret := l.DueDate.AddDate(0, 0, -1)
	l.Status = model.LoanReturned
	l.ReturnDate = &ret

	out := Enrich(p, l, baseTime.AddDate(0, 0, 30))
	require.Zero(t, out.Penalty)
	require.Zero(t, out.DaysLate)
}
