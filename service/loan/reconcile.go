package loan

import (
	"time"

	"biblio/config"
	"biblio/model"
)

// Reconcile derives the loan's effective status from wall-clock time.
// An outstanding ON_LOAN loan past its due date becomes OVERDUE; anything
// else is unchanged. Pure: callers persist the transition separately with
// a guarded update so a concurrently committed return always wins.
func Reconcile(l model.Loan, now time.Time) (model.Loan, bool) {
	if l.ReturnDate == nil && now.After(l.DueDate) && l.Status == model.LoanOnLoan {
		l.Status = model.LoanOverdue
		return l, true
	}
	return l, false
}

// Enrich attaches the computed penalty and days-late to a loan. These are
// display fields, never persisted.
func Enrich(p config.LoanPolicy, l model.Loan, now time.Time) model.Loan {
	l.Penalty = 0
	l.DaysLate = 0

	at := now
	if l.ReturnDate != nil {
		at = *l.ReturnDate
	}
	if l.Status == model.LoanOverdue || (l.ReturnDate != nil && l.ReturnDate.After(l.DueDate)) {
		l.Penalty, l.DaysLate = CalcPenalty(p, l.DueDate, at)
	}
	return l
}
