package model

import "time"

type LoanStatus string

const (
	LoanOnLoan   LoanStatus = "ON_LOAN"
	LoanOverdue  LoanStatus = "OVERDUE"
	LoanReturned LoanStatus = "RETURNED"
)

type Loan struct {
	ID           int64      `json:"id"`
	BookID       int64      `json:"book_id"`
	BorrowerName string     `json:"borrower_name"`
	BorrowerMail string     `json:"borrower_mail"`
	CardNumber   string     `json:"card_number"`
	LoanDate     time.Time  `json:"loan_date"`
	DueDate      time.Time  `json:"due_date"`
	ReturnDate   *time.Time `json:"return_date,omitempty"`
	Status       LoanStatus `json:"status"`
	Renewed      bool       `json:"renewed"`
	Comments     string     `json:"comments,omitempty"`

	// Derived at read time, never persisted.
	Penalty   float64 `json:"penalty"`
	DaysLate  int     `json:"days_late"`
	BookTitle string  `json:"book_title,omitempty"`
}

// Active reports whether the loan still backs a physical copy.
func (l *Loan) Active() bool {
	return l.Status == LoanOnLoan || l.Status == LoanOverdue
}
