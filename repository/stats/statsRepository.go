package statsrepo

import (
	"context"
	"database/sql"
	"time"
)

type GlobalCounts struct {
	TotalBooks   int64
	TotalAuthors int64
	TotalLoans   int64
	ActiveLoans  int64
	LateLoans    int64
	SumAvailable int64
}

type BookCounts struct {
	BookID      int64
	Title       string
	TotalLoans  int64
	AvgDuration float64 // days, returned loans only
	TimesLate   int64
}

type AuthorCounts struct {
	AuthorID   int64
	FirstName  string
	LastName   string
	TotalBooks int64
	TotalLoans int64
}

type MonthlyCounts struct {
	TotalLoans    int64
	ReturnedLoans int64
}

type NeverBorrowedBook struct {
	BookID          int64
	Title           string
	PublicationYear int
}

type BorrowerCounts struct {
	BorrowerMail string
	BorrowerName string
	TotalLoans   int64
	CurrentLoans int64
	LateReturns  int64
}

type Repo interface {
	Global(ctx context.Context, now time.Time) (*GlobalCounts, error)
	Book(ctx context.Context, bookID int64) (*BookCounts, error)
	Author(ctx context.Context, authorID int64) (*AuthorCounts, error)
	Monthly(ctx context.Context, from, to time.Time) (*MonthlyCounts, error)
	NeverBorrowed(ctx context.Context) ([]NeverBorrowedBook, error)
	TopBorrowers(ctx context.Context, limit int) ([]BorrowerCounts, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Global(ctx context.Context, now time.Time) (*GlobalCounts, error) {
	const q = `
SELECT
  (SELECT COUNT(*) FROM books),
  (SELECT COUNT(*) FROM authors),
  (SELECT COUNT(*) FROM loans),
  (SELECT COUNT(*) FROM loans WHERE return_date IS NULL),
  (SELECT COUNT(*) FROM loans WHERE return_date IS NULL AND due_date < $1),
  (SELECT COALESCE(SUM(available_copies), 0) FROM books)`
	var g GlobalCounts
	err := r.db.QueryRowContext(ctx, q, now).Scan(
		&g.TotalBooks, &g.TotalAuthors, &g.TotalLoans,
		&g.ActiveLoans, &g.LateLoans, &g.SumAvailable,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *repo) Book(ctx context.Context, bookID int64) (*BookCounts, error) {
	const q = `
SELECT b.id, b.title,
       COUNT(l.id),
       COALESCE(EXTRACT(EPOCH FROM AVG(l.return_date - l.loan_date)) / 86400, 0),
       COUNT(l.id) FILTER (WHERE l.return_date > l.due_date)
FROM books b
LEFT JOIN loans l ON l.book_id = b.id
WHERE b.id = $1
GROUP BY b.id`
	var c BookCounts
	err := r.db.QueryRowContext(ctx, q, bookID).Scan(
		&c.BookID, &c.Title, &c.TotalLoans, &c.AvgDuration, &c.TimesLate,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repo) Author(ctx context.Context, authorID int64) (*AuthorCounts, error) {
	const q = `
SELECT a.id, a.first_name, a.last_name,
       COUNT(DISTINCT b.id),
       COUNT(l.id)
FROM authors a
LEFT JOIN books b ON b.author_id = a.id
LEFT JOIN loans l ON l.book_id = b.id
WHERE a.id = $1
GROUP BY a.id`
	var c AuthorCounts
	err := r.db.QueryRowContext(ctx, q, authorID).Scan(
		&c.AuthorID, &c.FirstName, &c.LastName, &c.TotalBooks, &c.TotalLoans,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repo) Monthly(ctx context.Context, from, to time.Time) (*MonthlyCounts, error) {
	const q = `
SELECT
  (SELECT COUNT(*) FROM loans WHERE loan_date >= $1 AND loan_date < $2),
  (SELECT COUNT(*) FROM loans WHERE return_date >= $1 AND return_date < $2)`
	var m MonthlyCounts
	if err := r.db.QueryRowContext(ctx, q, from, to).Scan(&m.TotalLoans, &m.ReturnedLoans); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repo) NeverBorrowed(ctx context.Context) ([]NeverBorrowedBook, error) {
	const q = `
SELECT b.id, b.title, b.publication_year
FROM books b
WHERE NOT EXISTS (SELECT 1 FROM loans l WHERE l.book_id = b.id)
ORDER BY b.title`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NeverBorrowedBook
	for rows.Next() {
		var b NeverBorrowedBook
		if err := rows.Scan(&b.BookID, &b.Title, &b.PublicationYear); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) TopBorrowers(ctx context.Context, limit int) ([]BorrowerCounts, error) {
	const q = `
SELECT borrower_mail,
       MAX(borrower_name),
       COUNT(*),
       COUNT(*) FILTER (WHERE return_date IS NULL),
       COUNT(*) FILTER (WHERE return_date > due_date)
FROM loans
GROUP BY borrower_mail
ORDER BY COUNT(*) DESC
LIMIT $1`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BorrowerCounts
	for rows.Next() {
		var b BorrowerCounts
		if err := rows.Scan(&b.BorrowerMail, &b.BorrowerName, &b.TotalLoans, &b.CurrentLoans, &b.LateReturns); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
