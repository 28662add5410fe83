package statssvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	statsrepo "biblio/repository/stats"
)

var ErrNotFound = errors.New("not found")

type GlobalStats struct {
	TotalBooks    int64   `json:"total_books"`
	TotalAuthors  int64   `json:"total_authors"`
	TotalLoans    int64   `json:"total_loans"`
	ActiveLoans   int64   `json:"active_loans"`
	LateLoans     int64   `json:"late_loans"`
	OccupancyRate float64 `json:"occupancy_rate"`
}

type BookStats struct {
	BookID              int64   `json:"book_id"`
	BookTitle           string  `json:"book_title"`
	TotalLoans          int64   `json:"total_loans"`
	AverageLoanDuration float64 `json:"average_loan_duration"`
	TimesLate           int64   `json:"times_late"`
}

type AuthorStats struct {
	AuthorID   int64  `json:"author_id"`
	AuthorName string `json:"author_name"`
	TotalBooks int64  `json:"total_books"`
	TotalLoans int64  `json:"total_loans"`
}

type MonthlyReport struct {
	Month         string `json:"month"`
	TotalLoans    int64  `json:"total_loans"`
	ReturnedLoans int64  `json:"returned_loans"`
}

type NeverBorrowedBook struct {
	BookID          int64  `json:"book_id"`
	Title           string `json:"title"`
	PublicationYear int    `json:"publication_year"`
}

type TopBorrower struct {
	BorrowerMail string `json:"borrower_mail"`
	BorrowerName string `json:"borrower_name"`
	TotalLoans   int64  `json:"total_loans"`
	CurrentLoans int64  `json:"current_loans"`
	LateReturns  int64  `json:"late_returns"`
}

type Service interface {
	Global(ctx context.Context) (*GlobalStats, error)
	Book(ctx context.Context, bookID int64) (*BookStats, error)
	Author(ctx context.Context, authorID int64) (*AuthorStats, error)
	Monthly(ctx context.Context, year, month int) (*MonthlyReport, error)
	NeverBorrowed(ctx context.Context) ([]NeverBorrowedBook, error)
	TopBorrowers(ctx context.Context, limit int) ([]TopBorrower, error)
}

type service struct {
	r statsrepo.Repo
}

func New(r statsrepo.Repo) Service { return &service{r: r} }

func (s *service) Global(ctx context.Context) (*GlobalStats, error) {
	g, err := s.r.Global(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	// Occupancy: copies out on loan over all physical copies.
	totalPhysical := g.ActiveLoans + g.SumAvailable
	var rate float64
	if totalPhysical > 0 {
		rate = math.Round(float64(g.ActiveLoans)/float64(totalPhysical)*100*100) / 100
	}

	return &GlobalStats{
		TotalBooks:    g.TotalBooks,
		TotalAuthors:  g.TotalAuthors,
		TotalLoans:    g.TotalLoans,
		ActiveLoans:   g.ActiveLoans,
		LateLoans:     g.LateLoans,
		OccupancyRate: rate,
	}, nil
}

func (s *service) Book(ctx context.Context, bookID int64) (*BookStats, error) {
	c, err := s.r.Book(ctx, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &BookStats{
		BookID:              c.BookID,
		BookTitle:           c.Title,
		TotalLoans:          c.TotalLoans,
		AverageLoanDuration: math.Round(c.AvgDuration*100) / 100,
		TimesLate:           c.TimesLate,
	}, nil
}

func (s *service) Author(ctx context.Context, authorID int64) (*AuthorStats, error) {
	c, err := s.r.Author(ctx, authorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &AuthorStats{
		AuthorID:   c.AuthorID,
		AuthorName: c.FirstName + " " + c.LastName,
		TotalBooks: c.TotalBooks,
		TotalLoans: c.TotalLoans,
	}, nil
}

func (s *service) Monthly(ctx context.Context, year, month int) (*MonthlyReport, error) {
	if month < 1 || month > 12 {
		return nil, errors.New("month must be 1..12")
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	m, err := s.r.Monthly(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &MonthlyReport{
		Month:         fmt.Sprintf("%04d-%02d", year, month),
		TotalLoans:    m.TotalLoans,
		ReturnedLoans: m.ReturnedLoans,
	}, nil
}

func (s *service) NeverBorrowed(ctx context.Context) ([]NeverBorrowedBook, error) {
	books, err := s.r.NeverBorrowed(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]NeverBorrowedBook, 0, len(books))
	for _, b := range books {
		out = append(out, NeverBorrowedBook{BookID: b.BookID, Title: b.Title, PublicationYear: b.PublicationYear})
	}
	return out, nil
}

func (s *service) TopBorrowers(ctx context.Context, limit int) ([]TopBorrower, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.r.TopBorrowers(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]TopBorrower, 0, len(rows))
	for _, b := range rows {
		out = append(out, TopBorrower{
			BorrowerMail: b.BorrowerMail,
			BorrowerName: b.BorrowerName,
			TotalLoans:   b.TotalLoans,
			CurrentLoans: b.CurrentLoans,
			LateReturns:  b.LateReturns,
		})
	}
	return out, nil
}
