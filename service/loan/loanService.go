package loan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"biblio/config"
	"biblio/model"
	bookrepo "biblio/repository/book"
	loanrepo "biblio/repository/loan"
	"biblio/util/database"
	"biblio/util/query"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// errors used by controllers

type ErrCode string

const (
	ErrBookNotFound     ErrCode = "BOOK_NOT_FOUND"
	ErrLoanNotFound     ErrCode = "LOAN_NOT_FOUND"
	ErrNoStock          ErrCode = "NO_STOCK"
	ErrLoanLimit        ErrCode = "LOAN_LIMIT"
	ErrAlreadyReturned  ErrCode = "ALREADY_RETURNED"
	ErrAlreadyRenewed   ErrCode = "ALREADY_RENEWED"
	ErrInventoryCorrupt ErrCode = "INVENTORY_CORRUPT"
)

type codedError struct {
	code ErrCode
	msg  string
}

func (e codedError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return string(e.code)
}
func (e codedError) Code() ErrCode { return e.code }

func makeErr(c ErrCode) error { return codedError{code: c} }

func makeErrf(c ErrCode, format string, args ...any) error {
	return codedError{code: c, msg: fmt.Sprintf(format, args...)}
}

// Code extracts the error code, or "" for unexpected errors.
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// Filter = repository filter shape
type Filter = loanrepo.Filter

type CreateInput struct {
	BookID       int64
	BorrowerName string
	BorrowerMail string
	CardNumber   string
	Comments     string
}

type ReturnInput struct {
	ReturnDate *time.Time
	Comments   string
}

type Repo interface {
	Insert(ctx context.Context, tx database.Queryer, l *model.Loan) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Loan, error)
	LockForUpdate(ctx context.Context, tx database.Queryer, id int64) (*model.Loan, error)
	LockBorrower(ctx context.Context, tx database.Queryer, borrowerMail string) error
	CountActive(ctx context.Context, tx database.Queryer, borrowerMail string) (int64, error)
	SetReturned(ctx context.Context, tx database.Queryer, id int64, returnDate time.Time, comments string) error
	SetRenewed(ctx context.Context, tx database.Queryer, id int64, dueDate time.Time, status model.LoanStatus) error
	MarkOverdue(ctx context.Context, id int64) (bool, error)
	MarkOverdueBatch(ctx context.Context, ids []int64) (int64, error)
	List(ctx context.Context, f Filter, pg query.Page) ([]model.Loan, int64, error)
	ListAfter(ctx context.Context, f Filter, afterID int64, limit int) ([]model.Loan, error)
}

type BookRepo interface {
	GetByID(ctx context.Context, q database.Queryer, id int64) (*model.Book, error)
	LockForUpdate(ctx context.Context, tx database.Queryer, id int64) (*model.Book, error)
	ReserveCopy(ctx context.Context, tx database.Queryer, id int64) error
	ReleaseCopy(ctx context.Context, tx database.Queryer, id int64) error
}

type Service interface {
	// Create checks out one copy of a book to a borrower.
	Create(ctx context.Context, in CreateInput) (*model.Loan, error)

	// Return marks a loan returned and frees its copy.
	Return(ctx context.Context, id int64, in ReturnInput) (*model.Loan, error)

	// Renew extends the due date once per loan.
	Renew(ctx context.Context, id int64) (*model.Loan, error)

	// Get returns one loan with derived fields up to date.
	Get(ctx context.Context, id int64) (*model.Loan, error)

	// List returns a filtered page of loans with derived fields up to date.
	List(ctx context.Context, f Filter, pg query.Page) ([]model.Loan, int64, error)

	// ListAfter returns filtered loans with id greater than afterID in id
	// order, for keyset-paginated exports. Derived fields are computed in
	// memory only; observed overdue transitions are not persisted.
	ListAfter(ctx context.Context, f Filter, afterID int64, limit int) ([]model.Loan, error)
}

// ----- Service implementation -----

type service struct {
	db    *sql.DB
	loans Repo
	books BookRepo
	cfg   config.LoanPolicy
	now   func() time.Time
}

func New(db *sql.DB, loans Repo, books BookRepo, cfg config.LoanPolicy) Service {
	return &service{db: db, loans: loans, books: books, cfg: cfg, now: time.Now}
}

// Create books one copy inside a single transaction: the book row lock
// serializes concurrent checkouts, so the availability check, the borrower
// limit count and the decrement-plus-insert all see one consistent state.
func (s *service) Create(ctx context.Context, in CreateInput) (*model.Loan, error) {
	var out *model.Loan
	err := database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		out, err = s.create(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) create(ctx context.Context, tx database.Queryer, in CreateInput) (*model.Loan, error) {
	book, err := s.books.LockForUpdate(ctx, tx, in.BookID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrBookNotFound)
	}
	if err != nil {
		return nil, err
	}

	if book.AvailableCopies <= 0 {
		return nil, makeErrf(ErrNoStock, "book %q is not currently available", book.Title)
	}

	// The book lock only serializes checkouts of the same book; the borrower
	// lock serializes this borrower's checkouts across books, so the count
	// below always sees concurrent inserts by the same borrower.
	if err := s.loans.LockBorrower(ctx, tx, in.BorrowerMail); err != nil {
		return nil, err
	}

	active, err := s.loans.CountActive(ctx, tx, in.BorrowerMail)
	if err != nil {
		return nil, err
	}
	if active >= int64(s.cfg.MaxLoansPerUser) {
		return nil, makeErrf(ErrLoanLimit, "loan limit reached (%d max)", s.cfg.MaxLoansPerUser)
	}

	now := s.now()
	l := &model.Loan{
		BookID:       book.ID,
		BorrowerName: in.BorrowerName,
		BorrowerMail: in.BorrowerMail,
		CardNumber:   in.CardNumber,
		LoanDate:     now,
		DueDate:      now.AddDate(0, 0, s.cfg.LoanDurationDays),
		Status:       model.LoanOnLoan,
		Comments:     in.Comments,
	}

	if err := s.books.ReserveCopy(ctx, tx, book.ID); err != nil {
		if errors.Is(err, bookrepo.ErrNoAvailableCopies) {
			return nil, makeErrf(ErrNoStock, "book %q is not currently available", book.Title)
		}
		return nil, classify(err)
	}

	id, err := s.loans.Insert(ctx, tx, l)
	if err != nil {
		return nil, classify(err)
	}
	l.ID = id
	l.BookTitle = book.Title

	out := Enrich(s.cfg, *l, now)
	return &out, nil
}

// Return sets the terminal state and releases the copy as one unit.
func (s *service) Return(ctx context.Context, id int64, in ReturnInput) (*model.Loan, error) {
	var out *model.Loan
	err := database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		out, err = s.ret(ctx, tx, id, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) ret(ctx context.Context, tx database.Queryer, id int64, in ReturnInput) (*model.Loan, error) {
	l, err := s.loans.LockForUpdate(ctx, tx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrLoanNotFound)
	}
	if err != nil {
		return nil, err
	}

	if l.ReturnDate != nil {
		return nil, makeErr(ErrAlreadyReturned)
	}

	// The book must exist while any of its loans is open.
	book, err := s.books.LockForUpdate(ctx, tx, l.BookID)
	if err != nil {
		return nil, classify(err)
	}

	returnDate := s.now()
	if in.ReturnDate != nil {
		returnDate = *in.ReturnDate
	}

	comments := l.Comments
	if in.Comments != "" {
		if comments != "" {
			comments = comments + "\n" + in.Comments
		} else {
			comments = in.Comments
		}
	}

	if err := s.loans.SetReturned(ctx, tx, id, returnDate, comments); err != nil {
		return nil, err
	}
	if err := s.books.ReleaseCopy(ctx, tx, l.BookID); err != nil {
		if errors.Is(err, bookrepo.ErrTooManyAvailable) {
			return nil, makeErr(ErrInventoryCorrupt)
		}
		return nil, classify(err)
	}

	l.ReturnDate = &returnDate
	l.Status = model.LoanReturned
	l.Comments = comments
	l.BookTitle = book.Title

	out := Enrich(s.cfg, *l, returnDate)
	return &out, nil
}

// Renew extends the due date by one loan period, once. A renewal that
// brings the due date back past now cures an OVERDUE loan.
func (s *service) Renew(ctx context.Context, id int64) (*model.Loan, error) {
	var out *model.Loan
	err := database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		out, err = s.renew(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) renew(ctx context.Context, tx database.Queryer, id int64) (*model.Loan, error) {
	l, err := s.loans.LockForUpdate(ctx, tx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrLoanNotFound)
	}
	if err != nil {
		return nil, err
	}

	if l.ReturnDate != nil {
		return nil, makeErr(ErrAlreadyReturned)
	}
	if l.Renewed {
		return nil, makeErr(ErrAlreadyRenewed)
	}

	now := s.now()
	newDue := l.DueDate.AddDate(0, 0, s.cfg.LoanDurationDays)

	status := l.Status
	if status == model.LoanOverdue && !now.After(newDue) {
		status = model.LoanOnLoan
	}

	if err := s.loans.SetRenewed(ctx, tx, id, newDue, status); err != nil {
		return nil, err
	}

	l.DueDate = newDue
	l.Renewed = true
	l.Status = status

	// The book must exist while any of its loans is open.
	book, err := s.books.GetByID(ctx, tx, l.BookID)
	if err != nil {
		return nil, classify(err)
	}
	l.BookTitle = book.Title

	out := Enrich(s.cfg, *l, now)
	return &out, nil
}

func (s *service) Get(ctx context.Context, id int64) (*model.Loan, error) {
	l, err := s.loans.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrLoanNotFound)
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	rl, changed := Reconcile(*l, now)
	if changed {
		applied, err := s.loans.MarkOverdue(ctx, id)
		if err != nil {
			return nil, err
		}
		if !applied {
			// A return committed between the read and the update; the
			// persisted state wins.
			fresh, err := s.loans.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			rl = *fresh
		}
	}

	out := Enrich(s.cfg, rl, now)
	return &out, nil
}

func (s *service) List(ctx context.Context, f Filter, pg query.Page) ([]model.Loan, int64, error) {
	items, total, err := s.loans.List(ctx, f, pg)
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	var lateIDs []int64
	for i := range items {
		rl, changed := Reconcile(items[i], now)
		if changed {
			lateIDs = append(lateIDs, rl.ID)
		}
		items[i] = Enrich(s.cfg, rl, now)
	}

	// Persist observed transitions as one batch after enrichment.
	if _, err := s.loans.MarkOverdueBatch(ctx, lateIDs); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (s *service) ListAfter(ctx context.Context, f Filter, afterID int64, limit int) ([]model.Loan, error) {
	items, err := s.loans.ListAfter(ctx, f, afterID, limit)
	if err != nil {
		return nil, err
	}

	// No persist here: writing transitions mid-export would move rows out
	// of the filtered set between chunks.
	now := s.now()
	for i := range items {
		rl, _ := Reconcile(items[i], now)
		items[i] = Enrich(s.cfg, rl, now)
	}
	return items, nil
}

// classify maps constraint violations from the copy-count CHECKs to the
// internal corruption code; anything else passes through untouched.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
		return makeErr(ErrInventoryCorrupt)
	}
	return err
}
