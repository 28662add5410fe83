package loanrepo

import (
	"context"
	"database/sql"
	"time"

	"biblio/model"
	"biblio/util/database"
	"biblio/util/query"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

type Filter struct {
	Status       model.LoanStatus
	BorrowerMail string
	BookID       int64
	ActiveOnly   bool
	LateOnly     bool
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

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const loanCols = `id, book_id, borrower_name, borrower_mail, card_number,
       loan_date, due_date, return_date, status, renewed, comments`

func scanLoan(row interface{ Scan(...any) error }, withTitle bool) (*model.Loan, error) {
	var l model.Loan
	dest := []any{
		&l.ID, &l.BookID, &l.BorrowerName, &l.BorrowerMail, &l.CardNumber,
		&l.LoanDate, &l.DueDate, &l.ReturnDate, &l.Status, &l.Renewed, &l.Comments,
	}
	if withTitle {
		dest = append(dest, &l.BookTitle)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repo) Insert(ctx context.Context, tx database.Queryer, l *model.Loan) (int64, error) {
	const q = `
INSERT INTO loans (book_id, borrower_name, borrower_mail, card_number,
                   loan_date, due_date, status, renewed, comments)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING id`
	var id int64
	err := tx.QueryRowContext(ctx, q,
		l.BookID, l.BorrowerName, l.BorrowerMail, l.CardNumber,
		l.LoanDate, l.DueDate, string(l.Status), l.Renewed, l.Comments,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) GetByID(ctx context.Context, id int64) (*model.Loan, error) {
	const q = `
SELECT l.id, l.book_id, l.borrower_name, l.borrower_mail, l.card_number,
       l.loan_date, l.due_date, l.return_date, l.status, l.renewed, l.comments,
       b.title
FROM loans l
JOIN books b ON b.id = l.book_id
WHERE l.id = $1`
	return scanLoan(r.db.QueryRowContext(ctx, q, id), true)
}

// LockForUpdate reads the loan row under FOR UPDATE so a return and a
// renewal on the same loan cannot interleave.
func (r *repo) LockForUpdate(ctx context.Context, tx database.Queryer, id int64) (*model.Loan, error) {
	return scanLoan(tx.QueryRowContext(ctx,
		`SELECT `+loanCols+` FROM loans WHERE id = $1 FOR UPDATE`, id), false)
}

// LockBorrower takes a transaction-scoped advisory lock keyed on the
// borrower's mail. Concurrent checkouts by the same borrower on different
// books serialize here, so the active-loan count they each take afterwards
// always includes the other's committed insert. Released at commit/rollback.
func (r *repo) LockBorrower(ctx context.Context, tx database.Queryer, borrowerMail string) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, borrowerMail)
	return err
}

// CountActive counts the borrower's non-returned loans. Called inside the
// checkout transaction so the count and the insert share one scope.
func (r *repo) CountActive(ctx context.Context, tx database.Queryer, borrowerMail string) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	const q = `
SELECT COUNT(*)
FROM loans
WHERE borrower_mail = $1
  AND return_date IS NULL`
	var n int64
	err := tx.QueryRowContext(ctx, q, borrowerMail).Scan(&n)
	return n, err
}

func (r *repo) SetReturned(ctx context.Context, tx database.Queryer, id int64, returnDate time.Time, comments string) error {
	const q = `
UPDATE loans
SET status = $2,
    return_date = $3,
    comments = $4
WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, string(model.LoanReturned), returnDate, comments)
	return err
}

func (r *repo) SetRenewed(ctx context.Context, tx database.Queryer, id int64, dueDate time.Time, status model.LoanStatus) error {
	const q = `
UPDATE loans
SET due_date = $2,
    status = $3,
    renewed = TRUE
WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, dueDate, string(status))
	return err
}

// MarkOverdue persists the lazy ON_LOAN -> OVERDUE transition. The WHERE
// clause re-checks return_date so a concurrently committed return is never
// overwritten; re-applying on an already OVERDUE loan is a no-op.
func (r *repo) MarkOverdue(ctx context.Context, id int64) (bool, error) {
	const q = `
UPDATE loans
SET status = $2
WHERE id = $1
  AND return_date IS NULL
  AND status = $3`
	res, err := r.db.ExecContext(ctx, q, id, string(model.LoanOverdue), string(model.LoanOnLoan))
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

// MarkOverdueBatch is MarkOverdue over the ids observed late in one page.
func (r *repo) MarkOverdueBatch(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	sqlStr, args, err := query.Builder().
		Update("loans").
		Set(goqu.Record{"status": string(model.LoanOverdue)}).
		Where(
			goqu.C("id").In(ids),
			goqu.C("return_date").IsNull(),
			goqu.C("status").Eq(string(model.LoanOnLoan)),
		).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}

// Expressions builds the WHERE expressions for a loan filter. Split out so
// it can be exercised without a database.
func Expressions(f Filter) []goqu.Expression {
	var where []goqu.Expression
	if f.Status != "" {
		where = append(where, goqu.I("l.status").Eq(string(f.Status)))
	}
	if f.BorrowerMail != "" {
		where = append(where, goqu.I("l.borrower_mail").ILike("%"+f.BorrowerMail+"%"))
	}
	if f.BookID != 0 {
		where = append(where, goqu.I("l.book_id").Eq(f.BookID))
	}
	if f.ActiveOnly {
		where = append(where, goqu.I("l.status").In(
			string(model.LoanOnLoan), string(model.LoanOverdue)))
	}
	if f.LateOnly {
		where = append(where, goqu.I("l.status").Eq(string(model.LoanOverdue)))
	}
	return where
}

func loanBase() *goqu.SelectDataset {
	return query.Builder().
		From(goqu.T("loans").As("l")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("l.book_id")))).
		Select(
			goqu.I("l.id"), goqu.I("l.book_id"), goqu.I("l.borrower_name"),
			goqu.I("l.borrower_mail"), goqu.I("l.card_number"), goqu.I("l.loan_date"),
			goqu.I("l.due_date"), goqu.I("l.return_date"), goqu.I("l.status"),
			goqu.I("l.renewed"), goqu.I("l.comments"), goqu.I("b.title"),
		)
}

func (r *repo) List(ctx context.Context, f Filter, pg query.Page) ([]model.Loan, int64, error) {
	base := loanBase()

	order := []exp.OrderedExpression{
		goqu.I("l.loan_date").Desc(),
		goqu.I("l.id").Desc(),
	}

	rowsSQL, rowsArgs, countSQL, countArgs, err := query.Paged(base, Expressions(f), order, pg)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, rowsSQL, rowsArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Loan
	for rows.Next() {
		l, err := scanLoan(rows, true)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *l)
	}
	return out, total, rows.Err()
}

// ListAfter reads the filtered loans with id greater than afterID, in id
// order. Keyset pagination: rows cannot shift between chunks the way an
// OFFSET scan shifts when earlier rows leave the filtered set mid-export.
func (r *repo) ListAfter(ctx context.Context, f Filter, afterID int64, limit int) ([]model.Loan, error) {
	where := append(Expressions(f), goqu.I("l.id").Gt(afterID))
	sqlStr, args, err := loanBase().
		Where(where...).
		Order(goqu.I("l.id").Asc()).
		Limit(uint(limit)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Loan
	for rows.Next() {
		l, err := scanLoan(rows, true)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}
