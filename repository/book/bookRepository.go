package bookrepo

import (
	"context"
	"database/sql"
	"errors"

	"biblio/model"
	"biblio/util/database"
	"biblio/util/query"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

var (
	// ErrNoAvailableCopies means a reserve found available_copies == 0.
	ErrNoAvailableCopies = errors.New("no available copies")
	// ErrTooManyAvailable means a release would push available_copies
	// above total_copies_owned. Indicates a prior accounting bug.
	ErrTooManyAvailable = errors.New("available copies would exceed total owned")
	// ErrCopiesInUse means a total-copies edit would require reclaiming
	// copies that are currently on loan.
	ErrCopiesInUse = errors.New("more copies on loan than new total")
)

type Filter struct {
	Search   string
	ISBN     string
	Category string
	Language string
	SortBy   string
	Desc     bool
}

type Repo interface {
	Create(ctx context.Context, b *model.Book) (int64, error)
	GetByID(ctx context.Context, q database.Queryer, id int64) (*model.Book, error)
	GetByISBN(ctx context.Context, isbn string) (*model.Book, error)
	LockForUpdate(ctx context.Context, tx database.Queryer, id int64) (*model.Book, error)
	UpdateMetadata(ctx context.Context, q database.Queryer, b *model.Book) error
	SetTotalCopies(ctx context.Context, tx database.Queryer, id, newTotal int64) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f Filter, pg query.Page) ([]model.Book, int64, error)

	ReserveCopy(ctx context.Context, tx database.Queryer, id int64) error
	ReleaseCopy(ctx context.Context, tx database.Queryer, id int64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const bookCols = `id, title, isbn, author_id, publication_year, description,
       category, language, pages, publisher, total_copies_owned, available_copies`

func scanBook(row interface{ Scan(...any) error }) (*model.Book, error) {
	var b model.Book
	err := row.Scan(
		&b.ID, &b.Title, &b.ISBN, &b.AuthorID, &b.PublicationYear, &b.Description,
		&b.Category, &b.Language, &b.Pages, &b.Publisher, &b.TotalCopiesOwned, &b.AvailableCopies,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repo) Create(ctx context.Context, b *model.Book) (int64, error) {
	const q = `
INSERT INTO books (title, isbn, author_id, publication_year, description,
                   category, language, pages, publisher, total_copies_owned, available_copies)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, q,
		b.Title, b.ISBN, b.AuthorID, b.PublicationYear, b.Description,
		b.Category, b.Language, b.Pages, b.Publisher, b.TotalCopiesOwned,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) GetByID(ctx context.Context, q database.Queryer, id int64) (*model.Book, error) {
	if q == nil {
		q = r.db
	}
	return scanBook(q.QueryRowContext(ctx, `SELECT `+bookCols+` FROM books WHERE id = $1`, id))
}

func (r *repo) GetByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	return scanBook(r.db.QueryRowContext(ctx, `SELECT `+bookCols+` FROM books WHERE isbn = $1`, isbn))
}

// LockForUpdate reads the book row under FOR UPDATE. Every lifecycle
// write touching a book's copy counts goes through this lock, which
// serializes concurrent checkouts against the same book.
func (r *repo) LockForUpdate(ctx context.Context, tx database.Queryer, id int64) (*model.Book, error) {
	return scanBook(tx.QueryRowContext(ctx,
		`SELECT `+bookCols+` FROM books WHERE id = $1 FOR UPDATE`, id))
}

func (r *repo) UpdateMetadata(ctx context.Context, q database.Queryer, b *model.Book) error {
	if q == nil {
		q = r.db
	}
	const stmt = `
UPDATE books
SET title = $2, isbn = $3, author_id = $4, publication_year = $5, description = $6,
    category = $7, language = $8, pages = $9, publisher = $10
WHERE id = $1`
	res, err := q.ExecContext(ctx, stmt,
		b.ID, b.Title, b.ISBN, b.AuthorID, b.PublicationYear, b.Description,
		b.Category, b.Language, b.Pages, b.Publisher,
	)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetTotalCopies changes total_copies_owned and moves available_copies by
// the same delta, so copies currently on loan stay accounted for. Fails if
// the new total is smaller than the number of copies out on loan.
func (r *repo) SetTotalCopies(ctx context.Context, tx database.Queryer, id, newTotal int64) error {
	const q = `
UPDATE books
SET available_copies = available_copies + ($2 - total_copies_owned),
    total_copies_owned = $2
WHERE id = $1
  AND available_copies + ($2 - total_copies_owned) >= 0`
	res, err := tx.ExecContext(ctx, q, id, newTotal)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return ErrCopiesInUse
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

var bookSortable = map[string]string{
	"title":            "title",
	"isbn":             "isbn",
	"publication_year": "publication_year",
	"category":         "category",
	"language":         "language",
	"pages":            "pages",
}

func (r *repo) List(ctx context.Context, f Filter, pg query.Page) ([]model.Book, int64, error) {
	base := query.Builder().
		From("books").
		Select(
			"id", "title", "isbn", "author_id", "publication_year", "description",
			"category", "language", "pages", "publisher", "total_copies_owned", "available_copies",
		)

	var where []goqu.Expression
	if f.Search != "" {
		pat := "%" + f.Search + "%"
		where = append(where, goqu.Or(
			goqu.C("title").ILike(pat),
			goqu.C("description").ILike(pat),
		))
	}
	if f.ISBN != "" {
		where = append(where, goqu.C("isbn").ILike("%"+f.ISBN+"%"))
	}
	if f.Category != "" {
		where = append(where, goqu.C("category").Eq(f.Category))
	}
	if f.Language != "" {
		where = append(where, goqu.C("language").Eq(f.Language))
	}

	col, ok := bookSortable[f.SortBy]
	if !ok {
		col = "title"
	}
	var order []exp.OrderedExpression
	if f.Desc {
		order = append(order, goqu.C(col).Desc())
	} else {
		order = append(order, goqu.C(col).Asc())
	}

	rowsSQL, rowsArgs, countSQL, countArgs, err := query.Paged(base, where, order, pg)
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

	var out []model.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *b)
	}
	return out, total, rows.Err()
}

// ReserveCopy decrements available_copies inside the caller's transaction.
// The WHERE guard keeps the counter from going below zero even if callers
// race; zero rows affected means nothing was available.
func (r *repo) ReserveCopy(ctx context.Context, tx database.Queryer, id int64) error {
	const q = `
UPDATE books
SET available_copies = available_copies - 1
WHERE id = $1
  AND available_copies > 0`
	res, err := tx.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return ErrNoAvailableCopies
	}
	return nil
}

// ReleaseCopy increments available_copies inside the caller's transaction.
// The guard refuses to push the counter above total_copies_owned.
func (r *repo) ReleaseCopy(ctx context.Context, tx database.Queryer, id int64) error {
	const q = `
UPDATE books
SET available_copies = available_copies + 1
WHERE id = $1
  AND available_copies < total_copies_owned`
	res, err := tx.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return ErrTooManyAvailable
	}
	return nil
}
