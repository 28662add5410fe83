package booksvc

import (
	"context"
	"database/sql"
	"errors"

	"biblio/model"
	bookrepo "biblio/repository/book"
	"biblio/util/database"
	"biblio/util/query"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound    = errors.New("book not found")
	ErrISBNTaken   = errors.New("isbn already registered")
	ErrHasLoans    = errors.New("book has loans recorded")
	ErrCopiesInUse = bookrepo.ErrCopiesInUse
)

type Filter = bookrepo.Filter

type Repo interface {
	Create(ctx context.Context, b *model.Book) (int64, error)
	GetByID(ctx context.Context, q database.Queryer, id int64) (*model.Book, error)
	GetByISBN(ctx context.Context, isbn string) (*model.Book, error)
	LockForUpdate(ctx context.Context, tx database.Queryer, id int64) (*model.Book, error)
	UpdateMetadata(ctx context.Context, q database.Queryer, b *model.Book) error
	SetTotalCopies(ctx context.Context, tx database.Queryer, id, newTotal int64) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f Filter, pg query.Page) ([]model.Book, int64, error)
}

type Service interface {
	Create(ctx context.Context, b *model.Book) (*model.Book, error)
	Get(ctx context.Context, id int64) (*model.Book, error)
	GetByISBN(ctx context.Context, isbn string) (*model.Book, error)

	// Update edits metadata and, when total_copies_owned changed, adjusts
	// the available counter by the same delta in the same transaction.
	Update(ctx context.Context, b *model.Book) (*model.Book, error)

	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f Filter, pg query.Page) ([]model.Book, int64, error)
}

type service struct {
	db *sql.DB
	r  Repo
}

func New(db *sql.DB, r Repo) Service { return &service{db: db, r: r} }

func (s *service) Create(ctx context.Context, b *model.Book) (*model.Book, error) {
	if b.TotalCopiesOwned < 0 {
		return nil, errors.New("total_copies_owned must be non-negative")
	}
	b.AvailableCopies = b.TotalCopiesOwned
	id, err := s.r.Create(ctx, b)
	if err != nil {
		return nil, mapPgErr(err)
	}
	b.ID = id
	return b, nil
}

func (s *service) Get(ctx context.Context, id int64) (*model.Book, error) {
	b, err := s.r.GetByID(ctx, nil, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *service) GetByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	b, err := s.r.GetByISBN(ctx, isbn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *service) Update(ctx context.Context, b *model.Book) (*model.Book, error) {
	if b.TotalCopiesOwned < 0 {
		return nil, errors.New("total_copies_owned must be non-negative")
	}

	var out *model.Book
	err := database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		cur, err := s.r.LockForUpdate(ctx, tx, b.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if b.TotalCopiesOwned != cur.TotalCopiesOwned {
			if err := s.r.SetTotalCopies(ctx, tx, b.ID, b.TotalCopiesOwned); err != nil {
				return err
			}
		}

		if err := s.r.UpdateMetadata(ctx, tx, b); err != nil {
			return mapPgErr(err)
		}

		out, err = s.r.GetByID(ctx, tx, b.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.r.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return mapPgErr(err)
	}
	return nil
}

func (s *service) List(ctx context.Context, f Filter, pg query.Page) ([]model.Book, int64, error) {
	return s.r.List(ctx, f, pg)
}

func mapPgErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return ErrISBNTaken
		case pgerrcode.ForeignKeyViolation:
			return ErrHasLoans
		}
	}
	return err
}
