package authorsvc

import (
	"context"
	"database/sql"
	"errors"

	"biblio/model"
)

var (
	ErrNotFound = errors.New("author not found")
	ErrHasBooks = errors.New("author has books registered")
)

type Repo interface {
	Create(ctx context.Context, a *model.Author) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Author, error)
	List(ctx context.Context) ([]model.Author, error)
	Update(ctx context.Context, a *model.Author) error
	Delete(ctx context.Context, id int64) error
}

type Service interface {
	Create(ctx context.Context, a *model.Author) (*model.Author, error)
	Get(ctx context.Context, id int64) (*model.Author, error)
	List(ctx context.Context) ([]model.Author, error)
	Update(ctx context.Context, a *model.Author) (*model.Author, error)
	Delete(ctx context.Context, id int64) error
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, a *model.Author) (*model.Author, error) {
	if a.FirstName == "" || a.LastName == "" {
		return nil, errors.New("first_name and last_name are required")
	}
	id, err := s.r.Create(ctx, a)
	if err != nil {
		return nil, err
	}
	a.ID = id
	return a, nil
}

func (s *service) Get(ctx context.Context, id int64) (*model.Author, error) {
	a, err := s.r.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (s *service) List(ctx context.Context) ([]model.Author, error) { return s.r.List(ctx) }

func (s *service) Update(ctx context.Context, a *model.Author) (*model.Author, error) {
	if err := s.r.Update(ctx, a); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	err := s.r.Delete(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
