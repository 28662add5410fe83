package authorrepo

import (
	"context"
	"database/sql"

	"biblio/model"
)

type Repo interface {
	Create(ctx context.Context, a *model.Author) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Author, error)
	List(ctx context.Context) ([]model.Author, error)
	Update(ctx context.Context, a *model.Author) error
	Delete(ctx context.Context, id int64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, a *model.Author) (int64, error) {
	const q = `
INSERT INTO authors (first_name, last_name)
VALUES ($1,$2)
RETURNING id`
	var id int64
	if err := r.db.QueryRowContext(ctx, q, a.FirstName, a.LastName).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) GetByID(ctx context.Context, id int64) (*model.Author, error) {
	const q = `SELECT id, first_name, last_name FROM authors WHERE id = $1`
	var a model.Author
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.FirstName, &a.LastName); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repo) List(ctx context.Context) ([]model.Author, error) {
	const q = `SELECT id, first_name, last_name FROM authors ORDER BY last_name, first_name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Author
	for rows.Next() {
		var a model.Author
		if err := rows.Scan(&a.ID, &a.FirstName, &a.LastName); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repo) Update(ctx context.Context, a *model.Author) error {
	const q = `UPDATE authors SET first_name = $2, last_name = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, a.ID, a.FirstName, a.LastName)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}
