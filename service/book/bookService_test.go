package booksvc_test

import (
	"context"
	"database/sql"
	"testing"

	"biblio/model"
	booksvc "biblio/service/book"
	"biblio/util/database"
	"biblio/util/query"
)

type repoMock struct {
	createFn    func(ctx context.Context, b *model.Book) (int64, error)
	getByIDFn   func(ctx context.Context, q database.Queryer, id int64) (*model.Book, error)
	getByISBNFn func(ctx context.Context, isbn string) (*model.Book, error)
	lockFn      func(ctx context.Context, tx database.Queryer, id int64) (*model.Book, error)
	updateFn    func(ctx context.Context, q database.Queryer, b *model.Book) error
	setTotalFn  func(ctx context.Context, tx database.Queryer, id, newTotal int64) error
	deleteFn    func(ctx context.Context, id int64) error
	listFn      func(ctx context.Context, f booksvc.Filter, pg query.Page) ([]model.Book, int64, error)
}

func (m *repoMock) Create(ctx context.Context, b *model.Book) (int64, error) {
	return m.createFn(ctx, b)
}
func (m *repoMock) GetByID(ctx context.Context, q database.Queryer, id int64) (*model.Book, error) {
	return m.getByIDFn(ctx, q, id)
}
func (m *repoMock) GetByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	return m.getByISBNFn(ctx, isbn)
}
func (m *repoMock) LockForUpdate(ctx context.Context, tx database.Queryer, id int64) (*model.Book, error) {
	return m.lockFn(ctx, tx, id)
}
func (m *repoMock) UpdateMetadata(ctx context.Context, q database.Queryer, b *model.Book) error {
	return m.updateFn(ctx, q, b)
}
func (m *repoMock) SetTotalCopies(ctx context.Context, tx database.Queryer, id, newTotal int64) error {
	return m.setTotalFn(ctx, tx, id, newTotal)
}
func (m *repoMock) Delete(ctx context.Context, id int64) error { return m.deleteFn(ctx, id) }
func (m *repoMock) List(ctx context.Context, f booksvc.Filter, pg query.Page) ([]model.Book, int64, error) {
	return m.listFn(ctx, f, pg)
}

func TestCreate_NegativeCopies(t *testing.T) {
	s := booksvc.New(nil, &repoMock{})
	_, err := s.Create(context.Background(), &model.Book{Title: "T", TotalCopiesOwned: -1})
	if err == nil {
		t.Fatal("expected error for negative total_copies_owned")
	}
}

func TestCreate_StartsFullyAvailable(t *testing.T) {
	m := &repoMock{
		createFn: func(ctx context.Context, b *model.Book) (int64, error) {
			if b.AvailableCopies != 3 {
				t.Fatalf("available_copies = %d; want 3", b.AvailableCopies)
			}
			return 42, nil
		},
	}
	s := booksvc.New(nil, m)
	out, err := s.Create(context.Background(), &model.Book{Title: "T", TotalCopiesOwned: 3})
	if err != nil || out.ID != 42 {
		t.Fatalf("got id=%v err=%v; want 42 nil", out, err)
	}
}

func TestGet_NotFound(t *testing.T) {
	m := &repoMock{
		getByIDFn: func(ctx context.Context, q database.Queryer, id int64) (*model.Book, error) {
			return nil, sql.ErrNoRows
		},
	}
	s := booksvc.New(nil, m)
	if _, err := s.Get(context.Background(), 99); err != booksvc.ErrNotFound {
		t.Fatalf("got %v; want ErrNotFound", err)
	}
}

func TestGetByISBN_NotFound(t *testing.T) {
	m := &repoMock{
		getByISBNFn: func(ctx context.Context, isbn string) (*model.Book, error) {
			return nil, sql.ErrNoRows
		},
	}
	s := booksvc.New(nil, m)
	if _, err := s.GetByISBN(context.Background(), "978-0"); err != booksvc.ErrNotFound {
		t.Fatalf("got %v; want ErrNotFound", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	m := &repoMock{
		deleteFn: func(ctx context.Context, id int64) error { return sql.ErrNoRows },
	}
	s := booksvc.New(nil, m)
	if err := s.Delete(context.Background(), 99); err != booksvc.ErrNotFound {
		t.Fatalf("got %v; want ErrNotFound", err)
	}
}

func TestList_PassThrough(t *testing.T) {
	m := &repoMock{
		listFn: func(ctx context.Context, f booksvc.Filter, pg query.Page) ([]model.Book, int64, error) {
			if f.Category != "Fiction" {
				t.Fatalf("category = %q; want Fiction", f.Category)
			}
			return []model.Book{{ID: 1}}, 1, nil
		},
	}
	s := booksvc.New(nil, m)
	items, total, err := s.List(context.Background(), booksvc.Filter{Category: "Fiction"}, query.Page{Number: 1, Size: 20})
	if err != nil || total != 1 || len(items) != 1 {
		t.Fatalf("got %v %v %v; want one row", items, total, err)
	}
}
