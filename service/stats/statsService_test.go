package statssvc_test

import (
	"context"
	"testing"
	"time"

	statsrepo "biblio/repository/stats"
	statssvc "biblio/service/stats"

	"github.com/stretchr/testify/require"
)

type repoMock struct {
	globalFn  func(ctx context.Context, now time.Time) (*statsrepo.GlobalCounts, error)
	monthlyFn func(ctx context.Context, from, to time.Time) (*statsrepo.MonthlyCounts, error)
}

func (m *repoMock) Global(ctx context.Context, now time.Time) (*statsrepo.GlobalCounts, error) {
	return m.globalFn(ctx, now)
}
func (m *repoMock) Book(ctx context.Context, bookID int64) (*statsrepo.BookCounts, error) {
	return nil, nil
}
func (m *repoMock) Author(ctx context.Context, authorID int64) (*statsrepo.AuthorCounts, error) {
	return nil, nil
}
func (m *repoMock) Monthly(ctx context.Context, from, to time.Time) (*statsrepo.MonthlyCounts, error) {
	return m.monthlyFn(ctx, from, to)
}
func (m *repoMock) NeverBorrowed(ctx context.Context) ([]statsrepo.NeverBorrowedBook, error) {
	return nil, nil
}
func (m *repoMock) TopBorrowers(ctx context.Context, limit int) ([]statsrepo.BorrowerCounts, error) {
	return nil, nil
}

func TestGlobal_OccupancyRate(t *testing.T) {
	m := &repoMock{
		globalFn: func(ctx context.Context, now time.Time) (*statsrepo.GlobalCounts, error) {
			return &statsrepo.GlobalCounts{
				TotalBooks:   10,
				ActiveLoans:  3,
				SumAvailable: 9,
			}, nil
		},
	}
	s := statssvc.New(m)

	out, err := s.Global(context.Background())
	require.NoError(t, err)
	require.Equal(t, 25.0, out.OccupancyRate)
}

func TestGlobal_NoCopies(t *testing.T) {
	m := &repoMock{
		globalFn: func(ctx context.Context, now time.Time) (*statsrepo.GlobalCounts, error) {
			return &statsrepo.GlobalCounts{}, nil
		},
	}
	s := statssvc.New(m)

	out, err := s.Global(context.Background())
	require.NoError(t, err)
	require.Zero(t, out.OccupancyRate)
}

func TestMonthly_WindowAndLabel(t *testing.T) {
	var gotFrom, gotTo time.Time
	m := &repoMock{
		monthlyFn: func(ctx context.Context, from, to time.Time) (*statsrepo.MonthlyCounts, error) {
			gotFrom, gotTo = from, to
			return &statsrepo.MonthlyCounts{TotalLoans: 4, ReturnedLoans: 2}, nil
		},
	}
	s := statssvc.New(m)

	out, err := s.Monthly(context.Background(), 2024, 12)
	require.NoError(t, err)
	require.Equal(t, "2024-12", out.Month)
	require.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), gotFrom)
	require.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), gotTo)
	require.Equal(t, int64(4), out.TotalLoans)
	require.Equal(t, int64(2), out.ReturnedLoans)
}

func TestMonthly_BadMonth(t *testing.T) {
	s := statssvc.New(&repoMock{})
	_, err := s.Monthly(context.Background(), 2024, 13)
	require.Error(t, err)
}
