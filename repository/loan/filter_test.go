package loanrepo

import (
	"testing"

	"biblio/model"
	"biblio/util/query"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/require"
)

func TestExpressions_Empty(t *testing.T) {
	require.Empty(t, Expressions(Filter{}))
}

func TestExpressions_AllFilters(t *testing.T) {
	f := Filter{
		Status:       model.LoanOverdue,
		BorrowerMail: "ada@example.org",
		BookID:       7,
		ActiveOnly:   true,
		LateOnly:     true,
	}
	require.Len(t, Expressions(f), 5)
}

func TestExpressions_BorrowerMailIsSubstringMatch(t *testing.T) {
	base := query.Builder().
		From(goqu.T("loans").As("l")).
		Select(goqu.I("l.id"))

	rowsSQL, args, _, _, err := query.Paged(
		base,
		Expressions(Filter{BorrowerMail: "ada"}),
		nil,
		query.Page{Number: 1, Size: 20},
	)
	require.NoError(t, err)
	require.Contains(t, rowsSQL, "ILIKE")
	require.Contains(t, args, "%ada%")
}

func TestExpressions_ActiveOnlyCoversBothStatuses(t *testing.T) {
	base := query.Builder().
		From(goqu.T("loans").As("l")).
		Select(goqu.I("l.id"))

	rowsSQL, args, _, _, err := query.Paged(
		base,
		Expressions(Filter{ActiveOnly: true}),
		nil,
		query.Page{Number: 1, Size: 20},
	)
	require.NoError(t, err)
	require.Contains(t, rowsSQL, "IN")
	require.Contains(t, args, string(model.LoanOnLoan))
	require.Contains(t, args, string(model.LoanOverdue))
}
