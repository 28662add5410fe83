// Package query is a small helper over goqu for the filtered, sorted,
// paginated listings: callers provide a base dataset plus optional WHERE
// expressions and get back a rows query and a count query over the same
// filtered set.
package query

import (
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
)

const dialect = "postgres"

// Builder returns the postgres dialect wrapper repositories build datasets from.
func Builder() goqu.DialectWrapper { return goqu.Dialect(dialect) }

type Page struct {
	Number int
	Size   int
}

func (p Page) normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = 20
	}
	return p
}

func (p Page) offset() uint { return uint((p.Number - 1) * p.Size) }

// TotalPages computes the page count for a result set of size total.
func (p Page) TotalPages(total int64) int {
	p = p.normalize()
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}

// Paged applies filters, ordering and pagination to base and returns the
// rows SQL plus a count SQL computed over the filtered set as a subquery,
// both with prepared-statement placeholders.
func Paged(
	base *goqu.SelectDataset,
	where []goqu.Expression,
	order []exp.OrderedExpression,
	pg Page,
) (rowsSQL string, rowsArgs []any, countSQL string, countArgs []any, err error) {
	pg = pg.normalize()

	filtered := base.Where(where...)

	countSQL, countArgs, err = Builder().
		From(filtered.As("filtered")).
		Select(goqu.COUNT(goqu.Star())).
		Prepared(true).
		ToSQL()
	if err != nil {
		return "", nil, "", nil, err
	}

	rowsSQL, rowsArgs, err = filtered.
		Order(order...).
		Limit(uint(pg.Size)).
		Offset(pg.offset()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return "", nil, "", nil, err
	}

	return rowsSQL, rowsArgs, countSQL, countArgs, nil
}
