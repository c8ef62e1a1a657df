package db

import (
	"fmt"
	"strings"

	"github.com/medlab/medlab/pkg/pagination"
)

// SearchQuery builds the count and page queries of a list endpoint.
type SearchQuery struct {
	table   string
	cols    string
	where   string
	args    []interface{}
	idx     int
	orderBy string
}

// NewSearchQuery creates a new SearchQuery for the given table and columns.
func NewSearchQuery(table, cols string) *SearchQuery {
	return &SearchQuery{
		table: table,
		cols:  cols,
		idx:   1,
	}
}

// Idx returns the next available parameter index.
func (q *SearchQuery) Idx() int { return q.idx }

// Add appends a raw WHERE clause fragment (without leading "AND").
func (q *SearchQuery) Add(clause string, args ...interface{}) {
	q.where += " AND " + clause
	q.args = append(q.args, args...)
	q.idx += len(args)
}

// AddFilter applies a list filter. The query text is matched with ILIKE
// against any of textCols; From and To bound timeCol.
func (q *SearchQuery) AddFilter(f pagination.Filter, timeCol string, textCols ...string) {
	if f.Query != "" && len(textCols) > 0 {
		ors := make([]string, len(textCols))
		for i, col := range textCols {
			ors[i] = fmt.Sprintf("%s ILIKE $%d", col, q.idx)
		}
		q.Add("("+strings.Join(ors, " OR ")+")", "%"+escapeLike(f.Query)+"%")
	}
	if f.From != nil {
		q.Add(fmt.Sprintf("%s >= $%d", timeCol, q.idx), *f.From)
	}
	if f.To != nil {
		q.Add(fmt.Sprintf("%s <= $%d", timeCol, q.idx), *f.To)
	}
}

// OrderBy sets the ORDER BY clause (without the "ORDER BY" keyword).
func (q *SearchQuery) OrderBy(orderBy string) {
	q.orderBy = orderBy
}

// CountSQL returns the count query SQL.
func (q *SearchQuery) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE 1=1%s", q.table, q.where)
}

// CountArgs returns the arguments for the count query.
func (q *SearchQuery) CountArgs() []interface{} {
	return q.args
}

// DataSQL returns the data query SQL with ORDER BY and LIMIT/OFFSET. A
// non-positive limit selects every match.
func (q *SearchQuery) DataSQL(limit, offset int) string {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE 1=1%s", q.cols, q.table, q.where)
	if q.orderBy != "" {
		sql += " ORDER BY " + q.orderBy
	}
	if limit > 0 {
		sql += fmt.Sprintf(" LIMIT $%d OFFSET $%d", q.idx, q.idx+1)
	}
	return sql
}

// DataArgs returns the arguments for the data query (search args + limit + offset).
func (q *SearchQuery) DataArgs(limit, offset int) []interface{} {
	if limit <= 0 {
		return q.args
	}
	result := make([]interface{}, len(q.args)+2)
	copy(result, q.args)
	result[len(q.args)] = limit
	result[len(q.args)+1] = offset
	return result
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
