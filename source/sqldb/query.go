package sqldb

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"pagekit/tabling"

	"github.com/pkg/errors"
	"github.com/redhajuanda/sqlparser"
)

const countAlias = "paged"

var (
	// ErrUnsupportedQuery is returned for statements that cannot be paged:
	// anything but a plain SELECT, or a SELECT that carries its own LIMIT.
	ErrUnsupportedQuery = errors.New("unsupported query")

	// ErrInvalidSort is returned for a sort column that is malformed or not allowed.
	ErrInvalidSort = errors.New("invalid sort column")

	bindVariablePattern = regexp.MustCompile(`:\bv\d+\b`)
	columnPattern       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
)

// parseSelect parses sql and makes sure it is a SELECT we can page.
func parseSelect(sql string) (*sqlparser.Select, error) {

	// create parser
	ps, err := sqlparser.New(sqlparser.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create parser")
	}

	// parse sql query to sqlparser statement
	stmt, err := ps.Parse(sql)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse sql")
	}

	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		return nil, errors.Wrap(ErrUnsupportedQuery, "only SELECT statements can be paged")
	}

	if sel.Limit != nil {
		return nil, errors.Wrap(ErrUnsupportedQuery, "query must not carry its own LIMIT")
	}

	return sel, nil

}

// countQuery wraps sql into a COUNT(*) over a derived table.
// ORDER BY is dropped since it does not change the count.
func countQuery(sql string) (string, error) {

	stmt, err := parseSelect(sql)
	if err != nil {
		return "", err
	}

	stmt.OrderBy = nil

	return fmt.Sprintf("select count(*) from (%s) as %s", format(stmt), countAlias), nil

}

// sliceQuery applies the window and the sorting of t to sql.
// The requested sort comes first; the query's own ORDER BY terms and the tie breaker follow.
func sliceQuery(sql string, t *tabling.Tabling, allowed map[string]bool, tieBreaker string) (string, error) {

	stmt, err := parseSelect(sql)
	if err != nil {
		return "", err
	}

	existing := stmt.OrderBy
	stmt.OrderBy = nil

	if t.HasSorting() {
		if err := checkColumn(t.Sorting.Field, allowed); err != nil {
			return "", err
		}
		stmt.AddOrder(newOrder(t.Sorting.Field, t.Sorting.Descending))
	}

	for _, o := range existing {
		stmt.AddOrder(o)
	}

	if tieBreaker != "" && !hasOrder(stmt, tieBreaker) {
		stmt.AddOrder(newOrder(tieBreaker, false))
	}

	if t.Paging != nil {
		stmt.SetLimit(&sqlparser.Limit{
			Offset:   sqlparser.NewIntLiteral(strconv.Itoa(t.Paging.Offset)),
			Rowcount: sqlparser.NewIntLiteral(strconv.Itoa(t.Paging.Limit)),
		})
	}

	return format(stmt), nil

}

// checkColumn validates a sort column against the identifier shape and the allow-list.
// An empty allow-list allows every well-formed column.
func checkColumn(column string, allowed map[string]bool) error {

	if !columnPattern.MatchString(column) {
		return errors.Wrapf(ErrInvalidSort, "malformed column %q", column)
	}

	if len(allowed) > 0 && !allowed[column] {
		return errors.Wrapf(ErrInvalidSort, "column %q is not sortable", column)
	}

	return nil

}

// newOrder builds an ORDER BY term for a column, optionally qualified as table.column.
func newOrder(column string, descending bool) *sqlparser.Order {

	direction := sqlparser.AscOrder
	if descending {
		direction = sqlparser.DescOrder
	}

	return &sqlparser.Order{
		Expr:      newColName(column),
		Direction: direction,
	}

}

func newColName(column string) *sqlparser.ColName {

	// sort by column contains table name
	if qualifier, name, ok := strings.Cut(column, "."); ok {
		return &sqlparser.ColName{
			Name:      sqlparser.NewIdentifierCI(name),
			Qualifier: sqlparser.NewTableName(qualifier),
		}
	}

	return &sqlparser.ColName{Name: sqlparser.NewIdentifierCI(column)}

}

// hasOrder reports whether stmt already orders by column.
func hasOrder(stmt *sqlparser.Select, column string) bool {

	want := sqlparser.String(newColName(column))
	for _, o := range stmt.OrderBy {
		if sqlparser.String(o.Expr) == want {
			return true
		}
	}

	return false

}

// format renders the statement with positional placeholders.
func format(stmt *sqlparser.Select) string {

	buf := sqlparser.NewTrackedBuffer(nil)
	stmt.Format(buf)

	return replaceBindVariables(buf.String())

}

// replaceBindVariables replaces all bind variables with format
// :v1, :v2, etc to ?
func replaceBindVariables(sql string) string {
	return bindVariablePattern.ReplaceAllString(sql, "?")
}
