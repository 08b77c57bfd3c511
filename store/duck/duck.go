// Package duck backs the query execution adapter with an in-memory DuckDB
// table of experiment runs.
//
// Runs load from a newline-delimited JSON file into runs(id, raw). Dotted
// field paths resolve with json_extract_string, and $convert compiles to
// TRY_CAST(... AS DOUBLE). Filter semantics belong here, not to the
// translator; the translator only emits conformant expressions.
package duck

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/pkg/errors"

	nt "runlens/entity"
	"runlens/filter"
)

// maxRows caps any single result set; no pagination beyond it.
const maxRows = 10000

type Duck struct {
	db       *sql.DB
	logger   nt.Logger
	filename string
}

func New(lgr nt.Logger) (dk *Duck, err error) {

	db, err := sql.Open("duckdb", "")
	if err != nil {
		err = errors.Wrapf(err, "failed to open memo duck")
		return
	}

	dk = &Duck{
		db:     db,
		logger: lgr,
	}
	return
}

func (dk *Duck) Close() {
	dk.db.Close()
}

// Name returns the name of the loaded runs file.
func (dk *Duck) Name() string {
	return dk.filename
}

// Load reads a newline-delimited JSON runs file into the runs table and
// returns the row count.
func (dk *Duck) Load(path string) (count int, err error) {

	create := fmt.Sprintf(`
		CREATE TABLE runs AS
		SELECT
			ROW_NUMBER() OVER () as id,
			json_text::JSON as raw
		FROM read_json_objects('%s', format='newline_delimited') AS t(json_text)
	`, escapeString(path))

	_, err = dk.db.Exec(create)
	if err != nil {
		err = errors.Wrapf(err, "failed to load runs from %s", path)
		return
	}

	err = dk.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	if err != nil {
		err = errors.Wrapf(err, "failed to count runs")
		return
	}

	dk.filename = path
	return
}

// Execute runs a filter and sort against the loaded runs and returns
// matching rows, capped at maxRows. Any failure returns an empty table with
// the error; a legitimate zero-row match returns a populated Table and nil.
func (dk *Duck) Execute(ctx context.Context, fields []string, fq *filter.Query, sorts []nt.Sort) (tbl nt.Table, err error) {

	sel, columns := selectClause(fields)

	where, err := whereClause(fq)
	if err != nil {
		err = errors.Wrapf(err, "failed to compile filter")
		return
	}

	order, err := orderClause(sorts)
	if err != nil {
		err = errors.Wrapf(err, "failed to compile sort")
		return
	}

	parts := []string{"SELECT " + sel + " FROM runs"}
	if where != "" {
		parts = append(parts, where)
	}
	if order != "" {
		parts = append(parts, order)
	}
	parts = append(parts, fmt.Sprintf("LIMIT %d", maxRows))
	query := strings.Join(parts, " ")
	dk.logger.Info(ctx, "executing runs query", "sql", query)

	rows, err := dk.db.QueryContext(ctx, query)
	if err != nil {
		err = errors.Wrapf(err, "failed to query runs")
		return
	}
	defer rows.Close()

	tbl.Columns = columns
	for rows.Next() {
		var vals []any
		vals, err = scanRow(rows, len(columns))
		if err != nil {
			err = errors.Wrapf(err, "failed to scan row")
			tbl = nt.Table{}
			return
		}

		row := make(nt.Row, len(vals))
		for i, val := range vals {
			row[i] = nt.Value{Raw: val}
		}
		tbl.Rows = append(tbl.Rows, row)
	}

	err = rows.Err()
	if err != nil {
		err = errors.Wrapf(err, "error iterating rows")
		tbl = nt.Table{}
	}
	return
}

// unexported

// selectClause projects the selected fields out of the raw JSON, or the
// whole raw document when no fields were selected.
func selectClause(fields []string) (clause string, columns []string) {

	if len(fields) == 0 {
		return "id, raw", []string{"id", "raw"}
	}

	exprs := make([]string, 0, len(fields)+1)
	exprs = append(exprs, "id")
	columns = append(columns, "id")
	for _, field := range fields {
		exprs = append(exprs, fieldString(field))
		columns = append(columns, field)
	}

	clause = strings.Join(exprs, ", ")
	return
}

func whereClause(fq *filter.Query) (clause string, err error) {

	if fq == nil || fq.Expr == nil {
		return "", nil
	}

	cond, err := compileBool(fq.Expr)
	if err != nil {
		return
	}

	clause = "WHERE " + cond
	return
}

func orderClause(sorts []nt.Sort) (clause string, err error) {

	if len(sorts) == 0 {
		return "", nil
	}

	terms := make([]string, len(sorts))
	for i, srt := range sorts {
		var dir string
		switch srt.Direction {
		case nt.Asc:
			dir = "ASC"
		case nt.Desc:
			dir = "DESC"
		default:
			err = errors.Errorf("bad sort direction %q", srt.Direction)
			return
		}
		// json_extract (not _string) so numeric fields order numerically
		terms[i] = fmt.Sprintf("json_extract(raw, '$.%s') %s", escapeString(srt.Field), dir)
	}

	clause = "ORDER BY " + strings.Join(terms, ", ")
	return
}

// compileBool builds a SQL condition from a boolean filter node.
func compileBool(expr filter.Expression) (out string, err error) {

	switch node := expr.(type) {
	case filter.Compare:
		var left, right string
		left, err = compileValue(node.Left)
		if err != nil {
			return
		}
		right, err = compileValue(node.Right)
		if err != nil {
			return
		}
		out = left + " " + compareString(node.Op) + " " + right
		return

	case filter.Contains:
		var input string
		input, err = compileValue(node.Input)
		if err != nil {
			return
		}
		substr, ok := node.Substr.Value.(string)
		if !ok {
			err = errors.Errorf("contains substring must be a string, got %T", node.Substr.Value)
			return
		}
		out = fmt.Sprintf("%s LIKE '%%%s%%'", input, escapeString(substr))
		return

	case filter.Not:
		var inner string
		inner, err = compileBool(node.Inner)
		if err != nil {
			return
		}
		out = "NOT (" + inner + ")"
		return

	case filter.Logical:
		joiner := " AND "
		if node.Op == filter.OpOr {
			joiner = " OR "
		}
		conds := make([]string, len(node.Operands))
		for i, operand := range node.Operands {
			conds[i], err = compileBool(operand)
			if err != nil {
				return
			}
		}
		out = "(" + strings.Join(conds, joiner) + ")"
		return

	default:
		err = errors.Errorf("expression %T cannot stand as a condition", expr)
		return
	}
}

// compileValue builds a SQL scalar from a value filter node.
func compileValue(expr filter.Expression) (out string, err error) {

	switch node := expr.(type) {
	case filter.Literal:
		return literalString(node)
	case filter.Field:
		out = fieldString(node.Path)
		return
	case filter.Convert:
		var input string
		input, err = compileValue(node.Input)
		if err != nil {
			return
		}
		out = fmt.Sprintf("TRY_CAST(%s AS DOUBLE)", input)
		return
	default:
		err = errors.Errorf("expression %T cannot stand as a value", expr)
		return
	}
}

func literalString(lit filter.Literal) (out string, err error) {

	switch val := lit.Value.(type) {
	case string:
		out = "'" + escapeString(val) + "'"
	case float64, float32, int, int64:
		out = fmt.Sprintf("%v", val)
	case bool:
		out = fmt.Sprintf("%t", val)
	default:
		err = errors.Errorf("literal %T cannot be compiled", lit.Value)
	}
	return
}

func fieldString(path string) string {
	return fmt.Sprintf("json_extract_string(raw, '$.%s')", escapeString(path))
}

func compareString(op filter.CompareOp) string {

	switch op {
	case filter.OpEq:
		return "="
	case filter.OpGt:
		return ">"
	default:
		return ">="
	}
}

func escapeString(str string) string {
	return strings.ReplaceAll(str, "'", "''")
}

func scanRow(rows *sql.Rows, columnCount int) ([]any, error) {

	vals := make([]any, columnCount)
	ptrs := make([]any, columnCount)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	err := rows.Scan(ptrs...)
	return vals, err
}
