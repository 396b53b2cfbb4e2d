package sqlgen

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/Ev19Coding/parktrack/pkg/types"
)

// Kind selects the statement form.
type Kind int

// Statement kinds.
const (
	Select Kind = iota
	Insert
	Update
	Delete
)

// Assignment pairs a column with the value written to it.
type Assignment struct {
	Column string
	Value  any
}

// Order is one ORDER BY term. Expr is a column name unless Raw is set, in
// which case it is emitted verbatim.
type Order struct {
	Expr string
	Desc bool
	Raw  bool
}

// Statement is the intermediate representation every SQL string in the
// module is rendered from.
type Statement struct {
	Kind      Kind
	Table     string
	Columns   []string // Select projection; empty means *.
	Exprs     []string // Raw projection expressions after Columns.
	Count     bool     // Select COUNT(*) instead of Columns.
	Values    []Assignment
	Where     []types.Where
	Filters   []string // Raw conditions ANDed after Where.
	OrderBy   []Order
	Limit     int
	Offset    int
	Returning bool
}

// Assignments converts a record into assignments ordered by column name, so
// equal records always render to equal SQL text.
func Assignments(rec types.Record) []Assignment {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Assignment, 0, len(keys))
	for _, k := range keys {
		out = append(out, Assignment{Column: k, Value: rec[k]})
	}
	return out
}

// Render produces SQL text for st.
func Render(st Statement) (string, error) {
	if st.Table == "" {
		return "", fmt.Errorf("render: table name: %w", types.ErrInvalidInput)
	}
	switch st.Kind {
	case Select:
		return renderSelect(st)
	case Insert:
		return renderInsert(st)
	case Update:
		return renderUpdate(st)
	case Delete:
		return renderDelete(st)
	default:
		return "", fmt.Errorf("render: unknown statement kind %d", st.Kind)
	}
}

func renderSelect(st Statement) (string, error) {
	var b strings.Builder
	b.WriteString("SELECT ")
	switch {
	case st.Count:
		b.WriteString("COUNT(*)")
	case len(st.Columns) == 0 && len(st.Exprs) == 0:
		b.WriteString("*")
	default:
		proj := make([]string, 0, len(st.Columns)+len(st.Exprs))
		for _, col := range st.Columns {
			proj = append(proj, QuoteIdent(col))
		}
		proj = append(proj, st.Exprs...)
		b.WriteString(strings.Join(proj, ", "))
	}
	b.WriteString(" FROM ")
	b.WriteString(QuoteIdent(st.Table))

	if err := writeWhere(&b, st.Where, st.Filters); err != nil {
		return "", err
	}

	if len(st.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range st.OrderBy {
			if i > 0 {
				b.WriteString(", ")
			}
			if o.Raw {
				b.WriteString(o.Expr)
			} else {
				b.WriteString(QuoteIdent(o.Expr))
			}
			if o.Desc {
				b.WriteString(" DESC")
			} else {
				b.WriteString(" ASC")
			}
		}
	}

	switch {
	case st.Limit > 0:
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(st.Limit))
	case st.Offset > 0:
		// The engine only accepts OFFSET after a LIMIT clause.
		b.WriteString(" LIMIT -1")
	}
	if st.Offset > 0 {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(st.Offset))
	}
	return b.String(), nil
}

func renderInsert(st Statement) (string, error) {
	if len(st.Values) == 0 {
		return "", fmt.Errorf("render insert into %s: %w", st.Table, types.ErrEmptyData)
	}

	cols := make([]string, 0, len(st.Values))
	vals := make([]string, 0, len(st.Values))
	for _, a := range st.Values {
		lit, err := Encode(a.Value)
		if err != nil {
			return "", fmt.Errorf("render insert into %s: column %s: %w", st.Table, a.Column, err)
		}
		cols = append(cols, QuoteIdent(a.Column))
		vals = append(vals, lit)
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(QuoteIdent(st.Table))
	b.WriteString(" (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES (")
	b.WriteString(strings.Join(vals, ", "))
	b.WriteString(")")
	writeReturning(&b, st.Returning)
	return b.String(), nil
}

func renderUpdate(st Statement) (string, error) {
	if len(st.Values) == 0 {
		return "", fmt.Errorf("render update %s: %w", st.Table, types.ErrEmptyData)
	}

	sets := make([]string, 0, len(st.Values))
	for _, a := range st.Values {
		lit, err := Encode(a.Value)
		if err != nil {
			return "", fmt.Errorf("render update %s: column %s: %w", st.Table, a.Column, err)
		}
		sets = append(sets, QuoteIdent(a.Column)+" = "+lit)
	}

	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(QuoteIdent(st.Table))
	b.WriteString(" SET ")
	b.WriteString(strings.Join(sets, ", "))
	if err := writeWhere(&b, st.Where, st.Filters); err != nil {
		return "", err
	}
	writeReturning(&b, st.Returning)
	return b.String(), nil
}

func renderDelete(st Statement) (string, error) {
	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(QuoteIdent(st.Table))
	if err := writeWhere(&b, st.Where, st.Filters); err != nil {
		return "", err
	}
	writeReturning(&b, st.Returning)
	return b.String(), nil
}

func writeReturning(b *strings.Builder, returning bool) {
	if returning {
		b.WriteString(" RETURNING *")
	}
}

func writeWhere(b *strings.Builder, conds []types.Where, filters []string) error {
	clause, err := WhereClause(conds)
	if err != nil {
		return err
	}
	parts := make([]string, 0, len(filters)+1)
	if clause != "" {
		parts = append(parts, clause)
	}
	parts = append(parts, filters...)
	if len(parts) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(parts, " AND "))
	}
	return nil
}

// WhereClause renders conditions joined by AND, without the WHERE keyword.
// No conditions render to the empty string.
func WhereClause(conds []types.Where) (string, error) {
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		s, err := Condition(c)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " AND "), nil
}

var comparison = map[types.Operator]string{
	types.OpEq:    "=",
	types.OpNeq:   "!=",
	types.OpGt:    ">",
	types.OpGte:   ">=",
	types.OpLt:    "<",
	types.OpLte:   "<=",
	types.OpLike:  "LIKE",
	types.OpIs:    "IS",
	types.OpIsNot: "IS NOT",
}

// Condition renders a single filter condition.
//
// A nil value, including a nil slice, renders as IS NULL, or IS NOT NULL for
// the negative operators neq, notIn and isNot. An empty in list matches nothing and an empty notIn
// list matches everything. ilike compares both sides lower-cased.
func Condition(c types.Where) (string, error) {
	if c.Field == "" {
		return "", fmt.Errorf("condition: field name: %w", types.ErrInvalidInput)
	}
	col := QuoteIdent(c.Field)
	op := c.Operator
	if op == "" {
		op = types.OpEq
	}

	if isNil(c.Value) {
		switch op {
		case types.OpNeq, types.OpNotIn, types.OpIsNot:
			return col + " IS NOT NULL", nil
		default:
			return col + " IS NULL", nil
		}
	}

	if (op == types.OpIn || op == types.OpNotIn) && isList(c.Value) {
		return inList(col, op, c.Value)
	}

	switch op {
	case types.OpIn, types.OpNotIn:
		// A scalar is a one-element list.
		return inList(col, op, c.Value)
	case types.OpILike:
		lit, err := Encode(c.Value)
		if err != nil {
			return "", fmt.Errorf("condition %s: %w", c.Field, err)
		}
		return "LOWER(" + col + ") LIKE LOWER(" + lit + ")", nil
	}

	token, ok := comparison[op]
	if !ok {
		return "", fmt.Errorf("condition %s: operator %q: %w", c.Field, op, types.ErrInvalidInput)
	}
	lit, err := Encode(c.Value)
	if err != nil {
		return "", fmt.Errorf("condition %s: %w", c.Field, err)
	}
	return col + " " + token + " " + lit, nil
}

func inList(col string, op types.Operator, value any) (string, error) {
	var items []any
	if isList(value) {
		items = listItems(value)
	} else {
		items = []any{value}
	}
	if len(items) == 0 {
		if op == types.OpIn {
			return "1 = 0", nil
		}
		return "1 = 1", nil
	}

	lits := make([]string, 0, len(items))
	for _, item := range items {
		lit, err := Encode(item)
		if err != nil {
			return "", fmt.Errorf("condition %s: %w", col, err)
		}
		lits = append(lits, lit)
	}

	keyword := " IN ("
	if op == types.OpNotIn {
		keyword = " NOT IN ("
	}
	return col + keyword + strings.Join(lits, ", ") + ")", nil
}

func isList(value any) bool {
	if value == nil {
		return false
	}
	if _, ok := value.([]byte); ok {
		return false
	}
	k := reflect.ValueOf(value).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// listItems flattens a slice or array value.
func listItems(value any) []any {
	rv := reflect.ValueOf(value)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
