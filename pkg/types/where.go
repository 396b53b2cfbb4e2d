package types

// Operator is a comparison used in a Where condition.
type Operator string

// Supported operators.
const (
	OpEq    Operator = "eq"
	OpNeq   Operator = "neq"
	OpGt    Operator = "gt"
	OpGte   Operator = "gte"
	OpLt    Operator = "lt"
	OpLte   Operator = "lte"
	OpLike  Operator = "like"
	OpILike Operator = "ilike"
	OpIn    Operator = "in"
	OpNotIn Operator = "notIn"
	OpIs    Operator = "is"
	OpIsNot Operator = "isNot"
)

// Where is a single filter condition. A slice of conditions combines with
// AND; the slice order is kept in the generated SQL text.
// An empty Operator means OpEq.
type Where struct {
	Field    string
	Value    any
	Operator Operator
}

// Record is a generic row keyed by column name.
type Record map[string]any

// SortDirection orders FindMany results.
type SortDirection string

// Sort directions.
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortBy names the column and direction used to order results.
type SortBy struct {
	Field     string
	Direction SortDirection
}

// FindOptions bounds, orders and projects a FindMany call. Zero values mean
// all columns, no limit, no offset and engine order.
type FindOptions struct {
	Fields []string
	Limit  int
	Offset int
	SortBy *SortBy
}
