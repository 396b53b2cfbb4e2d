package sqlgen

import (
	"testing"

	"github.com/Ev19Coding/parktrack/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCondition(t *testing.T) {
	tests := []struct {
		name string
		cond types.Where
		want string
	}{
		{"default operator is eq", types.Where{Field: "id", Value: "a"}, `"id" = 'a'`},
		{"neq", types.Where{Field: "n", Value: 1, Operator: types.OpNeq}, `"n" != 1`},
		{"gt", types.Where{Field: "n", Value: 1, Operator: types.OpGt}, `"n" > 1`},
		{"gte", types.Where{Field: "n", Value: 1, Operator: types.OpGte}, `"n" >= 1`},
		{"lt", types.Where{Field: "n", Value: 1, Operator: types.OpLt}, `"n" < 1`},
		{"lte", types.Where{Field: "n", Value: 1, Operator: types.OpLte}, `"n" <= 1`},
		{"like", types.Where{Field: "t", Value: "%park%", Operator: types.OpLike}, `"t" LIKE '%park%'`},
		{"ilike", types.Where{Field: "t", Value: "%Park%", Operator: types.OpILike}, `LOWER("t") LIKE LOWER('%Park%')`},
		{"in", types.Where{Field: "id", Value: []string{"a", "b"}, Operator: types.OpIn}, `"id" IN ('a', 'b')`},
		{"in scalar", types.Where{Field: "id", Value: "a", Operator: types.OpIn}, `"id" IN ('a')`},
		{"not in", types.Where{Field: "id", Value: []int{1, 2}, Operator: types.OpNotIn}, `"id" NOT IN (1, 2)`},
		{"empty in matches nothing", types.Where{Field: "id", Value: []string{}, Operator: types.OpIn}, "1 = 0"},
		{"nil slice in is null", types.Where{Field: "id", Value: []string(nil), Operator: types.OpIn}, `"id" IS NULL`},
		{"nil slice not in is not null", types.Where{Field: "id", Value: []string(nil), Operator: types.OpNotIn}, `"id" IS NOT NULL`},
		{"empty not in matches all", types.Where{Field: "id", Value: []string{}, Operator: types.OpNotIn}, "1 = 1"},
		{"is", types.Where{Field: "b", Value: true, Operator: types.OpIs}, `"b" IS true`},
		{"is not", types.Where{Field: "b", Value: true, Operator: types.OpIsNot}, `"b" IS NOT true`},
		{"nil eq", types.Where{Field: "x", Value: nil}, `"x" IS NULL`},
		{"nil is", types.Where{Field: "x", Value: nil, Operator: types.OpIs}, `"x" IS NULL`},
		{"nil neq", types.Where{Field: "x", Value: nil, Operator: types.OpNeq}, `"x" IS NOT NULL`},
		{"nil is not", types.Where{Field: "x", Value: nil, Operator: types.OpIsNot}, `"x" IS NOT NULL`},
		{"nil gt", types.Where{Field: "x", Value: nil, Operator: types.OpGt}, `"x" IS NULL`},
		{"quote in value", types.Where{Field: "name", Value: "O'Brien"}, `"name" = 'O''Brien'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Condition(tt.cond)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConditionErrors(t *testing.T) {
	_, err := Condition(types.Where{Field: "x", Value: 1, Operator: "between"})
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = Condition(types.Where{Value: 1})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestWhereClauseKeepsOrder(t *testing.T) {
	got, err := WhereClause([]types.Where{
		{Field: "b", Value: 2},
		{Field: "a", Value: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, `"b" = 2 AND "a" = 1`, got)

	got, err = WhereClause(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		st   Statement
		want string
	}{
		{
			name: "select all",
			st:   Statement{Kind: Select, Table: "location"},
			want: `SELECT * FROM "location"`,
		},
		{
			name: "select projection with filter sort and paging",
			st: Statement{
				Kind:    Select,
				Table:   "location",
				Columns: []string{"id", "title"},
				Where:   []types.Where{{Field: "category", Value: "Park"}},
				OrderBy: []Order{{Expr: "title", Desc: true}},
				Limit:   10,
				Offset:  20,
			},
			want: `SELECT "id", "title" FROM "location" WHERE "category" = 'Park' ORDER BY "title" DESC LIMIT 10 OFFSET 20`,
		},
		{
			name: "offset without limit",
			st:   Statement{Kind: Select, Table: "t", Offset: 5},
			want: `SELECT * FROM "t" LIMIT -1 OFFSET 5`,
		},
		{
			name: "count",
			st:   Statement{Kind: Select, Table: "t", Count: true, Where: []types.Where{{Field: "a", Value: nil}}},
			want: `SELECT COUNT(*) FROM "t" WHERE "a" IS NULL`,
		},
		{
			name: "raw order expression",
			st:   Statement{Kind: Select, Table: "t", OrderBy: []Order{{Expr: "RANDOM()", Raw: true}}, Limit: 1},
			want: `SELECT * FROM "t" ORDER BY RANDOM() ASC LIMIT 1`,
		},
		{
			name: "raw projection and filter",
			st: Statement{
				Kind:    Select,
				Table:   "location",
				Columns: []string{"id"},
				Exprs:   []string{"distance_km(1, 2, 3, 4) AS distance"},
				Where:   []types.Where{{Field: "owner_id", Value: "u1"}},
				Filters: []string{"distance_km(1, 2, 3, 4) <= 10"},
			},
			want: `SELECT "id", distance_km(1, 2, 3, 4) AS distance FROM "location" WHERE "owner_id" = 'u1' AND distance_km(1, 2, 3, 4) <= 10`,
		},
		{
			name: "insert sorted columns",
			st: Statement{
				Kind:      Insert,
				Table:     "user",
				Values:    Assignments(types.Record{"name": "Ada", "email": "ada@example.com", "age": 36}),
				Returning: true,
			},
			want: `INSERT INTO "user" ("age", "email", "name") VALUES (36, 'ada@example.com', 'Ada') RETURNING *`,
		},
		{
			name: "update with null override",
			st: Statement{
				Kind:   Update,
				Table:  "location",
				Values: Assignments(types.Record{"website": nil, "rating": 4.5}),
				Where:  []types.Where{{Field: "id", Value: "abc"}},
			},
			want: `UPDATE "location" SET "rating" = 4.5, "website" = NULL WHERE "id" = 'abc'`,
		},
		{
			name: "delete",
			st:   Statement{Kind: Delete, Table: "session", Where: []types.Where{{Field: "user_id", Value: "u1"}}},
			want: `DELETE FROM "session" WHERE "user_id" = 'u1'`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.st)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderErrors(t *testing.T) {
	_, err := Render(Statement{Kind: Insert, Table: "t"})
	assert.ErrorIs(t, err, types.ErrEmptyData)

	_, err = Render(Statement{Kind: Update, Table: "t"})
	assert.ErrorIs(t, err, types.ErrEmptyData)

	_, err = Render(Statement{Kind: Select})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}
