package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/Ev19Coding/parktrack/internal/sqlgen"
	"github.com/Ev19Coding/parktrack/pkg/types"
)

// Adapter implements types.Store by rendering every operation to SQL text
// through sqlgen and running it on a Querier.
//
// UpdateMany and DeleteMany count matching rows and then mutate them as two
// separate statements; rows changed in between make the count inexact.
type Adapter struct {
	q Querier
}

var _ types.Store = (*Adapter)(nil)

// NewAdapter returns an adapter running statements on q.
func NewAdapter(q Querier) *Adapter {
	return &Adapter{q: q}
}

// Create inserts data into model and returns the stored row. When the
// engine returns no row the submitted data is returned.
func (a *Adapter) Create(ctx context.Context, model string, data types.Record) (types.Record, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("create %s: %w", model, types.ErrEmptyData)
	}
	query, err := sqlgen.Render(sqlgen.Statement{
		Kind:      sqlgen.Insert,
		Table:     model,
		Values:    sqlgen.Assignments(data),
		Returning: true,
	})
	if err != nil {
		return nil, err
	}

	recs, err := a.Query(ctx, query)
	if err != nil {
		return nil, wrapEngineError("create", model, err)
	}
	if len(recs) == 0 {
		out := make(types.Record, len(data))
		for k, v := range data {
			out[k] = v
		}
		return out, nil
	}
	return recs[0], nil
}

// Update applies patch to rows matching where and returns the first
// updated row, or nil when nothing matched. An empty where updates every
// row.
func (a *Adapter) Update(ctx context.Context, model string, where []types.Where, patch types.Record) (types.Record, error) {
	query, err := renderUpdate(model, where, patch, true)
	if err != nil {
		return nil, err
	}
	recs, err := a.Query(ctx, query)
	if err != nil {
		return nil, wrapEngineError("update", model, err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

// UpdateMany applies patch to rows matching where and returns the number
// of rows that matched before the update.
func (a *Adapter) UpdateMany(ctx context.Context, model string, where []types.Where, patch types.Record) (int64, error) {
	query, err := renderUpdate(model, where, patch, false)
	if err != nil {
		return 0, err
	}
	n, err := a.Count(ctx, model, where)
	if err != nil {
		return 0, err
	}
	if _, err := a.q.ExecContext(ctx, query); err != nil {
		return 0, wrapEngineError("update", model, err)
	}
	return n, nil
}

func renderUpdate(model string, where []types.Where, patch types.Record, returning bool) (string, error) {
	if len(patch) == 0 {
		return "", fmt.Errorf("update %s: %w", model, types.ErrEmptyData)
	}
	return sqlgen.Render(sqlgen.Statement{
		Kind:      sqlgen.Update,
		Table:     model,
		Values:    sqlgen.Assignments(patch),
		Where:     where,
		Returning: returning,
	})
}

// Delete removes rows matching where.
func (a *Adapter) Delete(ctx context.Context, model string, where []types.Where) error {
	query, err := sqlgen.Render(sqlgen.Statement{Kind: sqlgen.Delete, Table: model, Where: where})
	if err != nil {
		return err
	}
	if _, err := a.q.ExecContext(ctx, query); err != nil {
		return wrapEngineError("delete", model, err)
	}
	return nil
}

// DeleteMany removes rows matching where and returns the number of rows
// that matched before the delete.
func (a *Adapter) DeleteMany(ctx context.Context, model string, where []types.Where) (int64, error) {
	n, err := a.Count(ctx, model, where)
	if err != nil {
		return 0, err
	}
	if err := a.Delete(ctx, model, where); err != nil {
		return 0, err
	}
	return n, nil
}

// FindOne returns the first row matching where, projected onto fields (all
// columns when none are given), or nil when nothing matched.
func (a *Adapter) FindOne(ctx context.Context, model string, where []types.Where, fields ...string) (types.Record, error) {
	query, err := sqlgen.Render(sqlgen.Statement{
		Kind:    sqlgen.Select,
		Table:   model,
		Columns: fields,
		Where:   where,
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	recs, err := a.Query(ctx, query)
	if err != nil {
		return nil, wrapEngineError("find", model, err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

// FindMany returns rows matching where, bounded and ordered by opts.
func (a *Adapter) FindMany(ctx context.Context, model string, where []types.Where, opts types.FindOptions) ([]types.Record, error) {
	if opts.Limit < 0 || opts.Offset < 0 {
		return nil, fmt.Errorf("find %s: negative limit or offset: %w", model, types.ErrInvalidInput)
	}
	st := sqlgen.Statement{
		Kind:    sqlgen.Select,
		Table:   model,
		Columns: opts.Fields,
		Where:   where,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	}
	if opts.SortBy != nil {
		order, err := sortOrder(*opts.SortBy)
		if err != nil {
			return nil, fmt.Errorf("find %s: %w", model, err)
		}
		st.OrderBy = []sqlgen.Order{order}
	}

	query, err := sqlgen.Render(st)
	if err != nil {
		return nil, err
	}
	recs, err := a.Query(ctx, query)
	if err != nil {
		return nil, wrapEngineError("find", model, err)
	}
	return recs, nil
}

func sortOrder(s types.SortBy) (sqlgen.Order, error) {
	if s.Field == "" {
		return sqlgen.Order{}, fmt.Errorf("sort field: %w", types.ErrInvalidInput)
	}
	switch types.SortDirection(strings.ToLower(string(s.Direction))) {
	case "", types.SortAsc:
		return sqlgen.Order{Expr: s.Field}, nil
	case types.SortDesc:
		return sqlgen.Order{Expr: s.Field, Desc: true}, nil
	default:
		return sqlgen.Order{}, fmt.Errorf("sort direction %q: %w", s.Direction, types.ErrInvalidInput)
	}
}

// Count returns the number of rows matching where.
func (a *Adapter) Count(ctx context.Context, model string, where []types.Where) (int64, error) {
	query, err := sqlgen.Render(sqlgen.Statement{
		Kind:  sqlgen.Select,
		Table: model,
		Count: true,
		Where: where,
	})
	if err != nil {
		return 0, err
	}
	rows, err := a.q.QueryContext(ctx, query)
	if err != nil {
		return 0, wrapEngineError("count", model, err)
	}
	defer rows.Close()

	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("count %s: %w", model, err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, wrapEngineError("count", model, err)
	}
	return n, nil
}

// Query runs a rendered statement and collects every row. Rows are fully
// read and closed before Query returns.
func (a *Adapter) Query(ctx context.Context, query string) ([]types.Record, error) {
	rows, err := a.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Exec runs a rendered statement that returns no rows and reports the
// number of affected rows.
func (a *Adapter) Exec(ctx context.Context, query string) (int64, error) {
	res, err := a.q.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// scanRecords reads rows into records keyed by column name. Text returned
// as []byte is converted to string.
func scanRecords(rows *sql.Rows) ([]types.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []types.Record
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(types.Record, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				rec[col] = string(b)
				continue
			}
			rec[col] = vals[i]
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// wrapEngineError tags engine errors with the operation and maps uniqueness
// violations to ErrAlreadyExists.
func wrapEngineError(verb, model string, err error) error {
	if IsUniqueViolation(err) {
		return fmt.Errorf("%s %s: %w: %v", verb, model, types.ErrAlreadyExists, err)
	}
	return fmt.Errorf("%s %s: %w", verb, model, err)
}

// IsUniqueViolation reports whether err is a primary key or unique
// constraint failure.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
