package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ev19Coding/parktrack/pkg/types"
)

func seedUsers(t *testing.T, a *Adapter, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := a.Create(context.Background(), types.TableUser, types.Record{
			"id":    "u-" + strings.ToLower(name),
			"name":  name,
			"email": strings.ToLower(name) + "@example.com",
		})
		require.NoError(t, err)
	}
}

func TestAdapterCreate(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(openTestDB(t))

	rec, err := a.Create(ctx, types.TableUser, types.Record{
		"id":    "u1",
		"name":  "Ada",
		"email": "ada@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", rec["id"])
	assert.Equal(t, "[]", rec["favourites"])
	assert.Contains(t, rec, "created_at")

	_, err = a.Create(ctx, types.TableUser, types.Record{})
	assert.ErrorIs(t, err, types.ErrEmptyData)

	_, err = a.Create(ctx, types.TableUser, types.Record{
		"id":    "u2",
		"name":  "Ada again",
		"email": "ada@example.com",
	})
	assert.ErrorIs(t, err, types.ErrAlreadyExists)
}

func TestAdapterHostileValues(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(openTestDB(t))

	name := `Robert'); DROP TABLE "user"; --`
	_, err := a.Create(ctx, types.TableUser, types.Record{
		"id":    "u1",
		"name":  name,
		"email": "o'brien@example.com",
	})
	require.NoError(t, err)

	rec, err := a.FindOne(ctx, types.TableUser, []types.Where{{Field: "email", Value: "o'brien@example.com"}})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, name, rec["name"])

	n, err := a.Count(ctx, types.TableUser, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestAdapterFind(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(openTestDB(t))
	seedUsers(t, a, "Ada", "Grace", "Linus", "Ken")

	tests := []struct {
		name  string
		check func(t *testing.T)
	}{
		{
			name: "find one absent returns nil",
			check: func(t *testing.T) {
				rec, err := a.FindOne(ctx, types.TableUser, []types.Where{{Field: "id", Value: "nope"}})
				require.NoError(t, err)
				assert.Nil(t, rec)
			},
		},
		{
			name: "find one projects fields",
			check: func(t *testing.T) {
				rec, err := a.FindOne(ctx, types.TableUser, []types.Where{{Field: "id", Value: "u-ada"}}, "id", "name")
				require.NoError(t, err)
				assert.Equal(t, types.Record{"id": "u-ada", "name": "Ada"}, rec)
			},
		},
		{
			name: "find many sorted with paging",
			check: func(t *testing.T) {
				recs, err := a.FindMany(ctx, types.TableUser, nil, types.FindOptions{
					Limit:  2,
					Offset: 1,
					SortBy: &types.SortBy{Field: "name", Direction: types.SortDesc},
				})
				require.NoError(t, err)
				require.Len(t, recs, 2)
				assert.Equal(t, "Ken", recs[0]["name"])
				assert.Equal(t, "Grace", recs[1]["name"])
			},
		},
		{
			name: "find many with in",
			check: func(t *testing.T) {
				recs, err := a.FindMany(ctx, types.TableUser, []types.Where{
					{Field: "id", Value: []string{"u-ada", "u-ken"}, Operator: types.OpIn},
				}, types.FindOptions{SortBy: &types.SortBy{Field: "id"}})
				require.NoError(t, err)
				require.Len(t, recs, 2)
				assert.Equal(t, "u-ada", recs[0]["id"])
			},
		},
		{
			name: "empty in matches nothing",
			check: func(t *testing.T) {
				n, err := a.Count(ctx, types.TableUser, []types.Where{{Field: "id", Value: []string{}, Operator: types.OpIn}})
				require.NoError(t, err)
				assert.Zero(t, n)
			},
		},
		{
			name: "ilike is case insensitive",
			check: func(t *testing.T) {
				n, err := a.Count(ctx, types.TableUser, []types.Where{{Field: "name", Value: "%RAC%", Operator: types.OpILike}})
				require.NoError(t, err)
				assert.Equal(t, int64(1), n)
			},
		},
		{
			name: "null comparison uses is null",
			check: func(t *testing.T) {
				n, err := a.Count(ctx, types.TableUser, []types.Where{{Field: "image", Value: nil}})
				require.NoError(t, err)
				assert.Equal(t, int64(4), n)
			},
		},
		{
			name: "bad sort direction",
			check: func(t *testing.T) {
				_, err := a.FindMany(ctx, types.TableUser, nil, types.FindOptions{
					SortBy: &types.SortBy{Field: "name", Direction: "sideways"},
				})
				assert.ErrorIs(t, err, types.ErrInvalidInput)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.check)
	}
}

func TestAdapterUpdate(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(openTestDB(t))
	seedUsers(t, a, "Ada", "Grace")

	byID := []types.Where{{Field: "id", Value: "u-ada"}}

	rec, err := a.Update(ctx, types.TableUser, byID, types.Record{"image": "/img/ada.webp"})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "/img/ada.webp", rec["image"])

	// A nil value writes NULL.
	rec, err = a.Update(ctx, types.TableUser, byID, types.Record{"image": nil})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Nil(t, rec["image"])

	rec, err = a.Update(ctx, types.TableUser, []types.Where{{Field: "id", Value: "ghost"}}, types.Record{"name": "x"})
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, err = a.Update(ctx, types.TableUser, byID, types.Record{})
	assert.ErrorIs(t, err, types.ErrEmptyData)

	n, err := a.UpdateMany(ctx, types.TableUser, nil, types.Record{"email_verified": true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = a.Count(ctx, types.TableUser, []types.Where{{Field: "email_verified", Value: true}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestAdapterDelete(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(openTestDB(t))
	seedUsers(t, a, "Ada", "Grace", "Linus")

	require.NoError(t, a.Delete(ctx, types.TableUser, []types.Where{{Field: "id", Value: "u-ada"}}))

	n, err := a.DeleteMany(ctx, types.TableUser, []types.Where{{Field: "id", Value: "u-ada", Operator: types.OpNeq}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = a.Count(ctx, types.TableUser, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// interleavingQuerier runs hook once, right before the first UPDATE
// statement, to simulate a concurrent writer.
type interleavingQuerier struct {
	Querier
	once sync.Once
	hook func()
}

func (q *interleavingQuerier) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if strings.HasPrefix(query, "UPDATE") {
		q.once.Do(q.hook)
	}
	return q.Querier.ExecContext(ctx, query, args...)
}

func TestAdapterUpdateManyCountIsNotAtomic(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	seedUsers(t, NewAdapter(db), "Ada")

	q := &interleavingQuerier{Querier: db}
	q.hook = func() {
		_, err := NewAdapter(db).Create(ctx, types.TableUser, types.Record{
			"id": "u-late", "name": "Late", "email": "late@example.com",
		})
		require.NoError(t, err)
	}

	n, err := NewAdapter(q).UpdateMany(ctx, types.TableUser, nil, types.Record{"image": "/x.webp"})
	require.NoError(t, err)
	// The reported count predates the row inserted between count and update.
	assert.Equal(t, int64(1), n)

	updated, err := NewAdapter(db).Count(ctx, types.TableUser, []types.Where{{Field: "image", Value: "/x.webp"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)
}
