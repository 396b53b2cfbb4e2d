package locations

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Ev19Coding/parktrack/pkg/types"
)

// BatchFailure records a lookup that returned an error.
type BatchFailure struct {
	ID  string
	Err error
}

// BatchResult splits a batch lookup into found records, ids with no
// record, and failed lookups. Each list keeps input order.
type BatchResult struct {
	Found   []*types.Location
	Missing []string
	Failed  []BatchFailure
}

// GetMany looks up every id through Get with bounded concurrency. A failed
// lookup does not stop the others; it is reported in Failed. Repeated ids
// are looked up once.
func (e *Engine) GetMany(ctx context.Context, ids []string) BatchResult {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	type slot struct {
		loc *types.Location
		err error
	}
	slots := make([]slot, len(unique))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, id := range unique {
		g.Go(func() error {
			loc, err := e.Get(ctx, id)
			slots[i] = slot{loc: loc, err: err}
			return nil
		})
	}
	_ = g.Wait()

	res := BatchResult{Found: make([]*types.Location, 0, len(unique))}
	for i, s := range slots {
		switch {
		case s.err != nil:
			res.Failed = append(res.Failed, BatchFailure{ID: unique[i], Err: s.err})
		case s.loc == nil:
			res.Missing = append(res.Missing, unique[i])
		default:
			res.Found = append(res.Found, s.loc)
		}
	}
	if len(res.Failed) > 0 {
		e.logger.Warn("batch lookup had failures", "requested", len(unique), "failed", len(res.Failed))
	}
	return res
}
