package locations

import (
	"context"
	"fmt"
	"slices"

	"github.com/Ev19Coding/parktrack/internal/sqlgen"
	"github.com/Ev19Coding/parktrack/pkg/types"
)

// favourites reads the favourite list of userID. found is false when the
// user does not exist.
func (e *Engine) favourites(ctx context.Context, userID string) (ids []string, found bool, err error) {
	rec, err := e.store.FindOne(ctx, types.TableUser, []types.Where{{Field: "id", Value: userID}}, "favourites")
	if err != nil {
		return nil, false, fmt.Errorf("read favourites of %s: %w", userID, err)
	}
	if rec == nil {
		return nil, false, nil
	}
	if err := sqlgen.DecodeJSON(rec["favourites"], &ids); err != nil {
		return nil, true, &types.ValidationError{Entity: "user", ID: userID, Field: "favourites", Reason: err.Error()}
	}
	return ids, true, nil
}

func (e *Engine) writeFavourites(ctx context.Context, userID string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	_, err := e.store.Update(ctx, types.TableUser, []types.Where{{Field: "id", Value: userID}}, types.Record{
		"favourites": ids,
		"updated_at": e.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("write favourites of %s: %w", userID, err)
	}
	return nil
}

// IsFavourite reports whether locationID is in the favourites of userID.
// A missing user has no favourites.
func (e *Engine) IsFavourite(ctx context.Context, userID, locationID string) (bool, error) {
	ids, _, err := e.favourites(ctx, userID)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, locationID), nil
}

// AddFavourite appends locationID to the favourites of userID. Adding an
// existing favourite is a no-op. Returns ErrNotFound when the user does not
// exist.
func (e *Engine) AddFavourite(ctx context.Context, userID, locationID string) error {
	ids, found, err := e.favourites(ctx, userID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("add favourite: user %s: %w", userID, types.ErrNotFound)
	}
	if slices.Contains(ids, locationID) {
		return nil
	}
	return e.writeFavourites(ctx, userID, append(ids, locationID))
}

// RemoveFavourite removes locationID from the favourites of userID.
// Returns ErrNotFound when the user does not exist.
func (e *Engine) RemoveFavourite(ctx context.Context, userID, locationID string) error {
	ids, found, err := e.favourites(ctx, userID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("remove favourite: user %s: %w", userID, types.ErrNotFound)
	}
	if !slices.Contains(ids, locationID) {
		return nil
	}
	return e.writeFavourites(ctx, userID, slices.DeleteFunc(ids, func(id string) bool { return id == locationID }))
}

// Favourites hydrates the favourite locations of userID. A missing user
// returns an empty result.
func (e *Engine) Favourites(ctx context.Context, userID string) (BatchResult, error) {
	ids, _, err := e.favourites(ctx, userID)
	if err != nil {
		return BatchResult{}, err
	}
	return e.GetMany(ctx, ids), nil
}
