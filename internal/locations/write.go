package locations

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Ev19Coding/parktrack/pkg/types"
)

// newID returns a UUID v7 string, falling back to v4.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Create validates and inserts loc. An empty ID is replaced by a new UUID
// and zero timestamps by the current time. The stored location is
// returned; loc is not modified.
func (e *Engine) Create(ctx context.Context, loc *types.Location) (*types.Location, error) {
	if loc == nil {
		return nil, fmt.Errorf("create location: %w", types.ErrInvalidInput)
	}
	l := *loc
	if strings.TrimSpace(l.ID) == "" {
		l.ID = newID()
	}
	now := e.now().UTC()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = now
	}
	l.ApplyDefaults()
	if err := l.Validate(); err != nil {
		return nil, err
	}

	if _, err := e.store.Create(ctx, types.TableLocation, locationRecord(&l)); err != nil {
		return nil, err
	}
	e.invalidate(l.ID)
	e.logger.Debug("location created", "id", l.ID)
	return &l, nil
}

// Update replaces every column of the stored location with loc, keeping
// the stored creation time. Returns ErrNotFound when no location has
// loc.ID.
func (e *Engine) Update(ctx context.Context, loc *types.Location) (*types.Location, error) {
	if loc == nil {
		return nil, fmt.Errorf("update location: %w", types.ErrInvalidInput)
	}
	l := *loc
	l.UpdatedAt = e.now().UTC()
	l.ApplyDefaults()
	if err := l.Validate(); err != nil {
		return nil, err
	}

	patch := locationRecord(&l)
	delete(patch, "id")
	delete(patch, "created_at")

	rec, err := e.store.Update(ctx, types.TableLocation, []types.Where{{Field: "id", Value: l.ID}}, patch)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("update location %s: %w", l.ID, types.ErrNotFound)
	}
	e.invalidate(l.ID)

	stored, err := locationFromRecord(rec)
	if err != nil {
		return nil, err
	}
	stored.Owner.Name = l.Owner.Name
	return stored, nil
}

// Delete removes the location with id. Returns ErrNotFound when it does
// not exist.
func (e *Engine) Delete(ctx context.Context, id string) error {
	n, err := e.store.DeleteMany(ctx, types.TableLocation, []types.Where{{Field: "id", Value: id}})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("delete location %s: %w", id, types.ErrNotFound)
	}
	e.invalidate(id)
	return nil
}
