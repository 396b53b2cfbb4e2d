package locations

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Ev19Coding/parktrack/internal/geo"
	"github.com/Ev19Coding/parktrack/internal/sqlgen"
	"github.com/Ev19Coding/parktrack/internal/sqlite"
	"github.com/Ev19Coding/parktrack/pkg/types"
)

// kmPerDegreeLat is the length of one degree of latitude.
const kmPerDegreeLat = geo.EarthRadiusKM * math.Pi / 180

// RandomByCategory returns up to maxResults random listings whose category
// contains category, ignoring case. Wildcard characters in category match
// literally.
func (e *Engine) RandomByCategory(ctx context.Context, category string, maxResults int) ([]types.BareMinimumLocation, error) {
	if maxResults <= 0 {
		return nil, fmt.Errorf("random by category: max results must be positive: %w", types.ErrInvalidInput)
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return []types.BareMinimumLocation{}, nil
	}

	lit, err := sqlgen.Encode(category)
	if err != nil {
		return nil, err
	}
	query, err := sqlgen.Render(sqlgen.Statement{
		Kind:    sqlgen.Select,
		Table:   types.TableLocation,
		Columns: bareColumns,
		Filters: []string{"instr(LOWER(" + sqlgen.QuoteIdent("category") + "), LOWER(" + lit + ")) > 0"},
		OrderBy: []sqlgen.Order{{Expr: "RANDOM()", Raw: true}},
		Limit:   maxResults,
	})
	if err != nil {
		return nil, err
	}

	recs, err := e.store.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("random by category: %w", err)
	}
	out := make([]types.BareMinimumLocation, 0, len(recs))
	for _, rec := range recs {
		out = append(out, bareFromRecord(rec))
	}
	return out, nil
}

// Near returns up to maxResults locations within rangeKm of (lat, lng),
// nearest first with ties broken by id. Non-finite coordinates return no
// results without querying. Proximity results are never cached.
func (e *Engine) Near(ctx context.Context, lat, lng, rangeKm float64, maxResults int) ([]types.NearbyLocation, error) {
	if !geo.IsFinite(lat) || !geo.IsFinite(lng) {
		return []types.NearbyLocation{}, nil
	}
	if !(geo.Coordinate{Lat: lat, Lng: lng}).Valid() {
		return nil, fmt.Errorf("near: coordinate out of range: %w", types.ErrInvalidInput)
	}
	if !geo.IsFinite(rangeKm) || rangeKm <= 0 {
		return nil, fmt.Errorf("near: range must be positive: %w", types.ErrInvalidInput)
	}
	if maxResults <= 0 {
		return nil, fmt.Errorf("near: max results must be positive: %w", types.ErrInvalidInput)
	}

	latLit, _ := sqlgen.Encode(lat)
	lngLit, _ := sqlgen.Encode(lng)
	rangeLit, _ := sqlgen.Encode(rangeKm)
	distance := fmt.Sprintf("%s(%s, %s, %s, %s)", sqlite.DistanceFunc, latLit, lngLit,
		sqlgen.QuoteIdent("latitude"), sqlgen.QuoteIdent("longitude"))

	// The latitude band lets the coordinate index discard most rows before
	// the distance function runs.
	band := rangeKm / kmPerDegreeLat
	query, err := sqlgen.Render(sqlgen.Statement{
		Kind:    sqlgen.Select,
		Table:   types.TableLocation,
		Columns: []string{"id", "title", "thumbnail", "latitude", "longitude"},
		Exprs:   []string{distance + " AS distance"},
		Where: []types.Where{
			{Field: "latitude", Value: lat - band, Operator: types.OpGte},
			{Field: "latitude", Value: lat + band, Operator: types.OpLte},
		},
		Filters: []string{distance + " <= " + rangeLit},
		OrderBy: []sqlgen.Order{{Expr: "distance", Raw: true}, {Expr: "id"}},
		Limit:   maxResults,
	})
	if err != nil {
		return nil, err
	}

	recs, err := e.store.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("near: %w", err)
	}
	out := make([]types.NearbyLocation, 0, len(recs))
	for _, rec := range recs {
		n := types.NearbyLocation{BareMinimumLocation: bareFromRecord(rec)}
		var ferr error
		if n.Latitude, ferr = sqlgen.DecodeFloat(rec["latitude"]); ferr != nil {
			return nil, fmt.Errorf("near: location %s: latitude: %w", n.ID, ferr)
		}
		if n.Longitude, ferr = sqlgen.DecodeFloat(rec["longitude"]); ferr != nil {
			return nil, fmt.Errorf("near: location %s: longitude: %w", n.ID, ferr)
		}
		if n.DistanceKm, ferr = sqlgen.DecodeFloat(rec["distance"]); ferr != nil {
			return nil, fmt.Errorf("near: location %s: distance: %w", n.ID, ferr)
		}
		out = append(out, n)
	}
	return out, nil
}

// ByOwner lists the locations owned by ownerID ordered by title.
func (e *Engine) ByOwner(ctx context.Context, ownerID string) ([]types.BareMinimumLocation, error) {
	recs, err := e.store.FindMany(ctx, types.TableLocation,
		[]types.Where{{Field: "owner_id", Value: ownerID}},
		types.FindOptions{
			Fields: bareColumns,
			SortBy: &types.SortBy{Field: "title", Direction: types.SortAsc},
		})
	if err != nil {
		return nil, fmt.Errorf("locations by owner %s: %w", ownerID, err)
	}
	out := make([]types.BareMinimumLocation, 0, len(recs))
	for _, rec := range recs {
		out = append(out, bareFromRecord(rec))
	}
	return out, nil
}
