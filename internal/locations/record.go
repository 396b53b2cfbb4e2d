package locations

import (
	"time"

	"github.com/Ev19Coding/parktrack/internal/sqlgen"
	"github.com/Ev19Coding/parktrack/pkg/types"
)

var (
	indexColumns = []string{"id", "title", "description", "thumbnail", "category", "address"}
	bareColumns  = []string{"id", "title", "thumbnail"}
)

func lightweightFromRecord(rec types.Record) types.LightweightLocation {
	return types.LightweightLocation{
		ID:          sqlgen.DecodeString(rec["id"]),
		Title:       sqlgen.DecodeString(rec["title"]),
		Description: sqlgen.DecodeString(rec["description"]),
		Thumbnail:   sqlgen.DecodeString(rec["thumbnail"]),
		Category:    sqlgen.DecodeString(rec["category"]),
		Address:     sqlgen.DecodeString(rec["address"]),
	}
}

func bareFromRecord(rec types.Record) types.BareMinimumLocation {
	b := types.BareMinimumLocation{
		ID:        sqlgen.DecodeString(rec["id"]),
		Title:     sqlgen.DecodeString(rec["title"]),
		Thumbnail: sqlgen.DecodeString(rec["thumbnail"]),
	}
	if b.Thumbnail == "" {
		b.Thumbnail = types.DefaultThumbnail
	}
	return b
}

// rowDecoder decodes columns of one row, keeping the first failure.
type rowDecoder struct {
	id  string
	rec types.Record
	err error
}

func (d *rowDecoder) fail(col string, err error) {
	if d.err == nil {
		d.err = &types.ValidationError{Entity: "location", ID: d.id, Field: col, Reason: err.Error()}
	}
}

func (d *rowDecoder) str(col string) string {
	return sqlgen.DecodeString(d.rec[col])
}

func (d *rowDecoder) float(col string) float64 {
	f, err := sqlgen.DecodeFloat(d.rec[col])
	if err != nil {
		d.fail(col, err)
	}
	return f
}

func (d *rowDecoder) optFloat(col string) *float64 {
	if d.rec[col] == nil {
		return nil
	}
	f := d.float(col)
	return &f
}

func (d *rowDecoder) integer(col string) int64 {
	if d.rec[col] == nil {
		return 0
	}
	n, err := sqlgen.DecodeInt(d.rec[col])
	if err != nil {
		d.fail(col, err)
	}
	return n
}

func (d *rowDecoder) boolean(col string) bool {
	if d.rec[col] == nil {
		return false
	}
	b, err := sqlgen.DecodeBool(d.rec[col])
	if err != nil {
		d.fail(col, err)
	}
	return b
}

func (d *rowDecoder) timestamp(col string) time.Time {
	if d.rec[col] == nil {
		return time.Time{}
	}
	t, err := sqlgen.DecodeTime(d.rec[col])
	if err != nil {
		d.fail(col, err)
	}
	return t
}

func (d *rowDecoder) list(col string, dst any) {
	if err := sqlgen.DecodeJSON(d.rec[col], dst); err != nil {
		d.fail(col, err)
	}
}

// locationFromRecord decodes a location or location_detail row and
// validates the result.
func locationFromRecord(rec types.Record) (*types.Location, error) {
	d := &rowDecoder{id: sqlgen.DecodeString(rec["id"]), rec: rec}

	l := &types.Location{
		ID:                   d.id,
		Title:                d.str("title"),
		Description:          d.str("description"),
		Category:             d.str("category"),
		Address:              d.str("address"),
		Thumbnail:            d.str("thumbnail"),
		Latitude:             d.float("latitude"),
		Longitude:            d.float("longitude"),
		Website:              d.str("website"),
		Phone:                d.str("phone"),
		Email:                d.str("email"),
		PriceLevel:           d.str("price_level"),
		EntryFee:             d.optFloat("entry_fee"),
		Currency:             d.str("currency"),
		Rating:               d.optFloat("rating"),
		ReviewCount:          d.integer("review_count"),
		IsVerified:           d.boolean("is_verified"),
		IsFree:               d.boolean("is_free"),
		PetFriendly:          d.boolean("pet_friendly"),
		ParkingAvailable:     d.boolean("parking_available"),
		WheelchairAccessible: d.boolean("wheelchair_accessible"),
		Owner: types.Owner{
			ID:   d.str("owner_id"),
			Name: d.str("owner_name"),
		},
		CreatedAt: d.timestamp("created_at"),
		UpdatedAt: d.timestamp("updated_at"),
	}
	d.list("images", &l.Images)
	d.list("opening_hours", &l.OpeningHours)
	d.list("amenities", &l.Amenities)
	d.list("activities", &l.Activities)
	d.list("accessibility", &l.Accessibility)
	d.list("tags", &l.Tags)
	if d.err != nil {
		return nil, d.err
	}

	l.ApplyDefaults()
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// locationRecord converts a location into location table columns.
// Optional text fields that are empty are stored as NULL.
func locationRecord(l *types.Location) types.Record {
	return types.Record{
		"id":                    l.ID,
		"title":                 l.Title,
		"description":           l.Description,
		"category":              l.Category,
		"address":               l.Address,
		"thumbnail":             l.Thumbnail,
		"images":                l.Images,
		"latitude":              l.Latitude,
		"longitude":             l.Longitude,
		"website":               optString(l.Website),
		"phone":                 optString(l.Phone),
		"email":                 optString(l.Email),
		"opening_hours":         l.OpeningHours,
		"price_level":           optString(l.PriceLevel),
		"entry_fee":             l.EntryFee,
		"currency":              optString(l.Currency),
		"rating":                l.Rating,
		"review_count":          l.ReviewCount,
		"amenities":             l.Amenities,
		"activities":            l.Activities,
		"accessibility":         l.Accessibility,
		"tags":                  l.Tags,
		"is_verified":           l.IsVerified,
		"is_free":               l.IsFree,
		"pet_friendly":          l.PetFriendly,
		"parking_available":     l.ParkingAvailable,
		"wheelchair_accessible": l.WheelchairAccessible,
		"owner_id":              l.Owner.ID,
		"created_at":            l.CreatedAt.UTC(),
		"updated_at":            l.UpdatedAt.UTC(),
	}
}

func optString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
