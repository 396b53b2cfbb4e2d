package types

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Defaults applied to lightweight location rows with missing columns.
const (
	DefaultThumbnail = "/images/placeholder.webp"
	DefaultCategory  = "Other"
	DefaultAddress   = "N/A"
)

const locationEntity = "location"

// LightweightLocation is the projection kept in the search index. It is never
// the source of truth for a full record.
type LightweightLocation struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Thumbnail   string `json:"thumbnail"`
	Category    string `json:"category"`
	Address     string `json:"address"`
}

// ApplyDefaults fills the columns that declare a schema-level default.
func (l *LightweightLocation) ApplyDefaults() {
	if strings.TrimSpace(l.Thumbnail) == "" {
		l.Thumbnail = DefaultThumbnail
	}
	if strings.TrimSpace(l.Category) == "" {
		l.Category = DefaultCategory
	}
	if strings.TrimSpace(l.Address) == "" {
		l.Address = DefaultAddress
	}
}

// Validate checks the required fields of a lightweight row.
func (l LightweightLocation) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return invalid(locationEntity, "", "id", "must not be empty")
	}
	if strings.TrimSpace(l.Title) == "" {
		return invalid(locationEntity, l.ID, "title", "must not be empty")
	}
	return nil
}

// Bare projects the row down to its listing form.
func (l LightweightLocation) Bare() BareMinimumLocation {
	return BareMinimumLocation{ID: l.ID, Title: l.Title, Thumbnail: l.Thumbnail}
}

// BareMinimumLocation is used in listings where full hydration is wasteful.
type BareMinimumLocation struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

// NearbyLocation is a listing row returned by proximity queries.
type NearbyLocation struct {
	BareMinimumLocation
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	DistanceKm float64 `json:"distance_km"`
}

// OpeningHours describes one day of a location's schedule.
type OpeningHours struct {
	Day    string `json:"day"`
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
	Closed bool   `json:"closed,omitempty"`
}

// Owner identifies the user that owns a location. Callers compare Owner.ID
// against the session user before mutating.
type Owner struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Location is the complete validated location entity. The location table owns
// it; caches only hold read-through copies.
type Location struct {
	ID                   string         `json:"id"`
	Title                string         `json:"title"`
	Description          string         `json:"description,omitempty"`
	Category             string         `json:"category"`
	Address              string         `json:"address"`
	Thumbnail            string         `json:"thumbnail"`
	Images               []string       `json:"images"`
	Latitude             float64        `json:"latitude"`
	Longitude            float64        `json:"longitude"`
	Website              string         `json:"website,omitempty"`
	Phone                string         `json:"phone,omitempty"`
	Email                string         `json:"email,omitempty"`
	OpeningHours         []OpeningHours `json:"opening_hours"`
	PriceLevel           string         `json:"price_level,omitempty"`
	EntryFee             *float64       `json:"entry_fee,omitempty"`
	Currency             string         `json:"currency,omitempty"`
	Rating               *float64       `json:"rating,omitempty"`
	ReviewCount          int64          `json:"review_count"`
	Amenities            []string       `json:"amenities"`
	Activities           []string       `json:"activities"`
	Accessibility        []string       `json:"accessibility"`
	Tags                 []string       `json:"tags"`
	IsVerified           bool           `json:"is_verified"`
	IsFree               bool           `json:"is_free"`
	PetFriendly          bool           `json:"pet_friendly"`
	ParkingAvailable     bool           `json:"parking_available"`
	WheelchairAccessible bool           `json:"wheelchair_accessible"`
	Owner                Owner          `json:"owner"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// ApplyDefaults fills defaulted columns and replaces nil lists with empty ones.
func (l *Location) ApplyDefaults() {
	if strings.TrimSpace(l.Thumbnail) == "" {
		l.Thumbnail = DefaultThumbnail
	}
	if strings.TrimSpace(l.Category) == "" {
		l.Category = DefaultCategory
	}
	if strings.TrimSpace(l.Address) == "" {
		l.Address = DefaultAddress
	}
	for _, list := range []*[]string{&l.Images, &l.Amenities, &l.Activities, &l.Accessibility, &l.Tags} {
		if *list == nil {
			*list = []string{}
		}
	}
	if l.OpeningHours == nil {
		l.OpeningHours = []OpeningHours{}
	}
}

// Validate checks the structural constraints of a full location.
func (l Location) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return invalid(locationEntity, "", "id", "must not be empty")
	}
	if strings.TrimSpace(l.Title) == "" {
		return invalid(locationEntity, l.ID, "title", "must not be empty")
	}
	if !ValidLatitude(l.Latitude) {
		return invalid(locationEntity, l.ID, "latitude", "must be a finite value in [-90, 90]")
	}
	if !ValidLongitude(l.Longitude) {
		return invalid(locationEntity, l.ID, "longitude", "must be a finite value in [-180, 180]")
	}
	if strings.TrimSpace(l.Owner.ID) == "" {
		return invalid(locationEntity, l.ID, "owner.id", "must not be empty")
	}
	if l.EntryFee != nil && (math.IsNaN(*l.EntryFee) || *l.EntryFee < 0) {
		return invalid(locationEntity, l.ID, "entry_fee", "must not be negative")
	}
	if l.Rating != nil && (math.IsNaN(*l.Rating) || *l.Rating < 0 || *l.Rating > 5) {
		return invalid(locationEntity, l.ID, "rating", "must be between 0 and 5")
	}
	if l.ReviewCount < 0 {
		return invalid(locationEntity, l.ID, "review_count", "must not be negative")
	}
	for i, h := range l.OpeningHours {
		if strings.TrimSpace(h.Day) == "" {
			return invalid(locationEntity, l.ID, "opening_hours", "entry "+strconv.Itoa(i)+" has no day")
		}
	}
	return nil
}

// Bare projects the location down to its listing form.
func (l Location) Bare() BareMinimumLocation {
	return BareMinimumLocation{ID: l.ID, Title: l.Title, Thumbnail: l.Thumbnail}
}

// ValidLatitude reports whether lat is a finite latitude.
func ValidLatitude(lat float64) bool {
	return !math.IsNaN(lat) && lat >= -90 && lat <= 90
}

// ValidLongitude reports whether lng is a finite longitude.
func ValidLongitude(lng float64) bool {
	return !math.IsNaN(lng) && lng >= -180 && lng <= 180
}
