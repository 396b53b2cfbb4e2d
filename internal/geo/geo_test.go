package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKM(t *testing.T) {
	sf := Coordinate{Lat: 37.7749, Lng: -122.4194}
	oakland := Coordinate{Lat: 37.8044, Lng: -122.2712}
	la := Coordinate{Lat: 34.0522, Lng: -118.2437}

	assert.InDelta(t, 13.4, DistanceKM(sf, oakland), 0.5)
	assert.InDelta(t, 559, DistanceKM(sf, la), 5)
	assert.Equal(t, 0.0, DistanceKM(sf, sf))
	assert.Equal(t, DistanceKM(sf, la), DistanceKM(la, sf))
}

func TestDistanceKMAntipodal(t *testing.T) {
	d := DistanceKM(Coordinate{Lat: 0, Lng: 0}, Coordinate{Lat: 0, Lng: 180})
	assert.False(t, math.IsNaN(d))
	assert.InDelta(t, math.Pi*EarthRadiusKM, d, 1e-6)
}

func TestCoordinateValid(t *testing.T) {
	tests := []struct {
		name  string
		coord Coordinate
		want  bool
	}{
		{"origin", Coordinate{0, 0}, true},
		{"abuja", Coordinate{9.0765, 7.3986}, true},
		{"nan latitude", Coordinate{math.NaN(), 0}, false},
		{"infinite longitude", Coordinate{0, math.Inf(-1)}, false},
		{"latitude above range", Coordinate{90.5, 0}, false},
		{"longitude below range", Coordinate{0, -180.1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.coord.Valid())
		})
	}
}
