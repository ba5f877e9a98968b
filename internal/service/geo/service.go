// internal/service/geo/service.go

package geo

import (
	orbgeo "github.com/paulmach/orb/geo"

	"shopmap/internal/domain/geo"
)

// Spherical implements geo.Calculator on a spherical earth model
// with the WGS84 equatorial radius.
type Spherical struct{}

// NewSpherical creates a new spherical calculator
func NewSpherical() *Spherical {
	return &Spherical{}
}

// Distance calculates the distance between two locations in meters
func (s *Spherical) Distance(a, b geo.LatLng) float64 {
	return orbgeo.DistanceHaversine(a.Point(), b.Point())
}

// Offset moves origin by distance meters along heading
func (s *Spherical) Offset(origin geo.LatLng, distance, heading float64) geo.LatLng {
	return geo.FromPoint(orbgeo.PointAtBearingAndDistance(origin.Point(), heading, distance))
}
