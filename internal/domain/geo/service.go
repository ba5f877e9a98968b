// internal/domain/geo/service.go

package geo

// Compass headings in degrees, clockwise from north
const (
	HeadingNorth = 0.0
	HeadingEast  = 90.0
	HeadingSouth = 180.0
	HeadingWest  = 270.0
)

// Calculator provides great-circle math on the earth's surface
type Calculator interface {
	// Distance returns the great-circle distance between two points in meters
	Distance(a, b LatLng) float64

	// Offset returns the point reached by travelling distance meters from
	// origin along the given heading
	Offset(origin LatLng, distance, heading float64) LatLng
}
