// internal/domain/geo/model.go

package geo

import (
	"github.com/paulmach/orb"
)

// LatLng is a geographic coordinate in degrees
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point converts the coordinate to an orb point (lon, lat order)
func (p LatLng) Point() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// FromPoint converts an orb point back to a coordinate
func FromPoint(p orb.Point) LatLng {
	return LatLng{Lat: p.Lat(), Lng: p.Lon()}
}

// Bounds is an axis-aligned lat/lng rectangle.
// Longitude wrap-around at the antimeridian is not handled.
type Bounds struct {
	SouthWest LatLng `json:"sw"`
	NorthEast LatLng `json:"ne"`
}

// NewBounds creates a bounds from its southwest and northeast corners
func NewBounds(sw, ne LatLng) Bounds {
	return Bounds{SouthWest: sw, NorthEast: ne}
}

// Bound returns the orb representation of the rectangle
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{Min: b.SouthWest.Point(), Max: b.NorthEast.Point()}
}

// Contains reports whether p lies inside the rectangle, edges included
func (b Bounds) Contains(p LatLng) bool {
	return b.Bound().Contains(p.Point())
}

// ContainsBounds reports whether both corners of other lie inside b
func (b Bounds) ContainsBounds(other Bounds) bool {
	return b.Contains(other.NorthEast) && b.Contains(other.SouthWest)
}

// Center returns the midpoint of the rectangle
func (b Bounds) Center() LatLng {
	return FromPoint(b.Bound().Center())
}

// Valid reports whether the rectangle is well-formed and non-degenerate
func (b Bounds) Valid() bool {
	return b.NorthEast.Lat > b.SouthWest.Lat && b.NorthEast.Lng != b.SouthWest.Lng
}
