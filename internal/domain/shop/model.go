// internal/domain/shop/model.go

package shop

import (
	"time"

	"shopmap/internal/domain/geo"
)

// Shop represents a community shop location shown on the map
type Shop struct {
	Title       string  `json:"title"`
	URL         string  `json:"url,omitempty"`
	DonationURL string  `json:"donationUrl,omitempty"`
	Descr       string  `json:"descr"`
	Lon         float64 `json:"lon"`
	Lat         float64 `json:"lat"`
}

// Position returns the shop's coordinate
func (s Shop) Position() geo.LatLng {
	return geo.LatLng{Lat: s.Lat, Lng: s.Lon}
}

// Matches reports whether the shop has exactly this title and coordinate.
// Title and coordinate together form a shop's identity.
func (s Shop) Matches(title string, lat, lng float64) bool {
	return s.Title == title && s.Lat == lat && s.Lon == lng
}

// SameIdentity reports whether two shops refer to the same entity
func (s Shop) SameIdentity(other Shop) bool {
	return s.Matches(other.Title, other.Lat, other.Lon)
}

// Query scopes a read of shops around a center point
type Query struct {
	Center geo.LatLng
	RangeM int
	Term   string
}

// ListResponse is the wire shape of a shop listing
type ListResponse struct {
	Items []Shop `json:"items"`
}

// ErrorResponse is the wire shape of a failed request
type ErrorResponse struct {
	Msg string `json:"msg"`
}

// EventType identifies what happened to a shop
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
)

// Event is published whenever a shop is created or updated
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`
	Shop Shop      `json:"shop"`
	Time time.Time `json:"time"`
}
