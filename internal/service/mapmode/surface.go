// internal/service/mapmode/surface.go

package mapmode

import (
	"context"
	"errors"
	"time"

	"shopmap/internal/domain/geo"
	"shopmap/internal/domain/shop"
)

// EventType names a gesture or lifecycle event raised by the map surface
// or a marker
type EventType string

const (
	EventClick      EventType = "click"
	EventRightClick EventType = "rightclick"
	EventIdle       EventType = "idle"
	EventDragStart  EventType = "dragstart"
)

// Pixel is a position in container pixels
type Pixel struct {
	X float64
	Y float64
}

// MapEvent carries the payload of a surface or marker event
type MapEvent struct {
	LatLng geo.LatLng

	// Pixel is set when the surface reports the gesture's screen position
	Pixel *Pixel

	// PlaceID is set when the gesture hit an external place entry
	PlaceID string
}

// Handler reacts to a map or marker event
type Handler func(MapEvent)

// ListenerID identifies a registered handler
type ListenerID uint64

// Listenable is anything handlers can be attached to
type Listenable interface {
	AddListener(event EventType, fn Handler) ListenerID
	RemoveListener(id ListenerID)
}

// Projector converts a coordinate to a container pixel
type Projector interface {
	Project(p geo.LatLng) Pixel
}

// Surface is the rendering map. It is provided by the host application.
type Surface interface {
	Listenable
	Projector

	SetView(center geo.LatLng, zoom int)
	SetStyles(rules []StyleRule)

	Center() geo.LatLng
	// Bounds returns the visible rectangle; false before the first render
	Bounds() (geo.Bounds, bool)

	Zoom() int
	SetZoom(zoom int)
	PanTo(p geo.LatLng)

	NewMarker(s shop.Shop, icon string) Marker
}

// Marker is a rendered shop pin. Implementations must be comparable.
type Marker interface {
	Listenable
	Shop() shop.Shop
}

// MarkerSet is the clusterer holding the rendered markers
type MarkerSet interface {
	Add(markers ...Marker)
	Remove(m Marker)
	Clear()
	Markers() []Marker
}

// Fragment is content mounted into the detail popup
type Fragment interface {
	Title() string
}

// PopupHost is the single shared detail popup
type PopupHost interface {
	Open(f Fragment, at geo.LatLng)
	Close()
	// Unmount destroys a fragment previously passed to Open
	Unmount(f Fragment)
}

// OverlayHost renders transient overlays
type OverlayHost interface {
	Mount(o *Overlay)
	Unmount(o *Overlay)
}

// ErrPlaceNotFound is returned by a PlaceLookup for an unknown place id
var ErrPlaceNotFound = errors.New("place not found")

// Place is an external map entry that is not necessarily a known shop
type Place struct {
	PlaceID  string
	Name     string
	Location geo.LatLng
}

// PlaceLookup resolves external place identifiers
type PlaceLookup interface {
	Lookup(ctx context.Context, placeID string) (Place, error)
}

// Notifier shows a transient, dismissable message to the user
type Notifier interface {
	Notify(message string, d time.Duration)
}

// Geolocator reports the device position
type Geolocator interface {
	Locate(ctx context.Context) (geo.LatLng, error)
}

// VisitLog remembers whether the map was opened on this device before
type VisitLog interface {
	Visited() bool
	MarkVisited()
}
