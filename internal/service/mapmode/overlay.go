// internal/service/mapmode/overlay.go

package mapmode

import "shopmap/internal/domain/geo"

// pixelOffsetY moves pixel-anchored overlays below the surrounding chrome
const pixelOffsetY = 54

// Anchor positions an overlay either at a coordinate or at a screen pixel
type Anchor struct {
	latLng *geo.LatLng
	pixel  *Pixel
}

// GeoAnchor anchors at a coordinate, projected when the overlay is drawn
func GeoAnchor(p geo.LatLng) Anchor {
	return Anchor{latLng: &p}
}

// PixelAnchor anchors at a literal container pixel
func PixelAnchor(p Pixel) Anchor {
	return Anchor{pixel: &p}
}

// EventAnchor anchors at the gesture's pixel when the surface reported
// one, and at its coordinate otherwise
func EventAnchor(ev MapEvent) Anchor {
	if ev.Pixel != nil {
		return PixelAnchor(*ev.Pixel)
	}
	return GeoAnchor(ev.LatLng)
}

// LatLng returns the geographic anchor, if any
func (a Anchor) LatLng() (geo.LatLng, bool) {
	if a.latLng == nil {
		return geo.LatLng{}, false
	}
	return *a.latLng, true
}

// Overlay is a small confirm prompt shown next to a gesture
type Overlay struct {
	Message string

	anchor    Anchor
	onConfirm func()
	closed    bool
}

// Anchor returns where the overlay is placed
func (o *Overlay) Anchor() Anchor {
	return o.anchor
}

// Position returns the container pixel of the overlay's top left corner
func (o *Overlay) Position(p Projector) Pixel {
	if o.anchor.pixel != nil {
		px := *o.anchor.pixel
		px.Y += pixelOffsetY
		return px
	}
	return p.Project(*o.anchor.latLng)
}

// Confirm runs the confirm callback unless the overlay was closed
func (o *Overlay) Confirm() {
	if o.closed || o.onConfirm == nil {
		return
	}
	o.onConfirm()
}

// Closed reports whether the overlay was torn down
func (o *Overlay) Closed() bool {
	return o.closed
}

// OverlayManager owns the at-most-one live overlay
type OverlayManager struct {
	host   OverlayHost
	active *Overlay
}

// NewOverlayManager creates a new overlay manager
func NewOverlayManager(host OverlayHost) *OverlayManager {
	return &OverlayManager{host: host}
}

// Show replaces any live overlay with a new one
func (m *OverlayManager) Show(message string, anchor Anchor, onConfirm func()) *Overlay {
	m.Close()

	o := &Overlay{
		Message:   message,
		anchor:    anchor,
		onConfirm: onConfirm,
	}
	m.active = o
	m.host.Mount(o)

	return o
}

// Close tears down the live overlay, if any
func (m *OverlayManager) Close() {
	if m.active == nil {
		return
	}
	m.active.closed = true
	m.host.Unmount(m.active)
	m.active = nil
}

// Active returns the live overlay
func (m *OverlayManager) Active() (*Overlay, bool) {
	return m.active, m.active != nil
}
