// internal/service/mapmode/mode.go

package mapmode

import (
	"context"

	"go.uber.org/zap"

	"shopmap/internal/domain/geo"
	"shopmap/internal/domain/shop"
)

// Kind identifies a mode
type Kind string

const (
	KindViewing Kind = "viewing"
	KindEditing Kind = "editing"
)

// StyleRule toggles a class of map features
type StyleRule struct {
	FeatureType string
	Visibility  string
}

// Mode is one interaction behavior of the map. Exactly one mode is active
// at a time; the controller disposes it before constructing the next.
type Mode interface {
	Kind() Kind

	// MapStyles returns the feature filter applied on entry
	MapStyles() []StyleRule

	// OnMapReady installs the map-level handlers and presents payload,
	// if set
	OnMapReady(payload *shop.Shop)

	// ComposeMarker installs the marker handlers, replacing any this mode
	// installed on m before
	ComposeMarker(m Marker, s shop.Shop)

	PresentEntity(s shop.Shop)
	PresentCandidatePlace(p Place) error

	// Dispose removes every handler and the popup fragment. Safe to call
	// more than once.
	Dispose()
}

// KnownEntities is the subset of the viewport cache modes rely on
type KnownEntities interface {
	MatchKnown(name string, lat, lng float64) (shop.Shop, bool)
	Upsert(s shop.Shop)
}

// env is what the controller hands to a mode it constructs
type env struct {
	ctx      context.Context
	surface  Surface
	popup    PopupHost
	overlays *OverlayManager
	bindings *Bindings
	loop     *Loop
	known    KnownEntities
	places   PlaceLookup
	service  shop.Service
	notifier Notifier
	emit     func(Event)
	log      *zap.Logger
}

// base holds behavior shared by all modes
type base struct {
	env
	fragment Fragment
	disposed bool
}

// alive reports whether the mode is still the active one
func (b *base) alive() bool {
	return !b.disposed
}

func (b *base) openPopup(f Fragment, at geo.LatLng) {
	b.fragment = f
	b.popup.Open(f, at)
}

func (b *base) Dispose() {
	if b.disposed {
		return
	}
	b.disposed = true

	b.bindings.ReleaseAll()
	if b.fragment != nil {
		b.popup.Unmount(b.fragment)
		b.fragment = nil
	}
}
