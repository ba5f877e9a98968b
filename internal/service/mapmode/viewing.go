// internal/service/mapmode/viewing.go

package mapmode

import (
	"fmt"

	"shopmap/internal/domain/shop"
)

const (
	msgSwitchToEditing = "Switch to editing mode"
	msgEditShop        = "Edit shop"
)

// Viewing presents shops read-only and offers the switch to editing
type Viewing struct {
	base
	content *ShowContent
}

func newViewing(e env) *Viewing {
	return &Viewing{base: base{env: e}}
}

func (v *Viewing) Kind() Kind {
	return KindViewing
}

func (v *Viewing) MapStyles() []StyleRule {
	return []StyleRule{
		{FeatureType: "poi", Visibility: "off"},
		{FeatureType: "transit", Visibility: "off"},
	}
}

func (v *Viewing) OnMapReady(payload *shop.Shop) {
	v.bindings.OnMap(EventRightClick, v.mapRightClick)

	if payload != nil {
		v.PresentEntity(*payload)
	}
}

func (v *Viewing) ComposeMarker(m Marker, s shop.Shop) {
	v.bindings.ReleaseMarker(m)
	v.bindings.OnMarker(m, EventClick, func(MapEvent) {
		v.overlays.Close()
		v.PresentEntity(s)
	})
	v.bindings.OnMarker(m, EventRightClick, func(MapEvent) {
		v.markerRightClick(s)
	})
}

func (v *Viewing) PresentEntity(s shop.Shop) {
	if v.content == nil {
		v.content = &ShowContent{}
	}
	v.content.SetShop(s)
	v.openPopup(v.content, s.Position())
}

// PresentCandidatePlace is not supported while viewing; only known shops
// can be shown
func (v *Viewing) PresentCandidatePlace(p Place) error {
	return fmt.Errorf("%s mode cannot present place %q: %w", v.Kind(), p.Name, shop.ErrUnsupportedOperation)
}

func (v *Viewing) markerRightClick(s shop.Shop) {
	target := s
	v.overlays.Show(msgEditShop, GeoAnchor(s.Position()), func() {
		v.overlays.Close()
		v.emit(SwitchRequested{Payload: &target})
	})
}

func (v *Viewing) mapRightClick(ev MapEvent) {
	v.overlays.Show(msgSwitchToEditing, EventAnchor(ev), func() {
		v.overlays.Close()
		v.emit(SwitchRequested{})
	})
}
