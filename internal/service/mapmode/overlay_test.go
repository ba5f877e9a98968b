package mapmode

import (
	"testing"

	"shopmap/internal/domain/geo"
)

func TestOverlayShowTwiceKeepsOne(t *testing.T) {
	t.Parallel()

	host := &fakeOverlayHost{}
	m := NewOverlayManager(host)

	confirmed := ""
	first := m.Show("first", GeoAnchor(geo.LatLng{Lat: 1, Lng: 1}), func() { confirmed = "first" })
	second := m.Show("second", PixelAnchor(Pixel{X: 5, Y: 5}), func() { confirmed = "second" })

	if len(host.mounted) != 1 || host.mounted[0] != second {
		t.Fatalf("mounted=%v want only the second overlay", host.mounted)
	}
	if active, ok := m.Active(); !ok || active != second || active.Message != "second" {
		t.Fatalf("active=%+v", active)
	}
	if !first.Closed() {
		t.Fatal("first overlay not closed")
	}

	first.Confirm()
	if confirmed != "" {
		t.Fatal("closed overlay ran its callback")
	}
	second.Confirm()
	if confirmed != "second" {
		t.Fatalf("confirmed=%q", confirmed)
	}
}

func TestOverlayClose(t *testing.T) {
	t.Parallel()

	host := &fakeOverlayHost{}
	m := NewOverlayManager(host)

	m.Close()
	if host.unmounted != 0 {
		t.Fatal("closing nothing unmounted")
	}

	m.Show("x", GeoAnchor(geo.LatLng{}), nil)
	m.Close()
	m.Close()

	if host.unmounted != 1 || len(host.mounted) != 0 {
		t.Fatalf("unmounted=%d mounted=%d", host.unmounted, len(host.mounted))
	}
	if _, ok := m.Active(); ok {
		t.Fatal("overlay still active")
	}
}

func TestOverlayPosition(t *testing.T) {
	t.Parallel()

	surface := &fakeSurface{}
	at := geo.LatLng{Lat: 49.5, Lng: 11.1}

	tests := []struct {
		name   string
		anchor Anchor
		want   Pixel
	}{
		{name: "geo", anchor: GeoAnchor(at), want: surface.Project(at)},
		{name: "pixel", anchor: PixelAnchor(Pixel{X: 3, Y: 4}), want: Pixel{X: 3, Y: 4 + pixelOffsetY}},
		{name: "event with pixel", anchor: EventAnchor(MapEvent{LatLng: at, Pixel: &Pixel{X: 7, Y: 8}}), want: Pixel{X: 7, Y: 8 + pixelOffsetY}},
		{name: "event without pixel", anchor: EventAnchor(MapEvent{LatLng: at}), want: surface.Project(at)},
	}

	for _, tt := range tests {
		o := &Overlay{anchor: tt.anchor}
		if got := o.Position(surface); got != tt.want {
			t.Fatalf("%s: Position()=%+v want %+v", tt.name, got, tt.want)
		}
		// drawing twice must not shift the overlay again
		if got := o.Position(surface); got != tt.want {
			t.Fatalf("%s: second Position()=%+v want %+v", tt.name, got, tt.want)
		}
	}
}
