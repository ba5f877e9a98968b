// internal/service/mapmode/bindings.go

package mapmode

// Bindings records every handler one mode instance installed, so that
// releasing them is total. The controller creates a fresh Bindings for
// each mode it constructs.
type Bindings struct {
	surface  Listenable
	onMap    []ListenerID
	markers  map[Marker][]ListenerID
	released bool
}

func newBindings(surface Listenable) *Bindings {
	return &Bindings{
		surface: surface,
		markers: make(map[Marker][]ListenerID),
	}
}

// OnMap installs a handler on the map surface
func (b *Bindings) OnMap(event EventType, fn Handler) {
	if b.released {
		return
	}
	b.onMap = append(b.onMap, b.surface.AddListener(event, fn))
}

// OnMarker installs a handler on a marker
func (b *Bindings) OnMarker(m Marker, event EventType, fn Handler) {
	if b.released {
		return
	}
	b.markers[m] = append(b.markers[m], m.AddListener(event, fn))
}

// ReleaseMarker removes the handlers installed on m
func (b *Bindings) ReleaseMarker(m Marker) {
	for _, id := range b.markers[m] {
		m.RemoveListener(id)
	}
	delete(b.markers, m)
}

// ReleaseAll removes every handler and rejects further registrations.
// Calling it again is a no-op.
func (b *Bindings) ReleaseAll() {
	for _, id := range b.onMap {
		b.surface.RemoveListener(id)
	}
	b.onMap = nil

	for m := range b.markers {
		b.ReleaseMarker(m)
	}
	b.released = true
}

// Released reports whether ReleaseAll was called
func (b *Bindings) Released() bool {
	return b.released
}

// Count returns the number of live handlers
func (b *Bindings) Count() int {
	n := len(b.onMap)
	for _, ids := range b.markers {
		n += len(ids)
	}
	return n
}
