// internal/service/mapmode/controller.go

package mapmode

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"shopmap/internal/domain/shop"
)

// ErrNoActiveMode is returned by operations on a closed controller
var ErrNoActiveMode = errors.New("mapmode: no active mode")

// Icons picks a marker icon from the links a shop carries
type Icons struct {
	BaseURL string
}

// For returns the icon URL for s
func (i Icons) For(s shop.Shop) string {
	switch {
	case s.DonationURL != "" && s.URL != "":
		return i.BaseURL + "icon_store.png"
	case s.DonationURL != "":
		return i.BaseURL + "icon_donate.png"
	default:
		return i.BaseURL + "icon_shop.png"
	}
}

// Deps are the collaborators of a map session
type Deps struct {
	Surface    Surface
	Markers    MarkerSet
	Popup      PopupHost
	Overlays   OverlayHost
	Places     PlaceLookup
	Service    shop.Service
	Notifier   Notifier
	Geolocator Geolocator
	Visits     VisitLog
	Loop       *Loop
	Logger     *zap.Logger
}

// Controller holds the active mode and switches between modes
type Controller struct {
	deps     Deps
	known    KnownEntities
	overlays *OverlayManager
	icons    Icons
	log      *zap.Logger

	ctx      context.Context
	mode     Mode
	bindings *Bindings
}

// NewController creates a controller; Start installs the first mode
func NewController(deps Deps, known KnownEntities, overlays *OverlayManager, icons Icons) *Controller {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Controller{
		deps:     deps,
		known:    known,
		overlays: overlays,
		icons:    icons,
		log:      log,
	}
}

// Start enters Viewing and presents payload, if set
func (c *Controller) Start(ctx context.Context, payload *shop.Shop) {
	c.ctx = ctx
	c.install(KindViewing, payload)
}

// Mode returns the active mode
func (c *Controller) Mode() Mode {
	return c.mode
}

// HandlerCount returns the number of handlers the active mode installed
func (c *Controller) HandlerCount() int {
	if c.bindings == nil {
		return 0
	}
	return c.bindings.Count()
}

// SwitchMode toggles between Viewing and Editing. The popup is closed and
// the old mode disposed before the new one is built; every rendered marker
// is recomposed before SwitchMode returns.
func (c *Controller) SwitchMode(payload *shop.Shop) {
	next := KindEditing
	if c.mode != nil && c.mode.Kind() == KindEditing {
		next = KindViewing
	}

	c.deps.Popup.Close()
	c.overlays.Close()
	c.release()

	c.log.Debug("Switching map mode", zap.String("mode", string(next)))
	c.install(next, payload)
}

// SetMarkers replaces the rendered markers with one per shop
func (c *Controller) SetMarkers(items []shop.Shop) {
	for _, m := range c.deps.Markers.Markers() {
		c.bindings.ReleaseMarker(m)
	}
	c.deps.Markers.Clear()

	markers := make([]Marker, 0, len(items))
	for _, s := range items {
		markers = append(markers, c.newMarker(s))
	}
	c.deps.Markers.Add(markers...)
}

// AddEntity renders a marker for a shop that was not on the map yet.
// Known shops are updated instead.
func (c *Controller) AddEntity(s shop.Shop) {
	if _, ok := c.known.MatchKnown(s.Title, s.Lat, s.Lon); ok {
		c.UpdateEntity(s)
		return
	}

	c.known.Upsert(s)
	c.deps.Markers.Add(c.newMarker(s))
}

// UpdateEntity replaces the marker of a shop with the same identity
func (c *Controller) UpdateEntity(s shop.Shop) {
	c.known.Upsert(s)

	for _, m := range c.deps.Markers.Markers() {
		if m.Shop().SameIdentity(s) {
			c.bindings.ReleaseMarker(m)
			c.deps.Markers.Remove(m)
		}
	}
	c.deps.Markers.Add(c.newMarker(s))
}

// Present shows a shop in the active mode
func (c *Controller) Present(s shop.Shop) {
	if c.mode == nil {
		return
	}
	c.mode.PresentEntity(s)
}

// PresentPlace shows an external place in the active mode
func (c *Controller) PresentPlace(p Place) error {
	if c.mode == nil {
		return ErrNoActiveMode
	}
	return c.mode.PresentCandidatePlace(p)
}

// Submit sends the edit form of the active mode
func (c *Controller) Submit() error {
	if c.mode == nil {
		return ErrNoActiveMode
	}
	editing, ok := c.mode.(*Editing)
	if !ok {
		return fmt.Errorf("%s mode cannot submit: %w", c.mode.Kind(), shop.ErrUnsupportedOperation)
	}
	return editing.Submit()
}

// Close disposes the active mode
func (c *Controller) Close() {
	c.deps.Popup.Close()
	c.overlays.Close()
	c.release()
	c.mode = nil
}

func (c *Controller) install(kind Kind, payload *shop.Shop) {
	c.bindings = newBindings(c.deps.Surface)

	e := env{
		ctx:      c.ctx,
		surface:  c.deps.Surface,
		popup:    c.deps.Popup,
		overlays: c.overlays,
		bindings: c.bindings,
		loop:     c.deps.Loop,
		known:    c.known,
		places:   c.deps.Places,
		service:  c.deps.Service,
		notifier: c.deps.Notifier,
		emit:     c.emit,
		log:      c.log.With(zap.String("mode", string(kind))),
	}

	switch kind {
	case KindEditing:
		c.mode = newEditing(e)
	default:
		c.mode = newViewing(e)
	}

	c.deps.Surface.SetStyles(c.mode.MapStyles())
	c.mode.OnMapReady(payload)

	for _, m := range c.deps.Markers.Markers() {
		c.mode.ComposeMarker(m, m.Shop())
	}
}

func (c *Controller) release() {
	if c.mode != nil {
		c.mode.Dispose()
	}
	if c.bindings != nil {
		c.bindings.ReleaseAll()
	}
}

func (c *Controller) newMarker(s shop.Shop) Marker {
	m := c.deps.Surface.NewMarker(s, c.icons.For(s))
	if c.mode != nil {
		c.mode.ComposeMarker(m, s)
	}
	return m
}

// emit queues ev for handling after the current callback returns
func (c *Controller) emit(ev Event) {
	c.deps.Loop.Post(func() { c.handle(ev) })
}

func (c *Controller) handle(ev Event) {
	if c.mode == nil {
		return
	}

	switch ev := ev.(type) {
	case EntityAdded:
		c.AddEntity(ev.Shop)
	case EntityUpdated:
		c.UpdateEntity(ev.Shop)
	case PopupClosed:
		c.deps.Popup.Close()
	case SwitchRequested:
		c.SwitchMode(ev.Payload)
	}
}
