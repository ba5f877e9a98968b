// internal/service/mapmode/editing.go

package mapmode

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"shopmap/internal/domain/shop"
)

const (
	msgAddShop      = "Add shop"
	msgAddShopHint  = "To add a shop, click an entry on the map."
	msgShopCreated  = "Your shop was added. Thank you!"
	msgShopUpdated  = "Your shop was updated. Thank you!"
	msgSubmitFailed = "Something went wrong: "

	// minAddZoom is the zoom at which external place entries are clickable
	minAddZoom = 16
)

const (
	hintDuration    = 6 * time.Second
	successDuration = 2 * time.Second
	failureDuration = 8 * time.Second
)

// Editing lets the user add places as shops and amend existing shops
type Editing struct {
	base
	form *EditForm
}

func newEditing(e env) *Editing {
	return &Editing{base: base{env: e}}
}

func (e *Editing) Kind() Kind {
	return KindEditing
}

func (e *Editing) MapStyles() []StyleRule {
	return []StyleRule{
		{FeatureType: "transit", Visibility: "off"},
		{FeatureType: "poi", Visibility: "on"},
	}
}

func (e *Editing) OnMapReady(payload *shop.Shop) {
	e.bindings.OnMap(EventClick, e.placeClick)
	e.bindings.OnMap(EventRightClick, e.mapRightClick)

	if payload != nil {
		e.PresentEntity(*payload)
	}
}

func (e *Editing) ComposeMarker(m Marker, s shop.Shop) {
	e.bindings.ReleaseMarker(m)
	present := func(MapEvent) { e.PresentEntity(s) }
	e.bindings.OnMarker(m, EventClick, present)
	e.bindings.OnMarker(m, EventRightClick, present)
}

func (e *Editing) PresentEntity(s shop.Shop) {
	e.ensureForm()
	e.form.SetShop(s)
	e.openPopup(e.form, s.Position())
}

// PresentCandidatePlace opens the form for p, or for the known shop at the
// same title and position
func (e *Editing) PresentCandidatePlace(p Place) error {
	if known, ok := e.known.MatchKnown(p.Name, p.Location.Lat, p.Location.Lng); ok {
		e.PresentEntity(known)
		return nil
	}

	e.ensureForm()
	e.form.SetPlace(p)
	e.openPopup(e.form, p.Location)
	return nil
}

// Form returns the edit form, nil before anything was presented
func (e *Editing) Form() *EditForm {
	return e.form
}

// Submit validates the form and sends it in the background. Validation
// errors are returned and nothing is sent; the outcome of the request is
// reported through the notifier.
func (e *Editing) Submit() error {
	if e.form == nil {
		return &shop.ValidationError{Field: "target", Reason: "no shop or place selected"}
	}

	s, update, err := e.form.Request()
	if err != nil {
		return err
	}

	e.loop.Go(e.ctx, func(ctx context.Context) func() {
		var saved *shop.Shop
		var err error
		if update {
			saved, err = e.service.Update(ctx, s)
		} else {
			saved, err = e.service.Create(ctx, s)
		}

		return func() {
			if !e.alive() {
				e.log.Debug("Dropping submit result of disposed mode", zap.String("title", s.Title))
				return
			}
			e.submitted(saved, update, err)
		}
	})

	return nil
}

// Abort closes the popup without saving
func (e *Editing) Abort() {
	e.emit(PopupClosed{})
}

func (e *Editing) submitted(saved *shop.Shop, update bool, err error) {
	if err != nil {
		e.log.Warn("Failed to save shop", zap.Bool("update", update), zap.Error(err))
		e.notifier.Notify(msgSubmitFailed+err.Error(), failureDuration)
		return
	}

	if update {
		e.emit(EntityUpdated{Shop: *saved})
		e.notifier.Notify(msgShopUpdated, successDuration)
	} else {
		e.emit(EntityAdded{Shop: *saved})
		e.notifier.Notify(msgShopCreated, successDuration)
	}
	e.form.Reset()
	e.emit(PopupClosed{})
}

func (e *Editing) placeClick(ev MapEvent) {
	if ev.PlaceID == "" {
		return
	}
	placeID := ev.PlaceID

	e.loop.Go(e.ctx, func(ctx context.Context) func() {
		place, err := e.places.Lookup(ctx, placeID)

		return func() {
			if !e.alive() {
				return
			}
			if err != nil {
				if !errors.Is(err, ErrPlaceNotFound) {
					e.log.Warn("Place lookup failed", zap.String("place_id", placeID), zap.Error(err))
				}
				return
			}
			// Editing supports every candidate
			_ = e.PresentCandidatePlace(place)
		}
	})
}

func (e *Editing) mapRightClick(ev MapEvent) {
	at := ev.LatLng
	e.overlays.Show(msgAddShop, EventAnchor(ev), func() {
		e.overlays.Close()

		zoom := e.surface.Zoom()
		if zoom < minAddZoom {
			zoom = minAddZoom
		}
		e.surface.SetZoom(zoom)
		e.surface.PanTo(at)
		e.notifier.Notify(msgAddShopHint, hintDuration)
	})
}

func (e *Editing) ensureForm() {
	if e.form == nil {
		e.form = &EditForm{}
	}
}
