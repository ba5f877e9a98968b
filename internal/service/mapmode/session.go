// internal/service/mapmode/session.go

package mapmode

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"shopmap/internal/config"
	"shopmap/internal/domain/geo"
	"shopmap/internal/domain/shop"
	"shopmap/internal/metrics"
	"shopmap/internal/service/viewport"
)

const (
	msgFetchFailed   = "Could not load shops: "
	fetchFailureTime = 8 * time.Second
)

// MapState is carried across a page navigation to restore the view and
// optionally present a shop right away
type MapState struct {
	Lat     float64    `json:"lat"`
	Lng     float64    `json:"lng"`
	Zoom    int        `json:"zoom"`
	Payload *shop.Shop `json:"payload,omitempty"`

	// ShowIntro asks for the introduction even on a repeat visit
	ShowIntro bool `json:"showIntro,omitempty"`
}

// SessionConfig contains configuration for a map session
type SessionConfig struct {
	// DefaultCenter is used when the device position is unknown
	DefaultCenter geo.LatLng
	DefaultZoom   int
	FallbackZoom  int
	Icons         Icons
}

// SessionConfigFrom maps the map section of the application config
func SessionConfigFrom(cfg config.MapConfig) SessionConfig {
	return SessionConfig{
		DefaultCenter: geo.LatLng{Lat: cfg.DefaultLat, Lng: cfg.DefaultLng},
		DefaultZoom:   cfg.DefaultZoom,
		FallbackZoom:  cfg.FallbackZoom,
		Icons:         Icons{BaseURL: cfg.AssetsURL},
	}
}

// Session is the state of one map page: the viewport cache, the mode
// controller and the overlay slot, plus the listeners wiring them to the
// surface. Everything except Start, Search and Follow runs on the loop.
type Session struct {
	config     SessionConfig
	deps       Deps
	cache      *viewport.Cache
	overlays   *OverlayManager
	controller *Controller
	log        *zap.Logger

	ctx       context.Context
	listeners []ListenerID
	showIntro bool
	closed    bool
}

// NewSession creates a new session over an empty cache
func NewSession(deps Deps, cache *viewport.Cache, config SessionConfig) *Session {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if config.DefaultZoom == 0 {
		config.DefaultZoom = 14
	}
	if config.FallbackZoom == 0 {
		config.FallbackZoom = 7
	}

	overlays := NewOverlayManager(deps.Overlays)

	return &Session{
		config:     config,
		deps:       deps,
		cache:      cache,
		overlays:   overlays,
		controller: NewController(deps, cache, overlays, config.Icons),
		log:        deps.Logger,
	}
}

// Controller returns the mode controller
func (s *Session) Controller() *Controller {
	return s.controller
}

// Overlays returns the overlay manager
func (s *Session) Overlays() *OverlayManager {
	return s.overlays
}

// Start positions the map, installs the session listeners, starts the first
// fetch and enters Viewing. state is consumed once and may be nil.
func (s *Session) Start(ctx context.Context, state *MapState) {
	s.ctx = ctx
	s.showIntro = s.introDue(state)

	center, zoom := s.initialView(ctx, state)
	s.deps.Surface.SetView(center, zoom)

	closeOverlay := func(MapEvent) { s.overlays.Close() }
	s.listeners = append(s.listeners,
		s.deps.Surface.AddListener(EventDragStart, closeOverlay),
		s.deps.Surface.AddListener(EventClick, closeOverlay),
		s.deps.Surface.AddListener(EventIdle, s.onIdle),
	)

	var payload *shop.Shop
	if state != nil {
		payload = state.Payload
	}
	s.controller.Start(ctx, payload)

	s.fetch()
}

// ShowIntro reports whether the host should show the introduction: on the
// first visit of this device, or when the navigation state asks for it
func (s *Session) ShowIntro() bool {
	return s.showIntro
}

// introDue reads and records the visit flag
func (s *Session) introDue(state *MapState) bool {
	requested := state != nil && state.ShowIntro
	if s.deps.Visits == nil {
		return requested
	}

	first := !s.deps.Visits.Visited()
	if first {
		s.deps.Visits.MarkVisited()
	}
	return first || requested
}

func (s *Session) initialView(ctx context.Context, state *MapState) (geo.LatLng, int) {
	if state != nil {
		zoom := state.Zoom
		if zoom == 0 {
			zoom = s.config.DefaultZoom
		}
		return geo.LatLng{Lat: state.Lat, Lng: state.Lng}, zoom
	}

	if s.deps.Geolocator == nil {
		return s.config.DefaultCenter, s.config.FallbackZoom
	}

	pos, err := s.deps.Geolocator.Locate(ctx)
	if err != nil {
		s.log.Debug("Geolocation unavailable, using default view", zap.Error(err))
		return s.config.DefaultCenter, s.config.FallbackZoom
	}
	return pos, s.config.DefaultZoom
}

func (s *Session) onIdle(MapEvent) {
	bounds, ok := s.deps.Surface.Bounds()
	if !ok {
		return
	}

	s.cache.RecordViewport(bounds)
	if !s.cache.ShouldRefetch(bounds) {
		metrics.ViewportRefetchChecks.WithLabelValues("cached").Inc()
		return
	}

	metrics.ViewportRefetchChecks.WithLabelValues("refetch").Inc()
	s.fetch()
}

func (s *Session) fetch() {
	center := s.deps.Surface.Center()
	var bounds *geo.Bounds
	if b, ok := s.deps.Surface.Bounds(); ok {
		bounds = &b
	}

	s.deps.Loop.Go(s.ctx, func(ctx context.Context) func() {
		items, err := s.cache.Fetch(ctx, center, bounds)

		return func() {
			if s.closed {
				return
			}
			switch {
			case errors.Is(err, viewport.ErrSuperseded):
				s.log.Debug("Discarding superseded shop fetch")
			case err != nil:
				s.log.Warn("Failed to fetch shops", zap.Error(err))
				s.deps.Notifier.Notify(msgFetchFailed+err.Error(), fetchFailureTime)
			default:
				s.controller.SetMarkers(items)
			}
		}
	})
}

// Search looks up shops by keyword around the current viewport. It blocks
// on the network and may be called off the loop.
func (s *Session) Search(ctx context.Context, term string) ([]shop.Shop, error) {
	return s.cache.Search(ctx, term)
}

// Present centers the map on a shop and shows it in the active mode
func (s *Session) Present(item shop.Shop) {
	s.overlays.Close()
	s.deps.Surface.PanTo(item.Position())
	s.controller.Present(item)
}

// Navigate captures the current view for the next page
func (s *Session) Navigate(payload *shop.Shop) MapState {
	center := s.deps.Surface.Center()
	return MapState{
		Lat:     center.Lat,
		Lng:     center.Lng,
		Zoom:    s.deps.Surface.Zoom(),
		Payload: payload,
	}
}

// Follow applies live shop events until events is closed or ctx is done.
// It blocks; run it on its own goroutine.
func (s *Session) Follow(ctx context.Context, events <-chan shop.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.deps.Loop.Post(func() { s.apply(ev) })
		}
	}
}

func (s *Session) apply(ev shop.Event) {
	if s.closed {
		return
	}

	switch ev.Type {
	case shop.EventCreated:
		s.controller.AddEntity(ev.Shop)
	case shop.EventUpdated:
		s.controller.UpdateEntity(ev.Shop)
	default:
		s.log.Debug("Ignoring shop event", zap.String("type", string(ev.Type)))
	}
}

// Teardown disposes the mode, closes the overlay, removes the session
// listeners and clears the cache. Pending fetches are ignored when they
// complete.
func (s *Session) Teardown() {
	if s.closed {
		return
	}
	s.closed = true

	s.controller.Close()
	s.overlays.Close()

	for _, id := range s.listeners {
		s.deps.Surface.RemoveListener(id)
	}
	s.listeners = nil

	s.cache.Reset()
}
