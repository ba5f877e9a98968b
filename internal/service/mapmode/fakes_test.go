package mapmode

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"shopmap/internal/domain/geo"
	"shopmap/internal/domain/shop"
	geosvc "shopmap/internal/service/geo"
	"shopmap/internal/service/viewport"
)

type listener struct {
	event EventType
	fn    Handler
}

type listeners struct {
	next ListenerID
	m    map[ListenerID]listener
}

func (l *listeners) AddListener(event EventType, fn Handler) ListenerID {
	if l.m == nil {
		l.m = make(map[ListenerID]listener)
	}
	l.next++
	l.m[l.next] = listener{event: event, fn: fn}
	return l.next
}

func (l *listeners) RemoveListener(id ListenerID) {
	delete(l.m, id)
}

func (l *listeners) fire(event EventType, ev MapEvent) {
	ids := make([]ListenerID, 0, len(l.m))
	for id, ln := range l.m {
		if ln.event == event {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if ln, ok := l.m[id]; ok {
			ln.fn(ev)
		}
	}
}

func (l *listeners) count(event EventType) int {
	n := 0
	for _, ln := range l.m {
		if ln.event == event {
			n++
		}
	}
	return n
}

func (l *listeners) total() int {
	return len(l.m)
}

type fakeSurface struct {
	listeners

	center   geo.LatLng
	zoom     int
	bounds   *geo.Bounds
	styles   []StyleRule
	pannedTo []geo.LatLng
}

func (s *fakeSurface) SetView(center geo.LatLng, zoom int) {
	s.center = center
	s.zoom = zoom
}

func (s *fakeSurface) SetStyles(rules []StyleRule) { s.styles = rules }
func (s *fakeSurface) Center() geo.LatLng          { return s.center }
func (s *fakeSurface) Zoom() int                   { return s.zoom }
func (s *fakeSurface) SetZoom(zoom int)            { s.zoom = zoom }

func (s *fakeSurface) Bounds() (geo.Bounds, bool) {
	if s.bounds == nil {
		return geo.Bounds{}, false
	}
	return *s.bounds, true
}

func (s *fakeSurface) setBounds(b geo.Bounds) {
	s.bounds = &b
	s.center = b.Center()
}

func (s *fakeSurface) PanTo(p geo.LatLng) {
	s.center = p
	s.pannedTo = append(s.pannedTo, p)
}

func (s *fakeSurface) Project(p geo.LatLng) Pixel {
	return Pixel{X: p.Lng * 10, Y: p.Lat * 10}
}

func (s *fakeSurface) NewMarker(item shop.Shop, icon string) Marker {
	return &fakeMarker{shop: item, icon: icon}
}

// handlerTotal counts the handlers on the surface and on every marker
func (s *fakeSurface) handlerTotal(set *fakeMarkerSet) int {
	n := s.total()
	for _, m := range set.markers {
		n += m.(*fakeMarker).total()
	}
	return n
}

type fakeMarker struct {
	listeners
	shop shop.Shop
	icon string
}

func (m *fakeMarker) Shop() shop.Shop { return m.shop }

type fakeMarkerSet struct {
	markers []Marker
}

func (s *fakeMarkerSet) Add(markers ...Marker) {
	s.markers = append(s.markers, markers...)
}

func (s *fakeMarkerSet) Remove(m Marker) {
	out := s.markers[:0]
	for _, existing := range s.markers {
		if existing != m {
			out = append(out, existing)
		}
	}
	s.markers = out
}

func (s *fakeMarkerSet) Clear() { s.markers = nil }

func (s *fakeMarkerSet) Markers() []Marker {
	out := make([]Marker, len(s.markers))
	copy(out, s.markers)
	return out
}

func (s *fakeMarkerSet) titles() []string {
	out := make([]string, 0, len(s.markers))
	for _, m := range s.markers {
		out = append(out, m.Shop().Title)
	}
	return out
}

type fakePopup struct {
	open      Fragment
	at        geo.LatLng
	opened    int
	closed    int
	unmounted []Fragment
}

func (p *fakePopup) Open(f Fragment, at geo.LatLng) {
	p.open = f
	p.at = at
	p.opened++
}

func (p *fakePopup) Close() {
	p.open = nil
	p.closed++
}

func (p *fakePopup) Unmount(f Fragment) {
	p.unmounted = append(p.unmounted, f)
}

type fakeOverlayHost struct {
	mounted   []*Overlay
	unmounted int
}

func (h *fakeOverlayHost) Mount(o *Overlay) {
	h.mounted = append(h.mounted, o)
}

func (h *fakeOverlayHost) Unmount(o *Overlay) {
	out := h.mounted[:0]
	for _, m := range h.mounted {
		if m != o {
			out = append(out, m)
		}
	}
	h.mounted = out
	h.unmounted++
}

type fakePlaces struct {
	places  map[string]Place
	release chan struct{}
}

func (p *fakePlaces) Lookup(ctx context.Context, placeID string) (Place, error) {
	if p.release != nil {
		<-p.release
	}
	place, ok := p.places[placeID]
	if !ok {
		return Place{}, ErrPlaceNotFound
	}
	return place, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *fakeNotifier) Notify(message string, d time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *fakeNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	copy(out, n.messages)
	return out
}

type fakeGeolocator struct {
	pos geo.LatLng
	err error
}

func (g *fakeGeolocator) Locate(ctx context.Context) (geo.LatLng, error) {
	return g.pos, g.err
}

type fakeShopService struct {
	mu      sync.Mutex
	items   []shop.Shop
	err     error
	queries []shop.Query
	created []shop.Shop
	updated []shop.Shop
}

func (f *fakeShopService) Find(ctx context.Context, q shop.Query) ([]shop.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]shop.Shop, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeShopService) Create(ctx context.Context, s shop.Shop) (*shop.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, s)
	return &s, nil
}

func (f *fakeShopService) Update(ctx context.Context, s shop.Shop) (*shop.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.updated = append(f.updated, s)
	return &s, nil
}

func (f *fakeShopService) setItems(items []shop.Shop) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = items
}

func (f *fakeShopService) queryLog() []shop.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]shop.Query, len(f.queries))
	copy(out, f.queries)
	return out
}

type harness struct {
	surface  *fakeSurface
	markers  *fakeMarkerSet
	popup    *fakePopup
	overlays *fakeOverlayHost
	places   *fakePlaces
	service  *fakeShopService
	notifier *fakeNotifier
	loop     *Loop
	cache    *viewport.Cache
}

const testDefaultRange = 1000

func newHarness() *harness {
	h := &harness{
		surface:  &fakeSurface{zoom: 14},
		markers:  &fakeMarkerSet{},
		popup:    &fakePopup{},
		overlays: &fakeOverlayHost{},
		places:   &fakePlaces{places: map[string]Place{}},
		service:  &fakeShopService{},
		notifier: &fakeNotifier{},
		loop:     NewLoop(),
	}
	h.cache = viewport.NewCache(h.service, geosvc.NewSpherical(), viewport.Config{DefaultRangeM: testDefaultRange})
	return h
}

func (h *harness) deps() Deps {
	return Deps{
		Surface:  h.surface,
		Markers:  h.markers,
		Popup:    h.popup,
		Overlays: h.overlays,
		Places:   h.places,
		Service:  h.service,
		Notifier: h.notifier,
		Loop:     h.loop,
		Logger:   zap.NewNop(),
	}
}

// controller starts a controller in Viewing
func (h *harness) controller() (*Controller, *OverlayManager) {
	overlays := NewOverlayManager(h.overlays)
	c := NewController(h.deps(), h.cache, overlays, Icons{BaseURL: "/assets/"})
	c.Start(context.Background(), nil)
	return c, overlays
}

func (h *harness) marker(title string) *fakeMarker {
	for _, m := range h.markers.markers {
		if m.Shop().Title == title {
			return m.(*fakeMarker)
		}
	}
	return nil
}

var (
	bioladen = shop.Shop{Title: "Bioladen", URL: "http://bioladen.example", Lat: 49.45, Lon: 11.07}
	kiosk    = shop.Shop{Title: "Kiosk", DonationURL: "http://kiosk.example/donate", Lat: 49.46, Lon: 11.08}
	werkraum = shop.Shop{Title: "Werkraum", Lat: 49.47, Lon: 11.09}
)

type fakeVisitLog struct {
	visited bool
	marks   int
}

func (v *fakeVisitLog) Visited() bool { return v.visited }

func (v *fakeVisitLog) MarkVisited() {
	v.visited = true
	v.marks++
}
