package shop

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"shopmap/internal/domain/geo"
	"shopmap/internal/domain/shop"
)

type fakeStore struct {
	mu       sync.Mutex
	shops    []shop.Shop
	searched []string
	ranges   []int
	fail     error
}

func (f *fakeStore) FindInRange(ctx context.Context, center geo.LatLng, rangeM int) ([]shop.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ranges = append(f.ranges, rangeM)
	if f.fail != nil {
		return nil, f.fail
	}
	return append([]shop.Shop(nil), f.shops...), nil
}

func (f *fakeStore) SearchInRange(ctx context.Context, term string, center geo.LatLng, rangeM int) ([]shop.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searched = append(f.searched, term)
	f.ranges = append(f.ranges, rangeM)
	var out []shop.Shop
	for _, s := range f.shops {
		if strings.Contains(strings.ToLower(s.Title), strings.ToLower(term)) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) Insert(ctx context.Context, s shop.Shop) (*shop.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	f.shops = append(f.shops, s)
	return &s, nil
}

func (f *fakeStore) Update(ctx context.Context, s shop.Shop) (*shop.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.shops {
		if existing.SameIdentity(s) {
			f.shops[i] = s
			return &s, nil
		}
	}
	return nil, shop.ErrNotFound
}

type fakeCache struct {
	entries     map[shop.Query][]shop.Shop
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[shop.Query][]shop.Shop)}
}

func (c *fakeCache) Get(ctx context.Context, q shop.Query) ([]shop.Shop, bool) {
	items, ok := c.entries[q]
	return items, ok
}

func (c *fakeCache) Set(ctx context.Context, q shop.Query, items []shop.Shop) error {
	c.entries[q] = items
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context) error {
	c.entries = make(map[shop.Query][]shop.Shop)
	c.invalidated++
	return nil
}

type fakePublisher struct {
	subjects []string
	events   []shop.Event
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	var ev shop.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	p.subjects = append(p.subjects, subject)
	p.events = append(p.events, ev)
	return nil
}

type fakeResolver struct {
	known map[string]bool
}

func (r fakeResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	if r.known[host] {
		return []string{"192.0.2.1"}, nil
	}
	return nil, errors.New("no such host")
}

var testConfig = ManagerConfig{
	EventsTopic:   "shop.events",
	DefaultRangeM: 10000,
	MaxRangeM:     200000,
	MinSearchLen:  2,
}

var unverpackt = shop.Shop{Title: "Unverpackt", URL: "http://unverpackt.example", Lat: 49.456, Lon: 11.078}

func newTestManager(store *fakeStore, cache *fakeCache, events *fakePublisher) *Manager {
	validator := NewValidator(fakeResolver{known: map[string]bool{
		"unverpackt.example": true,
		"donate.example":     true,
	}})

	// keep typed nil pointers out of the interfaces
	var qc shop.QueryCache
	if cache != nil {
		qc = cache
	}
	var pub Publisher
	if events != nil {
		pub = events
	}
	return NewManager(store, qc, validator, pub, testConfig, zap.NewNop())
}

func TestFindClampsRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		rangeM int
		want   int
	}{
		{name: "missing", rangeM: 0, want: 10000},
		{name: "negative", rangeM: -5, want: 10000},
		{name: "within", rangeM: 2500, want: 2500},
		{name: "above max", rangeM: 500000, want: 200000},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &fakeStore{shops: []shop.Shop{unverpackt}}
			m := newTestManager(store, nil, nil)

			items, err := m.Find(context.Background(), shop.Query{RangeM: tt.rangeM})
			if err != nil || len(items) != 1 {
				t.Fatalf("Find: %v %v", items, err)
			}
			if store.ranges[0] != tt.want {
				t.Fatalf("store queried with %d want %d", store.ranges[0], tt.want)
			}
		})
	}
}

func TestFindSearch(t *testing.T) {
	t.Parallel()

	store := &fakeStore{shops: []shop.Shop{unverpackt, {Title: "Weltladen"}}}
	m := newTestManager(store, nil, nil)

	items, err := m.Find(context.Background(), shop.Query{RangeM: 1000, Term: "v"})
	if err != nil || len(items) != 0 || items == nil {
		t.Fatalf("short term: %v %v", items, err)
	}
	if len(store.searched) != 0 {
		t.Fatal("short term reached the store")
	}

	items, err = m.Find(context.Background(), shop.Query{RangeM: 1000, Term: " welt "})
	if err != nil || len(items) != 1 || items[0].Title != "Weltladen" {
		t.Fatalf("search: %v %v", items, err)
	}
	if store.searched[0] != "welt" {
		t.Fatalf("searched %q", store.searched[0])
	}
}

func TestFindEmptyIsNotNil(t *testing.T) {
	t.Parallel()

	m := newTestManager(&fakeStore{}, nil, nil)
	items, err := m.Find(context.Background(), shop.Query{RangeM: 1000})
	if err != nil || items == nil {
		t.Fatalf("Find: %v %v", items, err)
	}
}

func TestFindUsesCacheUntilWrite(t *testing.T) {
	t.Parallel()

	store := &fakeStore{shops: []shop.Shop{unverpackt}}
	cache := newFakeCache()
	m := newTestManager(store, cache, nil)
	q := shop.Query{Center: geo.LatLng{Lat: 49.4, Lng: 11.0}, RangeM: 1000}

	for i := 0; i < 3; i++ {
		if _, err := m.Find(context.Background(), q); err != nil {
			t.Fatalf("Find: %v", err)
		}
	}
	if len(store.ranges) != 1 {
		t.Fatalf("store queried %d times, want 1", len(store.ranges))
	}

	added := shop.Shop{Title: "Spendenladen", DonationURL: "https://donate.example/x", Lat: 49.4, Lon: 11.0}
	if _, err := m.Create(context.Background(), added); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if cache.invalidated != 1 {
		t.Fatalf("invalidated %d times", cache.invalidated)
	}

	items, err := m.Find(context.Background(), q)
	if err != nil || len(items) != 2 {
		t.Fatalf("after write: %v %v", items, err)
	}
}

func TestFindStoreFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	m := newTestManager(&fakeStore{fail: boom}, newFakeCache(), nil)

	if _, err := m.Find(context.Background(), shop.Query{RangeM: 1000}); !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		shop  shop.Shop
		field string
	}{
		{name: "missing title", shop: shop.Shop{URL: "http://unverpackt.example"}, field: "title"},
		{name: "blank title", shop: shop.Shop{Title: "  ", URL: "http://unverpackt.example"}, field: "title"},
		{name: "latitude", shop: shop.Shop{Title: "x", URL: "http://unverpackt.example", Lat: 91}, field: "lat"},
		{name: "longitude", shop: shop.Shop{Title: "x", URL: "http://unverpackt.example", Lon: -181}, field: "lon"},
		{name: "no links", shop: shop.Shop{Title: "x"}, field: "url"},
		{name: "scheme", shop: shop.Shop{Title: "x", URL: "ftp://unverpackt.example"}, field: "url"},
		{name: "no host", shop: shop.Shop{Title: "x", URL: "http://"}, field: "url"},
		{name: "unregistered", shop: shop.Shop{Title: "x", URL: "http://www.lol"}, field: "url"},
		{name: "donation unregistered", shop: shop.Shop{Title: "x", URL: "http://unverpackt.example", DonationURL: "https://nowhere.invalid"}, field: "donationUrl"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &fakeStore{}
			events := &fakePublisher{}
			m := newTestManager(store, nil, events)

			_, err := m.Create(context.Background(), tt.shop)
			var verr *shop.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Fatalf("err=%v want validation error on %s", err, tt.field)
			}
			if !errors.Is(err, shop.ErrValidation) {
				t.Fatal("validation error does not match ErrValidation")
			}
			if len(store.shops) != 0 || len(events.events) != 0 {
				t.Fatal("invalid shop was written")
			}
		})
	}
}

func TestCreatePublishesEvent(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	events := &fakePublisher{}
	m := newTestManager(store, nil, events)

	created, err := m.Create(context.Background(), unverpackt)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if *created != unverpackt {
		t.Fatalf("created %+v", created)
	}

	if len(events.events) != 1 || events.subjects[0] != "shop.events.created" {
		t.Fatalf("published %v", events.subjects)
	}
	ev := events.events[0]
	if ev.Type != shop.EventCreated || ev.Shop != unverpackt || ev.ID == "" || ev.Time.IsZero() {
		t.Fatalf("event %+v", ev)
	}
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	store := &fakeStore{shops: []shop.Shop{unverpackt}}
	events := &fakePublisher{}
	m := newTestManager(store, nil, events)

	changed := unverpackt
	changed.DonationURL = "https://donate.example/unverpackt"
	updated, err := m.Update(context.Background(), changed)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.DonationURL != changed.DonationURL || store.shops[0] != changed {
		t.Fatalf("updated %+v store %+v", updated, store.shops)
	}
	if len(events.subjects) != 1 || events.subjects[0] != "shop.events.updated" {
		t.Fatalf("published %v", events.subjects)
	}

	moved := unverpackt
	moved.Lat += 0.001
	if _, err := m.Update(context.Background(), moved); !errors.Is(err, shop.ErrNotFound) {
		t.Fatalf("update of unknown identity: %v", err)
	}
	if len(events.subjects) != 1 {
		t.Fatal("failed update published an event")
	}
}
