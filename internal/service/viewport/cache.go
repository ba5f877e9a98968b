// internal/service/viewport/cache.go

package viewport

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"unicode/utf8"

	"shopmap/internal/domain/geo"
	"shopmap/internal/domain/shop"
	"shopmap/internal/metrics"
)

var (
	// ErrSuperseded is returned by Fetch when a newer fetch has already
	// been applied; the response was discarded.
	ErrSuperseded = errors.New("viewport: fetch superseded by a newer request")

	// ErrNoViewport is returned by Search before any viewport was recorded
	ErrNoViewport = errors.New("viewport: no viewport recorded")
)

// Config contains configuration for the viewport cache
type Config struct {
	// DefaultRangeM is the minimum query radius in meters
	DefaultRangeM int

	// MaxRangeM is the largest radius the backend answers for. Zero means
	// no limit.
	MaxRangeM int

	// MinSearchLen is the shortest keyword sent to the backend
	MinSearchLen int
}

// Cache tracks the last fetched region and its shops, and decides when the
// map viewport has left that region.
type Cache struct {
	service shop.Service
	calc    geo.Calculator
	config  Config

	mu       sync.Mutex
	region   *geo.Bounds
	entities []shop.Shop
	viewport *geo.Bounds

	// sequence numbers of issued and applied fetches
	issued   uint64
	applied  uint64
	inflight *geo.Bounds
}

// NewCache creates a new, empty viewport cache
func NewCache(service shop.Service, calc geo.Calculator, config Config) *Cache {
	if config.MinSearchLen <= 0 {
		config.MinSearchLen = 3
	}
	return &Cache{
		service: service,
		calc:    calc,
		config:  config,
	}
}

// SearchRadius returns the query radius in meters for a viewport.
// The center-to-corner distance is inflated by 60% so that a radius query
// covers the rectangle's corners with some margin. It is never below the
// configured default nor above the configured maximum.
func (c *Cache) SearchRadius(bounds *geo.Bounds) int {
	if bounds == nil {
		return c.config.DefaultRangeM
	}

	r := c.calc.Distance(bounds.NorthEast, bounds.Center())
	r += r / 5 * 3

	radius := int(math.Trunc(r))
	if radius < c.config.DefaultRangeM {
		radius = c.config.DefaultRangeM
	}
	if c.config.MaxRangeM > 0 && radius > c.config.MaxRangeM {
		radius = c.config.MaxRangeM
	}
	return radius
}

// BoundingSquare approximates the area covered by a radius query around
// center with a square of side radius.
func (c *Cache) BoundingSquare(center geo.LatLng, radius int) geo.Bounds {
	r := float64(radius)

	ne := c.calc.Offset(center, r/2, geo.HeadingNorth)
	ne = c.calc.Offset(ne, r/2, geo.HeadingEast)
	se := c.calc.Offset(ne, r, geo.HeadingSouth)
	sw := c.calc.Offset(se, r, geo.HeadingWest)

	return geo.NewBounds(sw, ne)
}

// ShouldRefetch reports whether a viewport has a corner outside the cached
// region. A viewport covered by the newest in-flight request is treated as
// cached.
func (c *Cache) ShouldRefetch(viewport geo.Bounds) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.region != nil && c.region.ContainsBounds(viewport) {
		return false
	}
	if c.inflight != nil && c.inflight.ContainsBounds(viewport) {
		return false
	}
	return true
}

// RecordViewport stores the viewport used to scope keyword searches
func (c *Cache) RecordViewport(viewport geo.Bounds) {
	c.mu.Lock()
	defer c.mu.Unlock()

	vp := viewport
	c.viewport = &vp
}

// Fetch queries the shops around center and, on success, replaces the cached
// region and shops together. Overlapping fetches resolve by request order: a
// response older than the last applied one returns ErrSuperseded.
func (c *Cache) Fetch(ctx context.Context, center geo.LatLng, bounds *geo.Bounds) ([]shop.Shop, error) {
	radius := c.SearchRadius(bounds)
	region := c.BoundingSquare(center, radius)

	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.inflight = &region
	c.mu.Unlock()

	items, err := c.service.Find(ctx, shop.Query{Center: center, RangeM: radius})

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq == c.issued {
		c.inflight = nil
	}

	if err != nil {
		metrics.ViewportFetchesTotal.WithLabelValues("failed").Inc()
		return nil, wrapNetwork("fetch", err)
	}

	if seq <= c.applied {
		metrics.ViewportFetchesTotal.WithLabelValues("superseded").Inc()
		return nil, ErrSuperseded
	}

	c.applied = seq
	c.region = &region
	c.entities = cloneShops(items)
	metrics.ViewportFetchesTotal.WithLabelValues("applied").Inc()

	return cloneShops(items), nil
}

// Search looks up shops by keyword around the last recorded viewport.
// Terms shorter than the configured minimum yield no results.
func (c *Cache) Search(ctx context.Context, term string) ([]shop.Shop, error) {
	term = strings.TrimSpace(term)
	if utf8.RuneCountInString(term) < c.config.MinSearchLen {
		return []shop.Shop{}, nil
	}

	c.mu.Lock()
	vp := c.viewport
	c.mu.Unlock()

	if vp == nil {
		return nil, ErrNoViewport
	}

	items, err := c.service.Find(ctx, shop.Query{
		Center: vp.Center(),
		RangeM: c.SearchRadius(vp),
		Term:   term,
	})
	if err != nil {
		return nil, wrapNetwork("search", err)
	}

	return items, nil
}

// MatchKnown returns the cached shop with exactly this title and coordinate
func (c *Cache) MatchKnown(name string, lat, lng float64) (shop.Shop, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.entities {
		if s.Matches(name, lat, lng) {
			return s, true
		}
	}
	return shop.Shop{}, false
}

// Upsert replaces the cached shop with the same identity, or appends it
func (c *Cache) Upsert(s shop.Shop) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make([]shop.Shop, 0, len(c.entities)+1)
	replaced := false
	for _, existing := range c.entities {
		if existing.SameIdentity(s) {
			next = append(next, s)
			replaced = true
			continue
		}
		next = append(next, existing)
	}
	if !replaced {
		next = append(next, s)
	}
	c.entities = next
}

// Entities returns a copy of the cached shops
func (c *Cache) Entities() []shop.Shop {
	c.mu.Lock()
	defer c.mu.Unlock()

	return cloneShops(c.entities)
}

// Region returns the cached region, if any
func (c *Cache) Region() (geo.Bounds, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.region == nil {
		return geo.Bounds{}, false
	}
	return *c.region, true
}

// Viewport returns the last recorded viewport, if any
func (c *Cache) Viewport() (geo.Bounds, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.viewport == nil {
		return geo.Bounds{}, false
	}
	return *c.viewport, true
}

// Reset drops all cached state. Responses of fetches issued before the reset
// are discarded.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.region = nil
	c.entities = nil
	c.viewport = nil
	c.inflight = nil
	c.applied = c.issued
}

func wrapNetwork(op string, err error) error {
	if shop.IsNetworkError(err) {
		return err
	}
	return &shop.NetworkError{Op: op, Err: err}
}

func cloneShops(items []shop.Shop) []shop.Shop {
	out := make([]shop.Shop, len(items))
	copy(out, items)
	return out
}
