// internal/service/shop/manager.go

package shop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shopmap/internal/domain/shop"
	"shopmap/internal/metrics"
)

// Publisher publishes shop events. *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// ManagerConfig contains configuration for the shop manager
type ManagerConfig struct {
	EventsTopic   string
	DefaultRangeM int
	MaxRangeM     int

	// MinSearchLen is the shortest keyword that is searched for
	MinSearchLen int
}

// Manager implements shop.Service on top of a store
type Manager struct {
	store     shop.Store
	cache     shop.QueryCache
	validator *Validator
	events    Publisher
	config    ManagerConfig
	logger    *zap.Logger
}

// NewManager creates a new shop manager. cache and events may be nil.
func NewManager(
	store shop.Store,
	cache shop.QueryCache,
	validator *Validator,
	events Publisher,
	config ManagerConfig,
	logger *zap.Logger,
) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = NewValidator(nil)
	}

	return &Manager{
		store:     store,
		cache:     cache,
		validator: validator,
		events:    events,
		config:    config,
		logger:    logger,
	}
}

// Find returns the shops around q.Center, filtered by q.Term when set
func (m *Manager) Find(ctx context.Context, q shop.Query) ([]shop.Shop, error) {
	q.Term = strings.TrimSpace(q.Term)
	q.RangeM = m.clampRange(q.RangeM)

	kind := "range"
	if q.Term != "" {
		kind = "search"
		if utf8.RuneCountInString(q.Term) < m.config.MinSearchLen {
			return []shop.Shop{}, nil
		}
	}

	if m.cache != nil {
		if items, ok := m.cache.Get(ctx, q); ok {
			metrics.ShopQueriesTotal.WithLabelValues(kind, "hit").Inc()
			return items, nil
		}
	}

	var items []shop.Shop
	var err error
	if kind == "search" {
		items, err = m.store.SearchInRange(ctx, q.Term, q.Center, q.RangeM)
	} else {
		items, err = m.store.FindInRange(ctx, q.Center, q.RangeM)
	}
	if err != nil {
		return nil, fmt.Errorf("error finding shops: %w", err)
	}
	if items == nil {
		items = []shop.Shop{}
	}
	metrics.ShopQueriesTotal.WithLabelValues(kind, "miss").Inc()

	if m.cache != nil {
		if err := m.cache.Set(ctx, q, items); err != nil {
			m.logger.Warn("Failed to cache shop query", zap.Error(err))
		}
	}

	m.logger.Debug("Fetched shops",
		zap.String("kind", kind),
		zap.Int("range_m", q.RangeM),
		zap.Int("count", len(items)),
	)

	return items, nil
}

// Create validates and inserts a new shop
func (m *Manager) Create(ctx context.Context, s shop.Shop) (*shop.Shop, error) {
	if err := m.validator.Validate(ctx, s); err != nil {
		metrics.ShopWritesTotal.WithLabelValues("create", "invalid").Inc()
		return nil, err
	}

	created, err := m.store.Insert(ctx, s)
	if err != nil {
		metrics.ShopWritesTotal.WithLabelValues("create", "error").Inc()
		return nil, fmt.Errorf("error inserting shop: %w", err)
	}

	m.written(ctx, *created, shop.EventCreated)
	metrics.ShopWritesTotal.WithLabelValues("create", "ok").Inc()
	m.logger.Info("Inserted shop", zap.String("title", created.Title))

	return created, nil
}

// Update validates and amends the shop with the same title and coordinate
func (m *Manager) Update(ctx context.Context, s shop.Shop) (*shop.Shop, error) {
	if err := m.validator.Validate(ctx, s); err != nil {
		metrics.ShopWritesTotal.WithLabelValues("update", "invalid").Inc()
		return nil, err
	}

	updated, err := m.store.Update(ctx, s)
	if err != nil {
		if errors.Is(err, shop.ErrNotFound) {
			metrics.ShopWritesTotal.WithLabelValues("update", "not_found").Inc()
			return nil, err
		}
		metrics.ShopWritesTotal.WithLabelValues("update", "error").Inc()
		return nil, fmt.Errorf("error updating shop: %w", err)
	}

	m.written(ctx, *updated, shop.EventUpdated)
	metrics.ShopWritesTotal.WithLabelValues("update", "ok").Inc()
	m.logger.Info("Updated shop", zap.String("title", updated.Title))

	return updated, nil
}

func (m *Manager) clampRange(rangeM int) int {
	if rangeM <= 0 {
		return m.config.DefaultRangeM
	}
	if m.config.MaxRangeM > 0 && rangeM > m.config.MaxRangeM {
		return m.config.MaxRangeM
	}
	return rangeM
}

// written invalidates cached listings and publishes the change
func (m *Manager) written(ctx context.Context, s shop.Shop, eventType shop.EventType) {
	if m.cache != nil {
		if err := m.cache.Invalidate(ctx); err != nil {
			m.logger.Warn("Failed to invalidate shop cache", zap.Error(err))
		}
	}

	if err := m.publishShopEvent(s, eventType); err != nil {
		m.logger.Warn("Failed to publish shop event",
			zap.String("type", string(eventType)),
			zap.Error(err),
		)
	}
}

// publishShopEvent publishes a shop event to the event bus
func (m *Manager) publishShopEvent(s shop.Shop, eventType shop.EventType) error {
	if m.events == nil {
		return nil
	}

	data, err := json.Marshal(shop.Event{
		ID:   uuid.New().String(),
		Type: eventType,
		Shop: s,
		Time: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("error marshaling shop event: %w", err)
	}

	topic := fmt.Sprintf("%s.%s", m.config.EventsTopic, eventType)
	return m.events.Publish(topic, data)
}
