// internal/adapter/storage/shop_store.go

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"shopmap/internal/domain/geo"
	"shopmap/internal/domain/shop"
)

// searchLimit caps keyword search results
const searchLimit = 50

const shopColumns = `
	title, url, donation_url, descr,
	ST_X(location::geometry) as lon, ST_Y(location::geometry) as lat
`

// ShopStore implements shop.Store on PostGIS
type ShopStore struct {
	db *pgxpool.Pool
}

// NewShopStore creates a new shop store
func NewShopStore(db *pgxpool.Pool) *ShopStore {
	return &ShopStore{
		db: db,
	}
}

// FindInRange returns shops within rangeM meters of center
func (s *ShopStore) FindInRange(ctx context.Context, center geo.LatLng, rangeM int) ([]shop.Shop, error) {
	query := `
		SELECT ` + shopColumns + `
		FROM shops
		WHERE ST_DWithin(location, ST_MakePoint($1, $2)::geography, $3)
	`

	rows, err := s.db.Query(ctx, query, center.Lng, center.Lat, rangeM)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	return scanShops(rows)
}

// SearchInRange returns shops within range whose title contains term
func (s *ShopStore) SearchInRange(ctx context.Context, term string, center geo.LatLng, rangeM int) ([]shop.Shop, error) {
	query := `
		SELECT ` + shopColumns + `
		FROM shops
		WHERE ST_DWithin(location, ST_MakePoint($1, $2)::geography, $3)
			AND title ILIKE $4
		ORDER BY ST_Distance(location, ST_MakePoint($1, $2)::geography)
		LIMIT $5
	`

	rows, err := s.db.Query(ctx, query, center.Lng, center.Lat, rangeM, "%"+term+"%", searchLimit)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	return scanShops(rows)
}

// Insert stores a new shop
func (s *ShopStore) Insert(ctx context.Context, sh shop.Shop) (*shop.Shop, error) {
	query := `
		INSERT INTO shops (title, url, donation_url, descr, location)
		VALUES ($1, $2, $3, $4, ST_MakePoint($5, $6)::geography)
		RETURNING ` + shopColumns

	row := s.db.QueryRow(ctx, query,
		sh.Title,
		nullable(sh.URL),
		nullable(sh.DonationURL),
		sh.Descr,
		sh.Lon,
		sh.Lat,
	)

	created, err := scanShop(row)
	if err != nil {
		return nil, fmt.Errorf("error inserting shop: %w", err)
	}

	return created, nil
}

// Update changes the links and description of the shop with the same title
// and location
func (s *ShopStore) Update(ctx context.Context, sh shop.Shop) (*shop.Shop, error) {
	query := `
		UPDATE shops
		SET url = $1, donation_url = $2, descr = $3, last_edited = now()
		WHERE title = $4
			AND ST_Equals(location::geometry, ST_SetSRID(ST_MakePoint($5, $6), 4326))
		RETURNING ` + shopColumns

	row := s.db.QueryRow(ctx, query,
		nullable(sh.URL),
		nullable(sh.DonationURL),
		sh.Descr,
		sh.Title,
		sh.Lon,
		sh.Lat,
	)

	updated, err := scanShop(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shop.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error updating shop: %w", err)
	}

	return updated, nil
}

func scanShops(rows pgx.Rows) ([]shop.Shop, error) {
	shops := []shop.Shop{}
	for rows.Next() {
		sh, err := scanShop(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning shop: %w", err)
		}
		shops = append(shops, *sh)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shops: %w", err)
	}

	return shops, nil
}

func scanShop(row pgx.Row) (*shop.Shop, error) {
	var sh shop.Shop
	var url, donationURL *string

	if err := row.Scan(&sh.Title, &url, &donationURL, &sh.Descr, &sh.Lon, &sh.Lat); err != nil {
		return nil, err
	}

	sh.URL = stringValue(url)
	sh.DonationURL = stringValue(donationURL)

	return &sh, nil
}

// nullable maps the empty string to SQL NULL
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
