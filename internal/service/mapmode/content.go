// internal/service/mapmode/content.go

package mapmode

import (
	"strings"

	"shopmap/internal/domain/shop"
)

// ShowContent is the read-only popup fragment
type ShowContent struct {
	shop shop.Shop
}

func (c *ShowContent) Title() string {
	return c.shop.Title
}

// SetShop replaces the presented shop
func (c *ShowContent) SetShop(s shop.Shop) {
	c.shop = s
}

// Shop returns the presented shop
func (c *ShowContent) Shop() shop.Shop {
	return c.shop
}

// Link returns the shop's website
func (c *ShowContent) Link() string {
	return c.shop.URL
}

// EditForm is the editable popup fragment. It targets either a known shop
// (update) or an external place (insert).
type EditForm struct {
	title string
	shop  *shop.Shop
	place *Place
	url   string
}

func (f *EditForm) Title() string {
	return f.title
}

// SetShop targets an existing shop and prefills its URL
func (f *EditForm) SetShop(s shop.Shop) {
	f.Reset()
	f.shop = &s
	f.title = s.Title
	f.url = s.URL
}

// SetPlace targets an external place for insertion
func (f *EditForm) SetPlace(p Place) {
	f.Reset()
	f.place = &p
	f.title = p.Name
}

// SetURL sets the URL field
func (f *EditForm) SetURL(url string) {
	f.url = url
}

// URL returns the URL field as entered
func (f *EditForm) URL() string {
	return f.url
}

// Target returns the shop being edited, or the place being added
func (f *EditForm) Target() (*shop.Shop, *Place) {
	return f.shop, f.place
}

// Reset clears the target and all fields
func (f *EditForm) Reset() {
	f.title = ""
	f.shop = nil
	f.place = nil
	f.url = ""
}

// Validate checks the form without touching the network
func (f *EditForm) Validate() error {
	if f.shop == nil && f.place == nil {
		return &shop.ValidationError{Field: "target", Reason: "no shop or place selected"}
	}
	if strings.TrimSpace(f.url) == "" {
		return &shop.ValidationError{Field: "url", Reason: "the shop URL is missing"}
	}
	return nil
}

// Request builds the shop to submit and reports whether it is an update
func (f *EditForm) Request() (shop.Shop, bool, error) {
	if err := f.Validate(); err != nil {
		return shop.Shop{}, false, err
	}

	url := normalizeURL(strings.TrimSpace(f.url))
	if f.shop != nil {
		s := *f.shop
		s.URL = url
		return s, true, nil
	}

	return shop.Shop{
		Title: f.place.Name,
		URL:   url,
		Lat:   f.place.Location.Lat,
		Lon:   f.place.Location.Lng,
	}, false, nil
}

func normalizeURL(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return "http://" + url
}
