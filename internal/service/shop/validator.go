// internal/service/shop/validator.go

package shop

import (
	"context"
	"net/url"
	"strings"

	"shopmap/internal/domain/shop"
)

// HostResolver resolves host names. *net.Resolver satisfies it.
type HostResolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Validator checks shops before they are written
type Validator struct {
	resolver HostResolver
}

// NewValidator creates a validator. With a nil resolver link hosts are not
// looked up.
func NewValidator(resolver HostResolver) *Validator {
	return &Validator{resolver: resolver}
}

// Validate returns a *shop.ValidationError for the first invalid field
func (v *Validator) Validate(ctx context.Context, s shop.Shop) error {
	if strings.TrimSpace(s.Title) == "" {
		return &shop.ValidationError{Field: "title", Reason: "title is required"}
	}

	if s.Lat < -90 || s.Lat > 90 {
		return &shop.ValidationError{Field: "lat", Reason: "latitude out of range"}
	}
	if s.Lon < -180 || s.Lon > 180 {
		return &shop.ValidationError{Field: "lon", Reason: "longitude out of range"}
	}

	if s.URL == "" && s.DonationURL == "" {
		return &shop.ValidationError{Field: "url", Reason: "a shop or donation URL is required"}
	}

	if err := v.checkLink(ctx, "url", s.URL); err != nil {
		return err
	}
	return v.checkLink(ctx, "donationUrl", s.DonationURL)
}

func (v *Validator) checkLink(ctx context.Context, field, link string) error {
	if link == "" {
		return nil
	}

	u, err := url.Parse(link)
	if err != nil {
		return &shop.ValidationError{Field: field, Reason: "unreadable URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &shop.ValidationError{Field: field, Reason: "URL must use http or https"}
	}
	if u.Hostname() == "" {
		return &shop.ValidationError{Field: field, Reason: "URL has no host"}
	}

	if v.resolver == nil {
		return nil
	}
	if _, err := v.resolver.LookupHost(ctx, u.Hostname()); err != nil {
		return &shop.ValidationError{Field: field, Reason: "unregistered host " + u.Hostname()}
	}
	return nil
}
